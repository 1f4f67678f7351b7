package source

import (
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"

	"github.com/voidshard/hydrosurvey"
)

// ZoneColumns names the attribute columns of an interpolation polygon layer.
// Method & Params are optional; when unset every zone gets the default
// method with default params.
type ZoneColumns struct {
	ID        string
	Priority  string
	Gridspace string
	Method    string
	Params    string
}

// LoadBoundary reads the lake outline. Every polygon in the layer becomes
// part of the boundary; the elevation is read from the first feature.
func LoadBoundary(fpath, elevationColumn string) (hydrosurvey.Boundary, error) {
	b := hydrosurvey.Boundary{}

	l, err := ReadLayer(fpath, elevationColumn)
	if err != nil {
		return b, err
	}
	b.CRS = l.CRS

	b.Polygon = geom.Polygon{}
	for i := range l.Features {
		p, err := l.Features[i].Polygon()
		if err != nil {
			return b, errors.Wrapf(err, "boundary feature %d", i)
		}
		b.Polygon = append(b.Polygon, p...)
	}

	raw := l.Features[0].Fields[elevationColumn]
	b.Elevation, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return b, errors.Wrapf(hydrosurvey.ErrInvalidGeometry, "boundary elevation %q is not a number", raw)
	}
	return b, nil
}

// LoadCenterlines reads guide curves keyed by the zone they belong to,
// returning them along with the layer's CRS.
func LoadCenterlines(fpath, idColumn string) (map[string]hydrosurvey.Centerline, string, error) {
	l, err := ReadLayer(fpath, idColumn)
	if err != nil {
		return nil, "", err
	}

	out := map[string]hydrosurvey.Centerline{}
	for i := range l.Features {
		id := strings.TrimSpace(l.Features[i].Fields[idColumn])
		if id == "" {
			return nil, "", errors.Wrapf(hydrosurvey.ErrInvalidZoneConfig, "centerline %d has no zone id", i)
		}
		if _, ok := out[id]; ok {
			return nil, "", errors.Wrapf(hydrosurvey.ErrInvalidZoneConfig, "zone %s has more than one centerline", id)
		}
		line, err := l.Features[i].Line()
		if err != nil {
			return nil, "", errors.Wrapf(err, "centerline for zone %s", id)
		}
		out[id] = hydrosurvey.Centerline{ZoneID: id, Line: line}
	}
	return out, l.CRS, nil
}

// LoadZones reads interpolation polygons as unparsed records, returning them
// along with the layer's CRS. See hydrosurvey.ParseZones.
func LoadZones(fpath string, cols ZoneColumns) ([]hydrosurvey.ZoneRecord, string, error) {
	want := []string{cols.ID, cols.Priority, cols.Gridspace}
	for _, c := range []string{cols.Method, cols.Params} {
		if c != "" {
			want = append(want, c)
		}
	}
	for _, c := range want[:3] {
		if c == "" {
			return nil, "", errors.Wrap(ErrMissingColumn, "zone id, priority & gridspace columns are required")
		}
	}

	l, err := ReadLayer(fpath, want...)
	if err != nil {
		return nil, "", err
	}

	out := make([]hydrosurvey.ZoneRecord, len(l.Features))
	for i := range l.Features {
		f := &l.Features[i]
		poly, err := f.Polygon()
		if err != nil {
			return nil, "", errors.Wrapf(err, "zone %s", f.Fields[cols.ID])
		}
		out[i] = hydrosurvey.ZoneRecord{
			ID:        f.Fields[cols.ID],
			Priority:  f.Fields[cols.Priority],
			Gridspace: f.Fields[cols.Gridspace],
			Polygon:   poly,
		}
		if cols.Method != "" {
			out[i].Method = f.Fields[cols.Method]
		}
		if cols.Params != "" {
			out[i].Params = f.Fields[cols.Params]
		}
	}
	return out, l.CRS, nil
}
