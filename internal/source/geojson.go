package source

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

func readGeoJSON(fpath string, columns []string) (*Layer, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", fpath)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", fpath)
	}

	l := &Layer{CRS: namedCRS(fc)}
	for i, feat := range fc.Features {
		g, err := fromOrb(feat.Geometry)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d of %s", i, fpath)
		}
		f := Feature{Geom: g, Fields: map[string]string{}}
		for _, c := range columns {
			v, ok := feat.Properties[c]
			if !ok {
				return nil, errors.Wrapf(ErrMissingColumn, "%s in feature %d of %s", c, i, fpath)
			}
			f.Fields[c] = property(v)
		}
		l.Features = append(l.Features, f)
	}
	return l, nil
}

// namedCRS digs out the old style {"crs": {"type": "name", "properties":
// {"name": ...}}} member, which is what most GIS tools still write.
func namedCRS(fc *geojson.FeatureCollection) string {
	crs, ok := fc.ExtraMembers["crs"].(map[string]interface{})
	if !ok {
		return ""
	}
	props, ok := crs["properties"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}

func property(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func fromOrb(g orb.Geometry) (geom.Geom, error) {
	switch t := g.(type) {
	case orb.Point:
		return geom.Point{X: t[0], Y: t[1]}, nil
	case orb.LineString:
		return geom.LineString(points(t)), nil
	case orb.MultiLineString:
		out := make(geom.MultiLineString, len(t))
		for i, ls := range t {
			out[i] = points(ls)
		}
		return out, nil
	case orb.Polygon:
		return polygon(t), nil
	case orb.MultiPolygon:
		out := make(geom.MultiPolygon, len(t))
		for i, p := range t {
			out[i] = polygon(p)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrGeometryType, "%T", g)
}

func polygon(p orb.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, r := range p {
		out[i] = points(r)
	}
	return out
}

func points(in []orb.Point) []geom.Point {
	out := make([]geom.Point, len(in))
	for i, p := range in {
		out[i] = geom.Point{X: p[0], Y: p[1]}
	}
	return out
}
