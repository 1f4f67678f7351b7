package hydrosurvey

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseZone converts a raw attribute row into a Zone.
// Priority must be a whole number (a float with no fractional part such as
// "2.0" is accepted, attribute tables often store them that way) and
// Gridspace a positive number.
func ParseZone(r ZoneRecord) (Zone, error) {
	z := Zone{
		ID:      strings.TrimSpace(r.ID),
		Params:  r.Params,
		Polygon: r.Polygon,
	}
	if z.ID == "" {
		return z, errors.Wrap(ErrInvalidZoneConfig, "zone has no id")
	}

	pf, err := strconv.ParseFloat(strings.TrimSpace(r.Priority), 64)
	if err != nil {
		return z, errors.Wrapf(ErrInvalidZoneConfig, "zone %s: priority %q is not a number", z.ID, r.Priority)
	}
	if pf != math.Trunc(pf) || math.IsInf(pf, 0) || math.Abs(pf) > math.MaxInt32 {
		return z, errors.Wrapf(ErrInvalidZoneConfig, "zone %s: priority %q is not a whole number", z.ID, r.Priority)
	}
	z.Priority = int(pf)

	z.Gridspace, err = strconv.ParseFloat(strings.TrimSpace(r.Gridspace), 64)
	if err != nil {
		return z, errors.Wrapf(ErrInvalidZoneConfig, "zone %s: gridspace %q is not a number", z.ID, r.Gridspace)
	}
	if !positive(z.Gridspace) {
		return z, errors.Wrapf(ErrInvalidZoneConfig, "zone %s: gridspace must be > 0, got %v", z.ID, z.Gridspace)
	}

	z.Method, err = ParseMethod(r.Method)
	if err != nil {
		return z, errors.Wrapf(err, "zone %s", z.ID)
	}

	return z, nil
}

// ParseZones converts every record, stopping at the first bad one.
func ParseZones(in []ZoneRecord) ([]Zone, error) {
	out := make([]Zone, 0, len(in))
	for _, r := range in {
		z, err := ParseZone(r)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, nil
}
