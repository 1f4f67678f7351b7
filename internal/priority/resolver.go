package priority

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"

	"github.com/voidshard/hydrosurvey/internal/geometry"
	"github.com/voidshard/hydrosurvey/internal/mesh"
)

var (
	// ErrInvalidZoneConfig implies a zone is missing something or is malformed.
	ErrInvalidZoneConfig = errors.New("invalid zone configuration")
)

// Zone is the part of a zone definition that decides which lattice points
// it owns.
type Zone struct {
	ID       string
	Priority int
	Spacing  float64
	Polygon  geom.Polygon
}

// Resolved is a zone with the lattice points it won.
type Resolved struct {
	Zone    Zone
	Lattice *mesh.Lattice

	// Claimed is how many lattice points were dropped because a zone with a
	// lower priority number already covers them.
	Claimed int

	// EffectiveArea is the area of the zone polygon outside of every zone
	// that takes precedence over it.
	EffectiveArea float64
}

// Resolve meshes each zone & removes lattice points that fall within zones
// of strictly higher precedence (lower priority number). Zones sharing a
// priority do not take points from each other.
//
// Results are in (priority, natural ID) order. Any invalid zone aborts the
// whole resolution.
func Resolve(zones []Zone) ([]*Resolved, error) {
	err := validate(zones)
	if err != nil {
		return nil, err
	}

	order := make([]Zone, len(zones))
	copy(order, zones)
	sortZones(order)

	claimed := geometry.NewRegion()
	level := []geom.Polygon{}
	out := make([]*Resolved, 0, len(order))

	for i, z := range order {
		if i > 0 && z.Priority != order[i-1].Priority {
			// a priority level is finished; everything in it now takes
			// precedence over what follows
			for _, poly := range level {
				claimed.Add(poly)
			}
			level = level[:0]
		}

		lattice, err := mesh.New(z.Polygon, z.Spacing)
		if err != nil {
			return nil, errors.Wrapf(err, "zone %s", z.ID)
		}

		r := &Resolved{Zone: z, Lattice: lattice}
		if claimed.Empty() {
			r.EffectiveArea = math.Abs(z.Polygon.Area())
		} else {
			r.Claimed = lattice.Drop(claimed.Contains)
			r.EffectiveArea = math.Abs(claimed.Subtract(z.Polygon).Area())
		}

		out = append(out, r)
		level = append(level, z.Polygon)
	}

	return out, nil
}

// validate checks zone settings that do not need geometry
func validate(zones []Zone) error {
	seen := map[string]bool{}
	for _, z := range zones {
		if z.ID == "" {
			return errors.Wrap(ErrInvalidZoneConfig, "zone has no id")
		}
		if seen[z.ID] {
			return errors.Wrapf(ErrInvalidZoneConfig, "duplicate zone id %s", z.ID)
		}
		seen[z.ID] = true

		if !(z.Spacing > 0) || math.IsInf(z.Spacing, 0) {
			return errors.Wrapf(ErrInvalidZoneConfig, "zone %s has invalid grid spacing %v", z.ID, z.Spacing)
		}
	}
	return nil
}
