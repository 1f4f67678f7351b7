package hydrosurvey

import (
	"github.com/ctessum/geom"
)

// Boundary is the lake outline at full pool.
type Boundary struct {
	Polygon geom.Polygon

	// Elevation of the water surface along the boundary
	Elevation float64

	// CRS is an identifier or proj4 string for the coordinate system the
	// boundary (and every zone & centerline) is drawn in
	CRS string
}

// Centerline is a guide curve for a zone. Distances in the zone are measured
// along & across it.
type Centerline struct {
	ZoneID string
	Line   []geom.Point
}

// Zone is a priority polygon; a local interpolation neighbourhood with its
// own grid spacing & method.
type Zone struct {
	ID string

	// Priority decides ownership where zones overlap; lower numbers win
	Priority int

	// Gridspace is the spacing of the target lattice inside the zone
	Gridspace float64

	// Method of interpolation
	Method Method

	// Params is the method parameter string, see idw.ParseParams
	Params string

	Polygon geom.Polygon
}

// ZoneRecord is a zone as read from an attribute table, before any field is
// parsed.
type ZoneRecord struct {
	ID        string
	Priority  string
	Gridspace string
	Method    string
	Params    string
	Polygon   geom.Polygon
}

// SurveyPoint is a single bathymetric sounding.
type SurveyPoint struct {
	X float64
	Y float64

	// Surface is the current lake bottom elevation
	Surface float64

	// Preimpoundment is the elevation before the reservoir filled, where known
	Preimpoundment *float64 `json:",omitempty"`

	// Synthetic is set on points we added ourselves (ie. the boundary ring)
	Synthetic bool `json:",omitempty"`
}

// SurveySet is every survey point along with the coordinate system they're
// recorded in. An empty CRS is taken to match the boundary.
type SurveySet struct {
	CRS    string
	Points []SurveyPoint
}

// TargetPoint is a lattice point inside exactly one zone.
type TargetPoint struct {
	X         float64
	Y         float64
	ZoneID    string
	Elevation float64
}

// Input is everything a run needs, already parsed into memory.
type Input struct {
	Boundary    Boundary
	Centerlines map[string]Centerline
	Zones       []Zone
	Survey      SurveySet
}

// Result of a run.
type Result struct {
	RunID  string
	Points []TargetPoint
	Report *RunReport
}

// RunReport details what happened to each zone.
type RunReport struct {
	Zones    []ZoneReport
	Failures []ZoneFailure `json:",omitempty"`
}

// ZoneReport summarises a zone that interpolated successfully.
type ZoneReport struct {
	ZoneID string
	Method Method

	// Points is the number of target points written
	Points int

	// Claimed is the number of lattice points given up to higher priority zones
	Claimed int

	// Clipped is the number of lattice points outside the lake boundary
	Clipped int

	// Candidates is the number of survey points (including boundary ring
	// points) the zone interpolated from
	Candidates int

	// EffectiveArea is the zone's area once higher priority zones are removed
	EffectiveArea float64
}

// ZoneFailure records a zone that could not be interpolated & why.
type ZoneFailure struct {
	ZoneID string
	Stage  Stage
	Err    error
}

// Failed returns if the given zone failed.
func (r *RunReport) Failed(zoneID string) bool {
	for _, f := range r.Failures {
		if f.ZoneID == zoneID {
			return true
		}
	}
	return false
}
