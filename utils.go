package hydrosurvey

import (
	"math"
	"sort"
	"strings"

	"github.com/ctessum/geom"

	"github.com/voidshard/hydrosurvey/internal/geometry"
	"github.com/voidshard/hydrosurvey/internal/priority"
)

// surveyEntry is a survey point held in the candidate index
type surveyEntry struct {
	geom.Point
	Z         float64
	Index     int
	Synthetic bool
}

// resolveCRS returns the coordinate system a run works in.
// An empty survey CRS takes the boundary's.
func resolveCRS(boundary, survey string) (string, error) {
	b, s := strings.TrimSpace(boundary), strings.TrimSpace(survey)
	switch {
	case s == "":
		return b, nil
	case b == "":
		return s, nil
	case strings.EqualFold(b, s):
		return b, nil
	}
	return "", ErrCoordinateSystemMismatch
}

// elevation returns the survey elevation for the given surface, if it has one
func elevation(p SurveyPoint, surface Surface) (float64, bool) {
	z := p.Surface
	if surface == SurfacePreimpoundment {
		if p.Preimpoundment == nil {
			return 0, false
		}
		z = *p.Preimpoundment
	}
	if math.IsNaN(z) || math.IsInf(z, 0) || math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return 0, false
	}
	return z, true
}

// boundaryRing returns a synthetic survey point on every (distinct) vertex of
// the given polygon
func boundaryRing(poly geom.Polygon, z float64) []SurveyPoint {
	verts := geometry.RingVertices(poly)
	out := make([]SurveyPoint, len(verts))
	for i, v := range verts {
		pre := z
		out[i] = SurveyPoint{X: v.X, Y: v.Y, Surface: z, Preimpoundment: &pre, Synthetic: true}
	}
	return out
}

// sortZoneResults orders results by natural zone ID
func sortZoneResults(in []*zoneResult) {
	sort.SliceStable(in, func(i, j int) bool {
		return priority.IDLess(in[i].zoneID, in[j].zoneID)
	})
}
