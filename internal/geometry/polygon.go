package geometry

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"
)

// edgeTolerance is how far (in map units) a point may sit from a polygon edge
// and still be considered "on" it.
const edgeTolerance = 1e-9

var (
	// ErrInvalidGeometry implies a polygon or curve is malformed or degenerate.
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// Contains returns if the polygon contains the given point.
// Points on an edge (of any ring) count as contained. Rings are combined with
// the even-odd rule so holes are honoured regardless of winding order.
func Contains(poly geom.Polygon, pt geom.Point) bool {
	inside := false
	for _, ring := range poly {
		n := len(ring)
		if n < 3 {
			continue
		}
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := ring[j], ring[i]
			if onSegment(pt, a, b) {
				return true
			}
			if intersectsWithRaycast(pt, a, b) {
				inside = !inside
			}
		}
	}
	return inside
}

// intersectsWithRaycast returns if a ray cast from pt towards +x crosses the
// edge drawn between start and end.
func intersectsWithRaycast(pt, start, end geom.Point) bool {
	if (start.Y > pt.Y) == (end.Y > pt.Y) {
		return false
	}
	x := start.X + (pt.Y-start.Y)*(end.X-start.X)/(end.Y-start.Y)
	return pt.X < x
}

// onSegment returns if p lies on the segment a-b (within edgeTolerance).
func onSegment(p, a, b geom.Point) bool {
	if p.X < math.Min(a.X, b.X)-edgeTolerance || p.X > math.Max(a.X, b.X)+edgeTolerance {
		return false
	}
	if p.Y < math.Min(a.Y, b.Y)-edgeTolerance || p.Y > math.Max(a.Y, b.Y)+edgeTolerance {
		return false
	}
	l := math.Hypot(b.X-a.X, b.Y-a.Y)
	if l == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y) <= edgeTolerance
	}
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	return math.Abs(cross)/l <= edgeTolerance
}

// Validate returns ErrInvalidGeometry if the polygon is empty, has a ring with
// fewer than 3 distinct vertices, has non-finite coordinates or zero area.
func Validate(poly geom.Polygon) error {
	if len(poly) == 0 {
		return errors.Wrap(ErrInvalidGeometry, "polygon has no rings")
	}
	for i, ring := range poly {
		for _, p := range ring {
			if !finite(p) {
				return errors.Wrapf(ErrInvalidGeometry, "ring %d has non-finite vertex (%v, %v)", i, p.X, p.Y)
			}
		}
		if n := len(distinct(ring)); n < 3 {
			return errors.Wrapf(ErrInvalidGeometry, "ring %d has %d distinct vertices", i, n)
		}
	}
	if area := math.Abs(poly.Area()); !(area > 0) {
		return errors.Wrap(ErrInvalidGeometry, "polygon has zero area")
	}
	return nil
}

// RingVertices returns the vertices of every ring in ring order, without the
// closing vertex of closed rings and without consecutive duplicates.
func RingVertices(poly geom.Polygon) []geom.Point {
	out := []geom.Point{}
	for _, ring := range poly {
		out = append(out, distinct(ring)...)
	}
	return out
}

// DistanceTo returns the distance from pt to the polygon, 0 if pt is inside.
func DistanceTo(poly geom.Polygon, pt geom.Point) float64 {
	if Contains(poly, pt) {
		return 0
	}
	best := math.Inf(1)
	for _, ring := range poly {
		n := len(ring)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			d := segmentDistance(pt, ring[j], ring[i])
			if d < best {
				best = d
			}
		}
	}
	return best
}

// ExpandBounds returns a copy of b grown by d on every side.
func ExpandBounds(b *geom.Bounds, d float64) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.Min.X - d, Y: b.Min.Y - d},
		Max: geom.Point{X: b.Max.X + d, Y: b.Max.Y + d},
	}
}

// InBounds returns if pt sits inside (or on the edge of) b.
func InBounds(b *geom.Bounds, pt geom.Point) bool {
	return pt.X >= b.Min.X && pt.X <= b.Max.X && pt.Y >= b.Min.Y && pt.Y <= b.Max.Y
}

// segmentDistance returns the shortest distance from p to the segment a-b.
func segmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// distinct drops consecutive duplicate vertices & the closing vertex of a ring.
func distinct(ring []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func finite(p geom.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
