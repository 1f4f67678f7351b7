package sn

import (
	"github.com/ctessum/geom"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model2d"
)

var (
	// ErrDegenerateCenterline implies a centerline has fewer than two distinct vertices.
	ErrDegenerateCenterline = errors.New("degenerate centerline")
)

// Mode decides how a point is related back to the centerline.
type Mode int

const (
	// Vertex relates a point to its nearest centerline vertex. Accuracy is
	// bounded by the densification segment length.
	Vertex Mode = iota

	// Segment projects a point onto the nearer of the two segments either side
	// of its nearest vertex.
	Segment
)

// Coord is a curve-relative coordinate.
// S is the distance along the centerline from its first vertex,
// N is the signed offset from it (positive is left of travel).
type Coord struct {
	S float64
	N float64
}

// Frame is an arc-length / offset coordinate system built on a centerline.
// A Frame is read-only once built & safe for concurrent use.
type Frame struct {
	mode     Mode
	vertices []r2.Point
	arc      []float64

	tree *model2d.CoordTree

	// lookup holds every index a coordinate appears at; closed or self
	// touching centerlines revisit vertices
	lookup map[model2d.Coord][]int
}

// NewFrame builds a Frame from an (ideally densified) centerline.
func NewFrame(line []geom.Point, mode Mode) (*Frame, error) {
	f := &Frame{
		mode:     mode,
		vertices: []r2.Point{},
		arc:      []float64{},
		lookup:   map[model2d.Coord][]int{},
	}

	coords := []model2d.Coord{}
	for _, p := range line {
		v := r2.Point{X: p.X, Y: p.Y}
		n := len(f.vertices)
		if n > 0 && f.vertices[n-1] == v {
			continue
		}

		s := 0.0
		if n > 0 {
			s = f.arc[n-1] + v.Sub(f.vertices[n-1]).Norm()
		}
		f.vertices = append(f.vertices, v)
		f.arc = append(f.arc, s)

		c := model2d.Coord{X: p.X, Y: p.Y}
		if _, ok := f.lookup[c]; !ok {
			coords = append(coords, c)
		}
		f.lookup[c] = append(f.lookup[c], n)
	}

	if len(f.vertices) < 2 {
		return nil, errors.Wrapf(ErrDegenerateCenterline, "centerline has %d distinct vertices", len(f.vertices))
	}

	f.tree = model2d.NewCoordTree(coords)
	return f, nil
}

// Length returns the total arc length of the centerline.
func (f *Frame) Length() float64 {
	return f.arc[len(f.arc)-1]
}

// Transform maps a Cartesian point into the frame.
func (f *Frame) Transform(p geom.Point) Coord {
	q := r2.Point{X: p.X, Y: p.Y}
	i := f.nearest(q)
	if f.mode == Segment {
		return f.project(q, i)
	}

	d := q.Sub(f.vertices[i])
	return Coord{S: f.arc[i], N: signed(d.Norm(), f.tangent(i), d)}
}

// TransformAll maps every point into the frame, preserving order.
func (f *Frame) TransformAll(pts []geom.Point) []Coord {
	out := make([]Coord, len(pts))
	for i, p := range pts {
		out[i] = f.Transform(p)
	}
	return out
}

// nearest returns the index of the closest centerline vertex to q. Where the
// vertex is visited more than once, the visit whose adjacent segments pass
// closest to q wins, then the earliest.
func (f *Frame) nearest(q r2.Point) int {
	found := f.tree.KNN(1, model2d.Coord{X: q.X, Y: q.Y})
	visits := f.lookup[found[0]]
	if len(visits) == 1 {
		return visits[0]
	}

	best, bestDist := visits[0], f.adjacentDist(q, visits[0])
	for _, i := range visits[1:] {
		if d := f.adjacentDist(q, i); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// adjacentDist is the distance from q to the nearer segment touching vertex i
func (f *Frame) adjacentDist(q r2.Point, i int) float64 {
	best := -1.0
	for _, a := range []int{i - 1, i} {
		b := a + 1
		if a < 0 || b >= len(f.vertices) {
			continue
		}
		seg := f.vertices[b].Sub(f.vertices[a])
		t := q.Sub(f.vertices[a]).Dot(seg) / seg.Dot(seg)
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		d := q.Sub(f.vertices[a].Add(seg.Mul(t))).Norm()
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// tangent returns the direction of travel at vertex i, using the vertices
// either side of it (one sided at the ends).
func (f *Frame) tangent(i int) r2.Point {
	lo, hi := i-1, i+1
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.vertices)-1 {
		hi = len(f.vertices) - 1
	}
	return f.vertices[hi].Sub(f.vertices[lo])
}

// project maps q onto whichever segment adjacent to vertex i is closer.
func (f *Frame) project(q r2.Point, i int) Coord {
	best := Coord{}
	bestDist := -1.0

	for _, a := range []int{i - 1, i} {
		b := a + 1
		if a < 0 || b >= len(f.vertices) {
			continue
		}
		seg := f.vertices[b].Sub(f.vertices[a])
		l2 := seg.Dot(seg)

		t := q.Sub(f.vertices[a]).Dot(seg) / l2
		if t < 0 && a > 0 {
			t = 0
		} else if t > 1 && b < len(f.vertices)-1 {
			t = 1
		}
		// t may run past either end of the curve; the offset is then extrapolated

		foot := f.vertices[a].Add(seg.Mul(t))
		d := q.Sub(foot)
		dist := d.Norm()
		if bestDist >= 0 && dist >= bestDist {
			continue
		}
		bestDist = dist
		best = Coord{S: f.arc[a] + t*(f.arc[b]-f.arc[a]), N: signed(dist, seg, d)}
	}

	return best
}

// signed gives magnitude the sign of the cross product of tangent & offset,
// positive when offset points left of tangent.
func signed(magnitude float64, tangent, offset r2.Point) float64 {
	if tangent.Cross(offset) < 0 {
		return -magnitude
	}
	return magnitude
}
