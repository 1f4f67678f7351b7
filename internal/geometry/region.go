package geometry

import (
	"math"

	"github.com/ctessum/geom"
)

type regionKind int

const (
	regionEmpty regionKind = iota
	regionSingle
	regionUnion
)

// Region is a running union of polygons, ie. the area already claimed by
// some set of zones.
//
// Membership is answered against the polygons that were folded in, rather
// than the clipped union, so points on a shared edge resolve exactly the same
// way the original polygon would resolve them.
type Region struct {
	kind  regionKind
	union geom.Polygon
	parts []geom.Polygon
	boxes []*geom.Bounds
}

// NewRegion returns an empty Region.
func NewRegion() *Region {
	return &Region{kind: regionEmpty}
}

// Empty returns if nothing has been added to the region.
func (r *Region) Empty() bool {
	return r.kind == regionEmpty
}

// Add folds poly into the region.
func (r *Region) Add(poly geom.Polygon) {
	if len(poly) == 0 {
		return
	}
	r.parts = append(r.parts, poly)
	r.boxes = append(r.boxes, poly.Bounds())

	switch r.kind {
	case regionEmpty:
		r.union = poly
		r.kind = regionSingle
	default:
		r.union = polygonOf(r.union.Union(poly))
		r.kind = regionUnion
	}
}

// Contains returns if pt falls inside (or on the edge of) any polygon added
// to the region.
func (r *Region) Contains(pt geom.Point) bool {
	for i, part := range r.parts {
		if !InBounds(r.boxes[i], pt) {
			continue
		}
		if Contains(part, pt) {
			return true
		}
	}
	return false
}

// Polygon returns the union of everything added so far (nil if empty).
func (r *Region) Polygon() geom.Polygon {
	return r.union
}

// Subtract returns poly minus the region.
func (r *Region) Subtract(poly geom.Polygon) geom.Polygon {
	if r.kind == regionEmpty {
		return poly
	}
	return polygonOf(poly.Difference(r.union))
}

// Area returns the area of the region.
func (r *Region) Area() float64 {
	if r.kind == regionEmpty {
		return 0
	}
	return math.Abs(r.union.Area())
}

// polygonOf flattens the result of a clipping operation back into a single
// polygon. Parts of a multi polygon keep their rings.
func polygonOf(p geom.Polygonal) geom.Polygon {
	switch t := p.(type) {
	case geom.Polygon:
		return t
	case geom.MultiPolygon:
		out := geom.Polygon{}
		for _, part := range t {
			out = append(out, part...)
		}
		return out
	}
	out := geom.Polygon{}
	for _, part := range p.Polygons() {
		out = append(out, part...)
	}
	return out
}
