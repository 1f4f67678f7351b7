package geometry

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, size float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x0 + size, Y: y0},
		{X: x0 + size, Y: y0 + size},
		{X: x0, Y: y0 + size},
		{X: x0, Y: y0},
	}}
}

func TestContains(t *testing.T) {
	sq := square(0, 0, 10)

	cases := []struct {
		name string
		pt   geom.Point
		want bool
	}{
		{"centre", geom.Point{X: 5, Y: 5}, true},
		{"corner", geom.Point{X: 0, Y: 0}, true},
		{"far corner", geom.Point{X: 10, Y: 10}, true},
		{"bottom edge", geom.Point{X: 5, Y: 0}, true},
		{"right edge", geom.Point{X: 10, Y: 3}, true},
		{"outside left", geom.Point{X: -0.1, Y: 5}, false},
		{"outside above", geom.Point{X: 5, Y: 10.5}, false},
		{"level with vertex", geom.Point{X: 20, Y: 10}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Contains(sq, c.pt))
		})
	}
}

func TestContainsHole(t *testing.T) {
	poly := geom.Polygon{
		square(0, 0, 10)[0],
		square(4, 4, 2)[0],
	}

	assert.True(t, Contains(poly, geom.Point{X: 1, Y: 1}))
	assert.False(t, Contains(poly, geom.Point{X: 5, Y: 5}))
	// the edge of a hole is still part of the polygon
	assert.True(t, Contains(poly, geom.Point{X: 4, Y: 5}))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(square(0, 0, 1)))

	bad := map[string]geom.Polygon{
		"empty":     {},
		"two verts": {{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}},
		"collinear": {{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 0}}},
		"nan":       {{{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}},
	}
	for name, poly := range bad {
		t.Run(name, func(t *testing.T) {
			err := Validate(poly)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeometry))
		})
	}
}

func TestDensify(t *testing.T) {
	line := []geom.Point{{X: 0, Y: 0}, {X: 25, Y: 0}, {X: 25, Y: 0}, {X: 25, Y: 10}}

	dense, err := Densify(line, 10)
	require.NoError(t, err)

	want := []geom.Point{
		{X: 0, Y: 0},
		{X: 25.0 / 3, Y: 0},
		{X: 50.0 / 3, Y: 0},
		{X: 25, Y: 0},
		{X: 25, Y: 10},
	}
	require.Len(t, dense, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, dense[i].X, 1e-9)
		assert.InDelta(t, want[i].Y, dense[i].Y, 1e-9)
	}

	for i := 1; i < len(dense); i++ {
		l := math.Hypot(dense[i].X-dense[i-1].X, dense[i].Y-dense[i-1].Y)
		assert.LessOrEqual(t, l, 10.0+1e-9)
	}

	_, err = Densify(line, 0)
	assert.True(t, errors.Is(err, ErrInvalidGeometry))
}

func TestDensifyPolygonClosesRing(t *testing.T) {
	open := geom.Polygon{{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20}}}

	dense, err := DensifyPolygon(open, 10)
	require.NoError(t, err)
	require.Len(t, dense, 1)

	ring := dense[0]
	assert.Equal(t, ring[0], ring[len(ring)-1])
	// 4 sides of 20 split into 2 pieces each, plus the closing vertex
	assert.Len(t, ring, 9)
	assert.Len(t, RingVertices(dense), 8)
}

func TestDistanceTo(t *testing.T) {
	sq := square(0, 0, 10)

	assert.Equal(t, 0.0, DistanceTo(sq, geom.Point{X: 5, Y: 5}))
	assert.InDelta(t, 3.0, DistanceTo(sq, geom.Point{X: 13, Y: 5}), 1e-12)
	assert.InDelta(t, 5.0, DistanceTo(sq, geom.Point{X: 13, Y: 14}), 1e-12)
}

func TestRegion(t *testing.T) {
	r := NewRegion()
	assert.True(t, r.Empty())
	assert.False(t, r.Contains(geom.Point{X: 1, Y: 1}))
	assert.Equal(t, 0.0, r.Area())

	a := square(0, 0, 10)
	r.Add(a)
	assert.False(t, r.Empty())
	assert.True(t, r.Contains(geom.Point{X: 10, Y: 10}))
	assert.False(t, r.Contains(geom.Point{X: 15, Y: 5}))
	assert.InDelta(t, 100, r.Area(), 1e-9)

	r.Add(square(5, 2, 10))
	assert.True(t, r.Contains(geom.Point{X: 15, Y: 5}))
	assert.InDelta(t, 100+100-40, r.Area(), 1e-6)

	rest := r.Subtract(square(-10, -10, 40))
	assert.InDelta(t, 1600-160, math.Abs(rest.Area()), 1e-6)
}

func TestRegionSubtractAfterUnions(t *testing.T) {
	r := NewRegion()
	r.Add(square(0, 0, 10))
	r.Add(square(20, 0, 10)) // disjoint, union has two outer rings
	assert.InDelta(t, 200, r.Area(), 1e-6)
	assert.Len(t, r.Polygon(), 2)

	rest := r.Subtract(square(5, 0, 20))
	assert.InDelta(t, 100, math.Abs(rest.Area()), 1e-6)
	assert.True(t, Contains(rest, geom.Point{X: 15, Y: 5}))
	assert.False(t, Contains(rest, geom.Point{X: 7, Y: 5}))
}
