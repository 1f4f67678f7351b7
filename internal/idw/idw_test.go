package idw

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid(n int) []Sample {
	out := []Sample{}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, Sample{S: float64(i), N: float64(j), Z: float64(i*10 + j)})
		}
	}
	return out
}

func TestExactOnSample(t *testing.T) {
	pts := grid(6)
	e, err := New(pts, DefaultParams())
	require.NoError(t, err)

	for _, s := range pts {
		assert.Equal(t, s.Z, e.Estimate(Point{S: s.S, N: s.N}))
	}
}

func TestShortfallUsesAll(t *testing.T) {
	pts := []Sample{
		{S: 0, N: 0, Z: 10},
		{S: 2, N: 0, Z: 20},
		{S: 0, N: 2, Z: 30},
	}
	e, err := New(pts, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 3, e.Len())

	// (1, 1) is sqrt(2) from the first & sqrt(2) from the others too
	got := e.Estimate(Point{S: 1, N: 1})
	assert.InDelta(t, 20.0, got, 1e-9)

	// weights 1/d^2: d^2 = 0.25, 2.25, 4.25
	got = e.Estimate(Point{S: 0.5, N: 0})
	w := []float64{1 / 0.25, 1 / 2.25, 1 / 4.25}
	want := (w[0]*10 + w[1]*20 + w[2]*30) / (w[0] + w[1] + w[2])
	assert.InDelta(t, want, got, 1e-9)
}

func TestNeighbourLimit(t *testing.T) {
	pts := []Sample{
		{S: 0, N: 0, Z: 0},
		{S: 1, N: 0, Z: 100},
		{S: 10, N: 0, Z: 1000},
	}
	p := DefaultParams()
	p.Neighbors = 2

	e, err := New(pts, p)
	require.NoError(t, err)

	// midway between the two near samples; the far one is excluded
	assert.InDelta(t, 50.0, e.Estimate(Point{S: 0.5, N: 0}), 1e-9)
}

func TestNeighbourTiesResolveByIndex(t *testing.T) {
	// four samples on a circle around the origin, one neighbour allowed
	pts := []Sample{
		{S: 0, N: 1, Z: 1},
		{S: 1, N: 0, Z: 2},
		{S: 0, N: -1, Z: 3},
		{S: -1, N: 0, Z: 4},
	}
	p := DefaultParams()
	p.Neighbors = 1

	e, err := New(pts, p)
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.Estimate(Point{}))
}

func TestAnisotropy(t *testing.T) {
	pts := []Sample{
		{S: 10, N: 0, Z: 100}, // along the curve
		{S: 0, N: 5, Z: 0},    // across it
	}

	iso, err := New(pts, DefaultParams())
	require.NoError(t, err)
	// across sample is nearer without scaling
	assert.Less(t, iso.Estimate(Point{}), 50.0)

	p := DefaultParams()
	p.ScaleS = 10
	aniso, err := New(pts, p)
	require.NoError(t, err)
	// with s compressed 10x the along-curve sample is now nearer
	assert.Greater(t, aniso.Estimate(Point{}), 50.0)
}

func TestEstimateAllMatchesSerial(t *testing.T) {
	e, err := New(grid(8), DefaultParams())
	require.NoError(t, err)

	qs := []Point{}
	for i := 0; i < 50; i++ {
		qs = append(qs, Point{S: float64(i) * 0.13, N: float64(i%7) * 0.9})
	}

	serial := e.EstimateAll(qs, 1)
	parallel := e.EstimateAll(qs, 8)
	require.Len(t, parallel, len(qs))
	assert.Equal(t, serial, parallel)
	for i, q := range qs {
		assert.Equal(t, e.Estimate(q), serial[i])
	}
}

func TestNoSamples(t *testing.T) {
	_, err := New(nil, DefaultParams())
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestParseParams(t *testing.T) {
	base := DefaultParams()

	cases := []struct {
		name string
		in   string
		want Params
	}{
		{"empty", "", base},
		{"whitespace", "  ", base},
		{"bare number", "10", Params{ScaleS: 10, ScaleN: 1, Power: 2, Neighbors: 16}},
		{"json", `{"ellipsivity": 4}`, Params{ScaleS: 4, ScaleN: 1, Power: 2, Neighbors: 16}},
		{"yaml", "power: 3\nneighbors: 8", Params{ScaleS: 1, ScaleN: 1, Power: 3, Neighbors: 8}},
		{"explicit scales win", "{ellipsivity: 4, scale_s: 6, scale_n: 2}", Params{ScaleS: 6, ScaleN: 2, Power: 2, Neighbors: 16}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseParams(c.in, base)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseParamsInvalid(t *testing.T) {
	for _, in := range []string{
		"abc",
		"-1",
		"0",
		"{unknown: 1}",
		"{power: -2}",
		"{neighbors: 0}",
		"[1, 2]",
		"{ellipsivity: [1]}",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseParams(in, DefaultParams())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParams))
		})
	}
}
