package idw

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// sample is a survey observation in scaled (s/scale_s, n/scale_n) space.
type sample struct {
	U, V  float64
	Z     float64
	Index int
}

// Compare implements kdtree.Comparable
func (p sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(sample)
	switch d {
	case 0:
		return p.U - q.U
	case 1:
		return p.V - q.V
	default:
		panic("illegal dimension")
	}
}

// Dims implements kdtree.Comparable
func (p sample) Dims() int { return 2 }

// Distance returns the squared distance between two samples.
func (p sample) Distance(c kdtree.Comparable) float64 {
	q := c.(sample)
	du := p.U - q.U
	dv := p.V - q.V
	return du*du + dv*dv
}

// samples satisfies kdtree.Interface
type samples []sample

func (p samples) Index(i int) kdtree.Comparable         { return p[i] }
func (p samples) Len() int                              { return len(p) }
func (p samples) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot uses a median of medians so the tree shape (and so tie breaking on
// equal distances) is the same on every build.
func (p samples) Pivot(d kdtree.Dim) int {
	pl := plane{samples: p, Dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane implements sort.Interface and kdtree.SortSlicer for samples
type plane struct {
	samples
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.samples[i].U < p.samples[j].U
	case 1:
		return p.samples[i].V < p.samples[j].V
	default:
		panic("illegal dimension")
	}
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{samples: p.samples[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.samples[i], p.samples[j] = p.samples[j], p.samples[i]
}
