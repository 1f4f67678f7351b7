package idw

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/spatial/kdtree"
)

var (
	// ErrInsufficientData implies there were no samples to interpolate from.
	ErrInsufficientData = errors.New("insufficient data")
)

// Sample is a known elevation at a point, in whatever frame the caller works
// in (curve relative s/n, or plain x/y).
type Sample struct {
	S float64
	N float64
	Z float64
}

// Point is a location to estimate an elevation at.
type Point struct {
	S float64
	N float64
}

// neighbour is a sample found near some query, with its squared distance
type neighbour struct {
	sample
	d2 float64
}

// Estimator answers anisotropic IDW queries against a fixed sample set.
// It is read-only once built and safe for concurrent use.
type Estimator struct {
	params Params
	tree   *kdtree.Tree
	count  int
}

// New indexes the given samples. Samples with non-finite coordinates or
// elevation are ignored; if none remain ErrInsufficientData is returned.
func New(in []Sample, params Params) (*Estimator, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	pts := make(samples, 0, len(in))
	for i, s := range in {
		if !finite(s.S, s.N, s.Z) {
			continue
		}
		pts = append(pts, sample{U: s.S / params.ScaleS, V: s.N / params.ScaleN, Z: s.Z, Index: i})
	}
	if len(pts) == 0 {
		return nil, errors.Wrapf(ErrInsufficientData, "no usable samples (of %d given)", len(in))
	}

	return &Estimator{
		params: params,
		tree:   kdtree.New(pts, false),
		count:  len(pts),
	}, nil
}

// Len returns the number of indexed samples.
func (e *Estimator) Len() int {
	return e.count
}

// Estimate returns the interpolated elevation at q.
//
// The nearest Neighbors samples are found under the scaled distance
// sqrt((ds/scale_s)^2 + (dn/scale_n)^2). If q sits exactly on a sample that
// sample's elevation is returned unchanged, otherwise the result is the
// 1/d^power weighted mean of the neighbours.
func (e *Estimator) Estimate(q Point) float64 {
	found := e.neighbours(sample{U: q.S / e.params.ScaleS, V: q.N / e.params.ScaleN})

	if found[0].d2 == 0 {
		return found[0].Z
	}

	half := e.params.Power / 2
	var num, den float64
	for _, nb := range found {
		w := 1 / math.Pow(nb.d2, half)
		num += w * nb.Z
		den += w
	}
	return num / den
}

// EstimateAll estimates every point in qs using up to workers goroutines.
// Results are in the same order as qs.
func (e *Estimator) EstimateAll(qs []Point, workers int) []float64 {
	out := make([]float64, len(qs))
	if workers < 1 {
		workers = 1
	}
	essentials.ConcurrentMap(workers, len(qs), func(i int) {
		out[i] = e.Estimate(qs[i])
	})
	return out
}

// neighbours returns the k nearest samples to q ordered by (distance, index).
// Samples tied on distance with the k-th are resolved by lowest index.
func (e *Estimator) neighbours(q sample) []neighbour {
	k := e.params.Neighbors
	if k >= e.count {
		return e.collect(q, kdtree.NewNKeeper(e.count), e.count)
	}

	// ask for one more than needed; if it ties with the k-th we have to pull
	// in everything at that distance before cutting
	found := e.collect(q, kdtree.NewNKeeper(k+1), k+1)
	if found[k].d2 != found[k-1].d2 {
		return found[:k]
	}
	return e.collect(q, kdtree.NewDistKeeper(found[k-1].d2), k)
}

// collect runs a nearest set query, returning at most limit neighbours in
// (distance, index) order.
func (e *Estimator) collect(q sample, keeper kdtree.Keeper, limit int) []neighbour {
	e.tree.NearestSet(keeper, q)

	var heap kdtree.Heap
	switch k := keeper.(type) {
	case *kdtree.NKeeper:
		heap = k.Heap
	case *kdtree.DistKeeper:
		heap = k.Heap
	}

	found := make([]neighbour, 0, len(heap))
	for _, cd := range heap {
		if cd.Comparable == nil {
			// keeper sentinel
			continue
		}
		found = append(found, neighbour{sample: cd.Comparable.(sample), d2: cd.Dist})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].d2 != found[j].d2 {
			return found[i].d2 < found[j].d2
		}
		return found[i].Index < found[j].Index
	})

	if len(found) > limit {
		found = found[:limit]
	}
	return found
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
