package geometry

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"
)

// Densify inserts evenly spaced vertices so no segment of line is longer than
// maxLen. Consecutive duplicate vertices are dropped. The original vertices
// are always kept.
func Densify(line []geom.Point, maxLen float64) ([]geom.Point, error) {
	if !(maxLen > 0) || math.IsInf(maxLen, 0) {
		return nil, errors.Wrapf(ErrInvalidGeometry, "segment length must be > 0, got %v", maxLen)
	}
	out := make([]geom.Point, 0, len(line))
	for i, b := range line {
		if !finite(b) {
			return nil, errors.Wrapf(ErrInvalidGeometry, "vertex %d is non-finite", i)
		}
		if i == 0 {
			out = append(out, b)
			continue
		}
		a := line[i-1]
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		if l == 0 {
			continue
		}
		pieces := int(math.Ceil(l / maxLen))
		for k := 1; k < pieces; k++ {
			t := float64(k) / float64(pieces)
			out = append(out, geom.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)})
		}
		out = append(out, b)
	}
	return out, nil
}

// DensifyPolygon densifies every ring of poly, see Densify.
func DensifyPolygon(poly geom.Polygon, maxLen float64) (geom.Polygon, error) {
	out := make(geom.Polygon, len(poly))
	for i, ring := range poly {
		closed := append([]geom.Point{}, ring...)
		if len(closed) > 0 && closed[0] != closed[len(closed)-1] {
			closed = append(closed, closed[0])
		}
		dense, err := Densify(closed, maxLen)
		if err != nil {
			return nil, errors.Wrapf(err, "ring %d", i)
		}
		out[i] = dense
	}
	return out, nil
}
