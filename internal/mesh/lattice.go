package mesh

import (
	"math"

	"github.com/boljen/go-bitmap"
	"github.com/ctessum/geom"
	"github.com/pkg/errors"

	"github.com/voidshard/hydrosurvey/internal/geometry"
)

const (
	// maxCells caps the size of a single lattice; a tiny spacing over a large
	// polygon is almost certainly a units mistake.
	maxCells = 1 << 30

	// slack absorbs rounding when the bbox extent is an exact multiple of the
	// spacing, so the far edge is still included.
	slack = 1e-9
)

// Cell is a single lattice point.
type Cell struct {
	Col   int
	Row   int
	Point geom.Point
}

// Lattice is a regular grid of points anchored at the minimum corner of a
// polygon's bounding box. Only "live" cells (those inside the polygon & not
// since dropped) are reported.
type Lattice struct {
	origin  geom.Point
	spacing float64
	cols    int
	rows    int

	live  bitmap.Bitmap
	count int
}

// New rasterizes the interior of poly into a lattice with the given spacing.
// Points on the polygon boundary are included.
func New(poly geom.Polygon, spacing float64) (*Lattice, error) {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, errors.Wrapf(geometry.ErrInvalidGeometry, "grid spacing must be > 0, got %v", spacing)
	}
	err := geometry.Validate(poly)
	if err != nil {
		return nil, err
	}

	b := poly.Bounds()
	fc := math.Floor((b.Max.X-b.Min.X)/spacing+slack) + 1
	fr := math.Floor((b.Max.Y-b.Min.Y)/spacing+slack) + 1
	// checked as floats, either axis alone may overflow an int
	if !(fc*fr <= maxCells) {
		return nil, errors.Wrapf(geometry.ErrInvalidGeometry, "lattice of %gx%g cells at spacing %v is too large", fc, fr, spacing)
	}
	cols, rows := int(fc), int(fr)

	l := &Lattice{
		origin:  b.Min,
		spacing: spacing,
		cols:    cols,
		rows:    rows,
		live:    bitmap.New(cols * rows),
	}

	scan := l.scanner(func(c *Cell) bool { return geometry.Contains(poly, c.Point) })
	for c := scan.Next(); c != nil; c = scan.Next() {
		l.live.Set(l.index(c.Col, c.Row), true)
		l.count++
	}

	return l, nil
}

// At returns the location of the cell at col, row.
func (l *Lattice) At(col, row int) geom.Point {
	return geom.Point{
		X: l.origin.X + float64(col)*l.spacing,
		Y: l.origin.Y + float64(row)*l.spacing,
	}
}

// Origin of the lattice (bbox minimum corner of the source polygon).
func (l *Lattice) Origin() geom.Point {
	return l.origin
}

// Spacing between adjacent lattice points.
func (l *Lattice) Spacing() float64 {
	return l.spacing
}

// Len returns the number of live cells.
func (l *Lattice) Len() int {
	return l.count
}

// Drop removes every live cell whose location satisfies fn, returning how many
// were dropped.
func (l *Lattice) Drop(fn func(geom.Point) bool) int {
	dropped := 0
	scan := l.scanner(func(c *Cell) bool { return l.live.Get(l.index(c.Col, c.Row)) && fn(c.Point) })
	for c := scan.Next(); c != nil; c = scan.Next() {
		l.live.Set(l.index(c.Col, c.Row), false)
		dropped++
	}
	l.count -= dropped
	return dropped
}

// Points returns all live cells in row-major order (row 0 first, then by
// column), which is stable for a given polygon & spacing.
func (l *Lattice) Points() []Cell {
	out := make([]Cell, 0, l.count)
	scan := l.scanner(func(c *Cell) bool { return l.live.Get(l.index(c.Col, c.Row)) })
	for c := scan.Next(); c != nil; c = scan.Next() {
		out = append(out, *c)
	}
	return out
}

// index of col,row in the live bitmap
func (l *Lattice) index(col, row int) int {
	return row*l.cols + col
}

// scanner returns a cellScanner walking every cell of the lattice that
// passes accept.
func (l *Lattice) scanner(accept func(c *Cell) bool) *cellScanner {
	return &cellScanner{parent: l, accept: accept}
}

// cellScanner walks the lattice row by row without pre-computing the full
// set of cells.
type cellScanner struct {
	parent *Lattice
	accept func(c *Cell) bool
	col    int
	row    int
}

// Next returns the next accepted cell.
// A nil value indicates that there are no more.
func (s *cellScanner) Next() *Cell {
	for ; s.row < s.parent.rows; s.row++ {
		for col := s.col; col < s.parent.cols; col++ {
			c := &Cell{Col: col, Row: s.row, Point: s.parent.At(col, s.row)}
			if s.accept(c) {
				s.col = col + 1
				return c
			}
		}
		s.col = 0
	}
	return nil
}
