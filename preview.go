package hydrosurvey

import (
	"image"
	"image/color"
	"math"

	"github.com/ctessum/geom"
	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
)

// ColourScheme decides how a preview is drawn.
type ColourScheme struct {
	Background color.Color
	Boundary   color.Color

	// Ramp runs from the deepest (lowest) elevation to the shallowest
	Ramp []color.RGBA

	// PointSize is the width in pixels each target point is drawn with
	PointSize float64
}

// DefaultScheme returns a reasonable default ColourScheme.
func DefaultScheme() *ColourScheme {
	return &ColourScheme{
		Background: colornames.White,
		Boundary:   colornames.Black,
		Ramp: []color.RGBA{
			colornames.Navy,
			colornames.Mediumblue,
			colornames.Steelblue,
			colornames.Skyblue,
			colornames.Lightcyan,
		},
		PointSize: 2,
	}
}

// Preview draws the result over the lake boundary, width pixels wide, with
// points coloured by elevation.
func (r *Result) Preview(b Boundary, width int, scheme *ColourScheme) (image.Image, error) {
	if scheme == nil {
		scheme = DefaultScheme()
	}
	if width < 1 || len(scheme.Ramp) == 0 {
		return nil, errors.Errorf("cannot draw preview %dpx wide with %d colours", width, len(scheme.Ramp))
	}
	if len(b.Polygon) == 0 {
		return nil, errors.Wrap(ErrInvalidGeometry, "preview needs a boundary")
	}

	bnds := b.Polygon.Bounds()
	dx, dy := bnds.Max.X-bnds.Min.X, bnds.Max.Y-bnds.Min.Y
	if !(dx > 0) || !(dy > 0) {
		return nil, errors.Wrap(ErrInvalidGeometry, "boundary has no extent")
	}
	scale := float64(width) / dx
	height := int(math.Ceil(dy * scale))
	if height < 1 {
		height = 1
	}

	// map coords have y up, images y down
	px := func(p geom.Point) (float64, float64) {
		return (p.X - bnds.Min.X) * scale, float64(height) - (p.Y-bnds.Min.Y)*scale
	}

	ctx := gg.NewContext(width, height)
	ctx.SetColor(scheme.Background)
	ctx.Clear()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range r.Points {
		lo = math.Min(lo, p.Elevation)
		hi = math.Max(hi, p.Elevation)
	}

	half := scheme.PointSize / 2
	for _, p := range r.Points {
		x, y := px(geom.Point{X: p.X, Y: p.Y})
		ctx.SetColor(ramp(scheme.Ramp, p.Elevation, lo, hi))
		ctx.DrawRectangle(x-half, y-half, scheme.PointSize, scheme.PointSize)
		ctx.Fill()
	}

	ctx.SetColor(scheme.Boundary)
	ctx.SetLineWidth(1)
	for _, ring := range b.Polygon {
		for i, v := range ring {
			x, y := px(v)
			if i == 0 {
				ctx.MoveTo(x, y)
			} else {
				ctx.LineTo(x, y)
			}
		}
		ctx.ClosePath()
		ctx.Stroke()
	}

	return ctx.Image(), nil
}

// SavePreview writes a Preview to disk as a PNG.
func (r *Result) SavePreview(fpath string, b Boundary, width int, scheme *ColourScheme) error {
	im, err := r.Preview(b, width, scheme)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(im).SavePNG(fpath)
}

// ramp linearly blends between the colour stops for z in [lo, hi]
func ramp(stops []color.RGBA, z, lo, hi float64) color.Color {
	if len(stops) == 1 || !(hi > lo) {
		return stops[0]
	}
	t := (z - lo) / (hi - lo) * float64(len(stops)-1)
	i := int(math.Floor(t))
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	if i < 0 {
		return stops[0]
	}
	f := t - float64(i)
	a, b := stops[i], stops[i+1]
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
