package hydrosurvey

import (
	"math"
	"runtime"

	"github.com/pkg/errors"

	"github.com/voidshard/hydrosurvey/internal/idw"
)

// Projection picks how points are related back to a centerline.
type Projection string

const (
	// ProjectVertex uses the nearest centerline vertex; accuracy is bounded
	// by CenterlineSegmentLength
	ProjectVertex Projection = "vertex"

	// ProjectSegment projects onto the nearest centerline segment
	ProjectSegment Projection = "segment"
)

// Surface picks which survey elevation is interpolated.
type Surface string

const (
	SurfaceCurrent        Surface = "current"
	SurfacePreimpoundment Surface = "preimpoundment"
)

// Config holds settings for a single run. Per zone settings (spacing,
// method, params) live on the Zone.
type Config struct {
	// SegmentLength is the longest boundary segment allowed after
	// densification; each boundary vertex becomes a survey point.
	SegmentLength float64

	// CenterlineSegmentLength is the longest centerline segment allowed after
	// densification.
	CenterlineSegmentLength float64

	// Neighbors is the default number of survey points each target point is
	// estimated from (zones may override via params).
	Neighbors int

	// Power is the default IDW distance power (zones may override).
	Power float64

	// Buffer is how far outside a zone polygon survey points are still used
	// for that zone.
	Buffer float64

	// Workers is the number of zones processed at once & the number of
	// goroutines used for target points within a zone.
	Workers int

	Projection Projection
	Surface    Surface
}

// DefaultConfig returns the settings most surveys are run with.
func DefaultConfig() *Config {
	return &Config{
		SegmentLength:           10,
		CenterlineSegmentLength: 10,
		Neighbors:               idw.DefaultNeighbors,
		Power:                   idw.DefaultPower,
		Buffer:                  100,
		Workers:                 runtime.GOMAXPROCS(0),
		Projection:              ProjectVertex,
		Surface:                 SurfaceCurrent,
	}
}

// Validate returns ErrInvalidConfig if any setting is unusable.
func (c *Config) Validate() error {
	if !positive(c.SegmentLength) {
		return errors.Wrapf(ErrInvalidConfig, "segment length must be > 0, got %v", c.SegmentLength)
	}
	if !positive(c.CenterlineSegmentLength) {
		return errors.Wrapf(ErrInvalidConfig, "centerline segment length must be > 0, got %v", c.CenterlineSegmentLength)
	}
	if c.Neighbors < 1 {
		return errors.Wrapf(ErrInvalidConfig, "neighbors must be >= 1, got %d", c.Neighbors)
	}
	if !positive(c.Power) {
		return errors.Wrapf(ErrInvalidConfig, "power must be > 0, got %v", c.Power)
	}
	if !(c.Buffer >= 0) || math.IsInf(c.Buffer, 0) {
		return errors.Wrapf(ErrInvalidConfig, "buffer must be >= 0, got %v", c.Buffer)
	}
	if c.Workers < 1 {
		return errors.Wrapf(ErrInvalidConfig, "workers must be >= 1, got %d", c.Workers)
	}
	switch c.Projection {
	case ProjectVertex, ProjectSegment:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown projection %q", c.Projection)
	}
	switch c.Surface {
	case SurfaceCurrent, SurfacePreimpoundment:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown surface %q", c.Surface)
	}
	return nil
}

// params returns the interpolation defaults zones start from
func (c *Config) params() idw.Params {
	p := idw.DefaultParams()
	p.Neighbors = c.Neighbors
	p.Power = c.Power
	return p
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
