package idw

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPower     = 2.0
	DefaultNeighbors = 16
)

var (
	// ErrInvalidParams implies a method parameter blob could not be understood.
	ErrInvalidParams = errors.New("invalid interpolation parameters")
)

// Params tunes the estimator.
type Params struct {
	// ScaleS and ScaleN divide the s & n axes before distances are taken.
	// ScaleS > ScaleN stretches the search along the curve.
	ScaleS float64
	ScaleN float64

	// Power applied to distances when weighting
	Power float64

	// Neighbors is how many samples contribute to each estimate
	Neighbors int
}

// DefaultParams is isotropic IDW with power 2 over 16 neighbours.
func DefaultParams() Params {
	return Params{
		ScaleS:    1,
		ScaleN:    1,
		Power:     DefaultPower,
		Neighbors: DefaultNeighbors,
	}
}

// Validate returns ErrInvalidParams if any value is unusable.
func (p Params) Validate() error {
	names := []string{"scale_s", "scale_n", "power"}
	for i, v := range []float64{p.ScaleS, p.ScaleN, p.Power} {
		if !(v > 0) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidParams, "%s must be a positive finite number, got %v", names[i], v)
		}
	}
	if p.Neighbors < 1 {
		return errors.Wrapf(ErrInvalidParams, "neighbors must be >= 1, got %d", p.Neighbors)
	}
	return nil
}

// blob is the mapping form of a parameter string
type blob struct {
	Ellipsivity *float64 `yaml:"ellipsivity"`
	ScaleS      *float64 `yaml:"scale_s"`
	ScaleN      *float64 `yaml:"scale_n"`
	Power       *float64 `yaml:"power"`
	Neighbors   *int     `yaml:"neighbors"`
}

// ParseParams reads a zone's parameter string on top of base.
//
// Accepted forms are an empty string (base unchanged), a bare number taken
// as the ellipsivity, or a YAML / JSON mapping of any of
// ellipsivity, scale_s, scale_n, power & neighbors. An ellipsivity e sets
// scale_s = e and scale_n = 1; explicit scales win over it.
func ParseParams(in string, base Params) (Params, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		return base, base.Validate()
	}

	var doc yaml.Node
	err := yaml.Unmarshal([]byte(in), &doc)
	if err != nil {
		return base, errors.Wrapf(ErrInvalidParams, "%q: %v", in, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return base, errors.Wrapf(ErrInvalidParams, "%q: expected a single value", in)
	}

	out := base
	root := doc.Content[0]
	switch root.Kind {
	case yaml.ScalarNode:
		var e float64
		err = root.Decode(&e)
		if err != nil {
			return base, errors.Wrapf(ErrInvalidParams, "%q is not a number: %v", in, err)
		}
		out.ScaleS, out.ScaleN = e, 1
	case yaml.MappingNode:
		var raw blob
		dec := yaml.NewDecoder(strings.NewReader(in))
		dec.KnownFields(true)
		err = dec.Decode(&raw)
		if err != nil {
			return base, errors.Wrapf(ErrInvalidParams, "%q: %v", in, err)
		}
		if raw.Ellipsivity != nil {
			out.ScaleS, out.ScaleN = *raw.Ellipsivity, 1
		}
		if raw.ScaleS != nil {
			out.ScaleS = *raw.ScaleS
		}
		if raw.ScaleN != nil {
			out.ScaleN = *raw.ScaleN
		}
		if raw.Power != nil {
			out.Power = *raw.Power
		}
		if raw.Neighbors != nil {
			out.Neighbors = *raw.Neighbors
		}
	default:
		return base, errors.Wrapf(ErrInvalidParams, "%q: expected a number or a mapping", in)
	}

	return out, out.Validate()
}
