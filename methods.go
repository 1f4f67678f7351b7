package hydrosurvey

import (
	"strings"

	"github.com/pkg/errors"
)

// Method indicates how elevations inside a zone are estimated.
type Method string

const (
	AEIDW Method = "aeidw" // IDW in the zone centerline's (s, n) frame with ellipsivity scaling
	IDW   Method = "idw"   // plain IDW in map coordinates; no centerline needed
)

// Stage is a step of the pipeline.
type Stage string

const (
	Loaded       Stage = "loaded"       // inputs checked
	Densified    Stage = "densified"    // boundary & centerlines densified, boundary ring added
	Meshed       Stage = "meshed"       // zone lattices built & priorities resolved
	Transformed  Stage = "transformed"  // points mapped into each zone's frame
	Interpolated Stage = "interpolated" // elevations estimated
	Assembled    Stage = "assembled"    // zone results merged
)

var (
	allMethods = []Method{AEIDW, IDW}
)

// ParseMethod reads a method name, case insensitive. An empty string means
// AEIDW.
func ParseMethod(in string) (Method, error) {
	in = strings.ToLower(strings.TrimSpace(in))
	if in == "" {
		return AEIDW, nil
	}
	for _, m := range allMethods {
		if string(m) == in {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidZoneConfig, "unknown interpolation method %q", in)
}

// usesCenterline returns if the method works in a centerline frame
func (m Method) usesCenterline() bool {
	return m == AEIDW
}
