// Package geometry holds the small set of planar predicates the interpolator
// needs on top of github.com/ctessum/geom: boundary-inclusive containment,
// validation, densification and a claimed-area accumulator.
package geometry
