package source

import (
	"encoding/csv"
	"io"

	"github.com/voidshard/hydrosurvey"
)

// TargetHeader is the header row WriteTargets writes.
var TargetHeader = []string{"x_coordinate", "y_coordinate", "zone_id", "elevation"}

// WriteTargets writes interpolated points as CSV, in the order given.
func WriteTargets(w io.Writer, pts []hydrosurvey.TargetPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TargetHeader); err != nil {
		return err
	}
	for _, p := range pts {
		if err := cw.Write([]string{format(p.X), format(p.Y), p.ZoneID, format(p.Elevation)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
