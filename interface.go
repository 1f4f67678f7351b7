package hydrosurvey

import (
	"time"
)

// Recorder is told about progress through a run. Implementations must be
// safe for concurrent use since zones are processed in parallel.
type Recorder interface {
	// StageEntered is called as the run (not an individual zone) moves on
	StageEntered(stage string)

	// ZoneInterpolated is called once per successful zone
	ZoneInterpolated(zoneID string, points int, elapsed time.Duration)

	// ZoneFailed is called once per failed zone
	ZoneFailed(zoneID string, stage string)
}

// nopRecorder drops everything
type nopRecorder struct{}

func (nopRecorder) StageEntered(string)                         {}
func (nopRecorder) ZoneInterpolated(string, int, time.Duration) {}
func (nopRecorder) ZoneFailed(string, string)                   {}
