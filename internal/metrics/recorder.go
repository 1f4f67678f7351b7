// Package metrics counts interpolation progress in a prometheus registry,
// which the CLI can dump as a node exporter textfile after a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hydrosurvey"

// Recorder keeps run & zone metrics. It is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	stages   *prometheus.CounterVec
	zones    *prometheus.CounterVec
	points   prometheus.Counter
	duration prometheus.Histogram
}

// New returns a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_total",
			Help:      "Pipeline stages entered.",
		}, []string{"stage"}),
		zones: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zones_total",
			Help:      "Zones processed by outcome & the stage they finished at.",
		}, []string{"outcome", "stage"}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "target_points_total",
			Help:      "Target points interpolated.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "zone_duration_seconds",
			Help:      "Time taken to interpolate a zone.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	r.registry.MustRegister(r.stages, r.zones, r.points, r.duration)
	return r
}

// Registry returns the registry metrics are kept in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) StageEntered(stage string) {
	r.stages.WithLabelValues(stage).Inc()
}

func (r *Recorder) ZoneInterpolated(_ string, points int, elapsed time.Duration) {
	r.zones.WithLabelValues("ok", "interpolated").Inc()
	r.points.Add(float64(points))
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) ZoneFailed(_ string, stage string) {
	r.zones.WithLabelValues("failed", stage).Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
