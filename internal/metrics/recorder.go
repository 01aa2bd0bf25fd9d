// Package metrics exposes Prometheus instrumentation for analysis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "strata"

// Recorder records analysis durations and failures. A nil *Recorder is a
// valid no-op recorder.
type Recorder struct {
	duration       *prometheus.HistogramVec
	failures       *prometheus.CounterVec
	simulatedPaths prometheus.Counter
}

// NewRecorder registers the analysis metrics on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time spent running an analysis",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"analysis"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_failures_total",
				Help:      "Failed analyses by error kind",
			},
			[]string{"analysis", "kind"},
		),
		simulatedPaths: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "monte_carlo_paths_total",
				Help:      "Monte Carlo paths simulated",
			},
		),
	}
}

// ObserveDuration records the duration of one analysis run.
func (r *Recorder) ObserveDuration(analysis string, d time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(analysis).Observe(d.Seconds())
}

// IncFailure counts a failed analysis.
func (r *Recorder) IncFailure(analysis, kind string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(analysis, kind).Inc()
}

// AddSimulatedPaths counts simulated Monte Carlo paths.
func (r *Recorder) AddSimulatedPaths(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.simulatedPaths.Add(float64(n))
}
