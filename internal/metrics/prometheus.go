// Package metrics exposes Prometheus counters for crop detection runs.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/torre76/crophound/crop"
)

var (
	SamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crophound_samples_total",
		Help: "Total number of analyzed samples, by result",
	}, []string{"result"})

	DetectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crophound_detections_total",
		Help: "Total number of detection runs, by outcome",
	}, []string{"outcome"})

	DetectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crophound_detection_duration_seconds",
		Help:    "Duration of a full crop detection run",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// ObserveSample records the outcome of a single sample.
func ObserveSample(result crop.SampleResult) {
	SamplesTotal.WithLabelValues(SampleLabel(result)).Inc()
}

// ObserveDetection records the outcome and wall time of a detection run.
func ObserveDetection(err error, seconds float64) {
	DetectionsTotal.WithLabelValues(Outcome(err)).Inc()
	DetectionDuration.Observe(seconds)
}

// Outcome maps a detection error to a metric label.
func Outcome(err error) string {
	var (
		probeErr    *crop.ProbeError
		planningErr *crop.PlanningError
		noConsensus *crop.NoConsensusError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &probeErr):
		return "probe_error"
	case errors.As(err, &planningErr):
		return "planning_error"
	case errors.As(err, &noConsensus):
		return "no_consensus"
	default:
		return "error"
	}
}

// SampleLabel maps a sample result to a metric label.
func SampleLabel(result crop.SampleResult) string {
	switch {
	case result.Err != nil:
		return "error"
	case result.Found:
		return "crop"
	default:
		return "no_crop"
	}
}
