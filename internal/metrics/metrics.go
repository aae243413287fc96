// Package metrics holds the Prometheus collectors exported on the metrics
// port.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlotRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frontier_plot_requests_total",
		Help: "Pareto-front plot requests by outcome.",
	}, []string{"outcome"})

	FrontSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frontier_front_size",
		Help:    "Number of non-dominated trials per extraction.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frontier_extraction_duration_seconds",
		Help:    "Time spent extracting a front from a trial snapshot.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	TrialsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frontier_trials_recorded_total",
		Help: "Trials recorded by final state and source (api or events).",
	}, []string{"state", "source"})

	StaleTrialsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_stale_trials_failed_total",
		Help: "Running trials failed by the stale-trial reaper.",
	})
)

// Outcome labels for PlotRequests.
const (
	OutcomeOK                   = "ok"
	OutcomeInvalidArgument      = "invalid_argument"
	OutcomeUnsupportedDimension = "unsupported_dimension"
	OutcomeError                = "error"
)
