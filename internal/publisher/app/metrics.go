package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepCandidatesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "publisher",
			Name:      "sweep_candidates_total",
			Help:      "Total number of sweep candidates processed, by job and outcome.",
		},
		[]string{"job", "outcome"}, // outcome: "published", "publish_failed", "mark_failed"
	)

	sweepRunsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "publisher",
			Name:      "sweep_runs_total",
			Help:      "Total number of sweep ticks, by job and outcome.",
		},
		[]string{"job", "outcome"}, // outcome: "ran", "skipped_not_leader", "failed"
	)

	sweepDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "publisher",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one sweep run.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)
