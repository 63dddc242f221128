package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingest",
			Name:      "records_processed_total",
			Help:      "Total number of bus records processed, by topic and outcome.",
		},
		// outcome: "handled", "dropped_no_conversation", "dropped_kind",
		// "dropped_unknown_message", "dropped_outcome", "tombstone", "failed"
		[]string{"topic", "outcome"},
	)

	batchesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingest",
			Name:      "batches_total",
			Help:      "Total number of ingestion batches, by topic and outcome.",
		},
		[]string{"topic", "outcome"}, // outcome: "committed", "rolled_back"
	)

	batchDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one ingestion batch including the storage commit.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)
