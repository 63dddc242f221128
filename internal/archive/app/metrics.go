package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveSubmissionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialog_gateway",
			Name:      "archive_submissions_total",
			Help:      "Total number of archive submissions, by outcome.",
		},
		[]string{"outcome"},
	)
)
