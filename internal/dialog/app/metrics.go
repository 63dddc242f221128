package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dialog_gateway",
			Name:      "outbound_messages_created_total",
			Help:      "Total number of outbound messages created, by type.",
		},
		[]string{"type"},
	)
)
