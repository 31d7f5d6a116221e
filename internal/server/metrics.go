package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guardline",
		Subsystem: "invitation",
		Name:      "scan_attempts_total",
		Help:      "QR invitation scan attempts by outcome.",
	}, []string{"outcome"})

	linksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "guardline",
		Subsystem: "relationship",
		Name:      "links_created_total",
		Help:      "Guardian-dependent relationships created through approvals.",
	})
)
