package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wetime_match_requests_total",
			Help: "Match requests by outcome (matched, waiting, unavailable)",
		},
		[]string{"outcome"},
	)

	staleTicketsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wetime_stale_tickets_purged_total",
			Help: "Waiting tickets removed during a scan because they outlived the stale window",
		},
	)

	matchConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wetime_match_conflicts_total",
			Help: "Candidates that were consumed by another request before they could be paired",
		},
	)

	matchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wetime_match_request_duration_seconds",
			Help:    "Time spent deciding one match request, lock wait included",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)
