package filter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptedge_requests_total",
			Help: "Requests handled by the dispatcher, by route, client kind and outcome",
		},
		[]string{"route", "client", "outcome"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scriptedge_upstream_duration_seconds",
			Help:    "Time taken to fetch a script from the upstream origin",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptedge_cache_lookups_total",
			Help: "Script cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptedge_blocked_requests_total",
			Help: "Requests rejected before dispatch",
		},
		[]string{"layer", "reason"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scriptedge_active_requests",
			Help: "Requests currently in flight",
		},
	)
)
