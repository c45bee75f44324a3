package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BadgeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_lookups_total",
			Help: "Total number of badge lookups by outcome",
		},
		[]string{"outcome"},
	)

	BadgeLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badge_lookup_duration_seconds",
			Help:    "Duration of badge lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	BadgeResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_resolutions_total",
			Help: "Badge references resolved, by resolution path",
		},
		[]string{"path"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_store_requests_total",
			Help: "Requests sent to the record store API, by operation and status class",
		},
		[]string{"operation", "status"},
	)
)

const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeMisconfig   = "misconfigured"
	OutcomeUpstreamErr = "upstream_error"

	PathDirect     = "direct"
	PathFallback   = "fallback"
	PathUnresolved = "unresolved"
)
