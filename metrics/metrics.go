package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reconciliation cycles
	CyclesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_cycles_started_total",
			Help: "Reconciliation cycles started, by trigger",
		},
		[]string{"trigger"},
	)

	CommitsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_commits_applied_total",
			Help: "Snapshots committed to the transfer store, by set",
		},
		[]string{"set"},
	)

	CommitsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_commits_discarded_total",
			Help: "Snapshots dropped instead of committed, by set and reason",
		},
		[]string{"set", "reason"},
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_fetch_failures_total",
			Help: "Gateway fetches or resolves that failed or timed out, by set",
		},
		[]string{"set"},
	)

	LookupMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_message_lookup_misses_total",
		Help: "Withdrawals dropped because no bridge message was found for them",
	})

	// Gateway
	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_gateway_call_duration_seconds",
			Help:    "Bridge gateway call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call"},
	)

	LastObservedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_last_observed_l1_block",
		Help: "Last L1 block number that triggered a refresh",
	})
)
