package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records vendor authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramd_auth_attempts_total",
			Help: "Total number of vendor authentication attempts",
		},
		[]string{"result"},
	)

	// RedemptionAttempts counts approval calls and their outcome
	// (approved|cooldown|conflict|denied|not_found|error).
	RedemptionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramd_redemption_attempts_total",
			Help: "Total number of perk approval attempts",
		},
		[]string{"result"},
	)

	// Validations counts validate calls by outcome (ok|not_found|error).
	Validations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gramd_validations_total",
			Help: "Total number of tag validation calls",
		},
		[]string{"result"},
	)

	// ActiveVendorSessions tracks vendor sessions that are not expired or revoked.
	ActiveVendorSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gramd_active_vendor_sessions",
			Help: "Number of active vendor sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gramd_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
