package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal tracks booking attempts per strategy mode and outcome
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsched_attempts_total",
			Help: "Total number of booking attempts",
		},
		[]string{"mode", "outcome"},
	)

	// UpstreamErrorsTotal tracks classified upstream failures
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsched_upstream_errors_total",
			Help: "Total number of upstream failures by kind",
		},
		[]string{"kind"},
	)

	// RetriesTotal tracks retry delays taken by the retry executor
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsched_retries_total",
			Help: "Total number of retries by failure kind",
		},
		[]string{"kind"},
	)

	// BookingsTotal tracks successful bookings, split by whether recovery produced them
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsched_bookings_total",
			Help: "Total number of successful bookings",
		},
		[]string{"recovered"},
	)

	// CatalogFallbackTotal tracks catalog lookups served from a fallback source
	CatalogFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymsched_catalog_fallback_total",
			Help: "Total number of catalog lookups served from fallback data",
		},
		[]string{"table", "source"},
	)

	// Mode is 1 for the strategy mode currently active, 0 otherwise
	Mode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gymsched_mode",
			Help: "Currently active strategy mode",
		},
		[]string{"mode"},
	)
)

// SetMode flips the mode gauge to the given mode.
func SetMode(active string, all []string) {
	for _, m := range all {
		v := 0.0
		if m == active {
			v = 1
		}
		Mode.WithLabelValues(m).Set(v)
	}
}
