package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check outcomes reported in the result label.
const (
	resultAllowed    = "allowed"
	resultThrottled  = "throttled"
	resultUnknownKey = "unknown_key"
	resultInvalid    = "invalid"
	resultError      = "error"
)

// Metrics holds the Prometheus collectors of the HTTP adapter.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ChecksTotal        *prometheus.CounterVec
	CheckCost          prometheus.Histogram
	UsageRecordErrors  prometheus.Counter
	AdminFailuresTotal *prometheus.CounterVec
	AdminEvictions     prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "keygate",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ChecksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "checks_total",
				Help:      "Total admission checks by outcome",
			},
			[]string{"result"}, // allowed/throttled/unknown_key/invalid/error
		),
		CheckCost: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "keygate",
				Name:      "check_cost",
				Help:      "Token cost requested per check",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		UsageRecordErrors: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "usage_record_errors_total",
				Help:      "Check outcomes that could not be written to the usage counters",
			},
		),
		AdminFailuresTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "admin_auth_failures_total",
				Help:      "Rejected admin requests",
			},
			[]string{"reason"}, // unauthorized/throttled
		),
		AdminEvictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "keygate",
				Name:      "admin_clients_evicted_total",
				Help:      "Client addresses dropped from the admin failure throttle",
			},
		),
	}
}
