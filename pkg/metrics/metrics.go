// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cafepos_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ProfilesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_profiles_generated_total",
		Help: "Coffee profiles generated by archetype.",
	}, []string{"profile_type"})

	ProfileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_profile_generate_failures_total",
		Help: "Profile generation failures by reason.",
	}, []string{"reason"})

	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_points_ledger_entries_total",
		Help: "Point transactions appended by type.",
	}, []string{"type"})

	PointsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_points_moved_total",
		Help: "Absolute points moved by entry type.",
	}, []string{"type"})

	VouchersIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_vouchers_issued_total",
		Help: "Vouchers issued by type.",
	}, []string{"type"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_cache_lookups_total",
		Help: "Profile cache lookups by result.",
	}, []string{"result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafepos_events_published_total",
		Help: "Domain events handed to the broker by type and result.",
	}, []string{"type", "result"})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cafepos_ws_points_clients",
		Help: "Open points websocket connections.",
	})
)

// ObservePoints records one ledger append.
func ObservePoints(typ string, points int) {
	LedgerEntries.WithLabelValues(typ).Inc()
	if points < 0 {
		points = -points
	}
	PointsMoved.WithLabelValues(typ).Add(float64(points))
}
