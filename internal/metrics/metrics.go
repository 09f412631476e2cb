// Package metrics registers the relay's Prometheus metrics, served at
// /metrics in Prometheus text exposition format.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// relay_orders_total{outcome,direction} – relay attempts by outcome
	// (ok|bad_request|symbol_not_found|auth_failed|order_rejected|transport).
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_orders_total",
			Help: "Relay attempts by outcome",
		},
		[]string{"outcome", "direction"},
	)

	// relay_request_seconds – end-to-end webhook handling latency.
	RequestSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_request_seconds",
			Help:    "Webhook handling latency",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(Orders, RequestSeconds)
}
