// Package metrics provides Prometheus metrics for the estimator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Quote metrics
	QuotesTotal     *prometheus.CounterVec
	QuoteMismatches prometheus.Counter
	QuoteDuration   *prometheus.HistogramVec

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates a Metrics instance registered on reg. A nil reg uses a
// fresh registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "stableswap_estimator"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		QuotesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "requests_total",
			Help:      "Total number of quotes by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		QuoteMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "contract_mismatches_total",
			Help:      "Total number of local quotes that differ from the contract's get_return",
		}),
		QuoteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "duration_seconds",
			Help:      "Quote computation duration in seconds, including RPC round trips",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "near",
			Name:      "rpc_call_latency_seconds",
			Help:      "NEAR RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "near",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed NEAR RPC calls by method",
		}, []string{"method"}),

		gatherer: reg,
	}
}

// ObserveRPC records the latency and outcome of one RPC call.
func (m *Metrics) ObserveRPC(method string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.RPCCallLatency.WithLabelValues(method).Observe(time.Since(started).Seconds())
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// ObserveQuote records one quote request.
func (m *Metrics) ObserveQuote(endpoint string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.QuotesTotal.WithLabelValues(endpoint, outcome).Inc()
	m.QuoteDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// Handler returns an HTTP handler serving the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
