// Package metrics exposes ledger, HTTP and connection pool metrics to Prometheus.
package metrics

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
)

const namespace = "credit_ledger"

// LedgerMetrics holds every collector the service exports.
// Each instance owns its registry, so tests can build as many as they like.
type LedgerMetrics struct {
	registry *prometheus.Registry

	ConsumeTotal         *prometheus.CounterVec
	UsageRecordFailures  prometheus.Counter
	UpstreamDuration     *prometheus.HistogramVec
	RedeemTotal          *prometheus.CounterVec
	CreditsGranted       prometheus.Counter
	VouchersIssued       prometheus.Counter
	VoucherCreditsIssued prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PoolOpenConnections prometheus.Gauge
	PoolInUse           prometheus.Gauge
	PoolIdle            prometheus.Gauge
	PoolWaitCount       prometheus.Gauge
	PoolWaitSeconds     prometheus.Gauge
}

// NewLedgerMetrics creates and registers all collectors, including Go runtime and process collectors
func NewLedgerMetrics() *LedgerMetrics {
	m := &LedgerMetrics{
		registry: prometheus.NewRegistry(),

		ConsumeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usage",
			Name:      "consume_total",
			Help:      "Usage gate calls by outcome",
		}, []string{"outcome"}),
		UsageRecordFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usage",
			Name:      "record_failures_total",
			Help:      "Answered calls whose charge could not be stored",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Completion service latency by outcome",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		RedeemTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voucher",
			Name:      "redeem_total",
			Help:      "Voucher redemptions by outcome",
		}, []string{"outcome"}),
		CreditsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voucher",
			Name:      "credits_granted_total",
			Help:      "Credits added to accounts by redemptions",
		}),
		VouchersIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voucher",
			Name:      "issued_total",
			Help:      "Vouchers issued",
		}),
		VoucherCreditsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voucher",
			Name:      "issued_credits_total",
			Help:      "Credits redeemable from issued vouchers (amount times uses)",
		}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "path"}),

		PoolOpenConnections: newPoolGauge("open_connections", "Open database connections"),
		PoolInUse:           newPoolGauge("in_use_connections", "Database connections in use"),
		PoolIdle:            newPoolGauge("idle_connections", "Idle database connections"),
		PoolWaitCount:       newPoolGauge("wait_count", "Total waits for a database connection"),
		PoolWaitSeconds:     newPoolGauge("wait_seconds", "Total time spent waiting for a database connection"),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ConsumeTotal,
		m.UsageRecordFailures,
		m.UpstreamDuration,
		m.RedeemTotal,
		m.CreditsGranted,
		m.VouchersIssued,
		m.VoucherCreditsIssued,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PoolOpenConnections,
		m.PoolInUse,
		m.PoolIdle,
		m.PoolWaitCount,
		m.PoolWaitSeconds,
	)

	return m
}

func newPoolGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db_pool",
		Name:      name,
		Help:      help,
	})
}

// Registry returns the registry the collectors live in
func (m *LedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *LedgerMetrics) ObserveConsume(outcome string) {
	m.ConsumeTotal.WithLabelValues(outcome).Inc()
}

func (m *LedgerMetrics) ObserveUsageRecordFailure() {
	m.UsageRecordFailures.Inc()
}

func (m *LedgerMetrics) ObserveUpstream(outcome string, elapsed time.Duration) {
	m.UpstreamDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) ObserveRedeem(outcome string) {
	m.RedeemTotal.WithLabelValues(outcome).Inc()
}

func (m *LedgerMetrics) ObserveCreditsGranted(amount int64) {
	if amount > 0 {
		m.CreditsGranted.Add(float64(amount))
	}
}

func (m *LedgerMetrics) ObserveVoucherIssued(creditAmount, maxUses int64) {
	m.VouchersIssued.Inc()
	if creditAmount > 0 && maxUses > 0 {
		m.VoucherCreditsIssued.Add(float64(creditAmount * maxUses))
	}
}

// ObserveHTTP records one served request. path is the route template, never the raw URL.
func (m *LedgerMetrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObservePoolStats copies a connection pool snapshot into the pool gauges
func (m *LedgerMetrics) ObservePoolStats(stats sql.DBStats) {
	m.PoolOpenConnections.Set(float64(stats.OpenConnections))
	m.PoolInUse.Set(float64(stats.InUse))
	m.PoolIdle.Set(float64(stats.Idle))
	m.PoolWaitCount.Set(float64(stats.WaitCount))
	m.PoolWaitSeconds.Set(stats.WaitDuration.Seconds())
}

var _ coreport.Metrics = (*LedgerMetrics)(nil)
