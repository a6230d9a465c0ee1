// Package metrics exposes Prometheus collectors for RPC traffic and ledger
// activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "splitledger"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	rpcRequests *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec

	expensesCreated *prometheus.CounterVec
	expenseAmount   *prometheus.CounterVec
	splitsSettled   prometheus.Counter
	splitsUnsettled prometheus.Counter
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPCs handled, by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		expensesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_created_total",
			Help:      "Expenses recorded, by currency.",
		}, []string{"currency"}),
		expenseAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_amount_total",
			Help:      "Sum of recorded expense amounts, by currency.",
		}, []string{"currency"}),
		splitsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_settled_total",
			Help:      "Splits marked settled.",
		}),
		splitsUnsettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_unsettled_total",
			Help:      "Settlements reversed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rpcRequests,
		m.rpcDuration,
		m.expensesCreated,
		m.expenseAmount,
		m.splitsSettled,
		m.splitsUnsettled,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

// ExpenseCreated counts a new expense.
func (m *Metrics) ExpenseCreated(currency string, amount decimal.Decimal) {
	m.expensesCreated.WithLabelValues(currency).Inc()
	m.expenseAmount.WithLabelValues(currency).Add(amount.InexactFloat64())
}

// SplitSettled counts a settlement.
func (m *Metrics) SplitSettled() {
	m.splitsSettled.Inc()
}

// SplitUnsettled counts a reversed settlement.
func (m *Metrics) SplitUnsettled() {
	m.splitsUnsettled.Inc()
}
