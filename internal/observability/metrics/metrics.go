// Package metrics exposes application-level prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes counters for the fee and payment pipelines.
type Metrics struct {
	feesComputed     prometheus.Counter
	paymentsRecorded prometheus.Counter
	paymentsRefunded prometheus.Counter
	feesSweptOverdue prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		feesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tuition_fees_computed_total",
			Help: "Number of fee computations performed.",
		}),
		paymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tuition_payments_recorded_total",
			Help: "Number of payments recorded.",
		}),
		paymentsRefunded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tuition_payments_refunded_total",
			Help: "Number of payments refunded.",
		}),
		feesSweptOverdue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tuition_fees_overdue_total",
			Help: "Number of student fees marked overdue by the sweep.",
		}),
	}
	prometheus.MustRegister(
		m.feesComputed,
		m.paymentsRecorded,
		m.paymentsRefunded,
		m.feesSweptOverdue,
	)
	return m
}

func (m *Metrics) RecordFeeComputed() {
	if m == nil {
		return
	}
	m.feesComputed.Inc()
}

func (m *Metrics) RecordPayment() {
	if m == nil {
		return
	}
	m.paymentsRecorded.Inc()
}

func (m *Metrics) RecordRefund() {
	if m == nil {
		return
	}
	m.paymentsRefunded.Inc()
}

func (m *Metrics) RecordOverdue(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.feesSweptOverdue.Add(float64(n))
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
