package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout and refund outcomes.
type PaymentMetrics struct {
	ordersCreated     prometheus.Counter
	intentFailures    prometheus.Counter
	refundsApproved   prometheus.Counter
	refundsDenied     prometheus.Counter
	coverageShortfall prometheus.Counter
	degraded          *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created with a live payment intent.",
	})
	intentFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_intent_failures_total",
		Help: "Checkout attempts where the gateway declined the intent.",
	})
	refundsApproved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refund_requests_approved_total",
		Help: "Refund requests approved and refunded at the gateway.",
	})
	refundsDenied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refund_requests_denied_total",
		Help: "Refund requests denied by a reviewer.",
	})
	coverageShortfall := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refund_coverage_shortfalls_total",
		Help: "Refunds where instant coverage collection failed and debt was booked.",
	})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "degraded_computations_total",
		Help: "Checkout computations that fell back to zero defaults.",
	}, []string{"kind"})
	reg.MustRegister(ordersCreated, intentFailures, refundsApproved, refundsDenied, coverageShortfall, degraded)
	return &PaymentMetrics{
		ordersCreated:     ordersCreated,
		intentFailures:    intentFailures,
		refundsApproved:   refundsApproved,
		refundsDenied:     refundsDenied,
		coverageShortfall: coverageShortfall,
		degraded:          degraded,
	}
}

// IncOrdersCreated increments the created-orders counter.
func (m *PaymentMetrics) IncOrdersCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncIntentFailures increments the failed-intent counter.
func (m *PaymentMetrics) IncIntentFailures() {
	if m == nil || m.intentFailures == nil {
		return
	}
	m.intentFailures.Inc()
}

// IncRefundsApproved increments the approved-refunds counter.
func (m *PaymentMetrics) IncRefundsApproved() {
	if m == nil || m.refundsApproved == nil {
		return
	}
	m.refundsApproved.Inc()
}

// IncRefundsDenied increments the denied-refunds counter.
func (m *PaymentMetrics) IncRefundsDenied() {
	if m == nil || m.refundsDenied == nil {
		return
	}
	m.refundsDenied.Inc()
}

// IncCoverageShortfall increments the coverage-shortfall counter.
func (m *PaymentMetrics) IncCoverageShortfall() {
	if m == nil || m.coverageShortfall == nil {
		return
	}
	m.coverageShortfall.Inc()
}

// IncDegraded increments the degraded-computation counter for the kind.
func (m *PaymentMetrics) IncDegraded(kind string) {
	if m == nil || m.degraded == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.degraded.WithLabelValues(kind).Inc()
}
