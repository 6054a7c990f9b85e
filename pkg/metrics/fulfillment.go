package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records counters for the stock and fulfillment pipeline.
type FulfillmentMetrics struct {
	adjustments *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	checkouts   prometheus.Counter
	payments    *prometheus.CounterVec
	txDuration  *prometheus.HistogramVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Manual stock adjustments by direction.",
	}, []string{"direction"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deliveries_confirmed_total",
		Help: "Confirmed deliveries by type.",
	}, []string{"type"})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Completed checkouts.",
	})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Recorded payments by resulting invoice status.",
	}, []string{"status"})
	txDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fulfillment_tx_duration_seconds",
		Help:    "Duration of fulfillment transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(adjustments, deliveries, checkouts, payments, txDuration)
	return &FulfillmentMetrics{
		adjustments: adjustments,
		deliveries:  deliveries,
		checkouts:   checkouts,
		payments:    payments,
		txDuration:  txDuration,
	}
}

// IncAdjustment counts a stock adjustment, direction is "credit" or "debit".
func (m *FulfillmentMetrics) IncAdjustment(direction string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(direction)).Inc()
}

// IncDeliveryConfirmed counts a confirmed delivery by its type.
func (m *FulfillmentMetrics) IncDeliveryConfirmed(deliveryType string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(deliveryType)).Inc()
}

// IncCheckout counts a completed checkout.
func (m *FulfillmentMetrics) IncCheckout() {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.Inc()
}

// IncPayment counts a recorded payment labelled with the invoice status it produced.
func (m *FulfillmentMetrics) IncPayment(status string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveTxDuration records how long a fulfillment transaction took.
func (m *FulfillmentMetrics) ObserveTxDuration(operation string, duration time.Duration) {
	if m == nil || m.txDuration == nil {
		return
	}
	m.txDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
