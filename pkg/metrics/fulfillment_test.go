package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFulfillmentMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewFulfillmentMetrics(reg)

	metrics.IncAdjustment("credit")
	metrics.IncDeliveryConfirmed("order_delivery")
	metrics.IncCheckout()
	metrics.IncPayment("PAID")
	metrics.ObserveTxDuration("confirm_delivery", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stock_adjustments_total", "direction", "credit"); err != nil {
		t.Fatalf("fetch adjustments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected adjustments=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "deliveries_confirmed_total", "type", "order_delivery"); err != nil {
		t.Fatalf("fetch deliveries: %v", err)
	} else if got != 1 {
		t.Fatalf("expected deliveries=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payments_recorded_total", "status", "PAID"); err != nil {
		t.Fatalf("fetch payments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected payments=1, got %f", got)
	}
}

func TestFulfillmentMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewFulfillmentMetrics(nil)
	metrics.IncAdjustment("debit")
	metrics.IncCheckout()
	metrics.ObserveTxDuration("checkout", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
