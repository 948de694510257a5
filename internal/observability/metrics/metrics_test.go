package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, lp := range metric.Label {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestGatewayMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGatewayMetrics(reg)
	m.ObserveRequest("doctors", "list", "ok", 0.2)
	m.ObserveRequest("doctors", "list", "ok", 0.1)
	m.ObserveRequest("doctors", "create", "request_error", 0.1)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("doctors", "list", "ok")); got != 2 {
		t.Fatalf("expected 2 ok list requests, got %v", got)
	}
}

func TestGatewayMetricsLatencyHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGatewayMetrics(reg)
	m.ObserveRequest("doctors", "list", "ok", 0.2)
	m.ObserveRequest("doctors", "list", "network_error", 0.1)
	m.ObserveRequest("plans", "list", "ok", 0.1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf.GetName() == "clinic_console_gateway_request_duration_seconds" {
			family = mf
		}
	}
	if family == nil {
		t.Fatalf("latency histogram not registered")
	}
	var samples uint64
	for _, metric := range family.Metric {
		if hasLabel(metric, "resource", "doctors") {
			samples += metric.GetHistogram().GetSampleCount()
		}
	}
	if samples != 2 {
		t.Fatalf("expected 2 doctors samples regardless of outcome, got %d", samples)
	}
}

func TestCacheMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCacheMetrics(reg)
	m.ObserveLookup("plans", "hit")
	m.ObserveInvalidation("plans")
	if got := testutil.ToFloat64(m.invalidations.WithLabelValues("plans")); got != 1 {
		t.Fatalf("expected 1 invalidation, got %v", got)
	}
}

func TestViewMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewViewMetrics(reg)
	m.ObserveAction("doctors", "submit", "ok")
	m.ObserveValidationFailure("doctors", "crm_medico")
}

func TestMetricsNilSafe(t *testing.T) {
	var g *GatewayMetrics
	g.ObserveRequest("a", "b", "ok", 1)
	var c *CacheMetrics
	c.ObserveLookup("a", "hit")
	c.ObserveInvalidation("a")
	var v *ViewMetrics
	v.ObserveAction("a", "b", "c")
	v.ObserveValidationFailure("a", "b")
}
