package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistersRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RequestsTotal.WithLabelValues("tools/call", "ok").Inc()
	m.RequestsTotal.WithLabelValues("tools/call", "ok").Inc()

	var metric dto.Metric
	if err := m.RequestsTotal.WithLabelValues("tools/call", "ok").Write(&metric); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := metric.Counter.GetValue(); got != 2 {
		t.Errorf("RequestsTotal = %v, want 2", got)
	}
}

func TestNewRegistersCatalogToolCountGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CatalogToolCount.Set(7)

	var metric dto.Metric
	if err := m.CatalogToolCount.Write(&metric); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := metric.Gauge.GetValue(); got != 7 {
		t.Errorf("CatalogToolCount = %v, want 7", got)
	}
}

func TestNewRegistersGatewayUpstreamHealthyGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.GatewayUpstreamHealthy.WithLabelValues("weather").Set(1)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() != "contextify_gateway_gateway_upstream_healthy" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "upstream" && lp.GetValue() == "weather" {
					if metric.GetGauge().GetValue() != 1 {
						t.Errorf("gateway_upstream_healthy = %v, want 1", metric.GetGauge().GetValue())
					}
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected to find gateway_upstream_healthy metric with upstream=weather")
	}
}
