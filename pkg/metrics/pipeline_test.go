package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPipelineMetricsRecordOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPipelineMetrics(registry)

	m.ObserveStage("orders", 120*time.Millisecond)
	m.IncSuccess("http")
	m.IncSuccess("trigger")
	m.IncFailure("http", "customer")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	byName := map[string]bool{}
	for _, mf := range families {
		byName[mf.GetName()] = true
	}
	for _, name := range []string{"replication_stage_duration_seconds", "replication_success", "replication_failure"} {
		if !byName[name] {
			t.Fatalf("metric %s not registered", name)
		}
	}
}

func TestPipelineMetricsLabelNormalization(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPipelineMetrics(registry)

	m.IncSuccess("")
	m.IncFailure("", "")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetValue() == "" {
					t.Fatalf("metric %s carries an empty label", mf.GetName())
				}
			}
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveStage("orders", time.Second)
	m.IncSuccess("http")
	m.IncFailure("http", "orders")

	empty := NewPipelineMetrics(nil)
	empty.ObserveStage("orders", time.Second)
	empty.IncSuccess("http")
	empty.IncFailure("http", "orders")
}
