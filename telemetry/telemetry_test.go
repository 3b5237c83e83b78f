package telemetry

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/kadirpekel/minion/config"
)

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		cfg := config.LoggingConfig{Level: level, Format: "json", Output: "stdout"}
		logger := NewLogger("minion", cfg)
		if logger == nil {
			t.Fatalf("NewLogger(%q) returned nil", level)
		}
	}
}

func TestNewTracer_Disabled(t *testing.T) {
	tracer, err := NewTracer(context.Background(), config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	ctx, span := tracer.StartActionNode(context.Background(), "mock-model")
	if ctx == nil {
		t.Fatalf("StartActionNode returned nil context")
	}
	tracer.AddCost(span, "mock-model", 10, 5, 0.001)
	tracer.RecordError(span, nil)
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown on disabled tracer: %v", err)
	}
}

func TestNewTracer_StdoutExporter(t *testing.T) {
	cfg := config.TracingConfig{Enabled: true, Exporter: "stdout", ServiceName: "minion-test", SamplingRate: 1.0}
	tracer, err := NewTracer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	_, span := tracer.StartInterpreterRun(context.Background())
	tracer.AddOpCount(span, 42)
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestNewMetrics_Disabled(t *testing.T) {
	m := NewMetrics(config.MetricsConfig{Enabled: false})
	if m != nil {
		t.Fatalf("NewMetrics(disabled) = %v, want nil", m)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)
	if rec.Code != 503 {
		t.Fatalf("disabled Metrics.Handler() status = %d, want 503", rec.Code)
	}
}

func TestNewMetrics_Enabled(t *testing.T) {
	m := NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "minion_test"})
	if m == nil {
		t.Fatalf("NewMetrics(enabled) returned nil")
	}
	m.recordActionNode("mock-model", 0, nil)
	m.recordInterpreterRun(0, 3, nil)
	m.recordCost("mock-model", 10, 5, 0.002)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("enabled Metrics.Handler() status = %d, want 200", rec.Code)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	ctx, span := r.StartActionNode(context.Background(), "mock-model")
	if ctx == nil {
		t.Fatalf("nil Recorder.StartActionNode returned nil context")
	}
	span.AddCost(10, 5, 0.001)
	span.End(nil)

	ctx2, ispan := r.StartInterpreterRun(context.Background())
	if ctx2 == nil {
		t.Fatalf("nil Recorder.StartInterpreterRun returned nil context")
	}
	ispan.End(7, nil)

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil Recorder.Shutdown: %v", err)
	}
	if r.MetricsHandler() == nil {
		t.Fatalf("nil Recorder.MetricsHandler() returned nil")
	}
}

func TestNewRecorder_EnabledEndToEnd(t *testing.T) {
	cfg := config.TelemetryConfig{
		Tracing: config.TracingConfig{Enabled: true, Exporter: "stdout", ServiceName: "minion-test", SamplingRate: 1.0},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "minion_e2e"},
	}
	rec, err := NewRecorder(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	ctx, span := rec.StartActionNode(context.Background(), "mock-model")
	if ctx == nil {
		t.Fatalf("StartActionNode returned nil context")
	}
	span.AddCost(100, 20, 0.01)
	span.End(nil)

	_, ispan := rec.StartInterpreterRun(context.Background())
	ispan.End(5, nil)

	if err := rec.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
