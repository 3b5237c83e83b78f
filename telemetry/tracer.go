package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kadirpekel/minion/config"
)

// Span names and attribute keys for the spans this package actually
// emits, grounded on the teacher's observability/constants.go but
// narrowed to Action Node calls, interpreter executions, and cost
// accounting instead of hector's full agent/LLM/tool/RAG surface.
const (
	SpanActionNode     = "actionnode.run"
	SpanInterpreterRun = "interpreter.run"

	AttrModel            = "llm.model"
	AttrPromptTokens     = "llm.tokens.prompt"
	AttrCompletionTokens = "llm.tokens.completion"
	AttrCostUSD          = "llm.cost_usd"
	AttrOpCount          = "interpreter.op_count"
	AttrErrorType        = "error.type"
)

// Tracer wraps an OpenTelemetry TracerProvider with the two span kinds
// this module emits. A Tracer built from a disabled config is safe to
// call: every method works on a no-op span. The methods do not check
// for a nil *Tracer.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer builds a Tracer from cfg. A disabled config returns a
// non-nil Tracer backed by otel's no-op provider, so callers never need
// to nil-check before using it.
func NewTracer(ctx context.Context, cfg config.TracingConfig) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("minion")}, nil
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating span exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return &Tracer{provider: provider, tracer: provider.Tracer(cfg.ServiceName)}, nil
}

func newSpanExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
}

// StartActionNode begins a span for one Action Node turn.
func (t *Tracer) StartActionNode(ctx context.Context, model string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanActionNode, trace.WithAttributes(attribute.String(AttrModel, model)))
}

// StartInterpreterRun begins a span for one Interp.Run call.
func (t *Tracer) StartInterpreterRun(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanInterpreterRun)
}

// AddCost attaches token/cost attributes to span, recorded once the
// enclosing Action Node call has its provider response.
func (t *Tracer) AddCost(span trace.Span, model string, promptTokens, completionTokens int, costUSD float64) {
	span.SetAttributes(
		attribute.String(AttrModel, model),
		attribute.Int(AttrPromptTokens, promptTokens),
		attribute.Int(AttrCompletionTokens, completionTokens),
		attribute.Float64(AttrCostUSD, costUSD),
	)
}

// AddOpCount attaches the interpreter's executed-operation count to span.
func (t *Tracer) AddOpCount(span trace.Span, opCount int) {
	span.SetAttributes(attribute.Int(AttrOpCount, opCount))
}

// RecordError records err on span, if non-nil.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorType, fmt.Sprintf("%T", err)))
}

// Shutdown flushes and stops the underlying TracerProvider, a no-op for
// a Tracer built from a disabled config.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
