package telemetry

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/minion/config"
)

// Recorder bundles the Tracer and Metrics a Recorder call site needs
// into one value actionnode.Node and interpreter.Interp hold
// optionally. A nil *Recorder is valid and makes every Start call below
// a pure no-op, so components that never configure telemetry pay no
// cost and need no nil-checks of their own — mirroring the teacher's
// NoopTracer/NoopMetrics pattern but collapsed into one nil-receiver
// instead of two always-allocated no-op structs.
type Recorder struct {
	tracer  *Tracer
	metrics *Metrics
}

// NewRecorder builds a Recorder from cfg. Tracing and metrics are
// configured independently: a deployment may enable one without the
// other.
func NewRecorder(ctx context.Context, cfg config.TelemetryConfig) (*Recorder, error) {
	tracer, err := NewTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	return &Recorder{tracer: tracer, metrics: NewMetrics(cfg.Metrics)}, nil
}

// MetricsHandler returns the Prometheus HTTP handler, or a 503 stub
// when r is nil or metrics are disabled.
func (r *Recorder) MetricsHandler() http.Handler {
	if r == nil {
		return (*Metrics)(nil).Handler()
	}
	return r.metrics.Handler()
}

// ActionNodeSpan tracks one in-flight Action Node turn.
type ActionNodeSpan struct {
	r     *Recorder
	span  trace.Span
	model string
	start time.Time
}

// StartActionNode begins recording one Action Node turn for model.
func (r *Recorder) StartActionNode(ctx context.Context, model string) (context.Context, *ActionNodeSpan) {
	if r == nil {
		return ctx, &ActionNodeSpan{model: model, start: time.Now()}
	}
	spanCtx, span := r.tracer.StartActionNode(ctx, model)
	return spanCtx, &ActionNodeSpan{r: r, span: span, model: model, start: time.Now()}
}

// AddCost attaches token/cost figures to the span, once the provider
// response is known.
func (s *ActionNodeSpan) AddCost(promptTokens, completionTokens int, costUSD float64) {
	if s.r == nil {
		return
	}
	s.r.tracer.AddCost(s.span, s.model, promptTokens, completionTokens, costUSD)
	s.r.metrics.recordCost(s.model, promptTokens, completionTokens, costUSD)
}

// End closes the span and records the call's duration/error outcome.
func (s *ActionNodeSpan) End(err error) {
	duration := time.Since(s.start)
	if s.r == nil {
		return
	}
	s.r.tracer.RecordError(s.span, err)
	s.span.End()
	s.r.metrics.recordActionNode(s.model, duration, err)
}

// InterpreterSpan tracks one in-flight interpreter Run call.
type InterpreterSpan struct {
	r     *Recorder
	span  trace.Span
	start time.Time
}

// StartInterpreterRun begins recording one Interp.Run call.
func (r *Recorder) StartInterpreterRun(ctx context.Context) (context.Context, *InterpreterSpan) {
	if r == nil {
		return ctx, &InterpreterSpan{start: time.Now()}
	}
	spanCtx, span := r.tracer.StartInterpreterRun(ctx)
	return spanCtx, &InterpreterSpan{r: r, span: span, start: time.Now()}
}

// End closes the span and records the run's duration, op count, and
// error outcome.
func (s *InterpreterSpan) End(opCount int, err error) {
	duration := time.Since(s.start)
	if s.r == nil {
		return
	}
	s.r.tracer.AddOpCount(s.span, opCount)
	s.r.tracer.RecordError(s.span, err)
	s.span.End()
	s.r.metrics.recordInterpreterRun(duration, opCount, err)
}

// Shutdown flushes the underlying tracer provider, a no-op when r is
// nil or tracing was never enabled.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.tracer.Shutdown(ctx)
}
