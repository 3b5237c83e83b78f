package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kadirpekel/minion/config"
)

// Metrics collects Prometheus counters/histograms over Action Node
// calls, interpreter executions, and cost accounting, grounded on the
// teacher's pkg/observability.Metrics (same CounterVec/HistogramVec
// construction, same per-namespace registry), narrowed to this
// module's three concerns instead of hector's agent/LLM/tool/HTTP/RAG
// surface.
type Metrics struct {
	registry *prometheus.Registry

	actionNodeCalls    *prometheus.CounterVec
	actionNodeDuration *prometheus.HistogramVec
	actionNodeErrors   *prometheus.CounterVec

	interpreterRuns     *prometheus.CounterVec
	interpreterDuration prometheus.Histogram
	interpreterOps      prometheus.Histogram

	costTokens *prometheus.CounterVec
	costUSD    *prometheus.CounterVec
}

// NewMetrics builds a Metrics registry per cfg, or nil when metrics are
// disabled (Recorder treats a nil *Metrics as a no-op throughout).
func NewMetrics(cfg config.MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.actionNodeCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "actionnode", Name: "calls_total",
		Help: "Total number of Action Node turns run.",
	}, []string{"model"})
	m.actionNodeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "actionnode", Name: "duration_seconds",
		Help: "Action Node turn duration in seconds.",
	}, []string{"model"})
	m.actionNodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "actionnode", Name: "errors_total",
		Help: "Total number of Action Node turns that returned an error.",
	}, []string{"model"})

	m.interpreterRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "interpreter", Name: "runs_total",
		Help: "Total number of interpreter Run calls.",
	}, []string{"outcome"})
	m.interpreterDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "interpreter", Name: "duration_seconds",
		Help: "Interpreter Run duration in seconds.",
	})
	m.interpreterOps = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "interpreter", Name: "op_count",
		Help: "Number of operations executed per interpreter Run call.",
		Buckets: prometheus.ExponentialBuckets(10, 2, 12),
	})

	m.costTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "cost", Name: "tokens_total",
		Help: "Total prompt/completion tokens consumed, by model and kind.",
	}, []string{"model", "kind"})
	m.costUSD = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "cost", Name: "usd_total",
		Help: "Total estimated dollar cost, by model.",
	}, []string{"model"})

	m.registry.MustRegister(
		m.actionNodeCalls, m.actionNodeDuration, m.actionNodeErrors,
		m.interpreterRuns, m.interpreterDuration, m.interpreterOps,
		m.costTokens, m.costUSD,
	)
	return m
}

func (m *Metrics) recordActionNode(model string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.actionNodeCalls.WithLabelValues(model).Inc()
	m.actionNodeDuration.WithLabelValues(model).Observe(duration.Seconds())
	if err != nil {
		m.actionNodeErrors.WithLabelValues(model).Inc()
	}
}

func (m *Metrics) recordInterpreterRun(duration time.Duration, opCount int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.interpreterRuns.WithLabelValues(outcome).Inc()
	m.interpreterDuration.Observe(duration.Seconds())
	m.interpreterOps.Observe(float64(opCount))
}

func (m *Metrics) recordCost(model string, promptTokens, completionTokens int, costUSD float64) {
	if m == nil {
		return
	}
	m.costTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	m.costTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	m.costUSD.WithLabelValues(model).Add(costUSD)
}

// Handler serves the Prometheus exposition format, or 503 when metrics
// are disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
