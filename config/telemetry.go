package config

import "fmt"

// TelemetryConfig configures the telemetry package's tracing/metrics
// seam over Action Node calls, interpreter executions, and cost
// accounting, grounded on the teacher's pkg/observability.Config
// (TracingConfig/MetricsConfig), narrowed to the spans and counters
// this module actually emits.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures the OpenTelemetry tracer provider.
type TracingConfig struct {
	// Enabled turns on span emission for actionnode/interpreter calls.
	Enabled bool `yaml:"enabled,omitempty"`
	// Exporter selects the span exporter: "stdout" (default) or "otlp".
	Exporter string `yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector endpoint, used when Exporter is "otlp".
	Endpoint string `yaml:"endpoint,omitempty"`
	// SamplingRate is the fraction of traces sampled, 0.0-1.0.
	SamplingRate float64 `yaml:"sampling_rate,omitempty"`
	// ServiceName identifies this process in emitted spans.
	ServiceName string `yaml:"service_name,omitempty"`
	// Insecure disables TLS on the OTLP exporter connection.
	Insecure bool `yaml:"insecure,omitempty"`
}

func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Exporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("invalid tracing exporter: %s", c.Exporter)
	}
	if c.Exporter == "otlp" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required for otlp exporter")
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be between 0 and 1, got %f", c.SamplingRate)
	}
	return nil
}

func (c *TracingConfig) SetDefaults() {
	if c.Exporter == "" {
		c.Exporter = "stdout"
	}
	if c.ServiceName == "" {
		c.ServiceName = "minion"
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = 1.0
	}
	if !c.Enabled {
		c.Insecure = true
	}
}

// MetricsConfig configures the Prometheus registry telemetry.Metrics exposes.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the /metrics handler.
	Enabled bool `yaml:"enabled,omitempty"`
	// Namespace prefixes every metric name (e.g. "minion_actionnode_calls_total").
	Namespace string `yaml:"namespace,omitempty"`
}

func (c *MetricsConfig) Validate() error {
	return nil
}

func (c *MetricsConfig) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "minion"
	}
}
