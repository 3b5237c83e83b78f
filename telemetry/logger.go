// Package telemetry provides the ambient logging, tracing, and metrics
// seam shared by long-lived components: an hclog.Logger factory per
// spec.md's "external collaborators" (grounded on the teacher's
// plugins/grpc/loader.go one-logger-per-component idiom), and a
// minimal OpenTelemetry tracing and Prometheus metrics Recorder over Action Node
// calls, interpreter executions, and cost accounting (grounded on the
// teacher's pkg/observability package).
package telemetry

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/kadirpekel/minion/config"
)

// NewLogger builds an hclog.Logger named name, leveled and formatted
// per cfg, the way the teacher's GRPCLoader builds its
// hclog.New(&hclog.LoggerOptions{...}) logger.
func NewLogger(name string, cfg config.LoggingConfig) hclog.Logger {
	var out io.Writer = os.Stdout
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "file":
		// File output is not supported: NewLogger takes no file path or
		// writer, so "file" logs to stdout like the default.
		out = os.Stdout
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      parseLevel(cfg.Level),
		Output:     out,
		JSONFormat: cfg.Format == "json",
	})
}

func parseLevel(level string) hclog.Level {
	switch level {
	case "debug":
		return hclog.Debug
	case "info":
		return hclog.Info
	case "warn":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}
