// Package tools implements the tool surface (C3): the Tool/AsyncTool
// contract, the deferred-loading registry, dynamic discovery via
// tool_search/load_tool, and tool collections (MCP, filesystem skills,
// process plugins).
package tools

import (
	"context"
	"time"

	"github.com/kadirpekel/minion/schema"
)

// Result is the outcome of one tool execution.
type Result struct {
	Success       bool
	Content       string
	Output        any
	Error         string
	ToolName      string
	ExecutionTime time.Duration
	Metadata      map[string]any
}

// Tool is a synchronously-invoked capability exposed to a reasoning
// worker. Descriptor is cheap; most tools build it once and return a
// cached value.
type Tool interface {
	Descriptor() schema.ToolDescriptor
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// AsyncTool is a Tool that also offers a channel-returning ExecuteAsync.
// Registry.Execute always calls Execute; the Registry has no ExecuteAsync
// and does not move sync Tools onto a worker pool.
type AsyncTool interface {
	Tool
	ExecuteAsync(ctx context.Context, args map[string]any) (<-chan Result, error)
}

// Source is a provider of tools discovered at runtime: a local
// repository, an MCP server, a skills directory, or a plugin process.
// Setup/Close form its lifecycle. There is no option to keep a Source
// whose Setup fails as Unhealthy: agentloop.Agent.Setup stops at the
// first Source whose Setup returns an error.
type Source interface {
	Name() string
	Kind() string
	Setup(ctx context.Context) error
	Close() error
	Healthy() bool
	List() []schema.ToolInfo
	Get(name string) (Tool, bool)
}

func infoFromDescriptor(d schema.ToolDescriptor, source string) schema.ToolInfo {
	params := make([]schema.ParamSchema, 0, len(d.Inputs))
	for _, p := range d.Inputs {
		params = append(params, p)
	}
	return schema.ToolInfo{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  params,
		Source:      source,
	}
}
