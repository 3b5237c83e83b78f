package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kadirpekel/minion/schema"
)

// MCPConfig configures one MCP-backed tool source.
type MCPConfig struct {
	Name    string
	Command string            // stdio transport: subprocess to launch
	Args    []string
	Env     map[string]string
	URL     string            // not used: Setup supports only the stdio transport
	Filter  []string          // when non-empty, only these tool names are exposed
}

// MCPCollection is a tools.Source backed by one MCP server, reached over
// stdio via mark3labs/mcp-go, grounded on the teacher's
// pkg/tool/mcptoolset package. Connection is established lazily in
// Setup rather than at construction, matching that package's
// lazy-connect convention.
type MCPCollection struct {
	cfg MCPConfig

	mu      sync.Mutex
	client  *client.Client
	tools   map[string]*mcpTool
	healthy bool
}

// NewMCPCollection builds an MCPCollection. Setup must be called before
// List/Get return anything.
func NewMCPCollection(cfg MCPConfig) *MCPCollection {
	return &MCPCollection{cfg: cfg, tools: make(map[string]*mcpTool)}
}

func (c *MCPCollection) Name() string { return c.cfg.Name }
func (c *MCPCollection) Kind() string { return "mcp" }

// Setup connects to the MCP server and lists its tools. Per spec,
// callers with ignore_setup_errors set should treat a returned error as
// "mark Unhealthy" rather than abort the whole registry.
func (c *MCPCollection) Setup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Command == "" {
		return fmt.Errorf("mcp collection %q: only stdio transport is supported, command is required", c.cfg.Name)
	}

	mcpClient, err := client.NewStdioMCPClient(c.cfg.Command, envSlice(c.cfg.Env), c.cfg.Args...)
	if err != nil {
		return fmt.Errorf("mcp collection %q: creating client: %w", c.cfg.Name, err)
	}
	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("mcp collection %q: starting client: %w", c.cfg.Name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "minion", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return fmt.Errorf("mcp collection %q: initializing: %w", c.cfg.Name, err)
	}

	listResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("mcp collection %q: listing tools: %w", c.cfg.Name, err)
	}

	var filter map[string]bool
	if len(c.cfg.Filter) > 0 {
		filter = make(map[string]bool, len(c.cfg.Filter))
		for _, name := range c.cfg.Filter {
			filter[name] = true
		}
	}

	tools := make(map[string]*mcpTool, len(listResp.Tools))
	for _, mt := range listResp.Tools {
		if filter != nil && !filter[mt.Name] {
			continue
		}
		tools[mt.Name] = &mcpTool{
			collection: c,
			name:       mt.Name,
			desc:       mt.Description,
			inputs:     paramsFromMCPSchema(mt.InputSchema),
		}
	}

	c.client = mcpClient
	c.tools = tools
	c.healthy = true
	return nil
}

func (c *MCPCollection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.healthy = false
	return err
}

func (c *MCPCollection) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *MCPCollection) List() []schema.ToolInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schema.ToolInfo, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, infoFromDescriptor(t.Descriptor(), c.cfg.Name))
	}
	return out
}

func (c *MCPCollection) Get(name string) (Tool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tools[name]
	return t, ok
}

// mcpTool adapts one remote MCP tool to tools.Tool, calling it over the
// owning collection's live client connection.
type mcpTool struct {
	collection *MCPCollection
	name       string
	desc       string
	inputs     map[string]schema.ParamSchema
}

func (t *mcpTool) Descriptor() schema.ToolDescriptor {
	return schema.ToolDescriptor{Name: t.name, Description: t.desc, Inputs: t.inputs, OutputType: "string"}
}

func (t *mcpTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	t.collection.mu.Lock()
	mcpClient := t.collection.client
	t.collection.mu.Unlock()
	if mcpClient == nil {
		return Result{}, fmt.Errorf("mcp tool %q: collection not connected", t.name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("mcp tool %q: call failed: %w", t.name, err)
	}

	var texts []string
	for _, content := range resp.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	text := joinLines(texts)
	if resp.IsError {
		return Result{Success: false, Error: text, ToolName: t.name}, nil
	}
	return Result{Success: true, Content: text, ToolName: t.name}, nil
}

// paramsFromMCPSchema converts an MCP tool's input schema into this
// module's ParamSchema shape. mcp.ToolInputSchema is marshalled to a
// plain map rather than read field-by-field, mirroring the teacher's
// own mcptoolset.convertSchema (round-trip through encoding/json rather
// than assuming specific exported field names).
func paramsFromMCPSchema(s mcp.ToolInputSchema) map[string]schema.ParamSchema {
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var raw struct {
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(raw.Required))
	for _, name := range raw.Required {
		required[name] = true
	}
	out := make(map[string]schema.ParamSchema, len(raw.Properties))
	for name, prop := range raw.Properties {
		typ, _ := prop["type"].(string)
		desc, _ := prop["description"].(string)
		out[name] = schema.ParamSchema{Type: typ, Description: desc, Optional: !required[name]}
	}
	return out
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func joinLines(lines []string) string {
	switch len(lines) {
	case 0:
		return ""
	case 1:
		return lines[0]
	}
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}

var _ Source = (*MCPCollection)(nil)
var _ Tool = (*mcpTool)(nil)
