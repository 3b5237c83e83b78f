package tools

import (
	"context"
	"fmt"
	"net/rpc"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/kadirpekel/minion/schema"
)

// toolHandshake is the magic-cookie handshake a process tool plugin
// binary must present, grounded on the teacher's
// plugins/grpc/loader.go handshakeConfig.
var toolHandshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MINION_PLUGIN",
	MagicCookieValue: "minion_tool_plugin_v1",
}

const toolPluginName = "tool_provider"

// ToolProviderRPC is what an out-of-process tool plugin binary
// implements, dispensed over hashicorp/go-plugin's net/rpc transport.
type ToolProviderRPC interface {
	ListTools() ([]schema.ToolDescriptor, error)
	CallTool(name string, args map[string]any) (Result, error)
}

// toolProviderPlugin is the go-plugin Plugin implementation shared by
// both sides of the connection: the plugin binary registers it with
// Impl set, the host dispenses it with Impl left nil.
type toolProviderPlugin struct {
	Impl ToolProviderRPC
}

func (p *toolProviderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &toolProviderRPCServer{impl: p.Impl}, nil
}

func (p *toolProviderPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &toolProviderRPCClient{client: c}, nil
}

type toolProviderRPCServer struct{ impl ToolProviderRPC }

func (s *toolProviderRPCServer) ListTools(_ struct{}, resp *[]schema.ToolDescriptor) error {
	descs, err := s.impl.ListTools()
	*resp = descs
	return err
}

type callToolArgs struct {
	Name string
	Args map[string]any
}

func (s *toolProviderRPCServer) CallTool(req callToolArgs, resp *Result) error {
	r, err := s.impl.CallTool(req.Name, req.Args)
	*resp = r
	return err
}

// toolProviderRPCClient is the host-side stub dispensed from a running
// plugin process.
type toolProviderRPCClient struct{ client *rpc.Client }

func (c *toolProviderRPCClient) ListTools() ([]schema.ToolDescriptor, error) {
	var resp []schema.ToolDescriptor
	err := c.client.Call("Plugin.ListTools", struct{}{}, &resp)
	return resp, err
}

func (c *toolProviderRPCClient) CallTool(name string, args map[string]any) (Result, error) {
	var resp Result
	err := c.client.Call("Plugin.CallTool", callToolArgs{Name: name, Args: args}, &resp)
	return resp, err
}

var _ ToolProviderRPC = (*toolProviderRPCClient)(nil)

// ProcessConfig configures one out-of-process tool plugin.
type ProcessConfig struct {
	Name string
	Path string // plugin executable path
}

// ProcessCollection is a tools.Source backed by a subprocess speaking
// hashicorp/go-plugin, adapted from the teacher's
// plugins/grpc/loader.go health-check/restart lifecycle
// (StatusReady/StatusCrashed) into the tools.Source contract, for tool
// sources that are neither MCP nor filesystem skills.
type ProcessCollection struct {
	cfg ProcessConfig

	mu       sync.Mutex
	client   *plugin.Client
	provider ToolProviderRPC
	tools    map[string]*processTool
	healthy  bool
}

// NewProcessCollection builds a ProcessCollection over cfg.Path.
func NewProcessCollection(cfg ProcessConfig) *ProcessCollection {
	return &ProcessCollection{cfg: cfg}
}

func (c *ProcessCollection) Name() string { return c.cfg.Name }
func (c *ProcessCollection) Kind() string { return "process" }

// Setup launches the plugin subprocess, dispenses its ToolProviderRPC,
// and lists its tools.
func (c *ProcessCollection) Setup(ctx context.Context) error {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  toolHandshake,
		Plugins:          map[string]plugin.Plugin{toolPluginName: &toolProviderPlugin{}},
		Cmd:              exec.Command(c.cfg.Path),
		Logger:           hclog.New(&hclog.LoggerOptions{Name: "minion-plugin", Level: hclog.Info}),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return fmt.Errorf("process collection %q: connecting: %w", c.cfg.Name, err)
	}

	raw, err := rpcClient.Dispense(toolPluginName)
	if err != nil {
		client.Kill()
		return fmt.Errorf("process collection %q: dispensing: %w", c.cfg.Name, err)
	}

	provider, ok := raw.(ToolProviderRPC)
	if !ok {
		client.Kill()
		return fmt.Errorf("process collection %q: plugin does not implement ToolProviderRPC", c.cfg.Name)
	}

	descs, err := provider.ListTools()
	if err != nil {
		client.Kill()
		return fmt.Errorf("process collection %q: listing tools: %w", c.cfg.Name, err)
	}

	tools := make(map[string]*processTool, len(descs))
	for _, d := range descs {
		tools[d.Name] = &processTool{collection: c, desc: d}
	}

	c.mu.Lock()
	c.client = client
	c.provider = provider
	c.tools = tools
	c.healthy = true
	c.mu.Unlock()
	return nil
}

// Close kills the plugin subprocess. Per the teacher's loader, Kill is
// idempotent and safe to call on an already-crashed client.
func (c *ProcessCollection) Close() error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.provider = nil
	c.healthy = false
	c.mu.Unlock()

	if client != nil {
		client.Kill()
	}
	return nil
}

func (c *ProcessCollection) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *ProcessCollection) List() []schema.ToolInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schema.ToolInfo, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, infoFromDescriptor(t.desc, c.cfg.Name))
	}
	return out
}

func (c *ProcessCollection) Get(name string) (Tool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tools[name]
	return t, ok
}

// processTool adapts one remote tool to tools.Tool, calling it through
// the owning collection's live plugin connection.
type processTool struct {
	collection *ProcessCollection
	desc       schema.ToolDescriptor
}

func (t *processTool) Descriptor() schema.ToolDescriptor { return t.desc }

func (t *processTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	t.collection.mu.Lock()
	provider := t.collection.provider
	t.collection.mu.Unlock()
	if provider == nil {
		return Result{}, fmt.Errorf("process tool %q: collection not connected", t.desc.Name)
	}
	return provider.CallTool(t.desc.Name, args)
}

var _ Source = (*ProcessCollection)(nil)
var _ Tool = (*processTool)(nil)
