package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/kadirpekel/minion/schema"
)

// LocalSource is a Source backed by an in-process map of built-in
// tools (CommandTool, FileWriterTool, SearchReplaceTool, or anything
// produced by Convert). Unlike the remote-collection Sources it never
// blocks in Setup and is always Healthy.
type LocalSource struct {
	name  string
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewLocalSource creates an empty named local tool source.
func NewLocalSource(name string) *LocalSource {
	if name == "" {
		name = "local"
	}
	return &LocalSource{name: name, tools: make(map[string]Tool)}
}

func (s *LocalSource) Name() string { return s.name }
func (s *LocalSource) Kind() string { return "local" }

// Setup is a no-op: local tools are registered directly via RegisterTool,
// not discovered.
func (s *LocalSource) Setup(ctx context.Context) error { return nil }
func (s *LocalSource) Close() error                    { return nil }
func (s *LocalSource) Healthy() bool                   { return true }

// RegisterTool adds a tool under its own descriptor name.
func (s *LocalSource) RegisterTool(tool Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := tool.Descriptor().Name
	if name == "" {
		return fmt.Errorf("tools: local source %s: tool name cannot be empty", s.name)
	}
	if _, exists := s.tools[name]; exists {
		return fmt.Errorf("tools: local source %s: tool %s already registered", s.name, name)
	}
	s.tools[name] = tool
	return nil
}

// RemoveTool drops a previously registered tool.
func (s *LocalSource) RemoveTool(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tools[name]; !exists {
		return fmt.Errorf("tools: local source %s: tool %s not found", s.name, name)
	}
	delete(s.tools, name)
	return nil
}

func (s *LocalSource) List() []schema.ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]schema.ToolInfo, 0, len(s.tools))
	for _, tool := range s.tools {
		infos = append(infos, infoFromDescriptor(tool.Descriptor(), s.name))
	}
	return infos
}

func (s *LocalSource) Get(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tool, ok := s.tools[name]
	return tool, ok
}
