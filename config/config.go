// Package config provides configuration types and utilities for Minion.
// This file contains the main unified configuration entry point.
package config

import (
	"fmt"
)

// ============================================================================
// MAIN UNIFIED CONFIGURATION
// ============================================================================

// Config is the complete configuration: one `models` section (alias →
// provider descriptor, per spec.md §4.8/§6), the vector/episodic store
// and embedder providers memory.Memory draws on, and the agent/brain
// defaults that shape a single Brain+AgentLoop run.
type Config struct {
	Version     string            `yaml:"version,omitempty"`
	Name        string            `yaml:"name,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`

	Global GlobalSettings `yaml:"global,omitempty"`

	// EnvFile is the ordered list the hierarchical config resolution
	// loads before expanding ${VAR} references: later files override
	// earlier ones (REDESIGN FLAG 1 — the teacher loads .env.local
	// before .env with first-call-wins semantics, netting the opposite
	// order; LoadEnvFiles here uses overwrite semantics in declared
	// order instead, matching spec.md exactly).
	EnvFile []string `yaml:"env_file,omitempty"`

	Models    map[string]LLMProviderConfig      `yaml:"models,omitempty"`
	Databases map[string]DatabaseProviderConfig `yaml:"databases,omitempty"`
	Embedders map[string]EmbedderProviderConfig `yaml:"embedders,omitempty"`

	Brain     BrainConfig      `yaml:"brain,omitempty"`
	Memory    MemoryConfig     `yaml:"memory,omitempty"`
	AgentLoop AgentLoopConfig  `yaml:"agent_loop,omitempty"`
	Agent     AgentConfig      `yaml:"agent,omitempty"`

	Tools ToolConfigs `yaml:"tools,omitempty"`
}

func (c *Config) Validate() error {
	if err := c.Global.Validate(); err != nil {
		return fmt.Errorf("global settings validation failed: %w", err)
	}
	for name, m := range c.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("model '%s' validation failed: %w", name, err)
		}
	}
	for name, db := range c.Databases {
		if err := db.Validate(); err != nil {
			return fmt.Errorf("database '%s' validation failed: %w", name, err)
		}
	}
	for name, emb := range c.Embedders {
		if err := emb.Validate(); err != nil {
			return fmt.Errorf("embedder '%s' validation failed: %w", name, err)
		}
	}
	if err := c.Brain.Validate(); err != nil {
		return fmt.Errorf("brain configuration validation failed: %w", err)
	}
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("memory configuration validation failed: %w", err)
	}
	if err := c.AgentLoop.Validate(); err != nil {
		return fmt.Errorf("agent_loop configuration validation failed: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent configuration validation failed: %w", err)
	}
	if err := c.Tools.Validate(); err != nil {
		return fmt.Errorf("tools configuration validation failed: %w", err)
	}
	if c.Brain.DefaultModel != "" {
		if _, ok := c.Models[c.Brain.DefaultModel]; !ok {
			return fmt.Errorf("brain.default_model %q not found in models", c.Brain.DefaultModel)
		}
	}
	if _, ok := c.Models[c.Agent.Model]; !ok {
		return fmt.Errorf("agent.model %q not found in models", c.Agent.Model)
	}
	return nil
}

// SetDefaults fills every unset field, including a zero-config
// "default" model entry so Config is immediately usable without a
// config file at all.
func (c *Config) SetDefaults() {
	c.Global.SetDefaults()

	if c.Models == nil {
		c.Models = make(map[string]LLMProviderConfig)
	}
	if c.Databases == nil {
		c.Databases = make(map[string]DatabaseProviderConfig)
	}
	if c.Embedders == nil {
		c.Embedders = make(map[string]EmbedderProviderConfig)
	}
	if len(c.Models) == 0 {
		c.Models["default"] = LLMProviderConfig{}
	}

	for name, m := range c.Models {
		m.SetDefaults()
		c.Models[name] = m
	}
	for name, db := range c.Databases {
		db.SetDefaults()
		c.Databases[name] = db
	}
	for name, emb := range c.Embedders {
		emb.SetDefaults()
		c.Embedders[name] = emb
	}

	c.Brain.SetDefaults()
	c.Memory.SetDefaults()
	c.AgentLoop.SetDefaults()
	c.Agent.SetDefaults()
	c.Tools.SetDefaults()
}

// ============================================================================
// GLOBAL SETTINGS
// ============================================================================

// GlobalSettings holds the ambient, cross-cutting settings every
// component shares regardless of which agent or brain is running.
type GlobalSettings struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
	Performance PerformanceConfig `yaml:"performance,omitempty"`
	Telemetry   TelemetryConfig   `yaml:"telemetry,omitempty"`
}

func (c *GlobalSettings) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	if err := c.Performance.Validate(); err != nil {
		return fmt.Errorf("performance config validation failed: %w", err)
	}
	if err := c.Telemetry.Tracing.Validate(); err != nil {
		return fmt.Errorf("telemetry tracing validation failed: %w", err)
	}
	if err := c.Telemetry.Metrics.Validate(); err != nil {
		return fmt.Errorf("telemetry metrics validation failed: %w", err)
	}
	return nil
}

func (c *GlobalSettings) SetDefaults() {
	c.Logging.SetDefaults()
	c.Performance.SetDefaults()
	c.Telemetry.Tracing.SetDefaults()
	c.Telemetry.Metrics.SetDefaults()
}

// ============================================================================
// HELPER METHODS
// ============================================================================

// Merge overlays other on top of c: non-empty scalar fields and EnvFile
// from other win; map entries (Metadata, Models, Databases, Embedders)
// are merged key by key with other winning; each section (Global, Brain,
// Memory, AgentLoop, Agent, Tools) is replaced whole by other's when
// other's section is non-zero or sets its key field (Brain.DefaultModel,
// Memory.Backend, AgentLoop.MaxIterations, Agent.Name,
// Tools.Repositories). Used to layer project config over user config over environment
// defaults, per spec.md §6's "project config > user config >
// environment" priority (Config.Merge is called with higher-priority
// files on the right).
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}
	merged := *c

	if other.Version != "" {
		merged.Version = other.Version
	}
	if other.Name != "" {
		merged.Name = other.Name
	}
	if other.Description != "" {
		merged.Description = other.Description
	}
	for k, v := range other.Metadata {
		if merged.Metadata == nil {
			merged.Metadata = map[string]string{}
		}
		merged.Metadata[k] = v
	}
	if len(other.EnvFile) > 0 {
		merged.EnvFile = other.EnvFile
	}

	mergeModels(&merged, other)

	if other.Global != (GlobalSettings{}) {
		merged.Global = other.Global
	}
	if other.Brain.DefaultModel != "" {
		merged.Brain = other.Brain
	}
	if other.Memory.Backend != "" {
		merged.Memory = other.Memory
	}
	if other.AgentLoop.MaxIterations != 0 {
		merged.AgentLoop = other.AgentLoop
	}
	if other.Agent.Name != "" {
		merged.Agent = other.Agent
	}
	if len(other.Tools.Repositories) > 0 {
		merged.Tools = other.Tools
	}
	return &merged
}

func mergeModels(merged, other *Config) {
	for name, m := range other.Models {
		if merged.Models == nil {
			merged.Models = map[string]LLMProviderConfig{}
		}
		merged.Models[name] = m
	}
	for name, db := range other.Databases {
		if merged.Databases == nil {
			merged.Databases = map[string]DatabaseProviderConfig{}
		}
		merged.Databases[name] = db
	}
	for name, emb := range other.Embedders {
		if merged.Embedders == nil {
			merged.Embedders = map[string]EmbedderProviderConfig{}
		}
		merged.Embedders[name] = emb
	}
}
