package config

import "fmt"

// PromptConfig shapes the system prompt an agent's Brain assembles
// before each step.
type PromptConfig struct {
	SystemPrompt     string            `yaml:"system_prompt"`
	Instructions     string            `yaml:"instructions"`
	Template         string            `yaml:"template"`
	Variables        map[string]string `yaml:"variables,omitempty"`
	IncludeHistory   bool              `yaml:"include_history"`
	IncludeTools     bool              `yaml:"include_tools"`
	MaxContextLength int               `yaml:"max_context_length"`
}

func (c *PromptConfig) Validate() error {
	if c.MaxContextLength < 0 {
		return fmt.Errorf("max_context_length must be non-negative")
	}
	return nil
}

func (c *PromptConfig) SetDefaults() {
	if c.SystemPrompt == "" {
		c.SystemPrompt = "You are a helpful AI assistant. Use available tools and reasoning to answer accurately."
	}
	if c.MaxContextLength == 0 {
		c.MaxContextLength = 4000
	}
	if !c.IncludeHistory {
		c.IncludeHistory = true
	}
	if !c.IncludeTools {
		c.IncludeTools = true
	}
}

// WorkerConfig selects and parameterizes one reasoning.Worker route for
// an agent, mirroring the knobs on reasoning.Deps directly.
type WorkerConfig struct {
	Route             string   `yaml:"route"` // "raw", "cot", "dcot", "python", "code", "plan", "ensemble", "route", "moderator"
	MaxRetries        int      `yaml:"max_retries"`
	EnsembleWorkers   []string `yaml:"ensemble_workers,omitempty"`
	EnsembleAggregate string   `yaml:"ensemble_aggregate,omitempty"` // "majority", "weighted", "best"
	ConcurrentTasks   bool     `yaml:"concurrent_tasks"`
	DCoTSamples       int      `yaml:"dcot_samples"`
}

func (c *WorkerConfig) Validate() error {
	if c.Route == "" {
		return fmt.Errorf("route is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.DCoTSamples < 0 {
		return fmt.Errorf("dcot_samples must be non-negative")
	}
	switch c.EnsembleAggregate {
	case "", "majority", "weighted", "best":
	default:
		return fmt.Errorf("invalid ensemble_aggregate: %s", c.EnsembleAggregate)
	}
	return nil
}

func (c *WorkerConfig) SetDefaults() {
	if c.Route == "" {
		c.Route = "moderator"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.EnsembleAggregate == "" {
		c.EnsembleAggregate = "majority"
	}
	if c.DCoTSamples == 0 {
		c.DCoTSamples = 3
	}
}

// CheckConfig configures an agent's check/improve loop (package check).
type CheckConfig struct {
	Enabled              bool    `yaml:"enabled"`
	Mode                 string  `yaml:"mode"` // "llm", "test", "doctest", "codium"
	Rubric               string  `yaml:"rubric,omitempty"`
	MaxRounds            int     `yaml:"max_rounds"`
	AcceptanceThreshold  float64 `yaml:"acceptance_threshold"`
	Tolerance            float64 `yaml:"tolerance"`
}

func (c *CheckConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Mode {
	case "llm", "test", "doctest", "codium":
	default:
		return fmt.Errorf("invalid check mode: %s", c.Mode)
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be positive")
	}
	if c.AcceptanceThreshold < 0 || c.AcceptanceThreshold > 1 {
		return fmt.Errorf("acceptance_threshold must be between 0 and 1")
	}
	return nil
}

func (c *CheckConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "llm"
	}
	if c.Rubric == "" {
		c.Rubric = "Score how correctly and completely the candidate answer addresses the query, from 0.0 (wrong or empty) to 1.0 (fully correct)."
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 3
	}
	if c.AcceptanceThreshold == 0 {
		c.AcceptanceThreshold = 0.8
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-6
	}
}

// AgentConfig is one named agent: the model it runs on, the worker
// route it reasons with, its prompt, and its optional check/improve
// loop and memory backend.
type AgentConfig struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Model       string       `yaml:"model"` // alias into Config.Models
	Memory      string       `yaml:"memory,omitempty"`
	Prompt      PromptConfig `yaml:"prompt"`
	Worker      WorkerConfig `yaml:"worker"`
	Check       CheckConfig  `yaml:"check"`
	Tools       ToolConfigs  `yaml:"tools"`
}

func (c *AgentConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if err := c.Prompt.Validate(); err != nil {
		return fmt.Errorf("prompt configuration validation failed: %w", err)
	}
	if err := c.Worker.Validate(); err != nil {
		return fmt.Errorf("worker configuration validation failed: %w", err)
	}
	if err := c.Check.Validate(); err != nil {
		return fmt.Errorf("check configuration validation failed: %w", err)
	}
	if err := c.Tools.Validate(); err != nil {
		return fmt.Errorf("tools configuration validation failed: %w", err)
	}
	return nil
}

func (c *AgentConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "assistant"
	}
	if c.Model == "" {
		c.Model = "default"
	}
	c.Prompt.SetDefaults()
	c.Worker.SetDefaults()
	c.Check.SetDefaults()
	c.Tools.SetDefaults()
}
