// Package config provides configuration types and utilities for Minion.
// This file contains the provider and tool configuration types shared
// across the top-level Config.
package config

import (
	"fmt"
	"time"
)

// ============================================================================
// MODEL (LLM PROVIDER) CONFIGURATION
// ============================================================================

// LLMProviderConfig is one entry of the top-level `models` section: an
// alias to provider descriptor mapping, per spec.md §4.8/§6 ("models"
// section, alias → provider descriptor with at least api_type, model,
// and provider-specific credentials).
type LLMProviderConfig struct {
	APIType     string  `yaml:"api_type"`    // "ollama", "openai", "anthropic"
	Model       string  `yaml:"model"`       // model name
	APIKey      string  `yaml:"api_key"`     // API key (OpenAI/Anthropic)
	Host        string  `yaml:"host"`        // host for ollama or a custom endpoint
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     int     `yaml:"timeout"` // request timeout in seconds
}

func (c *LLMProviderConfig) Validate() error {
	if c.APIType == "" {
		return fmt.Errorf("api_type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.APIType == "openai" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for openai")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

func (c *LLMProviderConfig) SetDefaults() {
	if c.APIType == "" {
		c.APIType = "ollama"
	}
	if c.Model == "" {
		c.Model = "llama3.2"
	}
	if c.Host == "" {
		switch c.APIType {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		case "anthropic":
			c.Host = "https://api.anthropic.com"
		default:
			c.Host = "http://localhost:11434"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
}

// ============================================================================
// VECTOR / EPISODIC STORE PROVIDER CONFIGURATION
// ============================================================================

// DatabaseProviderConfig configures a memory.VectorStore or episodic
// backend: "qdrant", "pinecone", or a database/sql driver name
// ("sqlite3", "postgres", "mysql") for memory.SQLEpisodicStore.
type DatabaseProviderConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	APIKey   string `yaml:"api_key"`
	DSN      string `yaml:"dsn"` // connection string for database/sql drivers
	Timeout  int    `yaml:"timeout"`
	UseTLS   bool   `yaml:"use_tls"`
	Insecure bool   `yaml:"insecure"`
}

func (c *DatabaseProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	switch c.Type {
	case "sqlite3", "postgres", "mysql":
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for %s", c.Type)
		}
	default:
		if c.Host == "" {
			return fmt.Errorf("host is required")
		}
		if c.Port <= 0 {
			return fmt.Errorf("port must be positive")
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

func (c *DatabaseProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "qdrant"
	}
	if c.Host == "" && c.DSN == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 && c.Type == "qdrant" {
		c.Port = 6333
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// ============================================================================
// EMBEDDER PROVIDER CONFIGURATION
// ============================================================================

// EmbedderProviderConfig configures the embedding model the semantic
// memory store uses for RetrieveRelevant.
type EmbedderProviderConfig struct {
	Type       string `yaml:"type"`
	Model      string `yaml:"model"`
	Host       string `yaml:"host"`
	Dimension  int    `yaml:"dimension"`
	Timeout    int    `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

func (c *EmbedderProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	return nil
}

func (c *EmbedderProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "ollama"
	}
	if c.Model == "" {
		c.Model = "nomic-embed-text"
	}
	if c.Host == "" {
		c.Host = "http://localhost:11434"
	}
	if c.Dimension == 0 {
		c.Dimension = 768
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// ============================================================================
// TOOL CONFIGURATIONS
// ============================================================================

// CommandToolsConfig bounds the shell-exec tool's allowed surface.
type CommandToolsConfig struct {
	AllowedCommands  []string      `yaml:"allowed_commands"`
	WorkingDirectory string        `yaml:"working_directory"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	EnableSandboxing bool          `yaml:"enable_sandboxing"`
}

func (c *CommandToolsConfig) Validate() error {
	if len(c.AllowedCommands) == 0 {
		return fmt.Errorf("at least one allowed command is required")
	}
	return nil
}

func (c *CommandToolsConfig) SetDefaults() {
	if len(c.AllowedCommands) == 0 {
		c.AllowedCommands = []string{"cat", "head", "tail", "ls", "find", "grep", "wc", "pwd"}
	}
	if c.WorkingDirectory == "" {
		c.WorkingDirectory = "./"
	}
	if c.MaxExecutionTime == 0 {
		c.MaxExecutionTime = 30 * time.Second
	}
	if !c.EnableSandboxing {
		c.EnableSandboxing = true
	}
}

// ToolDefinition is one tool entry in a ToolRepository: the descriptor
// tools.Registry.LoadTool resolves against, deferred until first use.
type ToolDefinition struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"` // "command", "mcp", "native"
	Enabled bool           `yaml:"enabled"`
	Config  map[string]any `yaml:"config,omitempty"`
}

func (c *ToolDefinition) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	return nil
}

func (c *ToolDefinition) SetDefaults() {}

// ToolRepository groups a named source of tools, mirroring
// tools.Registry.AddSource's one-source-per-repository model.
type ToolRepository struct {
	Name        string           `yaml:"name"`
	Type        string           `yaml:"type"` // "local", "mcp"
	Description string           `yaml:"description,omitempty"`
	Endpoint    string           `yaml:"endpoint,omitempty"` // for "mcp"
	Tools       []ToolDefinition `yaml:"tools,omitempty"`
}

func (c *ToolRepository) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	for i, t := range c.Tools {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tool %d validation failed: %w", i, err)
		}
	}
	return nil
}

func (c *ToolRepository) SetDefaults() {
	for i := range c.Tools {
		c.Tools[i].SetDefaults()
	}
}

// ToolConfigs is the `tools` section: named repositories plus which one
// new tool declarations resolve against by default.
type ToolConfigs struct {
	DefaultRepo  string           `yaml:"default_repo,omitempty"`
	Repositories []ToolRepository `yaml:"repositories,omitempty"`
}

func (c *ToolConfigs) Validate() error {
	seen := make(map[string]bool, len(c.Repositories))
	for i, repo := range c.Repositories {
		if err := repo.Validate(); err != nil {
			return fmt.Errorf("repository %d validation failed: %w", i, err)
		}
		if seen[repo.Name] {
			return fmt.Errorf("duplicate repository name: %s", repo.Name)
		}
		seen[repo.Name] = true
	}
	if c.DefaultRepo != "" && !seen[c.DefaultRepo] {
		return fmt.Errorf("default_repo %s not found in repositories", c.DefaultRepo)
	}
	return nil
}

func (c *ToolConfigs) SetDefaults() {
	if len(c.Repositories) == 0 {
		c.DefaultRepo = "local"
		c.Repositories = []ToolRepository{{
			Name:        "local",
			Type:        "local",
			Description: "Built-in local tools",
		}}
	}
	for i := range c.Repositories {
		c.Repositories[i].SetDefaults()
	}
}

// ============================================================================
// AMBIENT CONFIGURATION
// ============================================================================

// LoggingConfig controls the hclog-backed structured logger (see
// telemetry package).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func (c *LoggingConfig) Validate() error {
	if !map[string]bool{"debug": true, "info": true, "warn": true, "error": true}[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	if !map[string]bool{"text": true, "json": true}[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	if !map[string]bool{"stdout": true, "stderr": true, "file": true}[c.Output] {
		return fmt.Errorf("invalid output destination: %s", c.Output)
	}
	return nil
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// PerformanceConfig bounds global concurrency and the default step
// timeout used across reasoning.Deps and agentloop.
type PerformanceConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	Timeout        time.Duration `yaml:"timeout"`
}

func (c *PerformanceConfig) Validate() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func (c *PerformanceConfig) SetDefaults() {
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 4
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Minute
	}
}
