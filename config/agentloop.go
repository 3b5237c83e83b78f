package config

import "fmt"

// AgentLoopConfig bounds one agentloop.Agent's lifecycle: how many
// steps it may take, whether it auto-decays large outputs and
// auto-compacts long histories between steps, and the token budget
// those two passes are measured against.
type AgentLoopConfig struct {
	MaxIterations int  `yaml:"max_iterations"`
	AutoDecay     bool `yaml:"auto_decay"`
	AutoCompact   bool `yaml:"auto_compact"`

	// TokenBudget is the context-window budget auto-compact keeps
	// history under (spec.md §4.9's `context_window`); CompactModel
	// selects which tiktoken-go encoding to count against (falls back to
	// a byte/4 estimator when unknown).
	TokenBudget  int    `yaml:"token_budget"`
	CompactModel string `yaml:"compact_model"`

	// AutoCompactThreshold is the fraction of TokenBudget that triggers
	// compaction (spec.md §4.9: "count >= auto_compact_threshold ×
	// context_window"). AutoCompactKeepRecent is how many trailing
	// messages auto-compact always pins alongside system messages.
	AutoCompactThreshold  float64 `yaml:"auto_compact_threshold"`
	AutoCompactKeepRecent int     `yaml:"auto_compact_keep_recent"`

	// DecayMinSizeBytes and DecayTTLSteps are the two conditions
	// spec.md §4.9 requires both of for a historical message to be
	// decayable: content size >= DecayMinSizeBytes, and age >=
	// DecayTTLSteps steps.
	DecayMinSizeBytes int    `yaml:"decay_min_size_bytes"`
	DecayTTLSteps     int    `yaml:"decay_ttl_steps"`
	CacheDir          string `yaml:"cache_dir"`
}

func (c *AgentLoopConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.TokenBudget <= 0 {
		return fmt.Errorf("token_budget must be positive")
	}
	if c.AutoCompactThreshold <= 0 || c.AutoCompactThreshold > 1 {
		return fmt.Errorf("auto_compact_threshold must be between 0 and 1")
	}
	if c.AutoCompactKeepRecent < 0 {
		return fmt.Errorf("auto_compact_keep_recent must be non-negative")
	}
	if c.DecayMinSizeBytes < 0 {
		return fmt.Errorf("decay_min_size_bytes must be non-negative")
	}
	if c.DecayTTLSteps < 0 {
		return fmt.Errorf("decay_ttl_steps must be non-negative")
	}
	return nil
}

func (c *AgentLoopConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 10
	}
	if c.TokenBudget == 0 {
		c.TokenBudget = 8000
	}
	if c.CompactModel == "" {
		c.CompactModel = "gpt-4"
	}
	if c.AutoCompactThreshold == 0 {
		c.AutoCompactThreshold = 0.8
	}
	if c.AutoCompactKeepRecent == 0 {
		c.AutoCompactKeepRecent = 5
	}
	if c.DecayMinSizeBytes == 0 {
		c.DecayMinSizeBytes = 8192
	}
	if c.DecayTTLSteps == 0 {
		c.DecayTTLSteps = 3
	}
	if c.CacheDir == "" {
		c.CacheDir = "./.minion/cache"
	}
}
