package config

import "fmt"

// BrainConfig is the `models`-adjacent section that tells brain.Brain
// which model alias is the default and which worker route to fall back
// to when an AgentConfig doesn't set its own, plus the check/improve
// loop every step runs over its candidate before returning.
type BrainConfig struct {
	DefaultModel string      `yaml:"default_model"`
	DefaultRoute string      `yaml:"default_route"`
	Check        CheckConfig `yaml:"check,omitempty"`
}

func (c *BrainConfig) Validate() error {
	if c.DefaultModel == "" {
		return fmt.Errorf("default_model is required")
	}
	if err := c.Check.Validate(); err != nil {
		return fmt.Errorf("check configuration validation failed: %w", err)
	}
	return nil
}

// SetDefaults always sets Check.Enabled to true, overriding a configured
// false: spec.md's control flow has the Check component score every
// candidate unconditionally.
func (c *BrainConfig) SetDefaults() {
	if c.DefaultModel == "" {
		c.DefaultModel = "default"
	}
	if c.DefaultRoute == "" {
		c.DefaultRoute = "moderator"
	}
	if !c.Check.Enabled {
		c.Check.Enabled = true
	}
	c.Check.SetDefaults()
}
