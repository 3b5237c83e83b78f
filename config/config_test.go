package config

import (
	"os"
	"testing"
)

func TestSetDefaultsProducesZeroConfigModel(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	if _, ok := cfg.Models["default"]; !ok {
		t.Fatal("expected a zero-config 'default' model entry")
	}
	if cfg.Agent.Model != "default" {
		t.Fatalf("got agent.model %q, want 'default'", cfg.Agent.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero-config should validate cleanly: %v", err)
	}
}

func TestLoadConfigFromStringExpandsEnvVars(t *testing.T) {
	os.Setenv("MINION_TEST_MODEL", "gpt-4o-mini")
	defer os.Unsetenv("MINION_TEST_MODEL")

	yamlContent := `
name: test-config
models:
  default:
    api_type: openai
    model: ${MINION_TEST_MODEL}
    api_key: sk-test
agent:
  name: assistant
  model: default
`
	cfg, err := LoadConfigFromString(yamlContent)
	if err != nil {
		t.Fatalf("LoadConfigFromString failed: %v", err)
	}
	if cfg.Models["default"].Model != "gpt-4o-mini" {
		t.Fatalf("got model %q, want expanded env var", cfg.Models["default"].Model)
	}
}

func TestValidateRejectsUnknownAgentModel(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	cfg.Agent.Model = "nonexistent"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown agent.model")
	}
}

func TestMergeProjectOverUser(t *testing.T) {
	user := &Config{}
	user.SetDefaults()
	user.Models["default"] = LLMProviderConfig{APIType: "ollama", Model: "llama3.2", Host: "http://localhost:11434"}
	user.Agent.Name = "user-agent"

	project := &Config{
		Agent: AgentConfig{Name: "project-agent", Model: "default"},
	}

	merged := user.Merge(project)
	if merged.Agent.Name != "project-agent" {
		t.Fatalf("got agent name %q, want project config to win", merged.Agent.Name)
	}
	if _, ok := merged.Models["default"]; !ok {
		t.Fatal("expected user-set model map entries to survive the merge")
	}
}

func TestLoadEnvFilesLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := dir + "/.env"
	second := dir + "/.env.override"
	if err := os.WriteFile(first, []byte("MINION_ORDER_TEST=first\n"), 0o600); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("MINION_ORDER_TEST=second\n"), 0o600); err != nil {
		t.Fatalf("write second: %v", err)
	}
	defer os.Unsetenv("MINION_ORDER_TEST")

	if err := LoadEnvFiles([]string{first, second}); err != nil {
		t.Fatalf("LoadEnvFiles failed: %v", err)
	}
	if got := os.Getenv("MINION_ORDER_TEST"); got != "second" {
		t.Fatalf("got %q, want 'second' (later file should win)", got)
	}
}

func TestExpandEnvVarsWithDefault(t *testing.T) {
	os.Unsetenv("MINION_UNSET_VAR")
	got := expandEnvVars("value=${MINION_UNSET_VAR:-fallback}")
	if got != "value=fallback" {
		t.Fatalf("got %q, want 'value=fallback'", got)
	}
}
