package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// parseBytes parses raw bytes into a map, trying YAML first (a
// superset of JSON) and falling back to JSON.
func parseBytes(data []byte) (map[string]any, error) {
	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err == nil {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse as YAML or JSON: %w", err)
	}
	return result, nil
}

// decodeConfig decodes a raw map into a Config, honoring the `yaml`
// struct tags already used for marshaling and converting duration-
// shaped and comma-separated-list fields the way mapstructure's hook
// chain expects.
func decodeConfig(input map[string]any, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	return nil
}

// envFileList pulls the raw `env_file` key out of a parsed map before
// the full decode, so LoadEnvFiles can populate the process
// environment that ExpandEnvVarsInData is about to read from.
func envFileList(raw map[string]any) []string {
	v, ok := raw["env_file"]
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// loadRaw parses data, loads any declared env_file list (overwrite
// semantics, later wins), expands ${VAR}/${VAR:-default}/$VAR
// references against the now-complete environment, and decodes the
// result into a fresh Config. SetDefaults/Validate are the caller's
// responsibility, matching spec.md §6's layering (each layer is loaded
// raw, then merged, and only the final merged Config gets defaults
// applied and is validated).
func loadRaw(data []byte) (*Config, error) {
	raw, err := parseBytes(data)
	if err != nil {
		return nil, err
	}
	if err := LoadEnvFiles(envFileList(raw)); err != nil {
		return nil, err
	}
	expanded, ok := ExpandEnvVarsInData(raw).(map[string]interface{})
	if !ok {
		expanded = raw
	}

	cfg := &Config{}
	if err := decodeConfig(expanded, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads a single configuration file. Used directly for an
// explicit constructor argument / --config flag.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := loadRaw(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", filePath, err)
	}
	return cfg, nil
}

// LoadConfigFromString loads configuration from a YAML or JSON string,
// e.g. for embedded defaults or tests.
func LoadConfigFromString(content string) (*Config, error) {
	cfg, err := loadRaw([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from string: %w", err)
	}
	return cfg, nil
}

// LoadHierarchical implements spec.md §6's resolution order: project
// config file → user config file → environment, explicit constructor
// arguments winning over all three. projectPath and userPath may both
// be missing (a fresh zero-value Config with SetDefaults applied is
// returned in that case); whichever files exist are merged with the
// project file taking priority over the user file.
func LoadHierarchical(projectPath, userPath string) (*Config, error) {
	base := &Config{}

	if userPath != "" {
		if cfg, err := loadIfExists(userPath); err != nil {
			return nil, err
		} else if cfg != nil {
			base = cfg
		}
	}

	if projectPath != "" {
		if cfg, err := loadIfExists(projectPath); err != nil {
			return nil, err
		} else if cfg != nil {
			base = base.Merge(cfg)
		}
	}

	base.SetDefaults()
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return base, nil
}

func loadIfExists(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return loadRaw(data)
}
