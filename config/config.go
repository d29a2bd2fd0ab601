// Package config provides configuration loading for the hls tooling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete hls configuration.
type Config struct {
	Workspace   WorkspaceConfig   `yaml:"workspace"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Watch       WatchConfig       `yaml:"watch"`
}

// WorkspaceConfig controls which documents the workspace scanner loads.
type WorkspaceConfig struct {
	// Include is the list of doublestar glob patterns for schema-bearing
	// documents, relative to the workspace root.
	Include []string `yaml:"include"`
	// Exclude removes matches from Include.
	Exclude []string `yaml:"exclude"`
}

// DiagnosticsConfig controls diagnostic reporting.
type DiagnosticsConfig struct {
	// WarningsAsErrors makes `hls check` exit nonzero on warnings.
	WarningsAsErrors bool `yaml:"warnings_as_errors"`
	// Context is the number of source lines shown around a finding.
	Context int `yaml:"context"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce is how long to wait for further changes before rechecking.
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Include: []string{"**/*.hx", "**/*.hql"},
			Exclude: []string{"**/node_modules/**", "**/.git/**"},
		},
		Diagnostics: DiagnosticsConfig{
			WarningsAsErrors: false,
			Context:          2,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Workspace.Include) == 0 {
		return fmt.Errorf("workspace.include must not be empty")
	}
	if c.Diagnostics.Context < 0 {
		return fmt.Errorf("diagnostics.context must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one; the other takes precedence
// for values it sets.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if len(other.Workspace.Include) > 0 {
		c.Workspace.Include = other.Workspace.Include
	}
	if len(other.Workspace.Exclude) > 0 {
		c.Workspace.Exclude = other.Workspace.Exclude
	}
	if other.Diagnostics.WarningsAsErrors {
		c.Diagnostics.WarningsAsErrors = true
	}
	if other.Diagnostics.Context != 0 {
		c.Diagnostics.Context = other.Diagnostics.Context
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
