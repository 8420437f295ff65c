package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for rtlbridge
type Config struct {
	// Dialect selects the output language: "legacy" or "strict"
	Dialect string `json:"dialect,omitempty"`

	// StrictWidth escalates width-mismatch diagnostics to fatal errors
	StrictWidth bool `json:"strictWidth,omitempty"`

	// Sources lists glob patterns for input files ("**" recurses)
	Sources []string `json:"sources,omitempty"`

	// Exclude lists glob patterns removed from the source set
	Exclude []string `json:"exclude,omitempty"`

	// Output contains output placement options
	Output OutputConfig `json:"output,omitempty"`

	// Batch contains batch-run options
	Batch BatchConfig `json:"batch,omitempty"`

	// Policy contains the diagnostics gate configuration
	Policy PolicyConfig `json:"policy,omitempty"`
}

// OutputConfig controls where generated files are written
type OutputConfig struct {
	// Dir is the output directory; empty writes next to the input
	Dir string `json:"dir,omitempty"`
}

// BatchConfig contains batch-run options
type BatchConfig struct {
	// MaxParallelFiles limits concurrent file processing (0 = auto)
	MaxParallelFiles int `json:"maxParallelFiles,omitempty"`

	// IgnorePatterns is a list of file patterns to skip entirely
	IgnorePatterns []string `json:"ignorePatterns,omitempty"`
}

// PolicyConfig configures the rego diagnostics gate
type PolicyConfig struct {
	// Dir holds additional .rego policy files; empty uses only the
	// built-in rules
	Dir string `json:"dir,omitempty"`

	// Rules maps rule names to severity: "off", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Dialect: "strict",
		Sources: []string{"*.vhd", "*.vhdl", "**/*.vhd", "**/*.vhdl"},
		Policy: PolicyConfig{
			Rules: map[string]string{},
		},
	}
}

// Load finds and loads the configuration file
// Search order:
//  1. ./rtlbridge.json (current working directory)
//  2. ./.rtlbridge.json (current working directory)
//  3. <rootPath>/rtlbridge.json (if different from cwd)
//  4. ~/.config/rtlbridge/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "rtlbridge.json"),
		filepath.Join(cwd, ".rtlbridge.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "rtlbridge.json"),
				filepath.Join(rootPath, ".rtlbridge.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "rtlbridge", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = "strict"
	}
	if len(c.Sources) == 0 {
		c.Sources = []string{"*.vhd", "*.vhdl", "**/*.vhd", "**/*.vhdl"}
	}
	if c.Policy.Rules == nil {
		c.Policy.Rules = make(map[string]string)
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetRuleSeverity returns the severity for a rule, or the default if not configured
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Policy.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Policy.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}

// ShouldIgnoreFile checks if a file should be skipped entirely
func (c *Config) ShouldIgnoreFile(filePath string) bool {
	for _, pattern := range c.Batch.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filePath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(filePath)); matched {
			return true
		}
	}
	return false
}
