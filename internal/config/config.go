package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for sv-autoexpand.
type Config struct {
	// Files is a list of glob patterns for the SystemVerilog files whose
	// module declarations resolve AUTOINST targets
	Files []string `json:"files,omitempty"`

	// Exclude is a list of glob patterns to drop from the project
	Exclude []string `json:"exclude,omitempty"`

	// MaxParallelFiles limits concurrent file parsing (0 = no limit)
	MaxParallelFiles int `json:"maxParallelFiles,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Files:   []string{"*.sv", "*.v", "**/*.sv", "**/*.v"},
		Exclude: []string{},
	}
}

// Load finds and loads the configuration file
// Search order:
//  1. ./sv_autoexpand.json (current working directory)
//  2. ./.sv_autoexpand.json (current working directory)
//  3. <rootPath>/sv_autoexpand.json (if different from cwd)
//  4. <rootPath>/.sv_autoexpand.json (if different from cwd)
//  5. ~/.config/sv_autoexpand/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "sv_autoexpand.json"),
		filepath.Join(cwd, ".sv_autoexpand.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "sv_autoexpand.json"),
				filepath.Join(rootPath, ".sv_autoexpand.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "sv_autoexpand", "config.json"))
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
	if c.Files == nil {
		c.Files = []string{"*.sv", "*.v", "**/*.sv", "**/*.v"}
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

// ShouldExcludeFile checks if a file matches an exclude pattern
func (c *Config) ShouldExcludeFile(filePath string) bool {
	for _, pattern := range c.Exclude {
		if matched, _ := filepath.Match(pattern, filePath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(filePath)); matched {
			return true
		}
	}
	return false
}

// ResolveFiles expands the configured globs relative to root, dropping
// excluded files and duplicates while preserving pattern order.
func (c *Config) ResolveFiles(root string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, pattern := range c.Files {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || c.ShouldExcludeFile(m) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}
