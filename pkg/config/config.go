// Package config implements PyTerpreter configuration loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

// ProjectFile is the project configuration file name.
const ProjectFile = ".pyterp.yaml"

// Config holds the resolved settings. CLI flags override these values.
type Config struct {
	Debug    bool  `yaml:"debug"`
	MaxDepth int   `yaml:"max_depth"`
	Trace    Trace `yaml:"trace"`
	REPL     REPL  `yaml:"repl"`
	Watch    Watch `yaml:"watch"`
}

// Trace configures the function call trace log.
type Trace struct {
	File string `yaml:"file"` // empty disables tracing
}

// REPL configures the interactive session.
type REPL struct {
	History string `yaml:"history"`
	Prompt  string `yaml:"prompt"`
}

// Watch configures run --watch.
type Watch struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// Debounce returns the watch debounce interval.
func (w Watch) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxDepth: evaluator.DefaultMaxDepth,
		REPL: REPL{
			History: "~/.pyterp/history",
			Prompt:  ">>> ",
		},
		Watch: Watch{DebounceMs: 100},
	}
}

// Load resolves the configuration for projectDir.
// Precedence: project (.pyterp.yaml) → user (~/.pyterp/config.yaml) → defaults.
// It returns the path the configuration was read from, or "" for defaults.
func Load(projectDir string) (*Config, string, error) {
	home, _ := os.UserHomeDir()
	return LoadFrom(projectDir, home)
}

// LoadFrom is Load with an explicit home directory.
func LoadFrom(projectDir, homeDir string) (*Config, string, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, ".pyterp", "config.yaml"))
	}
	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, err
		}
		cfg.REPL.History = expandHome(cfg.REPL.History, homeDir)
		return cfg, path, nil
	}
	cfg := Default()
	cfg.REPL.History = expandHome(cfg.REPL.History, homeDir)
	return cfg, "", nil
}

// LoadFile reads one YAML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the evaluator cannot honour.
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMs)
	}
	return nil
}

// Limits converts the configuration into evaluator limits.
func (c *Config) Limits() evaluator.Limits {
	return evaluator.Limits{MaxDepth: c.MaxDepth}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func expandHome(path, home string) string {
	if home == "" || len(path) < 2 || path[:2] != "~/" {
		return path
	}
	return filepath.Join(home, path[2:])
}
