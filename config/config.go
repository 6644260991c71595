package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/civicbridge/civicbridge/errors"
	"gopkg.in/yaml.v3"
)

// Config holds session settings loaded from YAML. Zero values are
// replaced by defaults in ApplyDefaults.
type Config struct {
	Backend       string   `yaml:"backend"` // "openai", "anthropic", "gemini", "bedrock"
	Model         string   `yaml:"model"`
	ContextWindow int      `yaml:"context_window"`
	WindowDivisor int      `yaml:"window_divisor"`
	MaxRounds     int      `yaml:"max_rounds"`
	PromptGlobs   []string `yaml:"prompt_globs"`
	IntroGlobs    []string `yaml:"intro_globs"`
	SaveSessions  bool     `yaml:"save_sessions"`
	ResumeSession string   `yaml:"resume_session"`
}

const (
	DefaultBackend = "openai"
	DefaultModel   = "gpt-5-nano-2025-08-07"

	// DefaultContextWindow is the advertised window; DefaultWindowDivisor
	// scales it down to the portion usable without degradation.
	DefaultContextWindow = 400000
	DefaultWindowDivisor = 5

	// DefaultMaxRounds caps tool-call rounds per query so a misbehaving
	// backend cannot loop forever.
	DefaultMaxRounds = 16
)

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".civicbridge", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".civicbridge", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites fields present in the YAML, giving a simple
	// merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.ContextWindow <= 0 {
		c.ContextWindow = DefaultContextWindow
	}
	if c.WindowDivisor <= 0 {
		c.WindowDivisor = DefaultWindowDivisor
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if len(c.PromptGlobs) == 0 {
		c.PromptGlobs = []string{"prompts/*_prompt.txt"}
	}
	if len(c.IntroGlobs) == 0 {
		c.IntroGlobs = []string{"prompts/user_intro.txt"}
	}
}

// LoadPrompts concatenates the contents of every file matched by the
// given glob patterns, in sorted path order. Missing or unreadable
// prompt files are not fatal; the session runs without guidance text.
func LoadPrompts(patterns []string) string {
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	var parts []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
