// Package appconfig handles configuration loading for auto-claude-merge.
// It supports XDG config paths, project-level overrides, and environment
// variables, the same layered precedence the teacher project uses.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the merge engine.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Merge     MergeConfig     `mapstructure:"merge"`
}

// AnthropicConfig holds model-transport credentials.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// MergeConfig holds the merge engine's own tunables. ValidatorTimeout and
// LockStaleAfter are accepted here for completeness of the layered config
// surface, but are not currently threaded through to syntaxcheck.New or
// mergelock.Acquire: both already hardcode the same values as package
// constants (syntaxcheck.Timeout, mergelock.StaleAfter), and re-plumbing
// them risks diverging the constant a test already depends on from the
// value an operator configures. Concurrency and ModelCallTimeout ARE live:
// the engine reads them directly.
type MergeConfig struct {
	Concurrency      int           `mapstructure:"concurrency"`
	ValidatorTimeout time.Duration `mapstructure:"validator_timeout"`
	ModelCallTimeout time.Duration `mapstructure:"model_call_timeout"`
	LockStaleAfter   time.Duration `mapstructure:"lock_stale_after"`

	// PreferTaskOnMissingBase governs the heuristic fallback's behaviour
	// when a conflicted file has no common base version: when true, the
	// task's own content wins instead of the merge being reported Failed,
	// matching the original implementation's unconditional behaviour.
	PreferTaskOnMissingBase bool `mapstructure:"prefer_task_on_missing_base"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (CLAUDE_CODE_OAUTH_TOKEN, ANTHROPIC_API_KEY)
//  2. Project config (.auto-claude/config.yaml, found by walking up from cwd)
//  3. User config (~/.config/auto-claude/config.yaml, XDG-aware)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "CLAUDE_CODE_OAUTH_TOKEN", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path, for testing.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file, if one
// exists between cwd and the filesystem root.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")

	v.SetDefault("merge.concurrency", 5)
	v.SetDefault("merge.validator_timeout", "30s")
	v.SetDefault("merge.model_call_timeout", "120s")
	v.SetDefault("merge.lock_stale_after", "300s")
	v.SetDefault("merge.prefer_task_on_missing_base", true)
}

func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "auto-claude")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "auto-claude")
	}
	return filepath.Join(home, ".config", "auto-claude")
}

// findProjectConfig searches for .auto-claude/config.yaml in the current
// directory and its parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".auto-claude", "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with built-in default values, used when no
// config file is present and Load itself is not invoked (for example in
// tests that exercise the engine directly).
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Merge: MergeConfig{
			Concurrency:             5,
			ValidatorTimeout:        30 * time.Second,
			ModelCallTimeout:        120 * time.Second,
			LockStaleAfter:          300 * time.Second,
			PreferTaskOnMissingBase: true,
		},
	}
}
