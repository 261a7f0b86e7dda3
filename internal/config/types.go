// Package config provides configuration loading and management for sdlcwizard.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The defaults work without any configuration file; a file is
// only needed to point at Redis, change the Gemini model, or customize steps.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [StepOverride] replaces the label or prompt of a built-in step
//
// Configuration priority (highest to lowest):
//  1. Environment variables (SDLCWIZARD_ prefix)
//  2. Config file specified by SDLCWIZARD_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/sdlcwizard/config.yaml
//     - macOS: ~/Library/Application Support/sdlcwizard/config.yaml
//     - Windows: %APPDATA%\sdlcwizard\config.yaml
//  4. ./sdlcwizard.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Store backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// APIKey is the Gemini API key. When set, "start" may omit --api-key.
	// Usually supplied with SDLCWIZARD_API_KEY rather than written to a file.
	APIKey string `mapstructure:"api_key"`

	// Session names the persisted wizard session. Default: "default".
	Session string `mapstructure:"session"`

	// Gemini contains generation service settings.
	Gemini GeminiConfig `mapstructure:"gemini"`

	// Store selects and configures the session store.
	Store StoreConfig `mapstructure:"store"`

	// Steps overrides labels or prompt templates of individual steps, keyed
	// by step id.
	Steps map[string]StepOverride `mapstructure:"steps"`

	// StepsManifest is an optional CSV step catalog that replaces the
	// built-in step list. Steps overrides are applied on top of it.
	StepsManifest string `mapstructure:"steps_manifest"`

	// Log contains log file settings.
	Log LogConfig `mapstructure:"log"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output"`
}

// GeminiConfig contains Gemini API settings.
type GeminiConfig struct {
	// BaseURL is the REST endpoint up to and excluding "/models".
	BaseURL string `mapstructure:"base_url"`

	// Model is the model name. Default: "gemini-2.5-flash-preview-05-20".
	Model string `mapstructure:"model"`

	// Timeout bounds each generation call. Default: 60s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects where session state is kept.
type StoreConfig struct {
	// Backend is one of "file", "redis" or "memory". Default: "file".
	Backend string `mapstructure:"backend"`

	// Dir holds one YAML file per session for the file backend.
	Dir string `mapstructure:"dir"`

	// RedisAddr is the host:port of the Redis server.
	RedisAddr string `mapstructure:"redis_addr"`

	// RedisPassword authenticates to Redis, if required.
	RedisPassword string `mapstructure:"redis_password"`

	// RedisDB selects the Redis database number.
	RedisDB int `mapstructure:"redis_db"`

	// RedisPrefix is prepended to every key. Default: "sdlcwizard".
	RedisPrefix string `mapstructure:"redis_prefix"`

	// TTL expires idle Redis sessions. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl"`
}

// StepOverride replaces parts of a step definition. Empty fields keep the
// existing value.
type StepOverride struct {
	Label          string `mapstructure:"label"`
	PromptTemplate string `mapstructure:"prompt_template"`
}

// LogConfig contains log file settings.
//
// Logs go to a rotating file so they never interleave with terminal output.
type LogConfig struct {
	// File is the log file path.
	File string `mapstructure:"file"`

	// Level is one of "debug", "info", "warn", "error". Default: "info".
	Level string `mapstructure:"level"`

	// MaxSizeMB rotates the file once it reaches this size.
	MaxSizeMB int `mapstructure:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `mapstructure:"max_backups"`

	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// TruncateLines is the maximum number of content lines "status" previews.
	// Default: 20
	TruncateLines int `mapstructure:"truncate_lines"`

	// TruncateLength is the maximum length of each previewed line.
	// Longer lines are truncated with "..." suffix.
	// Default: 100
	TruncateLength int `mapstructure:"truncate_length"`

	// ExportDir is where "export" writes files. Default: current directory.
	ExportDir string `mapstructure:"export_dir"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// Sessions are stored as files under ~/.sdlcwizard/sessions and logs go to
// ~/.sdlcwizard/sdlcwizard.log.
func DefaultConfig() *Config {
	dataDir := DataDir()
	return &Config{
		Session: "default",
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-2.5-flash-preview-05-20",
			Timeout: 60 * time.Second,
		},
		Store: StoreConfig{
			Backend:     BackendFile,
			Dir:         filepath.Join(dataDir, "sessions"),
			RedisAddr:   "localhost:6379",
			RedisPrefix: "sdlcwizard",
		},
		Steps: map[string]StepOverride{},
		Log: LogConfig{
			File:       filepath.Join(dataDir, "sdlcwizard.log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Output: OutputConfig{
			TruncateLines:  20,
			TruncateLength: 100,
			ExportDir:      ".",
		},
	}
}

// DataDir returns ~/.sdlcwizard, or ./.sdlcwizard when the home directory is
// unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sdlcwizard"
	}
	return filepath.Join(home, ".sdlcwizard")
}
