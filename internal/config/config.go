package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "SDLCWIZARD"

// configPathEnv names a config file that takes precedence over the search path.
const configPathEnv = EnvPrefix + "_CONFIG_PATH"

// localConfigFile is looked up in the working directory.
const localConfigFile = "sdlcwizard.yaml"

// envBindings maps config keys to short environment variable names that do
// not follow the nested key layout.
var envBindings = map[string]string{
	"api_key":          EnvPrefix + "_API_KEY",
	"session":          EnvPrefix + "_SESSION",
	"store.backend":    EnvPrefix + "_STORE_BACKEND",
	"store.redis_addr": EnvPrefix + "_REDIS_ADDR",
	"gemini.model":     EnvPrefix + "_GEMINI_MODEL",
	"log.level":        EnvPrefix + "_LOG_LEVEL",
}

// Loader loads configuration with Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with environment overrides enabled.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load finds the config file using the documented priority and returns the
// merged configuration. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadFromFile loads configuration from path, still honoring environment
// overrides.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.setDefaults()

	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return l.unmarshal()
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("api_key", d.APIKey)
	l.v.SetDefault("session", d.Session)
	l.v.SetDefault("gemini.base_url", d.Gemini.BaseURL)
	l.v.SetDefault("gemini.model", d.Gemini.Model)
	l.v.SetDefault("gemini.timeout", d.Gemini.Timeout)
	l.v.SetDefault("store.backend", d.Store.Backend)
	l.v.SetDefault("store.dir", d.Store.Dir)
	l.v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	l.v.SetDefault("store.redis_password", d.Store.RedisPassword)
	l.v.SetDefault("store.redis_db", d.Store.RedisDB)
	l.v.SetDefault("store.redis_prefix", d.Store.RedisPrefix)
	l.v.SetDefault("store.ttl", d.Store.TTL)
	l.v.SetDefault("steps_manifest", d.StepsManifest)
	l.v.SetDefault("log.file", d.Log.File)
	l.v.SetDefault("log.level", d.Log.Level)
	l.v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	l.v.SetDefault("log.max_backups", d.Log.MaxBackups)
	l.v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	l.v.SetDefault("output.truncate_lines", d.Output.TruncateLines)
	l.v.SetDefault("output.truncate_length", d.Output.TruncateLength)
	l.v.SetDefault("output.export_dir", d.Output.ExportDir)

	for key, env := range envBindings {
		// BindEnv only fails when given no key
		_ = l.v.BindEnv(key, env)
	}
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.Steps == nil {
		cfg.Steps = map[string]StepOverride{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("invalid store backend %q: must be %s, %s or %s",
			c.Store.Backend, BackendFile, BackendRedis, BackendMemory)
	}
	if c.Gemini.Timeout < 0 {
		return errors.New("gemini timeout must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

func findConfigFile() string {
	candidates := []string{localConfigFile}
	if p, err := DefaultConfigPath(); err == nil {
		candidates = append([]string{p}, candidates...)
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ConfigDir returns the platform-standard directory for sdlcwizard config.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "sdlcwizard"), nil
}

// DefaultConfigPath returns the user-level config file path.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
