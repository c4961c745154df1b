// Package config loads the service configuration from defaults, an optional
// YAML file and FEECC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FEECC_DATABASE_PATH.
const EnvPrefix = "FEECC"

// Config represents the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"` // per-request store deadline
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// CacheConfig configures the employee lookaside cache.
type CacheConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"`
}

// AuthConfig configures bearer tokens and the bootstrap admin.
type AuthConfig struct {
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	BootstrapUsername string        `mapstructure:"bootstrap_username"`
	BootstrapPassword string        `mapstructure:"bootstrap_password"`
}

var defaults = map[string]any{
	"http.addr":               ":8080",
	"database.path":           "feecc.db",
	"database.timeout":        5 * time.Second,
	"log.level":               "info",
	"log.format":              "text",
	"cache.ttl":               time.Hour,
	"cache.size":              1024,
	"auth.token_ttl":          12 * time.Hour,
	"auth.bootstrap_username": "",
	"auth.bootstrap_password": "",
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if c.Database.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("database.timeout must be positive, got %s", c.Database.Timeout))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if errs != nil {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
