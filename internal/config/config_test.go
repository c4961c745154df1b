package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "feecc.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Auth.BootstrapUsername)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feecc.yaml")
	content := `
http:
  addr: ":9000"
database:
  path: /var/lib/feecc/feecc.db
  timeout: 2s
log:
  level: debug
  format: json
cache:
  ttl: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("FEECC_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("FEECC_AUTH_BOOTSTRAP_USERNAME", "admin")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path, "environment wins over the file")
	assert.Equal(t, 2*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "admin", cfg.Auth.BootstrapUsername)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTP:     HTTPConfig{Addr: ":8080"},
			Database: DatabaseConfig{Path: "feecc.db", Timeout: time.Second},
			Log:      LogConfig{Level: "info", Format: "text"},
			Cache:    CacheConfig{TTL: time.Minute, Size: 10},
			Auth:     AuthConfig{TokenTTL: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty addr", func(c *Config) { c.HTTP.Addr = " " }, "http.addr"},
		{"empty path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"zero timeout", func(c *Config) { c.Database.Timeout = 0 }, "database.timeout"},
		{"negative cache ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"zero cache size", func(c *Config) { c.Cache.Size = 0 }, "cache.size"},
		{"zero token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "auth.token_ttl"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
