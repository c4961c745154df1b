package wire

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/feecc/internal/config"
	"github.com/example/feecc/internal/ports/primary"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP:     config.HTTPConfig{Addr: ":0"},
		Database: config.DatabaseConfig{Path: ":memory:", Timeout: time.Second},
		Log:      config.LogConfig{Level: "info", Format: "text"},
		Cache:    config.CacheConfig{TTL: time.Minute, Size: 16},
		Auth: config.AuthConfig{
			TokenTTL:          time.Hour,
			BootstrapUsername: "admin",
			BootstrapPassword: "admin-password",
		},
	}
}

func TestNew_BootstrapsAdmin(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	admin, err := a.Auth.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"read", "write", "approve"}, admin.RuleSet)
	assert.NotNil(t, a.Handler())
}

func TestNew_AdaptersShareServices(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = a.Units.CreateUnit(ctx, primary.CreateUnitRequest{InternalID: "1000000000001", Model: "Lidar"})
	require.NoError(t, err)

	var out bytes.Buffer
	p, err := a.PassportAdapter(&out).Show(ctx, "1000000000001")
	require.NoError(t, err)
	assert.Equal(t, "production", p.Status)
	assert.Contains(t, out.String(), "Lidar")
}
