package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 24*time.Hour, cfg.Push.DedupTTL)
	assert.Equal(t, 8, cfg.Dispatch.Workers)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PUSH_DEDUP_TTL", "2h")
	t.Setenv("DISPATCH_WORKERS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_ACCESS_EXPIRY", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Push.DedupTTL)
	assert.Equal(t, 3, cfg.Dispatch.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadDevice(t *testing.T) {
	t.Setenv("DEVICE_NAV_LOCK", "2s")
	t.Setenv("DEVICE_EMULATOR", "true")

	cfg := LoadDevice()

	assert.Equal(t, 2*time.Second, cfg.LockDuration)
	assert.True(t, cfg.Emulator)
	assert.Equal(t, 2048, cfg.LedgerCapacity)
	assert.Equal(t, "android", cfg.Platform)
	assert.Empty(t, cfg.LaunchChatID)
	assert.False(t, cfg.Commands)
}

func TestLoadDevice_LaunchTap(t *testing.T) {
	t.Setenv("DEVICE_LAUNCH_CHAT_ID", "C1")
	t.Setenv("DEVICE_LAUNCH_MESSAGE_ID", "M1")
	t.Setenv("DEVICE_COMMANDS", "true")

	cfg := LoadDevice()

	assert.Equal(t, "C1", cfg.LaunchChatID)
	assert.Equal(t, "M1", cfg.LaunchMessageID)
	assert.Empty(t, cfg.LaunchType)
	assert.True(t, cfg.Commands)
}
