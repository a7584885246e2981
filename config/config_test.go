package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SANDBOX_API_URL", "https://sandboxes.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "nextjs", cfg.Sandbox.Template)
	assert.Equal(t, 3000, cfg.Sandbox.DevPort)
	assert.Equal(t, 3*time.Minute, cfg.Sandbox.Timeout)
	assert.Equal(t, 7*24*time.Hour, cfg.App.SessionTTL)
	assert.Empty(t, cfg.Backup.Endpoint, "snapshots disabled by default")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SANDBOX_API_URL", "https://sandboxes.example.com")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("SANDBOX_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, time.Hour, cfg.App.SessionTTL)
	assert.Equal(t, 90*time.Second, cfg.Sandbox.Timeout)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SANDBOX_API_URL", "https://sandboxes.example.com")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("SESSION_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.App.SessionTTL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Host: "localhost"},
		Sandbox:  SandboxConfig{BaseURL: "https://sandboxes.example.com"},
	}
	require.NoError(t, cfg.Validate())

	cfg.Sandbox.BaseURL = ""
	assert.EqualError(t, cfg.Validate(), "SANDBOX_API_URL is required")

	cfg.Sandbox.BaseURL = "https://sandboxes.example.com"
	cfg.Database.Host = ""
	assert.EqualError(t, cfg.Validate(), "DB_HOST is required")
}
