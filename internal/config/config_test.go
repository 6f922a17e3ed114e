package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/blueprint/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Realtime.HeartbeatInterval)
	assert.Equal(t, 60*time.Second, cfg.Realtime.CleanupInterval)
	assert.Equal(t, 5, cfg.Realtime.StaleMultiplier)
	assert.Equal(t, 256, cfg.Realtime.SendBufferSize)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrentBuilds)
	assert.False(t, cfg.Relay.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blueprint.yaml")

	content := []byte(`
server:
  addr: ":9090"
realtime:
  heartbeat_interval: 10s
  cleanup_interval: 20s
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Realtime.HeartbeatInterval)
	assert.Equal(t, 20*time.Second, cfg.Realtime.CleanupInterval)
	// Untouched keys keep env defaults.
	assert.Equal(t, 5, cfg.Realtime.StaleMultiplier)
}

func TestLoad_FileValuesSurviveUnsetEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blueprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o600))

	// BLUEPRINT_ADDR is unset; its default must not clobber the file value.
	require.NoError(t, os.Unsetenv("BLUEPRINT_ADDR"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("BLUEPRINT_STALE_MULTIPLIER", "plenty")

	_, err := Load("")
	require.Error(t, err)

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, errors.CodeConfigError, domainErr.Code)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blueprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

	t.Setenv("BLUEPRINT_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)

		return cfg
	}

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero heartbeat", func(c *Config) { c.Realtime.HeartbeatInterval = 0 }},
		{"zero cleanup", func(c *Config) { c.Realtime.CleanupInterval = 0 }},
		{"cleanup faster than heartbeat", func(c *Config) { c.Realtime.CleanupInterval = c.Realtime.HeartbeatInterval / 2 }},
		{"stale multiplier too small", func(c *Config) { c.Realtime.StaleMultiplier = 1 }},
		{"zero send buffer", func(c *Config) { c.Realtime.SendBufferSize = 0 }},
		{"zero builds", func(c *Config) { c.Pipeline.MaxConcurrentBuilds = 0 }},
		{"relay without url", func(c *Config) { c.Relay.Enabled = true; c.Relay.RedisURL = "" }},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "zipkin2" }},
		{"sample rate out of range", func(c *Config) { c.Tracing.SampleRate = 1.5 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfigSentinel))
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
}
