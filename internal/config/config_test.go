package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Proxy.ConnectTimeout)
	assert.Equal(t, ModeDevelopment, cfg.Mode)
	assert.False(t, cfg.Mode.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MONGORELAY_PORT", "9090")
	t.Setenv("MONGORELAY_MODE", "production")
	t.Setenv("MONGORELAY_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ModeProduction, cfg.Mode)
	assert.True(t, cfg.Mode.IsProduction())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	t.Setenv("MONGORELAY_PORT", "not-a-number")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"bad port high", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"bad mode", func(c *Config) { c.Mode = "staging" }, "mode"},
		{"bad timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, "request_timeout"},
		{"bad connect timeout", func(c *Config) { c.Proxy.ConnectTimeout = -time.Second }, "connect_timeout"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestModeIsProduction(t *testing.T) {
	assert.True(t, ModeProduction.IsProduction())
	assert.False(t, ModeDevelopment.IsProduction())
	assert.False(t, Mode("").IsProduction())
}
