package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	require.NoError(t, Load())

	assert.Equal(t, ":5555", GlobalConfig.Server.Addr)
	assert.Equal(t, "development", GlobalConfig.Server.Mode)
	assert.Equal(t, "sqlite", GlobalConfig.Database.Driver)
	assert.Equal(t, 5, GlobalConfig.Services.Stream.MaxConnections)
	assert.Equal(t, "./uploads", GlobalConfig.Services.Stream.UploadDir)
	assert.Equal(t, "http://localhost:8005", GlobalConfig.Services.Embedder.BaseURL)
	assert.Equal(t, "local", GlobalConfig.Cache.Type)
	assert.Equal(t, "database", GlobalConfig.Services.Store.Type)

	// 归档默认关闭
	assert.False(t, GlobalConfig.Services.Storage.Enabled)
	assert.Nil(t, GlobalStore)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("MAX_CONNECTIONS", "10")
	t.Setenv("MODE", "production")
	t.Setenv("CACHE_TYPE", "redis")

	require.NoError(t, Load())

	assert.Equal(t, ":9999", GlobalConfig.Server.Addr)
	assert.Equal(t, 10, GlobalConfig.Services.Stream.MaxConnections)
	assert.Equal(t, "production", GlobalConfig.Server.Mode)
	assert.Equal(t, "redis", GlobalConfig.Cache.Type)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Load())
	require.NoError(t, GlobalConfig.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero connections", func(c *Config) { c.Services.Stream.MaxConnections = 0 }},
		{"missing embedder url", func(c *Config) { c.Services.Embedder.BaseURL = "" }},
		{"ssl without cert", func(c *Config) { c.Server.SSLEnabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Load())
			tt.mutate(GlobalConfig)
			assert.Error(t, GlobalConfig.Validate())
		})
	}
}
