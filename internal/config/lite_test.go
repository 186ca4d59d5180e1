package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("CLINIC_DATA_DIR", "/tmp/test-clinic")
	os.Setenv("CLINIC_CACHE_MAX_ITEMS", "500")
	os.Setenv("CLINIC_CACHE_TTL", "1h")
	os.Setenv("CLINIC_HTTP_PORT", "9090")
	os.Setenv("CLINIC_LOG_LEVEL", "debug")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-clinic", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadLiteConfig_InvalidNumbersIgnored(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("CLINIC_CACHE_MAX_ITEMS", "not-a-number")
	os.Setenv("CLINIC_HTTP_PORT", "-1")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, 256, cfg.CacheMaxItems)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLiteConfig_SettingsDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.clinic-visit"}

	path := cfg.SettingsDBPath()

	assert.Equal(t, "/home/user/.clinic-visit/settings.db", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "clinic")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"CLINIC_DATA_DIR",
		"CLINIC_CACHE_MAX_ITEMS",
		"CLINIC_CACHE_TTL",
		"CLINIC_HTTP_PORT",
		"CLINIC_LOG_LEVEL",
		"CLINIC_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
