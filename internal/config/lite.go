// Package config provides configuration management for the clinic visit
// server. This file contains the lightweight configuration for standalone
// operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/clinic-visit-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files

	// Cache settings
	CacheMaxItems int           // Maximum items in memory cache
	CacheTTL      time.Duration // Default cache TTL

	// HTTP settings
	HTTPPort int

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".clinic-visit")

	return &LiteConfig{
		DataDir:       dataDir,
		CacheMaxItems: 256,
		CacheTTL:      15 * time.Minute,
		HTTPPort:      8080,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data directory
	if v := os.Getenv("CLINIC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Cache settings
	if v := os.Getenv("CLINIC_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("CLINIC_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	// HTTP port
	if v := os.Getenv("CLINIC_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	// Logging
	if v := os.Getenv("CLINIC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CLINIC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// AsConfig expands the lite config into the full configuration shape so the
// HTTP server can be built the same way in both modes.
func (c *LiteConfig) AsConfig() *domain.Config {
	return &domain.Config{
		Server: domain.ServerConfig{
			Host:         "127.0.0.1",
			Port:         c.HTTPPort,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
			RateLimit:    50,
			RateBurst:    100,
		},
		Cache: domain.CacheConfig{
			DefaultTTL: c.CacheTTL,
			MaxItems:   c.CacheMaxItems,
		},
		Renderer: domain.RendererConfig{Mode: "template"},
		Settings: domain.SettingsConfig{Backend: "sqlite", SQLitePath: c.SettingsDBPath()},
		Logging:  domain.LoggingConfig{Level: c.LogLevel, Format: c.LogFormat, Output: "stdout"},
	}
}

// StaticManager wraps an already-built config as a domain.ConfigManager.
type StaticManager struct {
	Config *domain.Config
}

func (m *StaticManager) GetConfig() *domain.Config { return m.Config }

func (m *StaticManager) GetServerConfig() *domain.ServerConfig { return &m.Config.Server }

func (m *StaticManager) GetDatabaseConfig() *domain.DatabaseConfig { return &m.Config.Database }

func (m *StaticManager) Validate() error { return nil }

// SettingsDBPath returns the path to the settings SQLite database.
func (c *LiteConfig) SettingsDBPath() string {
	return filepath.Join(c.DataDir, "settings.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
