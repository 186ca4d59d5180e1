package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clinic-visit-server/internal/api"
	"github.com/clinic-visit-server/internal/cache"
	"github.com/clinic-visit-server/internal/config"
	"github.com/clinic-visit-server/internal/database"
	"github.com/clinic-visit-server/internal/domain"
	"github.com/clinic-visit-server/internal/logging"
	"github.com/clinic-visit-server/internal/repository"
	"github.com/clinic-visit-server/internal/service"
	"github.com/clinic-visit-server/internal/settings"
	"github.com/clinic-visit-server/pkg/render"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLogger(cfg.Logging)
	logger.Infof("Starting clinic visit server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run migrations before opening the pool
	migrator, err := database.NewMigrationRunner(cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := migrator.Up(); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	migrator.Close()

	// Database pool and identity repository
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	identity := repository.NewClinicRepository(db.Pool, logger)

	// Settings store
	var store domain.SettingsStore
	switch cfg.Settings.Backend {
	case "sqlite":
		store, err = settings.NewSQLiteStore(cfg.Settings.SQLitePath)
	default:
		store, err = settings.NewPostgresStoreFromURL(database.URL(cfg.Database))
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to open settings store")
	}
	defer store.Close()

	// Renderer, wrapped with the preview cache
	var renderer domain.Renderer
	if cfg.Renderer.Mode == "remote" {
		renderer = render.NewRemoteRenderer(cfg.Renderer, logger)
	} else {
		renderer, err = render.NewTemplateRenderer()
		if err != nil {
			logger.WithError(err).Fatal("Failed to build template renderer")
		}
	}

	previewCache, err := cache.NewPreviewCacheWithRedis(cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, falling back to memory-only preview cache")
		previewCache, err = cache.NewPreviewCache(cfg.Cache, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to build preview cache")
		}
	}
	defer previewCache.Close()

	renderer = cache.NewCachedRenderer(renderer, previewCache, logger)

	// Assemble the HTTP surface
	assembler := service.NewAssembler(logger, renderer)
	sessions := api.NewSessionManager(logger, assembler, store, identity)
	server := api.NewServer(configManager, logger, sessions, identity)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}

	logger.Info("Server stopped")
}
