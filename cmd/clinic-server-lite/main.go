// Standalone clinic visit server: SQLite settings, in-memory identity and
// preview cache, local template rendering. No external services required.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinic-visit-server/internal/api"
	"github.com/clinic-visit-server/internal/cache"
	"github.com/clinic-visit-server/internal/config"
	"github.com/clinic-visit-server/internal/domain"
	"github.com/clinic-visit-server/internal/logging"
	"github.com/clinic-visit-server/internal/repository"
	"github.com/clinic-visit-server/internal/service"
	"github.com/clinic-visit-server/internal/settings"
	"github.com/clinic-visit-server/pkg/render"
)

func main() {
	liteCfg := config.LoadLiteConfig()
	if err := liteCfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	cfg := liteCfg.AsConfig()
	logger := logging.NewLogger(cfg.Logging)
	logger.Infof("Starting clinic visit server (lite) on port %d", liteCfg.HTTPPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := settings.NewSQLiteStore(liteCfg.SettingsDBPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open settings store")
	}
	defer store.Close()

	identity := seedIdentity()

	renderer, err := render.NewTemplateRenderer()
	if err != nil {
		logger.WithError(err).Fatal("Failed to build template renderer")
	}

	previewCache, err := cache.NewPreviewCache(cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build preview cache")
	}

	assembler := service.NewAssembler(logger, cache.NewCachedRenderer(renderer, previewCache, logger))
	sessions := api.NewSessionManager(logger, assembler, store, identity)
	server := api.NewServer(&config.StaticManager{Config: cfg}, logger, sessions, identity)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}

	logger.Info("Server stopped")
}

// seedIdentity provides a demo patient and doctor so the lite server is usable
// out of the box.
func seedIdentity() *repository.MemoryIdentitySource {
	identity := repository.NewMemoryIdentitySource()

	identity.AddDoctor(&domain.Doctor{
		ID:         "doc-1",
		Name:       "Dr. Demo",
		Specialty:  "General Medicine",
		ClinicName: "Demo Clinic",
	})
	identity.AddPatient(&domain.Patient{
		ID:   "pat-1",
		MRN:  "MRN-0001",
		Name: "Demo Patient",
	})
	identity.AddAppointment(&domain.Appointment{
		ID:          "appt-1",
		PatientID:   "pat-1",
		DoctorID:    "doc-1",
		ScheduledAt: time.Now().Add(time.Hour),
		Status:      "scheduled",
		Reason:      "Follow-up visit",
	})

	return identity
}
