// Package api exposes the consultation workflow over HTTP. Handlers are thin:
// they translate JSON to workflow calls and normalized errors to status codes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/domain"
	"github.com/clinic-visit-server/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	sessions      *SessionManager
	identity      domain.IdentitySource
	admin         domain.IdentityAdmin // nil for read-only identity sources
	hub           *PreviewHub
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	configManager domain.ConfigManager,
	logger *logrus.Logger,
	sessions *SessionManager,
	identity domain.IdentitySource,
) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	admin, _ := identity.(domain.IdentityAdmin)

	server := &Server{
		configManager: configManager,
		logger:        logger,
		sessions:      sessions,
		identity:      identity,
		admin:         admin,
		hub:           NewPreviewHub(logger),
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Router exposes the gin engine, used by tests and the lite binary.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/sessions", s.handleCreateSession)
		v1.GET("/sessions/:id", s.handleGetSession)
		v1.DELETE("/sessions/:id", s.handleCloseSession)

		v1.POST("/sessions/:id/items", s.handleAddItem)
		v1.POST("/sessions/:id/finish", s.handleFinish)
		v1.POST("/sessions/:id/confirm", s.handleConfirm)
		v1.POST("/sessions/:id/skip", s.handleSkip)
		v1.POST("/sessions/:id/generate", s.handleGenerate)
		v1.POST("/sessions/:id/edit", s.handleEdit)
		v1.PUT("/sessions/:id/sections", s.handleSetSections)

		v1.GET("/sessions/:id/preview/ws", s.handlePreviewSocket)

		v1.GET("/doctors/:id/appointments", s.handleListAppointments)

		// Record management, only when the identity source owns its records.
		if s.admin != nil {
			v1.POST("/patients", s.handleCreatePatient)
			v1.POST("/doctors", s.handleCreateDoctor)
			v1.PATCH("/appointments/:id/status", s.handleUpdateAppointmentStatus)
		}
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"sessions":  s.sessions.Count(),
	})
}
