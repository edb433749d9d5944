// Package api exposes the secure store, the report builder and the session over a
// loopback HTTP surface for the presentation layer.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/domain"
	"github.com/neuroscope-selfcheck/internal/middleware"
	"github.com/neuroscope-selfcheck/internal/report"
	"github.com/neuroscope-selfcheck/internal/securestore"
	"github.com/neuroscope-selfcheck/internal/session"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// SecureStore is the encrypted key-value store.
type SecureStore interface {
	Set(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) securestore.Lookup
	Remove(ctx context.Context, key string) error
	MigrateIfNeeded(ctx context.Context, key, legacyKey string) (securestore.MigrationResult, error)
	KeyState() securestore.KeyState
}

// ReportBuilder builds reports from answers.
type ReportBuilder interface {
	Build(ctx context.Context, in report.BuildInput) (*domain.Report, error)
}

// Sessions restores, saves and resets the persisted session.
type Sessions interface {
	Restore(ctx context.Context) (session.State, error)
	Save(ctx context.Context, st session.State) error
	SaveAsync(st session.State)
	Flush(ctx context.Context) error
	Reset(ctx context.Context) session.State
}

// Dependencies are the services behind the routes.
type Dependencies struct {
	Store    SecureStore
	Reports  ReportBuilder
	Sessions Sessions
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	deps          Dependencies
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, deps Dependencies) (*Server, error) {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.Enabled {
		limiter, err := middleware.NewRateLimiter(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		router.Use(limiter.Middleware())
	}
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		logger:        logger,
		deps:          deps,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
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

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

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
		store := v1.Group("/store")
		store.GET("/:key", s.handleStoreGet)
		store.PUT("/:key", s.handleStoreSet)
		store.DELETE("/:key", s.handleStoreRemove)
		store.POST("/:key/migrate", s.handleStoreMigrate)

		v1.POST("/report", s.handleReport)

		v1.GET("/session", s.handleSessionGet)
		v1.PUT("/session", s.handleSessionSave)
		v1.DELETE("/session", s.handleSessionReset)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"key_state": s.deps.Store.KeyState().String(),
	})
}

// respondError writes a coded error. Internal details are logged, never returned.
func (s *Server) respondError(c *gin.Context, status int, code, message string, err error) {
	requestID := c.GetString(middleware.CorrelationIDKey)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"correlation_id": requestID,
			"code":           code,
		}).Warn(message)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": domain.NewAppError(code, message, "", requestID)})
}

// statusFor maps an error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	code := domain.CodeFor(err)
	switch code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest, code
	case domain.ErrCodeCrypto:
		return http.StatusServiceUnavailable, code
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout, domain.ErrCodeInternalServer
	}
	return http.StatusInternalServerError, domain.ErrCodeStorage
}
