// Package api exposes the classification engine over HTTP and websocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/middleware"
	"github.com/vci-pathogenicity-calculator/internal/service"
)

// maxBodyBytes caps evaluation-set payloads. A full ACMG/AMP set is under 4KB.
const maxBodyBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	classifier    *service.ClassifierService
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
	upgrader      websocket.Upgrader
	startedAt     time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, classifier *service.ClassifierService, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	switch {
	case gin.Mode() == gin.TestMode:
	case configManager.IsDevelopment() && cfg.Logging.Level == "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AccessLogger(logger))
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(cfg.RateLimit, logger))

	server := &Server{
		configManager: configManager,
		classifier:    classifier,
		logger:        logger,
		router:        router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		startedAt: time.Now(),
	}

	// Setup routes
	server.setupRoutes(cfg.Server.RequestTimeout)

	return server
}

// Handler returns the HTTP handler, for embedding and tests.
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
func (s *Server) setupRoutes(requestTimeout time.Duration) {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// long-lived, so outside the request timeout
		v1.GET("/classify/stream", s.handleClassifyStream)

		timed := v1.Group("", middleware.RequestTimeout(requestTimeout))
		timed.GET("/criteria", s.handleListCriteria)
		timed.GET("/criteria/:code", s.handleGetCriterion)
		timed.POST("/classify", s.handleClassify)
		timed.POST("/evaluations/validate", s.handleValidate)
		timed.GET("/stats", s.handleStats)
	}
}

// corsMiddleware adds CORS headers so curation front ends can call the API
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
