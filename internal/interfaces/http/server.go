// Package http provides the HTTP adapter over the store. It is a thin
// layer: every business rule lives below, handlers translate requests and
// map decisions and errors to status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/assetdesk/assetdesk/internal/application/store"
	"github.com/assetdesk/assetdesk/internal/report"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	store      *store.Store
	reports    *report.InventoryGenerator
	logger     Logger
}

// NewServer creates a new HTTP server over the store
func NewServer(config ServerConfig, s *store.Store, reports *report.InventoryGenerator, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:  config,
		router:  router,
		store:   s,
		reports: reports,
		logger:  logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.store, s.reports, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes require a resolved actor
	api := s.router.Group("/api")
	api.Use(handlers.ActorMiddleware())
	{
		api.GET("/users", handlers.ListUsers)
		api.GET("/users/:id", handlers.GetUser)
		api.POST("/users", handlers.CreateUser)
		api.PATCH("/users/:id", handlers.UpdateUser)
		api.DELETE("/users/:id", handlers.DeleteUser)

		api.GET("/equipment", handlers.ListEquipment)
		api.GET("/equipment/:id", handlers.GetEquipment)
		api.POST("/equipment", handlers.CreateEquipment)
		api.PATCH("/equipment/:id", handlers.UpdateEquipment)
		api.DELETE("/equipment/:id", handlers.DeleteEquipment)

		// Custody intents
		api.POST("/equipment/:id/confirm-receipt", handlers.ConfirmReceipt)
		api.POST("/equipment/:id/dispute", handlers.DisputeDelivery)
		api.POST("/equipment/:id/return-request", handlers.RequestReturn)
		api.POST("/equipment/:id/return-inspect", handlers.InspectReturn)
		api.POST("/equipment/:id/repair/start", handlers.StartRepair)
		api.POST("/equipment/:id/repair/end", handlers.EndRepair)

		api.GET("/approvals", handlers.ListApprovals)
		api.GET("/approvals/:id", handlers.GetApproval)
		api.POST("/approvals", handlers.CreateApproval)
		api.POST("/approvals/:id/status", handlers.UpdateApprovalStatus)

		api.GET("/events", handlers.ListEvents)
		api.POST("/notices", handlers.CreateNotice)
		api.GET("/settings/:key", handlers.GetSetting)
		api.PUT("/settings/:key", handlers.SetSetting)
		api.GET("/timeline/:targetType/:targetId", handlers.GetTimeline)

		api.GET("/reports/inventory", handlers.ExportInventory)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
