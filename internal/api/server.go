package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/bankrec/internal/api/handlers"
	"github.com/eshaffer321/bankrec/internal/api/middleware"
	"github.com/eshaffer321/bankrec/internal/application/service"
	"github.com/eshaffer321/bankrec/internal/infrastructure/config"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// ConfigFrom builds server configuration from the application config.
func ConfigFrom(cfg config.APIConfig) Config {
	return Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.ReconciliationService
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.ReconciliationService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: gin.New(),
		logger: logger,
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	// CORS is skipped when no origin is configured
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig := middleware.DefaultCORSConfig()
		corsConfig.AllowedOrigins = s.config.AllowedOrigins
		s.router.Use(middleware.CORS(corsConfig))
	}

	s.router.Use(middleware.Logging(s.logger, "/health"))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	health := handlers.NewHealthHandler()
	s.router.GET("/health", health.Get)

	base := handlers.NewBase(s.svc, s.logger)
	r := s.router.Group("/api")

	// Imports
	statements := handlers.NewStatementsHandler(base)
	r.POST("/statements", statements.Create)
	r.GET("/statements/:id", statements.Get)
	r.GET("/statements/:id/balance-check", statements.BalanceCheck)
	r.GET("/statement-lines/:id/suggestions", statements.Suggestions)

	transactions := handlers.NewTransactionsHandler(base)
	r.POST("/transactions", transactions.Create)

	// Runs
	recs := handlers.NewReconciliationsHandler(base)
	r.POST("/reconciliations", recs.Create)
	r.GET("/reconciliations", recs.List)
	r.GET("/reconciliations/:id", recs.Get)

	// Review workflow
	matches := handlers.NewMatchesHandler(base)
	r.POST("/matches", matches.Create)
	r.DELETE("/matches/:id", matches.Delete)
	r.POST("/matches/:id/approve", matches.Approve)
	r.GET("/audit/:id", matches.Audit)

	discrepancies := handlers.NewDiscrepanciesHandler(base)
	r.PATCH("/discrepancies/:id", discrepancies.Update)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
