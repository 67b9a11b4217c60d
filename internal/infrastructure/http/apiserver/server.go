// Package apiserver provides the JSON API HTTP server implementation
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mealsmith/v1/internal/infrastructure/config"
	"github.com/mealsmith/v1/internal/infrastructure/http/handlers"
	"github.com/mealsmith/v1/internal/infrastructure/http/middleware"
	"github.com/mealsmith/v1/internal/infrastructure/monitoring"
	"github.com/mealsmith/v1/internal/ports/inbound"
)

// APIServer serves the weekly plan JSON API
type APIServer struct {
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
	router      *chi.Mux
	planService inbound.PlanService
	metrics     *monitoring.Metrics
}

// NewAPIServer creates a new API server instance
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	planService inbound.PlanService,
	metrics *monitoring.Metrics,
) *APIServer {
	server := &APIServer{
		config:      cfg,
		logger:      log,
		planService: planService,
		metrics:     metrics,
	}

	server.router = server.setupRoutes()
	server.server = &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        server.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return server
}

// setupRoutes configures the JSON API routes
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(s.config.RateLimit))

	// Operational endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		s.setupAPIV1Routes(r)
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *APIServer) setupAPIV1Routes(r chi.Router) {
	h := handlers.NewPlanAPIHandlers(s.planService, s.metrics, s.logger)

	r.Route("/plans/{weekStart}", func(r chi.Router) {
		r.Use(middleware.Identity())

		r.Post("/generate", h.GeneratePlan)
		r.Get("/", h.GetPlan)
		r.Delete("/", h.DeletePlan)
		r.Post("/swap", h.SwapMeal)
		r.Put("/meals/{mealID}/lock", h.SetMealLock)
		r.Get("/grocery-list", h.GetGroceryList)
		r.Put("/grocery-list/checks", h.SetGroceryChecks)
	})
}

// handleHealthCheck handles GET /health
func (s *APIServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"` + s.config.App.Name + `"}`))
}

// Start starts the HTTP server
func (s *APIServer) Start() error {
	s.logger.Info("Starting JSON API server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down JSON API server")
	return s.server.Shutdown(ctx)
}
