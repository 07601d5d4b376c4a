package web

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itbi-consulta/internal/audit"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/metrics"
	"github.com/itbi-consulta/internal/store"
	"github.com/itbi-consulta/internal/web/handlers"
	"github.com/itbi-consulta/internal/web/middleware"
)

// Deps are the services the handlers use.
type Deps struct {
	Store    *store.Store
	Tracker  *audit.Tracker
	Engine   handlers.Searcher
	Cache    handlers.Invalidator
	Resolver handlers.Resolver
	DB       handlers.Pinger
	// Tables maps dataset names to store tables for the stats endpoint.
	Tables   map[string]string
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      *logger.Logger
}

// Server represents the web server
type Server struct {
	config     *Config
	deps       Deps
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(config *Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	server := &Server{config: config, deps: deps}
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	d := s.deps

	handlerConfig := &handlers.Config{}
	handlerConfig.Features.ReportsEnabled = s.config.Features.ReportsEnabled

	apiHandler := &handlers.APIHandler{
		Store: d.Store, Tracker: d.Tracker, Cache: d.Cache, DB: d.DB, Tables: d.Tables, Log: d.Log,
	}
	searchHandler := &handlers.SearchHandler{Engine: d.Engine, Log: d.Log}
	reportHandler := &handlers.ReportHandler{Engine: d.Engine, Config: handlerConfig, Log: d.Log}
	propertyHandler := &handlers.PropertyHandler{Resolver: d.Resolver}
	valuationHandler := &handlers.ValuationHandler{Engine: d.Engine, Resolver: d.Resolver, Log: d.Log}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/transactions", searchHandler.SearchTransactions).Methods(http.MethodGet, http.MethodOptions)
	if s.config.Features.ReportsEnabled {
		api.HandleFunc("/report", reportHandler.CreateReport).Methods(http.MethodPost, http.MethodOptions)
	}
	api.HandleFunc("/properties/resolve", propertyHandler.Resolve).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/valuation", valuationHandler.Estimate).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/valuation/compare", valuationHandler.Compare).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/stats", apiHandler.GetStats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/cache/invalidate", apiHandler.InvalidateCache).Methods(http.MethodPost, http.MethodOptions)

	s.router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/health", apiHandler.Health).Methods(http.MethodGet)

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(d.Log, d.Metrics))

	if s.config.Auth.Enabled() {
		api.Use(middleware.Authentication(s.config.Auth.APIKey))
	}
}

// Start serves until ctx is canceled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.deps.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.deps.Log.Info("server stopped")
	return nil
}
