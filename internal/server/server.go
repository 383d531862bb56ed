package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/services"
)

type Server struct {
	store          *services.SalesStore
	mux            *http.ServeMux
	logger         *slog.Logger
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	exportHandlers *handlers.ExportHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(store *services.SalesStore, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		store:          store,
		mux:            http.NewServeMux(),
		logger:         logger,
		apiHandlers:    handlers.NewAPIHandlers(store, logger),
		sseHandlers:    handlers.NewSSEHandlers(store, logger),
		exportHandlers: handlers.NewExportHandlers(store, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints; all accept year/supplier/type query params
	s.mux.HandleFunc("GET /api/monthly-trend", s.apiHandlers.HandleMonthlyTrend)
	s.mux.HandleFunc("GET /api/top-suppliers", s.apiHandlers.HandleTopSuppliers)
	s.mux.HandleFunc("GET /api/top-items", s.apiHandlers.HandleTopItems)
	s.mux.HandleFunc("GET /api/channel-comparison", s.apiHandlers.HandleChannelComparison)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)

	// Datastar SSE endpoint driving the reactive dashboard
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)

	// Downloads
	s.mux.HandleFunc("GET /export/sales.csv", s.exportHandlers.HandleExportCSV)
	s.mux.HandleFunc("GET /export/kpis.txt", s.exportHandlers.HandleExportKPIs)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
