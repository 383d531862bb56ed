package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	maxSuppliers = 10
	maxItems     = 10
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	store  *services.SalesStore
	logger *slog.Logger
}

func NewAPIHandlers(store *services.SalesStore, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:  store,
		logger: logger,
	}
}

// parseFilter reads the filter selection from query parameters. Absent
// parameters leave the dimension unconstrained; "all" is accepted as an
// explicit no-constraint value because the selectors send it.
func parseFilter(r *http.Request) (models.Filter, error) {
	var f models.Filter

	if y := strings.TrimSpace(r.URL.Query().Get("year")); y != "" && y != "all" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return models.Filter{}, errors.BadRequestWrap(err, "year must be a number")
		}
		f.Year = year
	}
	if s := strings.TrimSpace(r.URL.Query().Get("supplier")); s != "" && s != "all" {
		f.Supplier = s
	}
	if t := strings.TrimSpace(r.URL.Query().Get("type")); t != "" && t != "all" {
		f.ItemType = t
	}

	return f, nil
}

func (h *APIHandlers) aggregate(w http.ResponseWriter, r *http.Request) (models.AggregateView, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return models.AggregateView{}, false
	}
	return h.store.Aggregate(filter), true
}

func (h *APIHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	view, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, view.MonthlyTrend, cacheHeaders)
}

func (h *APIHandlers) HandleTopSuppliers(w http.ResponseWriter, r *http.Request) {
	view, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, truncateSuppliers(view.TopSuppliers, maxSuppliers), cacheHeaders)
}

func (h *APIHandlers) HandleTopItems(w http.ResponseWriter, r *http.Request) {
	view, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, truncateItems(view.TopItems, maxItems), cacheHeaders)
}

func (h *APIHandlers) HandleChannelComparison(w http.ResponseWriter, r *http.Request) {
	view, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, view.ChannelComparison, cacheHeaders)
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	view, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, view.KPIs, cacheHeaders)
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.store.Options(), cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.store.Stats())
}

func truncateSuppliers(s []models.SupplierSales, limit int) []models.SupplierSales {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func truncateItems(s []models.ItemSales, limit int) []models.ItemSales {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
