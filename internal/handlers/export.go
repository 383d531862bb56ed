package handlers

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

// exportHeader mirrors the source dataset schema so a filtered export
// can be re-loaded by the same parser.
var exportHeader = []string{
	"YEAR", "MONTH", "SUPPLIER", "ITEM CODE", "ITEM DESCRIPTION",
	"ITEM TYPE", "RETAIL SALES", "RETAIL TRANSFERS", "WAREHOUSE SALES",
}

type ExportHandlers struct {
	store  *services.SalesStore
	logger *slog.Logger
}

func NewExportHandlers(store *services.SalesStore, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{
		store:  store,
		logger: logger,
	}
}

// HandleExportCSV streams the filtered records back out as CSV.
func (h *ExportHandlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	records := h.store.FilteredRecords(filter)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_sales.csv"`)

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		h.logger.Error("write export header", "error", err)
		return
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Year),
			strconv.Itoa(rec.Month),
			rec.Supplier,
			rec.ItemCode,
			rec.ItemDescription,
			rec.ItemType,
			rec.RetailSales.String(),
			rec.RetailTransfers.String(),
			rec.WarehouseSales.String(),
		}
		if err := writer.Write(row); err != nil {
			h.logger.Error("write export row", "error", err)
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("flush export", "error", err)
	}
}

// HandleExportKPIs writes the KPI summary for the filtered subset as
// plain text, one metric per line.
func (h *ExportHandlers) HandleExportKPIs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	kpis := h.store.Aggregate(filter).KPIs

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="kpi_summary.txt"`)

	fmt.Fprintf(w, "Total Retail Sales: %.2f\n", kpis.TotalRetailSales)
	fmt.Fprintf(w, "Total Retail Transfers: %.2f\n", kpis.TotalRetailTransfers)
	fmt.Fprintf(w, "Total Warehouse Sales: %.2f\n", kpis.TotalWarehouseSales)
	fmt.Fprintf(w, "Avg Retail Sales per Record: %.2f\n", kpis.AvgRetailPerRecord)
	fmt.Fprintf(w, "Avg Monthly Retail Sales: %.2f\n", kpis.AvgMonthlyRetail)
	fmt.Fprintf(w, "Top Supplier: %s\n", kpis.TopSupplier)
	fmt.Fprintf(w, "Top Item: %s\n", kpis.TopItem)
	fmt.Fprintf(w, "Records: %d\n", kpis.Records)
}
