package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

var filtersTemplate = template.Must(template.New("filters").Parse(`
<div id="filters-content">
<label>Year
<select data-bind="year" data-on-change="@get('/sse/dashboard')">
<option value="all">All years</option>
{{range .Years}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
</label>
<label>Supplier
<select data-bind="supplier" data-on-change="@get('/sse/dashboard')">
<option value="all">All suppliers</option>
{{range .Suppliers}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
</label>
<label>Item Type
<select data-bind="itemType" data-on-change="@get('/sse/dashboard')">
<option value="all">All types</option>
{{range .ItemTypes}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
</label>
</div>`))

var kpiTemplate = template.Must(template.New("kpis").Parse(`
<div id="kpi-content" class="kpi-grid">
<div class="kpi-card"><span class="kpi-label">Total Retail Sales</span><strong>{{printf "%.2f" .TotalRetailSales}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Retail Transfers</span><strong>{{printf "%.2f" .TotalRetailTransfers}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Warehouse Sales</span><strong>{{printf "%.2f" .TotalWarehouseSales}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Avg Monthly Retail</span><strong>{{printf "%.2f" .AvgMonthlyRetail}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Top Supplier</span><strong>{{if .TopSupplier}}{{.TopSupplier}}{{else}}no data{{end}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Records</span><strong>{{.Records}}</strong></div>
</div>`))

var trendTemplate = template.Must(template.New("trend").Parse(`
<div id="trend-content">
<table class="modern-table">
<thead><tr><th>Month</th><th>Retail Sales</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Month}}</td><td>{{printf "%.2f" .RetailSales}}</td></tr>
{{end}}</tbody>
</table>
</div>`))

var suppliersTemplate = template.Must(template.New("suppliers").Parse(`
<div id="suppliers-content">
<table class="modern-table">
<thead><tr><th>Supplier</th><th>Retail Sales</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Supplier}}</td><td><strong>{{printf "%.2f" .RetailSales}}</strong></td></tr>
{{end}}</tbody>
</table>
</div>`))

var itemsTemplate = template.Must(template.New("items").Parse(`
<div id="items-content">
<table class="modern-table">
<thead><tr><th>Item</th><th>Type</th><th>Retail Sales</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Item}}</td><td><span class="category-badge">{{.ItemType}}</span></td><td><strong>{{printf "%.2f" .RetailSales}}</strong></td></tr>
{{end}}</tbody>
</table>
</div>`))

var channelTemplate = template.Must(template.New("channel").Parse(`
<div id="channel-content">
<table class="modern-table">
<thead><tr><th>Month</th><th>Retail</th><th>Warehouse</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Month}}</td><td>{{printf "%.2f" .RetailSales}}</td><td>{{printf "%.2f" .WarehouseSales}}</td></tr>
{{end}}</tbody>
</table>
</div>`))

// filterSignals mirrors the datastar signals bound to the selectors.
type filterSignals struct {
	Year     string `json:"year"`
	Supplier string `json:"supplier"`
	ItemType string `json:"itemType"`
}

type SSEHandlers struct {
	store  *services.SalesStore
	logger *slog.Logger
}

func NewSSEHandlers(store *services.SalesStore, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		store:  store,
		logger: logger,
	}
}

// filterFromSignals converts selector signals into a Filter. Unknown or
// malformed values fall back to "no constraint" so a stale browser tab
// can never break the stream.
func (h *SSEHandlers) filterFromSignals(sig filterSignals) models.Filter {
	var f models.Filter

	if y := strings.TrimSpace(sig.Year); y != "" && y != "all" {
		year, err := strconv.Atoi(y)
		if err != nil {
			h.logger.Warn("ignoring malformed year signal", "year", y)
		} else {
			f.Year = year
		}
	}
	if s := strings.TrimSpace(sig.Supplier); s != "" && s != "all" {
		f.Supplier = s
	}
	if t := strings.TrimSpace(sig.ItemType); t != "" && t != "all" {
		f.ItemType = t
	}
	return f
}

func renderTemplate(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := t.Execute(&buf, data)
	return buf.String(), err
}

// HandleDashboard recomputes every view for the current filter selection
// and patches the page in place. The dashboard calls it once on load and
// again on every selector change.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var sig filterSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		// First load may carry no signals yet; serve the unfiltered view.
		h.logger.Debug("no filter signals on request", "error", err)
	}
	filter := h.filterFromSignals(sig)

	view := h.store.Aggregate(filter)
	view.TopSuppliers = truncateSuppliers(view.TopSuppliers, maxSuppliers)
	view.TopItems = truncateItems(view.TopItems, maxItems)

	sse := datastar.NewSSE(w, r)

	patches := []struct {
		name string
		tmpl *template.Template
		data any
	}{
		{"filters", filtersTemplate, h.store.Options()},
		{"kpis", kpiTemplate, view.KPIs},
		{"trend", trendTemplate, view.MonthlyTrend},
		{"suppliers", suppliersTemplate, view.TopSuppliers},
		{"items", itemsTemplate, view.TopItems},
		{"channel", channelTemplate, view.ChannelComparison},
	}
	for _, p := range patches {
		html, err := renderTemplate(p.tmpl, p.data)
		if err != nil {
			h.logger.Error("render dashboard section", "section", p.name, "error", err)
			return
		}
		sse.PatchElements(html)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
