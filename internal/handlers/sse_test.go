package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"sales-dashboard/internal/models"
)

func TestNewSSEHandlers(t *testing.T) {
	store := createTestStore()
	logger := testLogger()

	h := NewSSEHandlers(store, logger)

	if h == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if h.store != store {
		t.Error("NewSSEHandlers() should set store field")
	}
	if h.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_filterFromSignals(t *testing.T) {
	h := NewSSEHandlers(createTestStore(), testLogger())

	tests := []struct {
		name string
		sig  filterSignals
		want models.Filter
	}{
		{
			name: "empty signals mean no constraint",
			sig:  filterSignals{},
			want: models.Filter{},
		},
		{
			name: "all values mean no constraint",
			sig:  filterSignals{Year: "all", Supplier: "all", ItemType: "all"},
			want: models.Filter{},
		},
		{
			name: "concrete selection",
			sig:  filterSignals{Year: "2023", Supplier: "ACME DISTRIBUTING", ItemType: "LIQUOR"},
			want: models.Filter{Year: 2023, Supplier: "ACME DISTRIBUTING", ItemType: "LIQUOR"},
		},
		{
			name: "malformed year is ignored",
			sig:  filterSignals{Year: "twenty", Supplier: "ACME DISTRIBUTING"},
			want: models.Filter{Supplier: "ACME DISTRIBUTING"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.filterFromSignals(tt.sig); got != tt.want {
				t.Errorf("filterFromSignals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSSEHandlers_HandleDashboard(t *testing.T) {
	h := NewSSEHandlers(createTestStore(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard", nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected SSE content-type, got %q", ct)
	}

	body := w.Body.String()
	expectedContent := []string{
		`id="filters-content"`,
		`id="kpi-content"`,
		`id="trend-content"`,
		`id="suppliers-content"`,
		`id="items-content"`,
		`id="channel-content"`,
		"ACME DISTRIBUTING",
		"OLD TOM GIN",
	}
	for _, content := range expectedContent {
		if !strings.Contains(body, content) {
			t.Errorf("expected SSE body to contain %q", content)
		}
	}

	// The stream is element patches only; the page holds no other signals.
	if strings.Contains(body, "datastar-patch-signals") {
		t.Error("dashboard stream should not patch signals")
	}
}

func TestSSEHandlers_HandleDashboard_WithFilterSignals(t *testing.T) {
	h := NewSSEHandlers(createTestStore(), testLogger())

	signals := url.QueryEscape(`{"year":"2024","supplier":"all","itemType":"all"}`)
	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+signals, nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "NAVY RUM") {
		t.Error("expected 2024 item in filtered dashboard")
	}
	if strings.Contains(body, "PALE ALE 6PK") {
		t.Error("2023-only item should be filtered out")
	}
}

func TestSSEHandlers_HandleDashboard_EmptyFilter(t *testing.T) {
	h := NewSSEHandlers(createTestStore(), testLogger())

	signals := url.QueryEscape(`{"year":"1999","supplier":"all","itemType":"all"}`)
	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+signals, nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	// An empty filter result is a valid empty dashboard, never an error.
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "no data") {
		t.Error("expected empty-state KPI rendering")
	}
}
