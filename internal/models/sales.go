package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SalesRecord is one row of the warehouse-and-retail sales dataset.
// Records are immutable after load; sales amounts are kept as decimals
// so that aggregate sums are independent of row order.
type SalesRecord struct {
	Year            int
	Month           int // 1-12
	Supplier        string
	ItemCode        string
	ItemDescription string
	ItemType        string
	RetailSales     decimal.Decimal
	RetailTransfers decimal.Decimal
	WarehouseSales  decimal.Decimal
}

// MonthKey returns the record's calendar month as a "YYYY-MM" label.
// Lexicographic order of these labels is chronological order.
func (r SalesRecord) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", r.Year, r.Month)
}

// Filter is the user-selected subset of the dataset. Zero values mean
// "no constraint" on that dimension.
type Filter struct {
	Year     int
	Supplier string
	ItemType string
}

func (f Filter) Matches(r SalesRecord) bool {
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	if f.Supplier != "" && r.Supplier != f.Supplier {
		return false
	}
	if f.ItemType != "" && r.ItemType != f.ItemType {
		return false
	}
	return true
}

func (f Filter) IsZero() bool {
	return f.Year == 0 && f.Supplier == "" && f.ItemType == ""
}

type MonthlyPoint struct {
	Month       string  `json:"month"`
	RetailSales float64 `json:"retail_sales"`
}

type SupplierSales struct {
	Supplier    string  `json:"supplier"`
	RetailSales float64 `json:"retail_sales"`
}

type ItemSales struct {
	Item        string  `json:"item"`
	ItemType    string  `json:"item_type"`
	RetailSales float64 `json:"retail_sales"`
}

type ChannelPoint struct {
	Month          string  `json:"month"`
	RetailSales    float64 `json:"retail_sales"`
	WarehouseSales float64 `json:"warehouse_sales"`
}

type KPISet struct {
	TotalRetailSales     float64 `json:"total_retail_sales"`
	TotalRetailTransfers float64 `json:"total_retail_transfers"`
	TotalWarehouseSales  float64 `json:"total_warehouse_sales"`
	AvgRetailPerRecord   float64 `json:"avg_retail_per_record"`
	AvgMonthlyRetail     float64 `json:"avg_monthly_retail_sales"`
	TopSupplier          string  `json:"top_supplier"`
	TopItem              string  `json:"top_item"`
	Records              int     `json:"records"`
}

// AggregateView is the derived summary for one filter selection. It is
// recomputed per interaction and never cached or mutated.
type AggregateView struct {
	MonthlyTrend      []MonthlyPoint  `json:"monthly_trend"`
	TopSuppliers      []SupplierSales `json:"top_suppliers"`
	TopItems          []ItemSales     `json:"top_items"`
	ChannelComparison []ChannelPoint  `json:"channel_comparison"`
	KPIs              KPISet          `json:"kpis"`
}

// FilterOptions are the distinct values offered by the dashboard's
// filter selectors, each sorted ascending.
type FilterOptions struct {
	Years     []int    `json:"years"`
	Suppliers []string `json:"suppliers"`
	ItemTypes []string `json:"item_types"`
}
