package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func rec(year, month int, supplier, item, itemType string, retail, warehouse float64) models.SalesRecord {
	return models.SalesRecord{
		Year:            year,
		Month:           month,
		Supplier:        supplier,
		ItemCode:        "0000",
		ItemDescription: item,
		ItemType:        itemType,
		RetailSales:     decimal.NewFromFloat(retail),
		WarehouseSales:  decimal.NewFromFloat(warehouse),
	}
}

func TestComputeAggregates_TwoRecords(t *testing.T) {
	records := []models.SalesRecord{
		rec(2024, 1, "SupplierA", "ItemX", "BEER", 10, 0),
		rec(2024, 1, "SupplierB", "ItemY", "WINE", 5, 0),
	}

	view := ComputeAggregates(records, models.Filter{Year: 2024})

	require.Len(t, view.MonthlyTrend, 1)
	assert.Equal(t, "2024-01", view.MonthlyTrend[0].Month)
	assert.Equal(t, 15.0, view.MonthlyTrend[0].RetailSales)

	require.Len(t, view.TopSuppliers, 2)
	assert.Equal(t, "SupplierA", view.TopSuppliers[0].Supplier)
	assert.Equal(t, 10.0, view.TopSuppliers[0].RetailSales)
	assert.Equal(t, "SupplierB", view.TopSuppliers[1].Supplier)
	assert.Equal(t, 5.0, view.TopSuppliers[1].RetailSales)

	assert.Equal(t, 15.0, view.KPIs.TotalRetailSales)
	assert.Equal(t, 7.5, view.KPIs.AvgRetailPerRecord)
	assert.Equal(t, "SupplierA", view.KPIs.TopSupplier)
	assert.Equal(t, "ItemX", view.KPIs.TopItem)
	assert.Equal(t, 2, view.KPIs.Records)
}

func TestComputeAggregates_SumInvariants(t *testing.T) {
	records := []models.SalesRecord{
		rec(2023, 1, "ACME", "GIN", "LIQUOR", 12.33, 4),
		rec(2023, 1, "ZETA", "ALE", "BEER", 0.82, 18.5),
		rec(2023, 2, "ACME", "ALE", "BEER", 7.01, 0),
		rec(2023, 7, "MIDWAY", "MERLOT", "WINE", 140.25, 12.75),
		rec(2024, 2, "ZETA", "GIN", "LIQUOR", 3.99, 1),
	}

	filters := []models.Filter{
		{},
		{Year: 2023},
		{Supplier: "ACME"},
		{ItemType: "BEER"},
		{Year: 2023, Supplier: "ZETA"},
	}

	for _, f := range filters {
		view := ComputeAggregates(records, f)

		trendSum := 0.0
		for _, p := range view.MonthlyTrend {
			trendSum += p.RetailSales
		}
		assert.InDelta(t, view.KPIs.TotalRetailSales, trendSum, 1e-9,
			"monthly trend must sum to the KPI total for filter %+v", f)

		supplierSum := 0.0
		for _, s := range view.TopSuppliers {
			supplierSum += s.RetailSales
		}
		itemSum := 0.0
		for _, i := range view.TopItems {
			itemSum += i.RetailSales
		}
		assert.InDelta(t, view.KPIs.TotalRetailSales, supplierSum, 1e-9)
		assert.InDelta(t, view.KPIs.TotalRetailSales, itemSum, 1e-9)
	}
}

func TestComputeAggregates_RankingOrderAndTieBreak(t *testing.T) {
	records := []models.SalesRecord{
		rec(2023, 1, "BRAVO", "B ITEM", "BEER", 50, 0),
		rec(2023, 1, "ALPHA", "A ITEM", "BEER", 50, 0),
		rec(2023, 1, "CHARLIE", "C ITEM", "BEER", 80, 0),
	}

	view := ComputeAggregates(records, models.Filter{})

	require.Len(t, view.TopSuppliers, 3)
	assert.Equal(t, "CHARLIE", view.TopSuppliers[0].Supplier)
	// Equal totals break ties by name ascending.
	assert.Equal(t, "ALPHA", view.TopSuppliers[1].Supplier)
	assert.Equal(t, "BRAVO", view.TopSuppliers[2].Supplier)

	require.Len(t, view.TopItems, 3)
	assert.Equal(t, "C ITEM", view.TopItems[0].Item)
	assert.Equal(t, "A ITEM", view.TopItems[1].Item)
	assert.Equal(t, "B ITEM", view.TopItems[2].Item)
}

func TestComputeAggregates_ChronologicalTrend(t *testing.T) {
	records := []models.SalesRecord{
		rec(2024, 2, "ACME", "GIN", "LIQUOR", 1, 0),
		rec(2023, 11, "ACME", "GIN", "LIQUOR", 2, 0),
		rec(2024, 1, "ACME", "GIN", "LIQUOR", 3, 0),
		rec(2023, 2, "ACME", "GIN", "LIQUOR", 4, 0),
	}

	view := ComputeAggregates(records, models.Filter{})

	want := []string{"2023-02", "2023-11", "2024-01", "2024-02"}
	require.Len(t, view.MonthlyTrend, len(want))
	for i, m := range want {
		assert.Equal(t, m, view.MonthlyTrend[i].Month)
	}

	// Channel comparison shares the same chronological order.
	require.Len(t, view.ChannelComparison, len(want))
	for i, m := range want {
		assert.Equal(t, m, view.ChannelComparison[i].Month)
	}
}

func TestComputeAggregates_ChannelComparison(t *testing.T) {
	records := []models.SalesRecord{
		rec(2023, 1, "ACME", "GIN", "LIQUOR", 10, 40),
		rec(2023, 1, "ZETA", "ALE", "BEER", 5, 2.5),
		rec(2023, 2, "ACME", "GIN", "LIQUOR", 7, 0),
	}

	view := ComputeAggregates(records, models.Filter{})

	require.Len(t, view.ChannelComparison, 2)
	assert.Equal(t, 15.0, view.ChannelComparison[0].RetailSales)
	assert.Equal(t, 42.5, view.ChannelComparison[0].WarehouseSales)
	assert.Equal(t, 7.0, view.ChannelComparison[1].RetailSales)
	assert.Equal(t, 0.0, view.ChannelComparison[1].WarehouseSales)

	assert.InDelta(t, 52.5, view.KPIs.TotalWarehouseSales, 1e-9)
}

func TestComputeAggregates_EmptyResult(t *testing.T) {
	records := []models.SalesRecord{
		rec(2023, 1, "ACME", "GIN", "LIQUOR", 10, 1),
	}

	view := ComputeAggregates(records, models.Filter{Year: 1999})

	assert.NotNil(t, view.MonthlyTrend)
	assert.Empty(t, view.MonthlyTrend)
	assert.NotNil(t, view.TopSuppliers)
	assert.Empty(t, view.TopSuppliers)
	assert.NotNil(t, view.TopItems)
	assert.Empty(t, view.TopItems)
	assert.Empty(t, view.ChannelComparison)

	assert.Zero(t, view.KPIs.TotalRetailSales)
	assert.Zero(t, view.KPIs.AvgRetailPerRecord, "empty set must not divide by zero")
	assert.Zero(t, view.KPIs.AvgMonthlyRetail)
	assert.Zero(t, view.KPIs.Records)
	assert.Empty(t, view.KPIs.TopSupplier)
	assert.Empty(t, view.KPIs.TopItem)
}

func TestComputeAggregates_FilterDimensions(t *testing.T) {
	records := []models.SalesRecord{
		rec(2023, 1, "ACME", "GIN", "LIQUOR", 10, 0),
		rec(2023, 1, "ZETA", "ALE", "BEER", 20, 0),
		rec(2024, 1, "ACME", "ALE", "BEER", 40, 0),
	}

	bySupplier := ComputeAggregates(records, models.Filter{Supplier: "ACME"})
	assert.Equal(t, 50.0, bySupplier.KPIs.TotalRetailSales)
	assert.Equal(t, 2, bySupplier.KPIs.Records)

	byType := ComputeAggregates(records, models.Filter{ItemType: "BEER"})
	assert.Equal(t, 60.0, byType.KPIs.TotalRetailSales)

	combined := ComputeAggregates(records, models.Filter{Year: 2024, Supplier: "ACME", ItemType: "BEER"})
	assert.Equal(t, 40.0, combined.KPIs.TotalRetailSales)
	assert.Equal(t, 1, combined.KPIs.Records)
}

func TestComputeAggregates_AvgMonthlyRetail(t *testing.T) {
	records := []models.SalesRecord{
		rec(2023, 1, "ACME", "GIN", "LIQUOR", 10, 0),
		rec(2023, 1, "ZETA", "ALE", "BEER", 20, 0),
		rec(2023, 2, "ACME", "GIN", "LIQUOR", 30, 0),
	}

	view := ComputeAggregates(records, models.Filter{})

	// 60 total over 2 months.
	assert.InDelta(t, 30.0, view.KPIs.AvgMonthlyRetail, 1e-9)
	// 60 total over 3 records.
	assert.InDelta(t, 20.0, view.KPIs.AvgRetailPerRecord, 1e-9)
}
