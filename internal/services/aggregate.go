package services

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

type channelTotals struct {
	retail    decimal.Decimal
	warehouse decimal.Decimal
}

// ComputeAggregates derives the full dashboard summary from the filtered
// subset of records. Sums accumulate as decimals so the invariant
// "monthly trend total == supplier total == item total == KPI total"
// holds exactly, then convert to float64 at the view boundary.
func ComputeAggregates(records []models.SalesRecord, f models.Filter) models.AggregateView {
	monthGroups := make(map[string]*channelTotals)
	supplierGroups := make(map[string]decimal.Decimal)
	itemGroups := make(map[string]decimal.Decimal)
	itemTypes := make(map[string]string)

	totalRetail := decimal.Zero
	totalTransfers := decimal.Zero
	totalWarehouse := decimal.Zero
	matched := 0

	for _, r := range records {
		if !f.Matches(r) {
			continue
		}
		matched++

		key := r.MonthKey()
		if monthGroups[key] == nil {
			monthGroups[key] = &channelTotals{}
		}
		monthGroups[key].retail = monthGroups[key].retail.Add(r.RetailSales)
		monthGroups[key].warehouse = monthGroups[key].warehouse.Add(r.WarehouseSales)

		supplierGroups[r.Supplier] = supplierGroups[r.Supplier].Add(r.RetailSales)
		itemGroups[r.ItemDescription] = itemGroups[r.ItemDescription].Add(r.RetailSales)
		itemTypes[r.ItemDescription] = r.ItemType

		totalRetail = totalRetail.Add(r.RetailSales)
		totalTransfers = totalTransfers.Add(r.RetailTransfers)
		totalWarehouse = totalWarehouse.Add(r.WarehouseSales)
	}

	trend, channels := sortMonths(monthGroups)
	suppliers := rankSuppliers(supplierGroups)
	items := rankItems(itemGroups, itemTypes)

	kpis := models.KPISet{
		TotalRetailSales:     totalRetail.InexactFloat64(),
		TotalRetailTransfers: totalTransfers.InexactFloat64(),
		TotalWarehouseSales:  totalWarehouse.InexactFloat64(),
		Records:              matched,
	}
	if matched > 0 {
		kpis.AvgRetailPerRecord = totalRetail.Div(decimal.NewFromInt(int64(matched))).InexactFloat64()
	}
	if len(trend) > 0 {
		kpis.AvgMonthlyRetail = totalRetail.Div(decimal.NewFromInt(int64(len(trend)))).InexactFloat64()
	}
	if len(suppliers) > 0 {
		kpis.TopSupplier = suppliers[0].Supplier
	}
	if len(items) > 0 {
		kpis.TopItem = items[0].Item
	}

	return models.AggregateView{
		MonthlyTrend:      trend,
		TopSuppliers:      suppliers,
		TopItems:          items,
		ChannelComparison: channels,
		KPIs:              kpis,
	}
}

// sortMonths produces the chronological monthly trend and the per-month
// retail vs warehouse comparison from the same grouping.
func sortMonths(groups map[string]*channelTotals) ([]models.MonthlyPoint, []models.ChannelPoint) {
	months := make([]string, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	slices.Sort(months)

	trend := make([]models.MonthlyPoint, 0, len(months))
	channels := make([]models.ChannelPoint, 0, len(months))
	for _, m := range months {
		g := groups[m]
		trend = append(trend, models.MonthlyPoint{
			Month:       m,
			RetailSales: g.retail.InexactFloat64(),
		})
		channels = append(channels, models.ChannelPoint{
			Month:          m,
			RetailSales:    g.retail.InexactFloat64(),
			WarehouseSales: g.warehouse.InexactFloat64(),
		})
	}
	return trend, channels
}

func rankSuppliers(groups map[string]decimal.Decimal) []models.SupplierSales {
	type entry struct {
		name  string
		total decimal.Decimal
	}
	entries := make([]entry, 0, len(groups))
	for name, total := range groups {
		entries = append(entries, entry{name: name, total: total})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := b.total.Cmp(a.total); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	result := make([]models.SupplierSales, 0, len(entries))
	for _, e := range entries {
		result = append(result, models.SupplierSales{
			Supplier:    e.name,
			RetailSales: e.total.InexactFloat64(),
		})
	}
	return result
}

func rankItems(groups map[string]decimal.Decimal, types map[string]string) []models.ItemSales {
	type entry struct {
		name  string
		total decimal.Decimal
	}
	entries := make([]entry, 0, len(groups))
	for name, total := range groups {
		entries = append(entries, entry{name: name, total: total})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := b.total.Cmp(a.total); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	result := make([]models.ItemSales, 0, len(entries))
	for _, e := range entries {
		result = append(result, models.ItemSales{
			Item:        e.name,
			ItemType:    types[e.name],
			RetailSales: e.total.InexactFloat64(),
		})
	}
	return result
}
