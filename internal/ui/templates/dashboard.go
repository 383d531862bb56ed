package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard returns the single-page dashboard shell. All data sections
// are placeholders that /sse/dashboard patches on load and on every
// filter change.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}

const dashboardPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sales Performance Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6f8; color: #1f2430; }
header { background: #1f2430; color: #fff; padding: 1rem 2rem; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
section { background: #fff; border-radius: 8px; padding: 1rem 1.25rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
h2 { font-size: 1rem; margin: 0 0 .75rem; }
#filters-content { display: flex; gap: 1.5rem; flex-wrap: wrap; }
#filters-content label { display: flex; flex-direction: column; font-size: .85rem; gap: .25rem; }
#filters-content select { min-width: 14rem; padding: .35rem; }
.kpi-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 1rem; }
.kpi-card { background: #f0f2f5; border-radius: 6px; padding: .75rem; display: flex; flex-direction: column; gap: .25rem; }
.kpi-label { font-size: .75rem; color: #5c6270; text-transform: uppercase; }
.modern-table { width: 100%; border-collapse: collapse; font-size: .9rem; }
.modern-table th, .modern-table td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e4e7ec; }
.category-badge { background: #e8eefc; border-radius: 4px; padding: .1rem .4rem; font-size: .8rem; }
.downloads a { margin-right: 1rem; }
</style>
</head>
<body data-signals="{year: 'all', supplier: 'all', itemType: 'all'}" data-on-load="@get('/sse/dashboard')">
<header>
<h1>Sales Performance Dashboard</h1>
</header>
<main>
<section>
<h2>Filters</h2>
<div id="filters-content">Loading filters…</div>
</section>
<section>
<h2>KPIs</h2>
<div id="kpi-content">Loading KPIs…</div>
</section>
<section>
<h2>Monthly Retail Sales Trend</h2>
<div id="trend-content">Loading trend…</div>
</section>
<section>
<h2>Top Suppliers by Retail Sales</h2>
<div id="suppliers-content">Loading suppliers…</div>
</section>
<section>
<h2>Top Items by Retail Sales</h2>
<div id="items-content">Loading items…</div>
</section>
<section>
<h2>Retail vs Warehouse Sales Over Time</h2>
<div id="channel-content">Loading comparison…</div>
</section>
<section class="downloads">
<h2>Downloads</h2>
<a data-attr-href="'/export/sales.csv?year=' + $year + '&supplier=' + encodeURIComponent($supplier) + '&type=' + encodeURIComponent($itemType)" href="/export/sales.csv">Download filtered CSV</a>
<a data-attr-href="'/export/kpis.txt?year=' + $year + '&supplier=' + encodeURIComponent($supplier) + '&type=' + encodeURIComponent($itemType)" href="/export/kpis.txt">Download KPI summary</a>
</section>
</main>
</body>
</html>
`
