package fundamentals

import (
	"math"
	"sort"
)

// RevenueCAGR computes the five year compound annual growth rate of
// revenue. It requires six annual revenue points covering an exact five
// year span, ending at the latest known year; anything less yields
// unknown, as does a non-positive starting revenue.
func RevenueCAGR(records []AnnualRecord) Value {
	type point struct {
		year    int
		revenue float64
	}
	var points []point
	for _, r := range records {
		if rev := r.Metric(MetricRevenue); rev.Valid {
			points = append(points, point{year: r.FiscalYear, revenue: rev.Float64})
		}
	}
	if len(points) < 6 {
		return Unknown
	}
	sort.Slice(points, func(i, j int) bool { return points[i].year < points[j].year })
	points = points[len(points)-6:]

	first, last := points[0], points[5]
	if last.year-first.year != 5 || first.revenue <= 0 || last.revenue <= 0 {
		return Unknown
	}
	return Known(math.Pow(last.revenue/first.revenue, 1.0/5.0) - 1)
}

// RuleOf40 combines growth and profitability: CAGR plus free cash flow
// margin, both in percentage points.
func RuleOf40(cagr, freeCashFlow, revenue Value) Value {
	margin := freeCashFlow.Div(revenue)
	if !cagr.Valid || !margin.Valid {
		return Unknown
	}
	return Known(100*cagr.Float64 + 100*margin.Float64)
}

// PriceEarnings returns price divided by earnings per share, unknown
// when EPS is unknown or zero.
func PriceEarnings(price, eps Value) Value {
	return price.Div(eps)
}
