package strategy

import (
	"strings"

	"github.com/sells-group/stock-screener/internal/fundamentals"
)

// Dividend screens payers for balance sheet solvency and payout
// safety. Both gates must clear. A company with no dividend yield gets
// its own distinct fail signal instead of a payout evaluation. Limits
// is optional; when nil the built-in sector bands apply.
type Dividend struct {
	Limits *SectorLimits
}

const (
	payoutRejectPct = 95.0
	payoutCoverPct  = 55.0
)

func (Dividend) Name() string { return NameDividend }

func (d Dividend) Evaluate(in Input) Verdict {
	v := Verdict{Strategy: NameDividend, Ticker: in.Company.Ticker, Evidence: map[string]string{}}

	if !in.DividendYield.Valid || in.DividendYield.Float64 <= 0 {
		v.Signal = "not a dividend payer"
		return v
	}
	v.Evidence["dividend_yield"] = formatValue(in.DividendYield)

	latest, ok := latestAnnual(in.Annual)
	if !ok {
		v.Signal = "no annual records"
		return v
	}

	limit := debtEquityLimit(in.Company.Sector)
	if d.Limits != nil {
		limit = d.Limits.Limit(in.Company.Sector)
	}
	v.Evidence["de_limit"] = formatNum(limit)

	equity := latest.Metric(fundamentals.MetricShareholdersEquity)
	liabilities := latest.Metric(fundamentals.MetricTotalLiabilities)
	if !equity.Valid || equity.Float64 <= 0 || !liabilities.Valid {
		// Fail closed: a payer whose solvency cannot be established is
		// not a safe payer.
		v.Signal = "debt to equity not assessable"
		return v
	}
	de := liabilities.Float64 / equity.Float64
	v.Evidence["debt_to_equity"] = formatNum(de)
	if de > limit {
		v.Signal = "debt to equity above sector limit"
		return v
	}

	ratio := in.PayoutRatio
	v.Evidence["payout_ratio_pct"] = formatValue(ratio)
	if !ratio.Valid {
		v.Signal = "payout ratio unavailable"
		return v
	}
	switch {
	case ratio.Float64 > payoutRejectPct:
		v.Signal = "payout ratio above 95%"
		return v
	case ratio.Float64 > payoutCoverPct:
		fcf := latest.Metric(fundamentals.MetricFreeCashFlow)
		ni := latest.Metric(fundamentals.MetricNetIncome)
		required := ni.Mul(fundamentals.Known(ratio.Float64 / 100))
		v.Evidence["free_cash_flow"] = formatValue(fcf)
		v.Evidence["required_coverage"] = formatValue(required)
		if !fcf.Valid || !required.Valid || fcf.Float64 <= required.Float64 {
			v.Signal = "free cash flow does not cover payout"
			return v
		}
	}

	v.Pass = true
	v.Signal = "solvent payer with safe payout"
	return v
}

// debtEquityLimit maps the provider's sector label to the maximum
// acceptable debt to equity ratio. Capital intensive and structurally
// levered sectors get the loose band, technology the tight one.
func debtEquityLimit(sector string) float64 {
	s := strings.ToLower(sector)
	for _, kw := range []string{"utilit", "telecom", "communication", "financial", "bank", "insurance"} {
		if strings.Contains(s, kw) {
			return 2.0
		}
	}
	if strings.Contains(s, "technology") || strings.Contains(s, "software") || strings.Contains(s, "semiconductor") {
		return 0.5
	}
	return 1.0
}
