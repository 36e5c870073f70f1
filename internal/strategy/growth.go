package strategy

import (
	"fmt"

	"github.com/sells-group/stock-screener/internal/fundamentals"
)

// Growth screens for compounders: persistent free cash flow, a five
// year revenue CAGR above 10%, and a Rule of 40 score of at least 40.
//
// Note the deliberate asymmetry, carried over from the production
// screen: the FCF persistence check is skipped when fewer than five
// years carry a known value, but the CAGR check fails outright when
// fewer than six records exist. Do not unify the two policies without revisiting the
// screen's historical results.
type Growth struct{}

const (
	growthMinCAGR   = 0.10
	growthRuleOf40  = 40.0
	growthFCFYears  = 5
	growthFCFNeeded = 3
)

func (Growth) Name() string { return NameGrowth }

func (Growth) Evaluate(in Input) Verdict {
	v := Verdict{Strategy: NameGrowth, Ticker: in.Company.Ticker, Evidence: map[string]string{}}

	fcfPass, fcfSkipped, positive, sampled := fcfPersistence(in.Annual)
	v.Evidence["fcf_positive_years"] = fmt.Sprintf("%d/%d", positive, sampled)
	if fcfSkipped {
		v.Evidence["fcf_check"] = "skipped"
	} else if fcfPass {
		v.Evidence["fcf_check"] = "pass"
	} else {
		v.Evidence["fcf_check"] = "fail"
	}

	cagr := fundamentals.RevenueCAGR(in.Annual)
	v.Evidence["revenue_cagr"] = formatValue(cagr)
	cagrPass := cagr.Valid && cagr.Float64 > growthMinCAGR

	var score fundamentals.Value
	if latest, ok := latestAnnual(in.Annual); ok {
		score = fundamentals.RuleOf40(cagr,
			latest.Metric(fundamentals.MetricFreeCashFlow),
			latest.Metric(fundamentals.MetricRevenue))
	}
	v.Evidence["rule_of_40"] = formatValue(score)
	scorePass := score.Valid && score.Float64 >= growthRuleOf40

	switch {
	case !fcfPass && !fcfSkipped:
		v.Signal = "free cash flow not persistent"
	case !cagr.Valid:
		v.Signal = "insufficient revenue history for 5y CAGR"
	case !cagrPass:
		v.Signal = "revenue CAGR below 10%"
	case !scorePass:
		v.Signal = "rule of 40 score below 40"
	default:
		v.Pass = true
		v.Signal = "durable growth with cash generation"
	}
	return v
}

// fcfPersistence checks free cash flow over the most recent five
// years that actually report one. Years with an unknown value do not
// count toward the window; fewer than five known years skips the
// check entirely.
func fcfPersistence(annual []fundamentals.AnnualRecord) (pass, skipped bool, positive, sampled int) {
	var known []fundamentals.Value
	for _, r := range annual {
		if fcf := r.Metric(fundamentals.MetricFreeCashFlow); fcf.Valid {
			known = append(known, fcf)
		}
	}
	if len(known) < growthFCFYears {
		return true, true, 0, len(known)
	}
	recent := known[len(known)-growthFCFYears:]
	sampled = len(recent)
	for _, fcf := range recent {
		if fcf.Float64 > 0 {
			positive++
		}
	}
	return positive >= growthFCFNeeded, false, positive, sampled
}

func latestAnnual(annual []fundamentals.AnnualRecord) (fundamentals.AnnualRecord, bool) {
	if len(annual) == 0 {
		return fundamentals.AnnualRecord{}, false
	}
	return annual[len(annual)-1], true
}
