package strategy

import (
	"github.com/sells-group/stock-screener/internal/fundamentals"
)

// Turnaround screens for operational recovery: three strictly
// improving EBIT quarters plus an interest coverage ratio that is both
// above 3 and better than last year's.
type Turnaround struct{}

const (
	turnaroundMinQuarters = 3
	turnaroundMinAnnual   = 2
	turnaroundMinCoverage = 3.0

	// Sentinel coverage when interest expense is zero or unreported.
	// Treated as very high coverage rather than unknown, since no
	// interest burden is the best possible coverage position.
	coverageSentinel = 100.0
)

func (Turnaround) Name() string { return NameTurnaround }

func (Turnaround) Evaluate(in Input) Verdict {
	v := Verdict{Strategy: NameTurnaround, Ticker: in.Company.Ticker, Evidence: map[string]string{}}

	ebit := knownQuarterly(in.Quarterly, fundamentals.MetricOperatingIncome)
	if len(ebit) < turnaroundMinQuarters {
		v.Signal = "insufficient quarterly EBIT history"
		return v
	}
	if len(in.Annual) < turnaroundMinAnnual {
		v.Signal = "insufficient annual history"
		return v
	}

	q1, q2, q3 := ebit[len(ebit)-3], ebit[len(ebit)-2], ebit[len(ebit)-1]
	v.Evidence["ebit_quarters"] = formatNum(q1) + "," + formatNum(q2) + "," + formatNum(q3)
	if !(q1 < q2 && q2 < q3) {
		v.Signal = "EBIT not strictly improving"
		return v
	}

	prior := interestCoverage(in.Annual[len(in.Annual)-2])
	current := interestCoverage(in.Annual[len(in.Annual)-1])
	v.Evidence["coverage_prior"] = formatNum(prior)
	v.Evidence["coverage_current"] = formatNum(current)
	if current <= turnaroundMinCoverage {
		v.Signal = "interest coverage below 3"
		return v
	}
	if current <= prior {
		v.Signal = "interest coverage not improving"
		return v
	}

	v.Pass = true
	v.Signal = "sequential EBIT recovery with improving coverage"
	return v
}

// interestCoverage is EBIT over interest expense for one fiscal year.
// Zero or unknown interest expense maps to the sentinel.
func interestCoverage(r fundamentals.AnnualRecord) float64 {
	ebit := r.Metric(fundamentals.MetricOperatingIncome)
	interest := r.Metric(fundamentals.MetricInterestExpense)
	if !ebit.Valid {
		return 0
	}
	if !interest.Valid || interest.Float64 == 0 {
		return coverageSentinel
	}
	return ebit.Float64 / interest.Float64
}

// knownQuarterly collects the known values of one metric across
// quarterly records, preserving chronological order.
func knownQuarterly(quarters []fundamentals.QuarterlyRecord, metric string) []float64 {
	var out []float64
	for _, q := range quarters {
		if v := q.Metric(metric); v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}
