// Package strategy evaluates screening strategies over normalized
// financial records. Evaluators are pure: they never fetch, never
// block, and treat unknown inputs as insufficient evidence rather than
// errors.
package strategy

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/stock-screener/internal/fundamentals"
)

// Strategy names.
const (
	NameGrowth     = "growth"
	NameDividend   = "dividend"
	NameTurnaround = "turnaround"
	NameLossToEarn = "loss_to_earn"
)

// Input is everything an evaluator may look at for one company.
// Record slices are ordered oldest first. PayoutRatio is the trailing
// twelve month payout ratio in percent, as the market data provider
// reports it.
type Input struct {
	Company       fundamentals.Company
	Annual        []fundamentals.AnnualRecord
	Quarterly     []fundamentals.QuarterlyRecord
	PayoutRatio   fundamentals.Value
	DividendYield fundamentals.Value
}

// Verdict is one strategy's decision for one company. Signal is a
// short human readable reason; Evidence carries the raw numbers the
// decision was made on.
type Verdict struct {
	Strategy string
	Ticker   string
	Pass     bool
	Signal   string
	Evidence map[string]string
}

// EvidenceString flattens the evidence map into a stable
// "key=value; key=value" form for the report, keys sorted.
func (v Verdict) EvidenceString() string {
	if len(v.Evidence) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v.Evidence))
	for k := range v.Evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+v.Evidence[k])
	}
	return strings.Join(parts, "; ")
}

// Evaluator is one screening strategy.
type Evaluator interface {
	Name() string
	Evaluate(in Input) Verdict
}

// All returns the full evaluator set in report order. limits may be
// nil.
func All(limits *SectorLimits) []Evaluator {
	return []Evaluator{
		Growth{},
		Dividend{Limits: limits},
		Turnaround{},
		LossToEarn{},
	}
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatValue(v fundamentals.Value) string {
	if !v.Valid {
		return "unknown"
	}
	return formatNum(v.Float64)
}
