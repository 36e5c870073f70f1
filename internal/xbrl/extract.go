package xbrl

import (
	"sort"
	"strings"
)

// Form filters data points by the filing that reported them.
type Form string

const (
	FormAnnual    Form = "10-K"
	FormQuarterly Form = "10-Q"
)

// Units.
const (
	UnitUSD          = "USD"
	UnitUSDPerShare  = "USD/shares"
	UnitPureShares   = "shares"
	defaultExtractFP = "FY"
)

// Quarter keys a quarterly period.
type Quarter struct {
	Year    int
	Quarter int
}

// Less orders quarters chronologically.
func (q Quarter) Less(other Quarter) bool {
	if q.Year != other.Year {
		return q.Year < other.Year
	}
	return q.Quarter < other.Quarter
}

var fpQuarter = map[string]int{"Q1": 1, "Q2": 2, "Q3": 3, "Q4": 4}

// Extract resolves a canonical metric from the document: tags are tried
// in declared priority order, and the first tag yielding at least one
// point after form and unit filtering wins. A tag that is present but
// produces zero usable points does not stop the chain. An empty result
// means the metric is unknown for every period, never an error.
func Extract(facts *CompanyFacts, tags []string, form Form, unit string) []FactValue {
	gaap := facts.USGAAP()
	if len(gaap) == 0 {
		return nil
	}

	for _, tag := range tags {
		fact, ok := gaap[tag]
		if !ok {
			continue
		}
		points := unitEntries(fact.Units, unit)
		if len(points) == 0 {
			continue
		}

		var matched []FactValue
		for _, p := range points {
			if form != "" && Form(p.Form) != form {
				continue
			}
			matched = append(matched, p)
		}
		if len(matched) > 0 {
			return matched
		}
	}
	return nil
}

// unitEntries picks the data points for the requested unit: exact match
// first, then a case-insensitive substring match, then the USD/shares
// fallback for per-share metrics.
func unitEntries(units map[string][]FactValue, unit string) []FactValue {
	if unit == "" {
		unit = UnitUSD
	}
	if entries, ok := units[unit]; ok && len(entries) > 0 {
		return entries
	}
	for u, entries := range units {
		if len(entries) > 0 && strings.Contains(strings.ToLower(u), strings.ToLower(unit)) {
			return entries
		}
	}
	if entries, ok := units[UnitUSDPerShare]; ok {
		return entries
	}
	return nil
}

// AnnualValues resolves a metric to one value per fiscal year from
// full-year points. Filings are sometimes amended, so among points for
// the same year the one with the latest end date wins (filed date
// breaks ties).
func AnnualValues(facts *CompanyFacts, tags []string, unit string) map[int]float64 {
	points := Extract(facts, tags, FormAnnual, unit)
	out := make(map[int]float64)
	best := make(map[int]FactValue)
	for _, p := range points {
		if p.FY == 0 || p.FP != defaultExtractFP {
			continue
		}
		cur, seen := best[p.FY]
		if !seen || laterPoint(p, cur) {
			best[p.FY] = p
			out[p.FY] = p.Val
		}
	}
	return out
}

// QuarterlyValues resolves a metric to one value per (year, quarter)
// from 10-Q points, latest end date winning per quarter.
func QuarterlyValues(facts *CompanyFacts, tags []string, unit string) map[Quarter]float64 {
	points := Extract(facts, tags, FormQuarterly, unit)
	out := make(map[Quarter]float64)
	best := make(map[Quarter]FactValue)
	for _, p := range points {
		qn, ok := fpQuarter[p.FP]
		if !ok || p.FY == 0 {
			continue
		}
		key := Quarter{Year: p.FY, Quarter: qn}
		cur, seen := best[key]
		if !seen || laterPoint(p, cur) {
			best[key] = p
			out[key] = p.Val
		}
	}
	return out
}

// laterPoint reports whether a supersedes b: strictly later period end,
// or the same end filed later. ISO dates compare lexically.
func laterPoint(a, b FactValue) bool {
	if a.End != b.End {
		return a.End > b.End
	}
	return a.Filed > b.Filed
}

// SortedYears returns the keys of an annual value map, oldest first.
func SortedYears(values map[int]float64) []int {
	years := make([]int, 0, len(values))
	for y := range values {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// SortedQuarters returns the keys of a quarterly value map in
// chronological order.
func SortedQuarters(values map[Quarter]float64) []Quarter {
	quarters := make([]Quarter, 0, len(values))
	for q := range values {
		quarters = append(quarters, q)
	}
	sort.Slice(quarters, func(i, j int) bool { return quarters[i].Less(quarters[j]) })
	return quarters
}
