package fundamentals

import (
	"sort"

	"github.com/sells-group/stock-screener/internal/xbrl"
)

// Builder turns a parsed company-facts document into normalized
// records, one per fiscal period, with derived metrics filled in.
type Builder struct {
	reg  *Registry
	calc *Calculator
}

// NewBuilder returns a builder over the given registry.
func NewBuilder(reg *Registry) *Builder {
	return &Builder{reg: reg, calc: NewCalculator(reg)}
}

// Annual builds one record per fiscal year, oldest first, keeping at
// most the latest maxYears years. maxYears <= 0 keeps everything.
func (b *Builder) Annual(company Company, facts *xbrl.CompanyFacts, maxYears int) []AnnualRecord {
	byYear := make(map[int]Metrics)
	for _, name := range b.reg.order {
		src := b.reg.sources[name]
		if len(src.Tags) == 0 {
			continue
		}
		for year, val := range xbrl.AnnualValues(facts, src.Tags, src.Unit) {
			m := byYear[year]
			m.Set(name, Known(val))
			byYear[year] = m
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	if maxYears > 0 && len(years) > maxYears {
		years = years[len(years)-maxYears:]
	}

	records := make([]AnnualRecord, 0, len(years))
	for _, year := range years {
		m := byYear[year]
		b.calc.Apply(&m)
		records = append(records, AnnualRecord{
			CIK:        company.CIK,
			Ticker:     company.Ticker,
			FiscalYear: year,
			Metrics:    m,
		})
	}
	return records
}

// Quarterly builds one record per fiscal quarter, oldest first, keeping
// at most the latest maxQuarters quarters. maxQuarters <= 0 keeps
// everything.
func (b *Builder) Quarterly(company Company, facts *xbrl.CompanyFacts, maxQuarters int) []QuarterlyRecord {
	byQuarter := make(map[xbrl.Quarter]Metrics)
	for _, name := range b.reg.order {
		src := b.reg.sources[name]
		if len(src.Tags) == 0 {
			continue
		}
		for q, val := range xbrl.QuarterlyValues(facts, src.Tags, src.Unit) {
			m := byQuarter[q]
			m.Set(name, Known(val))
			byQuarter[q] = m
		}
	}

	quarters := make([]xbrl.Quarter, 0, len(byQuarter))
	for q := range byQuarter {
		quarters = append(quarters, q)
	}
	sort.Slice(quarters, func(i, j int) bool { return quarters[i].Less(quarters[j]) })
	if maxQuarters > 0 && len(quarters) > maxQuarters {
		quarters = quarters[len(quarters)-maxQuarters:]
	}

	records := make([]QuarterlyRecord, 0, len(quarters))
	for _, q := range quarters {
		m := byQuarter[q]
		b.calc.Apply(&m)
		records = append(records, QuarterlyRecord{
			CIK:           company.CIK,
			Ticker:        company.Ticker,
			FiscalYear:    q.Year,
			FiscalQuarter: q.Quarter,
			Metrics:       m,
		})
	}
	return records
}
