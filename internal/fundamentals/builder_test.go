package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-screener/internal/xbrl"
)

func buildFacts(ns xbrl.FactNS) *xbrl.CompanyFacts {
	return &xbrl.CompanyFacts{
		CIK:        1318605,
		EntityName: "Test Corp",
		Facts:      map[string]xbrl.FactNS{"us-gaap": ns},
	}
}

func annualFact(fy int, val float64) xbrl.FactValue {
	return xbrl.FactValue{
		End:  "2024-12-31",
		Val:  val,
		FY:   fy,
		FP:   "FY",
		Form: "10-K",
	}
}

func quarterFact(fy, q int, val float64) xbrl.FactValue {
	return xbrl.FactValue{
		End:  "2024-03-31",
		Val:  val,
		FY:   fy,
		FP:   map[int]string{1: "Q1", 2: "Q2", 3: "Q3", 4: "Q4"}[q],
		Form: "10-Q",
	}
}

func TestBuilder_AnnualBuildsOrderedRecordsWithDerivedMetrics(t *testing.T) {
	facts := buildFacts(xbrl.FactNS{
		"Revenues": {Units: map[string][]xbrl.FactValue{"USD": {
			annualFact(2023, 1000), annualFact(2024, 1200),
		}}},
		"CostOfGoodsAndServicesSold": {Units: map[string][]xbrl.FactValue{"USD": {
			annualFact(2023, 400), annualFact(2024, 480),
		}}},
	})

	b := NewBuilder(DefaultRegistry())
	records := b.Annual(Company{CIK: 1318605, Ticker: "TST"}, facts, 0)

	require.Len(t, records, 2)
	assert.Equal(t, 2023, records[0].FiscalYear)
	assert.Equal(t, 2024, records[1].FiscalYear)
	assert.Equal(t, "TST", records[0].Ticker)
	assert.Equal(t, Known(1200), records[1].Metric(MetricRevenue))
	assert.Equal(t, Known(720), records[1].Metric(MetricGrossProfit))
	assert.Equal(t, Known(0.6), records[1].Metric(MetricGrossMargin))
}

func TestBuilder_AnnualKeepsLatestYears(t *testing.T) {
	facts := buildFacts(xbrl.FactNS{
		"Revenues": {Units: map[string][]xbrl.FactValue{"USD": {
			annualFact(2020, 1), annualFact(2021, 2),
			annualFact(2022, 3), annualFact(2023, 4),
		}}},
	})

	b := NewBuilder(DefaultRegistry())
	records := b.Annual(Company{Ticker: "TST"}, facts, 2)

	require.Len(t, records, 2)
	assert.Equal(t, 2022, records[0].FiscalYear)
	assert.Equal(t, 2023, records[1].FiscalYear)
}

func TestBuilder_QuarterlyBuildsChronologicalRecords(t *testing.T) {
	facts := buildFacts(xbrl.FactNS{
		"OperatingIncomeLoss": {Units: map[string][]xbrl.FactValue{"USD": {
			quarterFact(2024, 2, 12), quarterFact(2023, 4, 8), quarterFact(2024, 1, 10),
		}}},
	})

	b := NewBuilder(DefaultRegistry())
	records := b.Quarterly(Company{Ticker: "TST"}, facts, 0)

	require.Len(t, records, 3)
	assert.Equal(t, []int{2023, 2024, 2024}, []int{records[0].FiscalYear, records[1].FiscalYear, records[2].FiscalYear})
	assert.Equal(t, []int{4, 1, 2}, []int{records[0].FiscalQuarter, records[1].FiscalQuarter, records[2].FiscalQuarter})
	assert.Equal(t, Known(12), records[2].Metric(MetricOperatingIncome))
}

func TestBuilder_EmptyFactsYieldNoRecords(t *testing.T) {
	b := NewBuilder(DefaultRegistry())
	assert.Empty(t, b.Annual(Company{}, buildFacts(xbrl.FactNS{}), 7))
	assert.Empty(t, b.Quarterly(Company{}, buildFacts(xbrl.FactNS{}), 10))
}
