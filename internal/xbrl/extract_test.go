package xbrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factsWith(ns FactNS) *CompanyFacts {
	return &CompanyFacts{
		CIK:        320193,
		EntityName: "Test Corp",
		Facts:      map[string]FactNS{"us-gaap": ns},
	}
}

func annualPoint(fy int, val float64) FactValue {
	return FactValue{
		End:   fiscalEnd(fy),
		Val:   val,
		FY:    fy,
		FP:    "FY",
		Form:  "10-K",
		Filed: fiscalEnd(fy),
	}
}

func fiscalEnd(fy int) string {
	return map[int]string{
		2019: "2019-12-31", 2020: "2020-12-31", 2021: "2021-12-31",
		2022: "2022-12-31", 2023: "2023-12-31", 2024: "2024-12-31",
	}[fy]
}

func TestExtract_FallsBackToSecondTag(t *testing.T) {
	facts := factsWith(FactNS{
		"RevenueFromContractWithCustomerExcludingAssessedTax": {
			Units: map[string][]FactValue{"USD": {annualPoint(2023, 10)}},
		},
	})

	tags := []string{"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax"}
	values := AnnualValues(facts, tags, UnitUSD)

	require.Len(t, values, 1)
	assert.Equal(t, 10.0, values[2023])
}

func TestExtract_PresentTagWithNoUsablePointsDoesNotStopChain(t *testing.T) {
	// First tag exists but only carries quarterly points, so an annual
	// query must continue to the second tag.
	facts := factsWith(FactNS{
		"Revenues": {
			Units: map[string][]FactValue{"USD": {{
				End: "2023-03-31", Val: 5, FY: 2023, FP: "Q1", Form: "10-Q",
			}}},
		},
		"SalesRevenueNet": {
			Units: map[string][]FactValue{"USD": {annualPoint(2023, 42)}},
		},
	})

	values := AnnualValues(facts, []string{"Revenues", "SalesRevenueNet"}, UnitUSD)

	require.Len(t, values, 1)
	assert.Equal(t, 42.0, values[2023])
}

func TestExtract_FirstTagWinsWhenBothPresent(t *testing.T) {
	facts := factsWith(FactNS{
		"Revenues": {
			Units: map[string][]FactValue{"USD": {annualPoint(2023, 100)}},
		},
		"SalesRevenueNet": {
			Units: map[string][]FactValue{"USD": {annualPoint(2023, 999)}},
		},
	})

	values := AnnualValues(facts, []string{"Revenues", "SalesRevenueNet"}, UnitUSD)
	assert.Equal(t, 100.0, values[2023])
}

func TestAnnualValues_LatestEndDateWinsPerYear(t *testing.T) {
	restated := annualPoint(2022, 55)
	restated.End = "2023-01-28"
	facts := factsWith(FactNS{
		"Revenues": {
			Units: map[string][]FactValue{"USD": {
				annualPoint(2022, 50),
				restated,
			}},
		},
	})

	values := AnnualValues(facts, []string{"Revenues"}, UnitUSD)
	assert.Equal(t, 55.0, values[2022])
}

func TestAnnualValues_IgnoresNonFYPeriods(t *testing.T) {
	interim := FactValue{End: "2023-06-30", Val: 7, FY: 2023, FP: "Q2", Form: "10-K"}
	facts := factsWith(FactNS{
		"Revenues": {
			Units: map[string][]FactValue{"USD": {interim, annualPoint(2023, 20)}},
		},
	})

	values := AnnualValues(facts, []string{"Revenues"}, UnitUSD)
	require.Len(t, values, 1)
	assert.Equal(t, 20.0, values[2023])
}

func TestQuarterlyValues_KeysByFiscalQuarter(t *testing.T) {
	q := func(fy, qn int, val float64) FactValue {
		ends := map[int]string{1: "-03-31", 2: "-06-30", 3: "-09-30", 4: "-12-31"}
		end := fiscalEnd(fy)[:4] + ends[qn]
		return FactValue{End: end, Val: val, FY: fy, FP: map[int]string{1: "Q1", 2: "Q2", 3: "Q3", 4: "Q4"}[qn], Form: "10-Q"}
	}
	facts := factsWith(FactNS{
		"OperatingIncomeLoss": {
			Units: map[string][]FactValue{"USD": {
				q(2023, 1, 10), q(2023, 2, 12), q(2023, 3, 15),
			}},
		},
	})

	values := QuarterlyValues(facts, []string{"OperatingIncomeLoss"}, UnitUSD)
	require.Len(t, values, 3)
	assert.Equal(t, 12.0, values[Quarter{Year: 2023, Quarter: 2}])

	order := SortedQuarters(values)
	assert.Equal(t, Quarter{Year: 2023, Quarter: 1}, order[0])
	assert.Equal(t, Quarter{Year: 2023, Quarter: 3}, order[2])
}

func TestUnitEntries_PerShareFallback(t *testing.T) {
	point := annualPoint(2023, 1.5)
	facts := factsWith(FactNS{
		"EarningsPerShareDiluted": {
			Units: map[string][]FactValue{UnitUSDPerShare: {point}},
		},
	})

	values := AnnualValues(facts, []string{"EarningsPerShareDiluted"}, UnitUSD)
	assert.Equal(t, 1.5, values[2023])
}

func TestExtract_UnknownTagReturnsNothing(t *testing.T) {
	facts := factsWith(FactNS{})
	assert.Empty(t, Extract(facts, []string{"Revenues"}, FormAnnual, UnitUSD))
	assert.Empty(t, AnnualValues(facts, []string{"Revenues"}, UnitUSD))
}

func TestSortedYears(t *testing.T) {
	years := SortedYears(map[int]float64{2022: 1, 2019: 2, 2024: 3})
	assert.Equal(t, []int{2019, 2022, 2024}, years)
}
