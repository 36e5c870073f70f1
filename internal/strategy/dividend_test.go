package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/stock-screener/internal/fundamentals"
)

func dividendInput(sector string, liabilities, equity float64) Input {
	return Input{
		Company:       fundamentals.Company{Ticker: "TST", Sector: sector},
		DividendYield: fundamentals.Known(2.1),
		PayoutRatio:   fundamentals.Known(40),
		Annual: []fundamentals.AnnualRecord{
			annualRecord(2024, fundamentals.Metrics{
				fundamentals.MetricTotalLiabilities:   fundamentals.Known(liabilities),
				fundamentals.MetricShareholdersEquity: fundamentals.Known(equity),
				fundamentals.MetricNetIncome:          fundamentals.Known(100),
				fundamentals.MetricFreeCashFlow:       fundamentals.Known(120),
			}),
		},
	}
}

func TestDividend_NonPayerIsDistinctFail(t *testing.T) {
	in := dividendInput("Technology", 40, 100)
	in.DividendYield = fundamentals.Unknown

	v := Dividend{}.Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, "not a dividend payer", v.Signal)
}

func TestDividend_TechSolvencyFailsAtPointSix(t *testing.T) {
	// D/E 0.6 against the 0.5 technology limit fails regardless of a
	// comfortable payout ratio.
	v := Dividend{}.Evaluate(dividendInput("Technology", 60, 100))
	assert.False(t, v.Pass)
	assert.Equal(t, "debt to equity above sector limit", v.Signal)
	assert.Equal(t, "0.5", v.Evidence["de_limit"])
}

func TestDividend_SectorLimits(t *testing.T) {
	tests := []struct {
		sector string
		limit  float64
	}{
		{"Technology", 0.5},
		{"Semiconductors", 0.5},
		{"Utilities", 2.0},
		{"Telecommunication", 2.0},
		{"Banking", 2.0},
		{"Financial Services", 2.0},
		{"Insurance", 2.0},
		{"Retail", 1.0},
		{"", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.sector, func(t *testing.T) {
			assert.Equal(t, tt.limit, debtEquityLimit(tt.sector))
		})
	}
}

func TestDividend_FailsClosedOnMissingEquity(t *testing.T) {
	in := dividendInput("Retail", 60, 100)
	in.Annual[0].Metrics[fundamentals.MetricShareholdersEquity] = fundamentals.Unknown

	v := Dividend{}.Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, "debt to equity not assessable", v.Signal)
}

func TestDividend_FailsClosedOnNegativeEquity(t *testing.T) {
	v := Dividend{}.Evaluate(dividendInput("Retail", 60, -10))
	assert.False(t, v.Pass)
	assert.Equal(t, "debt to equity not assessable", v.Signal)
}

func TestDividend_PayoutAboveNinetyFiveRejected(t *testing.T) {
	in := dividendInput("Retail", 60, 100)
	in.PayoutRatio = fundamentals.Known(96)

	v := Dividend{}.Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, "payout ratio above 95%", v.Signal)
}

func TestDividend_MidBandRequiresCashCoverage(t *testing.T) {
	in := dividendInput("Retail", 60, 100)
	in.PayoutRatio = fundamentals.Known(70)

	// FCF 120 > 0.70 x 100 = 70: covered.
	v := Dividend{}.Evaluate(in)
	assert.True(t, v.Pass, "signal: %s", v.Signal)

	in.Annual[0].Metrics[fundamentals.MetricFreeCashFlow] = fundamentals.Known(50)
	v = Dividend{}.Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, "free cash flow does not cover payout", v.Signal)
}

func TestDividend_LowPayoutPassesUnconditionally(t *testing.T) {
	in := dividendInput("Retail", 60, 100)
	in.PayoutRatio = fundamentals.Known(30)
	in.Annual[0].Metrics[fundamentals.MetricFreeCashFlow] = fundamentals.Unknown

	v := Dividend{}.Evaluate(in)
	assert.True(t, v.Pass, "signal: %s", v.Signal)
	assert.Equal(t, "solvent payer with safe payout", v.Signal)
}
