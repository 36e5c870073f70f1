package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-screener/internal/fundamentals"
)

func lossInput(values ...float64) Input {
	return Input{
		Company:   fundamentals.Company{Ticker: "TST"},
		Quarterly: quarterlyNetIncome(values...),
	}
}

func TestLossToEarn_NarrowingWithAcceleration(t *testing.T) {
	// 6/6 negative, losses narrowing every quarter, acceleration
	// -8 - 2*(-18) + (-25) = 3 > 0.
	v := LossToEarn{}.Evaluate(lossInput(-40, -35, -30, -25, -18, -8))

	require.True(t, v.Pass, "signal: %s", v.Signal)
	assert.Equal(t, "narrowing losses with acceleration", v.Signal)
	assert.Equal(t, "3", v.Evidence["acceleration"])
	assert.Equal(t, "6/6", v.Evidence["negative_quarters"])
}

func TestLossToEarn_InsufficientHistory(t *testing.T) {
	v := LossToEarn{}.Evaluate(lossInput(-40, -30, -20, -10, -5))
	assert.False(t, v.Pass)
	assert.Equal(t, "insufficient quarterly net income history", v.Signal)
}

func TestLossToEarn_NoSustainedLossBase(t *testing.T) {
	// Only 3 of 6 quarters negative.
	v := LossToEarn{}.Evaluate(lossInput(10, 12, 8, -25, -18, -8))
	assert.False(t, v.Pass)
	assert.Equal(t, "no sustained loss base", v.Signal)
}

func TestLossToEarn_CurrentQuarterProfitableFails(t *testing.T) {
	// Distress baseline holds but the pivot already happened.
	v := LossToEarn{}.Evaluate(lossInput(-40, -35, -30, -25, -18, 5))
	assert.False(t, v.Pass)
	assert.Equal(t, "current quarter already profitable", v.Signal)
}

func TestLossToEarn_LossesWidening(t *testing.T) {
	v := LossToEarn{}.Evaluate(lossInput(-40, -35, -30, -25, -18, -20))
	assert.False(t, v.Pass)
	assert.Equal(t, "losses not narrowing", v.Signal)
}

func TestLossToEarn_NarrowingWithoutAcceleration(t *testing.T) {
	// Constant narrowing of 5 per quarter: -10 - 2*(-15) + (-20) = 0.
	v := LossToEarn{}.Evaluate(lossInput(-35, -30, -25, -20, -15, -10))
	assert.False(t, v.Pass)
	assert.Equal(t, "narrowing not accelerating", v.Signal)
}

func TestLossToEarn_UsesTrailingSixQuarters(t *testing.T) {
	// Older profitable quarters fall outside the window.
	v := LossToEarn{}.Evaluate(lossInput(50, 60, -40, -35, -30, -25, -18, -8))
	require.True(t, v.Pass, "signal: %s", v.Signal)
}
