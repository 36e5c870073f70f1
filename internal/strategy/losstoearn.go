package strategy

import (
	"github.com/sells-group/stock-screener/internal/fundamentals"
)

// LossToEarn screens loss making companies whose losses are narrowing
// at an accelerating rate. Four gates, each short-circuiting with its
// own signal: a distress baseline, current quarter still in loss,
// first derivative (losses shrinking), second derivative (shrinking
// faster).
type LossToEarn struct{}

const (
	lossWindow      = 6
	lossMinNegative = 4
)

func (LossToEarn) Name() string { return NameLossToEarn }

func (LossToEarn) Evaluate(in Input) Verdict {
	v := Verdict{Strategy: NameLossToEarn, Ticker: in.Company.Ticker, Evidence: map[string]string{}}

	ni := knownQuarterly(in.Quarterly, fundamentals.MetricNetIncome)
	if len(ni) < lossWindow {
		v.Signal = "insufficient quarterly net income history"
		return v
	}
	window := ni[len(ni)-lossWindow:]

	negative := 0
	for _, q := range window {
		if q < 0 {
			negative++
		}
	}
	v.Evidence["negative_quarters"] = formatNum(float64(negative)) + "/6"
	if negative < lossMinNegative {
		v.Signal = "no sustained loss base"
		return v
	}

	// q0 is the current quarter, q1 the previous, q2 two back.
	q0 := window[len(window)-1]
	q1 := window[len(window)-2]
	q2 := window[len(window)-3]
	v.Evidence["recent_quarters"] = formatNum(q2) + "," + formatNum(q1) + "," + formatNum(q0)

	if q0 >= 0 {
		v.Signal = "current quarter already profitable"
		return v
	}
	if q0 <= q1 {
		v.Signal = "losses not narrowing"
		return v
	}

	acceleration := q0 - 2*q1 + q2
	v.Evidence["acceleration"] = formatNum(acceleration)
	if acceleration <= 0 {
		v.Signal = "narrowing not accelerating"
		return v
	}

	v.Pass = true
	v.Signal = "narrowing losses with acceleration"
	return v
}
