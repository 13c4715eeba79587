package selection

import (
	"math"
	"time"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// Momentum ranks companies by trailing return over lookback rows ending at date.
// Higher return ranks first.
func (r *Ranker) Momentum(prices *contracts.PriceTable, date time.Time, lookback, n int) (*contracts.Ranking, error) {
	if lookback < 1 {
		return nil, &contracts.ValidationError{Field: "lookback", Message: "must be >= 1"}
	}

	at, err := prices.DateIndex(date)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(prices.Codes))
	values := make([]float64, 0, len(prices.Codes))
	for j, code := range prices.Codes {
		ret := trailingReturn(prices.Series(j), at, lookback)
		if math.IsNaN(ret) && r.opts.Missing == MissingDrop {
			continue
		}
		codes = append(codes, code)
		values = append(values, ret)
	}

	f := newFactorRanks(contracts.MetricMomentum, codes, values, contracts.Descending)
	rows := truncate(f.rows(), n)

	period := date.Format(contracts.DateLayout)
	r.logCompleted(StrategyMomentum, period, len(prices.Codes), rows, map[string]interface{}{
		"lookback": lookback,
	})

	return &contracts.Ranking{
		Strategy: StrategyMomentum,
		Period:   period,
		Factors:  []string{contracts.MetricMomentum},
		Rows:     rows,
	}, nil
}

// trailingReturn is series[at]/series[at-lookback] - 1 after forward-filling gaps.
// It is NaN when history is too short or the base price is missing or zero.
// A zero base would be ±Inf under pandas pct_change and rank first or last;
// here it is treated as missing so a bad print never tops the ranking.
func trailingReturn(series []float64, at, lookback int) float64 {
	base := at - lookback
	if base < 0 || at >= len(series) {
		return math.NaN()
	}

	filled := forwardFill(series[:at+1])
	past, now := filled[base], filled[at]
	if math.IsNaN(past) || math.IsNaN(now) || past == 0 {
		return math.NaN()
	}
	return now/past - 1
}

// forwardFill carries the last seen price over NaN gaps
func forwardFill(series []float64) []float64 {
	out := make([]float64, len(series))
	last := math.NaN()
	for i, v := range series {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}
