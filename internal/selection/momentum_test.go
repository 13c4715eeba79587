package selection

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screen/internal/contracts"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func samplePrices() *contracts.PriceTable {
	nan := math.NaN()
	return &contracts.PriceTable{
		Dates: []time.Time{day(2), day(3), day(6)},
		Codes: []string{"A", "B", "C", "D"},
		Prices: [][]float64{
			{100, 100, nan, 100},
			{110, 105, 50, nan},
			{121, 105, 55, 120},
		},
	}
}

func TestRanker_Momentum(t *testing.T) {
	got, err := newTestRanker(DefaultOptions()).Momentum(samplePrices(), day(3), 1, All)
	require.NoError(t, err)

	assert.Equal(t, StrategyMomentum, got.Strategy)
	assert.Equal(t, "2020-01-03", got.Period)
	require.Equal(t, []string{"A", "B", "D", "C"}, got.Codes())

	assert.InDelta(t, 0.10, got.Rows[0].Values[contracts.MetricMomentum], 1e-9)
	assert.Equal(t, 1.0, got.Rows[0].TotalRank)
	assert.InDelta(t, 0.05, got.Rows[1].Values[contracts.MetricMomentum], 1e-9)
	assert.Equal(t, 2.0, got.Rows[1].TotalRank)

	// D's missing price is forward-filled: 100 -> 100
	assert.InDelta(t, 0.0, got.Rows[2].Values[contracts.MetricMomentum], 1e-9)
	// C has no base price
	assert.False(t, got.Rows[3].HasTotalRank())
}

func TestRanker_Momentum_LongerLookback(t *testing.T) {
	got, err := newTestRanker(Options{Missing: MissingDrop}).Momentum(samplePrices(), day(6), 2, 2)
	require.NoError(t, err)

	// A 0.21, D 0.20, B 0.05; C dropped
	assert.Equal(t, []string{"A", "D"}, got.Codes())
	assert.InDelta(t, 0.21, got.Rows[0].Values[contracts.MetricMomentum], 1e-9)
}

func TestRanker_Momentum_Errors(t *testing.T) {
	ranker := newTestRanker(DefaultOptions())

	_, err := ranker.Momentum(samplePrices(), day(4), 1, All)
	var unknown *contracts.UnknownPeriodError
	assert.True(t, errors.As(err, &unknown))

	_, err = ranker.Momentum(samplePrices(), day(3), 0, All)
	var validation *contracts.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestRanker_Momentum_ShortHistory(t *testing.T) {
	got, err := newTestRanker(DefaultOptions()).Momentum(samplePrices(), day(2), 1, All)
	require.NoError(t, err)

	assert.Equal(t, 4, got.Len())
	for _, r := range got.Rows {
		assert.False(t, r.HasTotalRank())
	}
}

func TestRanker_Momentum_ZeroBasePrice(t *testing.T) {
	prices := &contracts.PriceTable{
		Dates: []time.Time{day(2), day(3)},
		Codes: []string{"A", "Z", "B"},
		Prices: [][]float64{
			{100, 0, 100},
			{110, 50, 90},
		},
	}

	got, err := newTestRanker(DefaultOptions()).Momentum(prices, day(3), 1, All)
	require.NoError(t, err)

	// Z would be +Inf; it ranks as missing after the real returns
	assert.Equal(t, []string{"A", "B", "Z"}, got.Codes())
	assert.False(t, got.Rows[2].HasTotalRank())
	assert.True(t, math.IsNaN(got.Rows[2].Values[contracts.MetricMomentum]))

	got, err = newTestRanker(Options{Missing: MissingDrop}).Momentum(prices, day(3), 1, All)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Codes())
}

func TestTrailingReturn(t *testing.T) {
	nan := math.NaN()

	assert.InDelta(t, 0.1, trailingReturn([]float64{100, 110}, 1, 1), 1e-9)
	assert.InDelta(t, 0.2, trailingReturn([]float64{100, nan, 120}, 2, 1), 1e-9)
	assert.True(t, math.IsNaN(trailingReturn([]float64{0, 10}, 1, 1)))
	assert.True(t, math.IsNaN(trailingReturn([]float64{nan, 10}, 1, 1)))
	assert.True(t, math.IsNaN(trailingReturn([]float64{10}, 0, 1)))
}
