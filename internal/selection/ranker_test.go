package selection

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screen/internal/contracts"
)

func TestRanker_RankFactor_AscendingTies(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPER},
		row("A", "5"),
		row("B", "10"),
		row("C", "5"),
	)

	got, err := newTestRanker(DefaultOptions()).RankFactor(table, testPeriod, contracts.MetricPER, All)
	require.NoError(t, err)

	assert.Equal(t, StrategyFactor, got.Strategy)
	assert.Equal(t, []string{"A", "C", "B"}, got.Codes())
	assert.Equal(t, 1.5, got.Rows[0].TotalRank)
	assert.Equal(t, 1.5, got.Rows[1].TotalRank)
	assert.Equal(t, 3.0, got.Rows[2].TotalRank)
	assert.Equal(t, 10.0, got.Rows[2].Values[contracts.MetricPER])
	assert.Equal(t, 3.0, got.Rows[2].Ranks[contracts.MetricPER])
}

func TestRanker_RankFactor_DescendingROA(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricROA},
		row("A", "3"),
		row("B", contracts.MissingSentinel),
		row("C", "10"),
		row("D", ""),
	)

	t.Run("missing ranked last", func(t *testing.T) {
		got, err := newTestRanker(DefaultOptions()).RankFactor(table, testPeriod, contracts.MetricROA, All)
		require.NoError(t, err)

		assert.Equal(t, []string{"C", "A", "B", "D"}, got.Codes())
		assert.Equal(t, 1.0, got.Rows[0].TotalRank)
		assert.Equal(t, 2.0, got.Rows[1].TotalRank)
		assert.True(t, math.IsNaN(got.Rows[2].TotalRank))
		assert.True(t, math.IsNaN(got.Rows[3].TotalRank))
	})

	t.Run("missing dropped", func(t *testing.T) {
		got, err := newTestRanker(Options{Missing: MissingDrop}).RankFactor(table, testPeriod, contracts.MetricROA, All)
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "A"}, got.Codes())
	})
}

func TestRanker_RankFactor_MonotoneOrder(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPBR, contracts.MetricROA},
		row("A", "1.2", "4"),
		row("B", "0.4", "-1"),
		row("C", "3.1", "12"),
		row("D", "0.9", "7"),
		row("E", "0.4", "7"),
	)
	ranker := newTestRanker(DefaultOptions())

	for _, metric := range []string{contracts.MetricPBR, contracts.MetricROA} {
		t.Run(metric, func(t *testing.T) {
			got, err := ranker.RankFactor(table, testPeriod, metric, All)
			require.NoError(t, err)

			dir := contracts.MetricDirection(metric)
			for i := 1; i < got.Len(); i++ {
				prev, cur := got.Rows[i-1], got.Rows[i]
				assert.LessOrEqual(t, prev.TotalRank, cur.TotalRank)
				if dir == contracts.Ascending {
					assert.LessOrEqual(t, prev.Values[metric], cur.Values[metric])
				} else {
					assert.GreaterOrEqual(t, prev.Values[metric], cur.Values[metric])
				}
			}
		})
	}
}

func TestRanker_RankFactor_TopN(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPER},
		row("A", "5"),
		row("B", "10"),
		row("C", "7"),
	)
	ranker := newTestRanker(DefaultOptions())

	tests := []struct {
		n    int
		want int
	}{
		{All, 3},
		{2, 2},
		{0, 0},
		{10, 3},
	}

	for _, tt := range tests {
		got, err := ranker.RankFactor(table, testPeriod, contracts.MetricPER, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Len(), "n=%d", tt.n)
	}
}

func TestRanker_RankFactor_Errors(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPER},
		row("A", "5"),
		row("B", "흑자전환"),
	)
	ranker := newTestRanker(DefaultOptions())

	_, err := ranker.RankFactor(table, testPeriod, contracts.MetricPER, All)
	var nonNumeric *contracts.NonNumericValueError
	require.True(t, errors.As(err, &nonNumeric))
	assert.Equal(t, "B", nonNumeric.Code)

	_, err = ranker.RankFactor(table, "2099/12", contracts.MetricPER, All)
	var unknownPeriod *contracts.UnknownPeriodError
	assert.True(t, errors.As(err, &unknownPeriod))

	_, err = ranker.RankFactor(table, testPeriod, contracts.MetricPSR, All)
	var unknownMetric *contracts.UnknownMetricError
	assert.True(t, errors.As(err, &unknownMetric))
}

func TestRanker_RankFactor_DoesNotMutateTable(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPER},
		row("A", " 5 "),
		row("B", contracts.MissingSentinel),
	)

	_, err := newTestRanker(DefaultOptions()).RankFactor(table, testPeriod, contracts.MetricPER, All)
	require.NoError(t, err)

	col := contracts.Column{Period: testPeriod, Metric: contracts.MetricPER}
	assert.Equal(t, " 5 ", table.Rows[0].Cells[col])
	assert.Len(t, table.Columns, 1)
}

func TestRanker_RankFactor_RequirePositive(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPER},
		row("A", "-3"),
		row("B", "10"),
		row("C", "8"),
	)

	got, err := newTestRanker(Options{
		Missing:         MissingDrop,
		RequirePositive: []string{"per"},
	}).RankFactor(table, testPeriod, contracts.MetricPER, All)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "B"}, got.Codes())
	assert.Equal(t, 1.0, got.Rows[0].TotalRank)
}

func magicTables(t *testing.T) (fr, invest *contracts.Fundamentals) {
	invest = buildTable(t, []string{contracts.MetricPER},
		row("A", "5"),
		row("B", "10"),
		row("C", "8"),
		row("D", ""),
	)
	fr = buildTable(t, []string{contracts.MetricROA},
		row("A", "2"),
		row("B", "20"),
		row("C", "10"),
		row("E", "5"),
	)
	return fr, invest
}

func TestRanker_MagicFormula_OuterJoin(t *testing.T) {
	fr, invest := magicTables(t)

	got, err := newTestRanker(DefaultOptions()).MagicFormula(fr, invest, testPeriod, All)
	require.NoError(t, err)

	// PER ranks A=1 C=2 B=3; ROA ranks B=1 C=2 E=3 A=4
	// sums A=5 B=4 C=4 -> B,C share 1.5, A=3; D and E have one factor only
	assert.Equal(t, StrategyMagicFormula, got.Strategy)
	assert.Equal(t, []string{"B", "C", "A", "D", "E"}, got.Codes())
	assert.Equal(t, 1.5, got.Rows[0].TotalRank)
	assert.Equal(t, 1.5, got.Rows[1].TotalRank)
	assert.Equal(t, 3.0, got.Rows[2].TotalRank)

	d, ok := got.Get("D")
	require.True(t, ok)
	assert.False(t, d.HasTotalRank())
	assert.True(t, math.IsNaN(d.Ranks[contracts.MetricPER]))
	assert.True(t, math.IsNaN(d.Ranks[contracts.MetricROA]))

	e, ok := got.Get("E")
	require.True(t, ok)
	assert.Equal(t, 3.0, e.Ranks[contracts.MetricROA])
	assert.False(t, e.HasTotalRank())

	a, _ := got.Get("A")
	assert.Equal(t, 1.0, a.Ranks[contracts.MetricPER])
	assert.Equal(t, 4.0, a.Ranks[contracts.MetricROA])
}

func TestRanker_MagicFormula_DropPolicy(t *testing.T) {
	invest := buildTable(t, []string{contracts.MetricPER},
		row("A", "4"),
		row("B", "6"),
		row("C", "8"),
		row("D", ""),
	)
	fr := buildTable(t, []string{contracts.MetricROA},
		row("A", "30"),
		row("B", "10"),
		row("C", "20"),
		row("E", "50"),
	)

	got, err := newTestRanker(Options{Missing: MissingDrop}).MagicFormula(fr, invest, testPeriod, 2)
	require.NoError(t, err)

	// PER ranked without D: A=1 B=2 C=3; ROA ranked with E: E=1 A=2 C=3 B=4
	// inner join keeps those ranks: A: 1+2=3, B: 2+4=6, C: 3+3=6
	assert.Equal(t, []string{"A", "B"}, got.Codes())
	assert.Equal(t, 2.0, got.Rows[0].Ranks[contracts.MetricROA])
	assert.Equal(t, 1.0, got.Rows[0].TotalRank)
	assert.Equal(t, 4.0, got.Rows[1].Ranks[contracts.MetricROA])
	assert.Equal(t, 2.5, got.Rows[1].TotalRank)
	_, ok := got.Get("E")
	assert.False(t, ok)
}

func TestRanker_ValueCombo(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPER, contracts.MetricPBR},
		row("X", "5", "0.8"),
		row("Y", "9", "0.5"),
		row("Z", "7", "1.2"),
	)

	got, err := newTestRanker(DefaultOptions()).ValueCombo(
		[]string{contracts.MetricPER, contracts.MetricPBR}, table, testPeriod, All)
	require.NoError(t, err)

	// X: 1+2=3, Y: 3+1=4, Z: 2+3=5
	assert.Equal(t, []string{"X", "Y", "Z"}, got.Codes())
	assert.Equal(t, 1.0, got.Rows[0].TotalRank)
	assert.Equal(t, 2.0, got.Rows[1].TotalRank)
	assert.Equal(t, 3.0, got.Rows[2].Ranks[contracts.MetricPBR])
	assert.Equal(t, []string{contracts.MetricPER, contracts.MetricPBR}, got.Factors)
}

func TestRanker_ValueCombo_Errors(t *testing.T) {
	table := buildTable(t, []string{contracts.MetricPER}, row("X", "5"))
	ranker := newTestRanker(DefaultOptions())

	_, err := ranker.ValueCombo(nil, table, testPeriod, All)
	var validation *contracts.ValidationError
	assert.True(t, errors.As(err, &validation))

	_, err = ranker.ValueCombo([]string{contracts.MetricPER, contracts.MetricPCR}, table, testPeriod, All)
	var unknownMetric *contracts.UnknownMetricError
	assert.True(t, errors.As(err, &unknownMetric))
}

func valueQualityTables(t *testing.T) (invest, fs *contracts.Fundamentals) {
	invest = buildTable(t, contracts.ValueMetrics,
		row("A", "1", "0.4", "1", "1"),
		row("B", "2", "0.3", "2", "2"),
		row("C", "3", "0.2", "3", "3"),
		row("D", "4", "0.1", "4", "4"),
	)
	fs = buildTable(t, []string{contracts.MetricNetIncome, contracts.MetricOperatingCashFlow},
		row("A", "100", "-5"),
		row("B", "10", "20"),
		row("C", "-1", "3"),
		row("D", "7", "9"),
		row("E", "5", "9"),
	)
	return invest, fs
}

func TestRanker_ValueQuality(t *testing.T) {
	invest, fs := valueQualityTables(t)

	got, err := newTestRanker(DefaultOptions()).ValueQuality(invest, fs, testPeriod, All)
	require.NoError(t, err)

	// totals A=1 B=2 C=3 D=4; F-Score passes B, D and quality-only E
	assert.Equal(t, StrategyValueQuality, got.Strategy)
	assert.Equal(t, []string{"B", "D", "E"}, got.Codes())
	assert.Equal(t, 2.0, got.Rows[0].TotalRank)
	assert.Equal(t, 4.0, got.Rows[1].TotalRank)
	assert.False(t, got.Rows[2].HasTotalRank())

	for _, r := range got.Rows {
		require.NotNil(t, r.FScore)
		assert.Equal(t, contracts.FScorePass, r.FScore.Total)
	}
	assert.Equal(t, 10.0, got.Rows[0].Values[contracts.MetricNetIncome])
	assert.Equal(t, 2.0, got.Rows[0].Values[contracts.MetricPER])
}

func TestRanker_ValueQuality_TopNAndDrop(t *testing.T) {
	invest, fs := valueQualityTables(t)

	got, err := newTestRanker(DefaultOptions()).ValueQuality(invest, fs, testPeriod, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, got.Codes())

	got, err = newTestRanker(Options{Missing: MissingDrop}).ValueQuality(invest, fs, testPeriod, All)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, got.Codes(), "quality-only rows need a value rank")
}
