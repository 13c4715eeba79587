package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screen/internal/contracts"
)

func assertRanks(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.Equal(t, want[i], got[i], "index %d", i)
	}
}

func TestAverageRank(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name   string
		values []float64
		dir    contracts.Direction
		want   []float64
	}{
		{
			name:   "ascending ties share the mean position",
			values: []float64{5, 10, 5},
			dir:    contracts.Ascending,
			want:   []float64{1.5, 3, 1.5},
		},
		{
			name:   "descending ties",
			values: []float64{5, 10, 5},
			dir:    contracts.Descending,
			want:   []float64{2.5, 1, 2.5},
		},
		{
			name:   "three-way tie",
			values: []float64{1, 2, 2, 2, 3},
			dir:    contracts.Ascending,
			want:   []float64{1, 3, 3, 3, 5},
		},
		{
			name:   "NaN is not ranked",
			values: []float64{nan, 2, 1},
			dir:    contracts.Ascending,
			want:   []float64{nan, 2, 1},
		},
		{
			name:   "empty",
			values: []float64{},
			dir:    contracts.Ascending,
			want:   []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRanks(t, tt.want, averageRank(tt.values, tt.dir))
		})
	}
}

func TestTruncate(t *testing.T) {
	rows := []contracts.RankedStock{{Code: "A"}, {Code: "B"}, {Code: "C"}}

	assert.Len(t, truncate(rows, All), 3)
	assert.Len(t, truncate(rows, 2), 2)
	assert.Len(t, truncate(rows, 0), 0)
	assert.Len(t, truncate(rows, 10), 3)
}

func TestSortByTotalRank_NaNLast(t *testing.T) {
	rows := []contracts.RankedStock{
		{Code: "A", TotalRank: math.NaN()},
		{Code: "B", TotalRank: 2},
		{Code: "C", TotalRank: 1},
		{Code: "D", TotalRank: 2},
	}
	sortByTotalRank(rows)

	codes := make([]string, len(rows))
	for i, r := range rows {
		codes[i] = r.Code
	}
	assert.Equal(t, []string{"C", "B", "D", "A"}, codes)
}

func TestParseMissingPolicy(t *testing.T) {
	p, err := ParseMissingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MissingLast, p)

	p, err = ParseMissingPolicy("DROP")
	require.NoError(t, err)
	assert.Equal(t, MissingDrop, p)
	assert.Equal(t, "drop", p.String())

	_, err = ParseMissingPolicy("neutral")
	assert.Error(t, err)
}
