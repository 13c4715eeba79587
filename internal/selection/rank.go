package selection

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// All disables top-N truncation
const All = -1

// nanRank marks a rank that could not be computed
var nanRank = math.NaN()

// MissingPolicy decides what happens to a company lacking a required value
type MissingPolicy int

const (
	// MissingLast keeps the company with a NaN rank, sorted after every ranked row.
	// Combiners outer-join factor tables, so a NaN factor rank gives a NaN total.
	MissingLast MissingPolicy = iota
	// MissingDrop removes the company before ranking; combiners inner-join.
	MissingDrop
)

func (p MissingPolicy) String() string {
	if p == MissingDrop {
		return "drop"
	}
	return "last"
}

// ParseMissingPolicy reads "last" (default when empty) or "drop"
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last", "keep":
		return MissingLast, nil
	case "drop":
		return MissingDrop, nil
	default:
		return MissingLast, fmt.Errorf("unknown missing policy %q (want last|drop)", s)
	}
}

// Options tunes how rankers treat incomplete data
type Options struct {
	Missing MissingPolicy

	// RequirePositive lists metrics whose values <= 0 count as missing
	// (e.g. PER of a loss-making company).
	RequirePositive []string
}

// DefaultOptions keeps every company and ranks missing values last
func DefaultOptions() Options {
	return Options{Missing: MissingLast}
}

func (o Options) requiresPositive(metric string) bool {
	for _, m := range o.RequirePositive {
		if contracts.NormalizeMetric(m) == metric {
			return true
		}
	}
	return false
}

// averageRank ranks values 1..n in the given direction.
// Tied values share the mean of their positions; NaN stays NaN.
func averageRank(values []float64, dir contracts.Direction) []float64 {
	ranks := make([]float64, len(values))
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			ranks[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}

	sort.SliceStable(idx, func(a, b int) bool {
		if dir == contracts.Descending {
			return values[idx[a]] > values[idx[b]]
		}
		return values[idx[a]] < values[idx[b]]
	})

	for start := 0; start < len(idx); {
		end := start
		for end+1 < len(idx) && values[idx[end+1]] == values[idx[start]] {
			end++
		}
		avg := float64(start+end)/2 + 1
		for k := start; k <= end; k++ {
			ranks[idx[k]] = avg
		}
		start = end + 1
	}

	return ranks
}

// lessRank orders ranks ascending with NaN last
func lessRank(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	default:
		return a < b
	}
}

// sortByTotalRank stable-sorts rows by TotalRank, NaN last
func sortByTotalRank(rows []contracts.RankedStock) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessRank(rows[i].TotalRank, rows[j].TotalRank)
	})
}

// truncate keeps the first n rows; n < 0 keeps all
func truncate(rows []contracts.RankedStock, n int) []contracts.RankedStock {
	if n < 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}
