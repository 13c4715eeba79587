package selection

import (
	"math"
	"sort"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// factorRanks is one ranked metric column, keyed by company code
type factorRanks struct {
	metric string
	order  []string // codes sorted by raw value, missing last
	values map[string]float64
	ranks  map[string]float64
}

// rankColumn coerces (period, metric) to numbers and ranks it in the metric's direction
func rankColumn(table *contracts.Fundamentals, period, metric string, opts Options) (*factorRanks, error) {
	metric = contracts.NormalizeMetric(metric)

	raw, err := table.Numeric(period, metric)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(raw))
	values := make([]float64, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, row := range table.Rows {
		if seen[row.Code] {
			continue
		}
		seen[row.Code] = true

		v := raw[i]
		if opts.requiresPositive(metric) && v <= 0 {
			v = math.NaN()
		}
		if math.IsNaN(v) && opts.Missing == MissingDrop {
			continue
		}
		codes = append(codes, row.Code)
		values = append(values, v)
	}

	return newFactorRanks(metric, codes, values, contracts.MetricDirection(metric)), nil
}

func newFactorRanks(metric string, codes []string, values []float64, dir contracts.Direction) *factorRanks {
	ranks := averageRank(values, dir)

	f := &factorRanks{
		metric: metric,
		order:  make([]string, len(codes)),
		values: make(map[string]float64, len(codes)),
		ranks:  make(map[string]float64, len(codes)),
	}

	pos := make([]int, len(codes))
	for i, code := range codes {
		pos[i] = i
		f.values[code] = values[i]
		f.ranks[code] = ranks[i]
	}
	sort.SliceStable(pos, func(a, b int) bool {
		return lessRank(ranks[pos[a]], ranks[pos[b]])
	})
	for i, p := range pos {
		f.order[i] = codes[p]
	}

	return f
}

// rows returns the factor as result rows in rank order
func (f *factorRanks) rows() []contracts.RankedStock {
	rows := make([]contracts.RankedStock, len(f.order))
	for i, code := range f.order {
		rows[i] = contracts.RankedStock{
			Code:      code,
			Values:    map[string]float64{f.metric: f.values[code]},
			Ranks:     map[string]float64{f.metric: f.ranks[code]},
			TotalRank: f.ranks[code],
		}
	}
	return rows
}

// joinCodes merges factor code sets: union for MissingLast, intersection for MissingDrop.
// The result is sorted by code so ties in the combined rank resolve deterministically.
func joinCodes(factors []*factorRanks, policy MissingPolicy) []string {
	count := make(map[string]int)
	for _, f := range factors {
		for _, code := range f.order {
			count[code]++
		}
	}

	codes := make([]string, 0, len(count))
	for code, n := range count {
		if policy == MissingDrop && n < len(factors) {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// combine sums per-factor ranks and re-ranks the sum ascending.
// Factor ranks keep the universe each factor was ranked over; under MissingDrop
// only the sum is re-ranked after the inner join.
func combine(factors []*factorRanks, policy MissingPolicy) []contracts.RankedStock {
	codes := joinCodes(factors, policy)

	rows := make([]contracts.RankedStock, len(codes))
	sums := make([]float64, len(codes))
	for i, code := range codes {
		row := contracts.RankedStock{
			Code:   code,
			Values: make(map[string]float64, len(factors)),
			Ranks:  make(map[string]float64, len(factors)),
		}

		sum := 0.0
		for _, f := range factors {
			rank, ok := f.ranks[code]
			if !ok {
				rank = math.NaN()
			}
			value, ok := f.values[code]
			if !ok {
				value = math.NaN()
			}
			row.Ranks[f.metric] = rank
			row.Values[f.metric] = value
			sum += rank
		}

		rows[i] = row
		sums[i] = sum
	}

	totals := averageRank(sums, contracts.Ascending)
	for i := range rows {
		rows[i].TotalRank = totals[i]
	}
	sortByTotalRank(rows)

	return rows
}
