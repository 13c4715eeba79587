package selection

import (
	"github.com/wonny/aegis-screen/internal/contracts"
	"github.com/wonny/aegis-screen/pkg/logger"
)

// Strategy names reported in contracts.Ranking
const (
	StrategyFactor       = "factor"
	StrategyMagicFormula = "magic_formula"
	StrategyValueCombo   = "value_combo"
	StrategyFScore       = "fscore"
	StrategyMomentum     = "momentum"
	StrategyValueQuality = "value_quality"
)

// Ranker ranks companies by one or more factors
// ⭐ SSOT: 팩터 랭킹/결합 로직은 여기서만
type Ranker struct {
	opts   Options
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(opts Options, logger *logger.Logger) *Ranker {
	return &Ranker{
		opts:   opts,
		logger: logger,
	}
}

// Options returns the ranker's missing-data options
func (r *Ranker) Options() Options {
	return r.opts
}

// RankFactor ranks one metric of one period.
// Ascending metrics (PER, PBR, PSR, PCR) put the lowest value first; ROA the highest.
func (r *Ranker) RankFactor(table *contracts.Fundamentals, period, metric string, n int) (*contracts.Ranking, error) {
	f, err := rankColumn(table, period, metric, r.opts)
	if err != nil {
		return nil, err
	}

	rows := truncate(f.rows(), n)
	r.logCompleted(StrategyFactor, period, table.Len(), rows, map[string]interface{}{
		"metric":    f.metric,
		"direction": contracts.MetricDirection(f.metric).String(),
	})

	return &contracts.Ranking{
		Strategy: StrategyFactor,
		Period:   period,
		Factors:  []string{f.metric},
		Rows:     rows,
	}, nil
}

// MagicFormula combines low PER (from invest) and high ROA (from fr).
// The two rank columns are summed and the sum re-ranked; lower is better.
func (r *Ranker) MagicFormula(fr, invest *contracts.Fundamentals, period string, n int) (*contracts.Ranking, error) {
	per, err := rankColumn(invest, period, contracts.MetricPER, r.opts)
	if err != nil {
		return nil, err
	}
	roa, err := rankColumn(fr, period, contracts.MetricROA, r.opts)
	if err != nil {
		return nil, err
	}

	rows := truncate(combine([]*factorRanks{per, roa}, r.opts.Missing), n)
	r.logCompleted(StrategyMagicFormula, period, invest.Len(), rows, nil)

	return &contracts.Ranking{
		Strategy: StrategyMagicFormula,
		Period:   period,
		Factors:  []string{contracts.MetricPER, contracts.MetricROA},
		Rows:     rows,
	}, nil
}

// ValueCombo ranks every metric in metrics, sums the ranks and re-ranks the total
func (r *Ranker) ValueCombo(metrics []string, invest *contracts.Fundamentals, period string, n int) (*contracts.Ranking, error) {
	if len(metrics) == 0 {
		return nil, &contracts.ValidationError{Field: "metrics", Message: "at least one metric is required"}
	}

	factors := make([]*factorRanks, 0, len(metrics))
	names := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		f, err := rankColumn(invest, period, metric, r.opts)
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
		names = append(names, f.metric)
	}

	rows := truncate(combine(factors, r.opts.Missing), n)
	r.logCompleted(StrategyValueCombo, period, invest.Len(), rows, map[string]interface{}{
		"metrics": names,
	})

	return &contracts.Ranking{
		Strategy: StrategyValueCombo,
		Period:   period,
		Factors:  names,
		Rows:     rows,
	}, nil
}

// ValueQuality joins the PER/PBR/PSR/PCR value combo with the F-Score filter.
// Only companies with F-Score 3 survive; they are ordered by the value combo total rank.
func (r *Ranker) ValueQuality(invest, fs *contracts.Fundamentals, period string, n int) (*contracts.Ranking, error) {
	value, err := r.ValueCombo(contracts.ValueMetrics, invest, period, All)
	if err != nil {
		return nil, err
	}
	quality, err := NewScreener(DefaultScreenerConfig(), r.logger).FScore(fs, period, All)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]contracts.RankedStock, quality.Len())
	for _, row := range quality.Rows {
		byCode[row.Code] = row
	}

	// Outer join of value and quality; rows lacking a score fail the gate below
	// and quality-only rows carry a NaN total rank.
	merged := make([]contracts.RankedStock, 0, value.Len())
	inValue := make(map[string]bool, value.Len())
	for _, row := range value.Rows {
		inValue[row.Code] = true
		if q, ok := byCode[row.Code]; ok {
			row.FScore = q.FScore
			for k, v := range q.Values {
				row.Values[k] = v
			}
		}
		merged = append(merged, row)
	}
	if r.opts.Missing == MissingLast {
		for _, row := range quality.Rows {
			if !inValue[row.Code] {
				row.TotalRank = nanRank
				merged = append(merged, row)
			}
		}
	}

	passed := make([]contracts.RankedStock, 0, len(merged))
	for _, row := range merged {
		if row.FScore.Passed() {
			passed = append(passed, row)
		}
	}
	sortByTotalRank(passed)

	rows := truncate(passed, n)
	r.logCompleted(StrategyValueQuality, period, invest.Len(), rows, map[string]interface{}{
		"value_rows":   value.Len(),
		"quality_rows": quality.Len(),
	})

	return &contracts.Ranking{
		Strategy: StrategyValueQuality,
		Period:   period,
		Factors:  append(append([]string{}, value.Factors...), "fscore"),
		Rows:     rows,
	}, nil
}

func (r *Ranker) logCompleted(strategy, period string, input int, rows []contracts.RankedStock, extra map[string]interface{}) {
	fields := map[string]interface{}{
		"strategy":       strategy,
		"period":         period,
		"input_rows":     input,
		"output_rows":    len(rows),
		"missing_policy": r.opts.Missing.String(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	if len(rows) > 0 {
		fields["top_code"] = rows[0].Code
	}
	r.logger.WithFields(fields).Info("Ranking completed")
}
