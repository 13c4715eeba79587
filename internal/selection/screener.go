package selection

import (
	"github.com/wonny/aegis-screen/internal/contracts"
	"github.com/wonny/aegis-screen/pkg/logger"
)

// Screener applies the F-Score quality gate
// ⭐ SSOT: F-Score 필터 로직은 여기서만
type Screener struct {
	config ScreenerConfig
	logger *logger.Logger
}

// ScreenerConfig names the raw financial fields the F-Score reads
type ScreenerConfig struct {
	NetIncomeMetric string // 당기순이익
	CashFlowMetric  string // 영업활동으로인한현금흐름
}

// DefaultScreenerConfig uses the FnGuide financial-statement headers
func DefaultScreenerConfig() ScreenerConfig {
	return ScreenerConfig{
		NetIncomeMetric: contracts.MetricNetIncome,
		CashFlowMetric:  contracts.MetricOperatingCashFlow,
	}
}

// NewScreener creates a new screener
func NewScreener(config ScreenerConfig, logger *logger.Logger) *Screener {
	config.NetIncomeMetric = contracts.NormalizeMetric(config.NetIncomeMetric)
	config.CashFlowMetric = contracts.NormalizeMetric(config.CashFlowMetric)
	return &Screener{
		config: config,
		logger: logger,
	}
}

// FScore scores every company of a period and keeps those scoring 3.
// No ranking is applied: survivors keep the table's row order.
func (s *Screener) FScore(fs *contracts.Fundamentals, period string, n int) (*contracts.Ranking, error) {
	netIncome, err := fs.Numeric(period, s.config.NetIncomeMetric)
	if err != nil {
		return nil, err
	}
	cashFlow, err := fs.Numeric(period, s.config.CashFlowMetric)
	if err != nil {
		return nil, err
	}

	passed := make([]contracts.RankedStock, 0)
	filtered := make(map[string]int) // failed signal -> count
	seen := make(map[string]bool, fs.Len())

	for i, row := range fs.Rows {
		if seen[row.Code] {
			continue
		}
		seen[row.Code] = true

		score := contracts.NewFScore(netIncome[i], cashFlow[i])
		if !score.Passed() {
			s.countFailures(score, filtered)
			continue
		}

		passed = append(passed, contracts.RankedStock{
			Code: row.Code,
			Values: map[string]float64{
				s.config.NetIncomeMetric: netIncome[i],
				s.config.CashFlowMetric:  cashFlow[i],
			},
			TotalRank: nanRank,
			FScore:    &score,
		})
	}

	rows := truncate(passed, n)

	s.logger.WithFields(map[string]interface{}{
		"strategy":     StrategyFScore,
		"period":       period,
		"total_input":  len(seen),
		"passed":       len(passed),
		"filtered_out": len(seen) - len(passed),
		"filters":      filtered,
	}).Info("Screening completed")

	return &contracts.Ranking{
		Strategy: StrategyFScore,
		Period:   period,
		Factors:  []string{s.config.NetIncomeMetric, s.config.CashFlowMetric},
		Rows:     rows,
	}, nil
}

func (s *Screener) countFailures(score contracts.FScore, filtered map[string]int) {
	if !score.NetIncome {
		filtered["net_income"]++
	}
	if !score.CashFlow {
		filtered["cash_flow"]++
	}
	if !score.GreaterCashFlow {
		filtered["greater_cash_flow"]++
	}
}
