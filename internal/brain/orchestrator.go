package brain

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/wonny/aegis-screen/internal/contracts"
	"github.com/wonny/aegis-screen/internal/s0_data"
	"github.com/wonny/aegis-screen/internal/s0_data/quality"
	"github.com/wonny/aegis-screen/internal/selection"
	"github.com/wonny/aegis-screen/internal/strategyconfig"
	"github.com/wonny/aegis-screen/pkg/logger"
)

// ErrNoDatabase is returned when a strategy asks for a Postgres input without a pool
var ErrNoDatabase = errors.New("postgres input requested but no database is configured")

// FundamentalsSource loads fundamentals for a report-date window
type FundamentalsSource interface {
	LoadFundamentals(ctx context.Context, from, to time.Time) (*contracts.Fundamentals, error)
}

// PriceSource loads close prices for a trade-date window
type PriceSource interface {
	LoadCloses(ctx context.Context, from, to time.Time, codes []string) (*contracts.PriceTable, error)
}

// Orchestrator coordinates load → quality → rank for one strategy
// ⭐ SSOT: 스크리닝 파이프라인 조율은 여기서만
type Orchestrator struct {
	loader     *s0_data.Loader
	financials FundamentalsSource
	prices     PriceSource
	settings   Settings
	logger     *logger.Logger
}

// Settings holds run defaults
type Settings struct {
	DataDir     string // 상대 경로 기준 디렉터리
	DefaultTopN int    // 전략/메타 top_n 미지정 시
}

// RunConfig holds configuration for a strategy run
type RunConfig struct {
	RunID      string
	Config     *strategyconfig.Config
	StrategyID string
}

// RunResult holds the results of a strategy run
type RunResult struct {
	RunID            string                           `json:"run_id"`
	StrategyID       string                           `json:"strategy_id"`
	Kind             string                           `json:"kind"`
	Period           string                           `json:"period"`
	Success          bool                             `json:"success"`
	Error            error                            `json:"-"`
	CompletedStages  []string                         `json:"completed_stages"`
	QualitySnapshots []*contracts.DataQualitySnapshot `json:"quality"`
	Ranking          *contracts.Ranking               `json:"ranking"`
	Snapshot         *strategyconfig.RunSnapshot      `json:"snapshot"`
	Duration         time.Duration                    `json:"duration"`
}

// inputs holds the tables a strategy reads
type inputs struct {
	invest     *contracts.Fundamentals
	ratios     *contracts.Fundamentals
	statements *contracts.Fundamentals
	prices     *contracts.PriceTable
}

// NewOrchestrator creates a new orchestrator.
// financials and prices may be nil when no database is configured.
func NewOrchestrator(
	loader *s0_data.Loader,
	financials FundamentalsSource,
	prices PriceSource,
	settings Settings,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		loader:     loader,
		financials: financials,
		prices:     prices,
		settings:   settings,
		logger:     logger,
	}
}

// Run executes one strategy
// S0:Load → S0:Quality → S4:Rank
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	result := &RunResult{
		RunID:           config.RunID,
		StrategyID:      config.StrategyID,
		Success:         false,
		CompletedStages: make([]string, 0),
	}

	strategy, ok := config.Config.Find(config.StrategyID)
	if !ok {
		result.Error = &contracts.ValidationError{Field: "strategy", Message: fmt.Sprintf("unknown strategy %q", config.StrategyID)}
		return result, result.Error
	}
	result.Kind = strategy.Kind

	snapshot, err := strategyconfig.NewRunSnapshot(config.Config, strategy.ID)
	if err != nil {
		result.Error = fmt.Errorf("config hash: %w", err)
		return result, result.Error
	}
	result.Snapshot = snapshot

	o.logger.WithFields(map[string]interface{}{
		"run_id":      config.RunID,
		"strategy_id": strategy.ID,
		"kind":        strategy.Kind,
		"config_hash": snapshot.ConfigHash[:12],
	}).Info("Starting screening run")

	// S0: Load inputs
	in, err := o.runLoad(ctx, strategy)
	if err != nil {
		result.Error = fmt.Errorf("S0 load failed: %w", err)
		return result, result.Error
	}
	result.CompletedStages = append(result.CompletedStages, "S0:Load")

	period, err := resolvePeriod(strategy, in)
	if err != nil {
		result.Error = fmt.Errorf("S0 load failed: %w", err)
		return result, result.Error
	}
	result.Period = period

	// S0: Coverage gate
	if err := ctx.Err(); err != nil {
		result.Error = err
		return result, err
	}
	snapshots, err := o.runQuality(config.Config.Quality, strategy, in, period)
	if err != nil {
		result.Error = fmt.Errorf("S0 quality failed: %w", err)
		return result, result.Error
	}
	result.QualitySnapshots = snapshots
	result.CompletedStages = append(result.CompletedStages, "S0:Quality")

	// S4: Ranking
	if err := ctx.Err(); err != nil {
		result.Error = err
		return result, err
	}
	n := strategy.Limit(config.Config.Meta, o.settings.DefaultTopN)
	ranking, err := o.runRank(strategy, in, period, n)
	if err != nil {
		result.Error = fmt.Errorf("S4 failed: %w", err)
		return result, result.Error
	}
	result.Ranking = ranking
	result.CompletedStages = append(result.CompletedStages, "S4:Rank")

	// Mark success
	result.Success = true
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"run_id":   config.RunID,
		"strategy": strategy.ID,
		"period":   period,
		"rows":     ranking.Len(),
		"duration": result.Duration.Seconds(),
	}).Info("Screening run completed successfully")

	return result, nil
}

// runLoad reads every input slot the strategy's kind requires
func (o *Orchestrator) runLoad(ctx context.Context, strategy *strategyconfig.Strategy) (*inputs, error) {
	o.logger.Info("Running S0: Load")

	in := &inputs{}
	for _, name := range strategyconfig.RequiredInputs(strategy.Kind) {
		src := strategy.Inputs.Get(name)
		if src == nil {
			return nil, &contracts.ValidationError{Field: "inputs." + name, Message: "required for " + strategy.Kind}
		}

		var err error
		switch name {
		case "invest":
			in.invest, err = o.loadFundamentals(ctx, src)
		case "ratios":
			in.ratios, err = o.loadFundamentals(ctx, src)
		case "statements":
			in.statements, err = o.loadFundamentals(ctx, src)
		case "prices":
			in.prices, err = o.loadPrices(ctx, src)
		}
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
	}

	return in, nil
}

func (o *Orchestrator) loadFundamentals(ctx context.Context, src *strategyconfig.Source) (*contracts.Fundamentals, error) {
	if !src.Postgres {
		return o.loader.LoadFundamentals(o.resolvePath(src.Path), src.Sheet)
	}
	if o.financials == nil {
		return nil, ErrNoDatabase
	}
	from, to, err := src.Window()
	if err != nil {
		return nil, err
	}
	return o.financials.LoadFundamentals(ctx, from, to)
}

func (o *Orchestrator) loadPrices(ctx context.Context, src *strategyconfig.Source) (*contracts.PriceTable, error) {
	if !src.Postgres {
		return o.loader.LoadPrices(o.resolvePath(src.Path), src.Sheet)
	}
	if o.prices == nil {
		return nil, ErrNoDatabase
	}
	from, to, err := src.Window()
	if err != nil {
		return nil, err
	}
	return o.prices.LoadCloses(ctx, from, to, nil)
}

func (o *Orchestrator) resolvePath(path string) string {
	if filepath.IsAbs(path) || o.settings.DataDir == "" {
		return path
	}
	return filepath.Join(o.settings.DataDir, path)
}

// resolvePeriod picks the configured period or the primary table's latest one.
// Momentum reports the price date instead.
func resolvePeriod(strategy *strategyconfig.Strategy, in *inputs) (string, error) {
	if strategy.Kind == selection.StrategyMomentum {
		date, err := strategy.MomentumDate()
		if err != nil {
			return "", err
		}
		if date.IsZero() {
			if in.prices.Len() == 0 {
				return "", &contracts.UnknownPeriodError{Period: "latest"}
			}
			date = in.prices.LatestDate()
		}
		return date.Format(contracts.DateLayout), nil
	}

	if strategy.Period != "" {
		return strategy.Period, nil
	}

	primary := in.invest
	if primary == nil {
		primary = in.statements
	}
	period := primary.LatestPeriod()
	if period == "" {
		return "", &contracts.UnknownPeriodError{Period: "latest"}
	}
	return period, nil
}

// runQuality checks coverage of the ranked metrics. A failed gate is logged, not fatal.
func (o *Orchestrator) runQuality(cfg strategyconfig.Quality, strategy *strategyconfig.Strategy, in *inputs, period string) ([]*contracts.DataQualitySnapshot, error) {
	o.logger.Info("Running S0: Quality Gate")

	gateConfig := quality.Config{
		MinMetricCoverage: cfg.MinMetricCoverage,
		MinQualityScore:   cfg.MinQualityScore,
	}
	if gateConfig == (quality.Config{}) {
		gateConfig = quality.DefaultConfig()
	}
	gate := quality.NewGate(gateConfig)

	type check struct {
		source  string
		table   *contracts.Fundamentals
		metrics []string
	}
	var checks []check
	fscoreMetrics := []string{contracts.MetricNetIncome, contracts.MetricOperatingCashFlow}

	switch strategy.Kind {
	case selection.StrategyFactor:
		checks = append(checks, check{"invest", in.invest, []string{strategy.Metric}})
	case selection.StrategyMagicFormula:
		checks = append(checks,
			check{"invest", in.invest, []string{contracts.MetricPER}},
			check{"ratios", in.ratios, []string{contracts.MetricROA}},
		)
	case selection.StrategyValueCombo:
		checks = append(checks, check{"invest", in.invest, strategy.Metrics})
	case selection.StrategyFScore:
		checks = append(checks, check{"statements", in.statements, fscoreMetrics})
	case selection.StrategyValueQuality:
		checks = append(checks,
			check{"invest", in.invest, contracts.ValueMetrics},
			check{"statements", in.statements, fscoreMetrics},
		)
	}

	snapshots := make([]*contracts.DataQualitySnapshot, 0, len(checks)+1)
	for _, c := range checks {
		snap, err := gate.Check(c.source, c.table, period, c.metrics)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	if strategy.Kind == selection.StrategyMomentum {
		date, err := time.Parse(contracts.DateLayout, period)
		if err != nil {
			return nil, err
		}
		snap, err := gate.CheckPrices("prices", in.prices, date)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	for _, snap := range snapshots {
		fields := map[string]interface{}{
			"source":        snap.Source,
			"period":        snap.Period,
			"quality_score": snap.QualityScore,
			"valid_stocks":  snap.ValidStocks,
			"total_stocks":  snap.TotalStocks,
		}
		if !snap.Passed {
			fields["failures"] = snap.Failures
			o.logger.WithFields(fields).Warn("Coverage below threshold, ranking continues")
			continue
		}
		o.logger.WithFields(fields).Debug("Coverage ok")
	}

	return snapshots, nil
}

// runRank dispatches to the ranker or screener for the strategy's kind
func (o *Orchestrator) runRank(strategy *strategyconfig.Strategy, in *inputs, period string, n int) (*contracts.Ranking, error) {
	o.logger.Info("Running S4: Ranking")

	opts, err := strategy.Options()
	if err != nil {
		return nil, err
	}
	ranker := selection.NewRanker(opts, o.logger)

	switch strategy.Kind {
	case selection.StrategyFactor:
		return ranker.RankFactor(in.invest, period, strategy.Metric, n)
	case selection.StrategyMagicFormula:
		return ranker.MagicFormula(in.ratios, in.invest, period, n)
	case selection.StrategyValueCombo:
		return ranker.ValueCombo(strategy.Metrics, in.invest, period, n)
	case selection.StrategyFScore:
		return selection.NewScreener(selection.DefaultScreenerConfig(), o.logger).FScore(in.statements, period, n)
	case selection.StrategyMomentum:
		date, err := time.Parse(contracts.DateLayout, period)
		if err != nil {
			return nil, err
		}
		return ranker.Momentum(in.prices, date, strategy.Lookback, n)
	case selection.StrategyValueQuality:
		return ranker.ValueQuality(in.invest, in.statements, period, n)
	default:
		return nil, &contracts.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", strategy.Kind)}
	}
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}
