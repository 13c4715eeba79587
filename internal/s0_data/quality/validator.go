package quality

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// Gate measures table completeness before ranking
type Gate struct {
	config Config
}

// Config holds coverage thresholds
type Config struct {
	MinMetricCoverage float64 `yaml:"min_metric_coverage"` // 0.50
	MinQualityScore   float64 `yaml:"min_quality_score"`   // 0.60
}

// DefaultConfig returns default thresholds
func DefaultConfig() Config {
	return Config{
		MinMetricCoverage: 0.50,
		MinQualityScore:   0.60,
	}
}

// NewGate creates a new coverage gate
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Check computes per-metric coverage for one period.
// metrics limits the check; empty means every metric in the period.
// ⭐ SSOT: S0 → 랭킹 품질 검증
func (g *Gate) Check(source string, table *contracts.Fundamentals, period string, metrics []string) (*contracts.DataQualitySnapshot, error) {
	if !table.HasPeriod(period) {
		return nil, &contracts.UnknownPeriodError{Period: period}
	}
	if len(metrics) == 0 {
		metrics = table.Metrics(period)
	}

	snapshot := &contracts.DataQualitySnapshot{
		Source:      source,
		Period:      period,
		TotalStocks: table.Len(),
		Coverage:    make(map[string]float64, len(metrics)),
	}

	// 1. 지표별 커버리지
	complete := make([]bool, table.Len())
	for i := range complete {
		complete[i] = true
	}
	for _, m := range metrics {
		metric := contracts.NormalizeMetric(m)
		values, err := table.Numeric(period, metric)
		if err != nil {
			return nil, fmt.Errorf("coverage of %s: %w", metric, err)
		}

		present := 0
		for i, v := range values {
			if math.IsNaN(v) {
				complete[i] = false
				continue
			}
			present++
		}
		snapshot.Coverage[metric] = ratio(present, len(values))
	}

	// 2. 완전한 종목 수
	for _, ok := range complete {
		if ok {
			snapshot.ValidStocks++
		}
	}

	// 3. 품질 점수 및 판정
	snapshot.QualityScore = snapshot.CoverageRate()
	snapshot.Failures = g.failures(snapshot)
	snapshot.Passed = len(snapshot.Failures) == 0

	return snapshot, nil
}

// CheckPrices computes how many codes have a price on the given date
func (g *Gate) CheckPrices(source string, prices *contracts.PriceTable, date time.Time) (*contracts.DataQualitySnapshot, error) {
	idx, err := prices.DateIndex(date)
	if err != nil {
		return nil, err
	}

	present := 0
	for _, v := range prices.Prices[idx] {
		if !math.IsNaN(v) {
			present++
		}
	}

	snapshot := &contracts.DataQualitySnapshot{
		Source:      source,
		Period:      date.Format(contracts.DateLayout),
		TotalStocks: len(prices.Codes),
		ValidStocks: present,
		Coverage:    map[string]float64{"price": ratio(present, len(prices.Codes))},
	}
	snapshot.QualityScore = snapshot.CoverageRate()
	snapshot.Failures = g.failures(snapshot)
	snapshot.Passed = len(snapshot.Failures) == 0

	return snapshot, nil
}

func (g *Gate) failures(snapshot *contracts.DataQualitySnapshot) []string {
	var failures []string

	metrics := make([]string, 0, len(snapshot.Coverage))
	for m := range snapshot.Coverage {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	for _, m := range metrics {
		if cov := snapshot.Coverage[m]; cov < g.config.MinMetricCoverage {
			failures = append(failures, fmt.Sprintf("%s coverage %.1f%% < %.1f%%", m, cov*100, g.config.MinMetricCoverage*100))
		}
	}
	if snapshot.QualityScore < g.config.MinQualityScore {
		failures = append(failures, fmt.Sprintf("quality score %.2f < %.2f", snapshot.QualityScore, g.config.MinQualityScore))
	}
	return failures
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
