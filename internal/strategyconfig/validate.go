package strategyconfig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/aegis-screen/internal/contracts"
	"github.com/wonny/aegis-screen/internal/selection"
)

const dateLayout = contracts.DateLayout

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

func invalid(field, message string) error {
	return &contracts.ValidationError{Field: field, Message: message}
}

// Validate checks all required constraints
// 실패 시 *contracts.ValidationError 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return invalid("meta.config_id", "required")
	}
	if cfg.Meta.TopN < selection.All {
		return invalid("meta.top_n", "must be >= -1")
	}

	// === Quality ===
	if err := validatePctRange(cfg.Quality.MinMetricCoverage, "quality.min_metric_coverage"); err != nil {
		return err
	}
	if err := validatePctRange(cfg.Quality.MinQualityScore, "quality.min_quality_score"); err != nil {
		return err
	}

	// === Strategies ===
	if len(cfg.Strategies) == 0 {
		return invalid("strategies", "at least one strategy required")
	}

	seen := make(map[string]bool, len(cfg.Strategies))
	for i := range cfg.Strategies {
		s := &cfg.Strategies[i]
		field := fmt.Sprintf("strategies[%d]", i)

		if !idPattern.MatchString(s.ID) {
			return invalid(field+".id", "must match [a-z0-9_-]+")
		}
		if seen[s.ID] {
			return invalid(field+".id", fmt.Sprintf("duplicate id %q", s.ID))
		}
		seen[s.ID] = true

		if err := validateStrategy(field, s); err != nil {
			return err
		}
	}

	return nil
}

func validateStrategy(field string, s *Strategy) error {
	required := RequiredInputs(s.Kind)
	if required == nil {
		return invalid(field+".kind", fmt.Sprintf("unknown kind %q", s.Kind))
	}

	if s.TopN != nil && *s.TopN < selection.All {
		return invalid(field+".top_n", "must be >= -1")
	}
	if _, err := selection.ParseMissingPolicy(s.MissingPolicy); err != nil {
		return invalid(field+".missing_policy", err.Error())
	}

	switch s.Kind {
	case selection.StrategyFactor:
		if strings.TrimSpace(s.Metric) == "" {
			return invalid(field+".metric", "required for factor")
		}
	case selection.StrategyValueCombo:
		if len(s.Metrics) == 0 {
			return invalid(field+".metrics", "required for value_combo")
		}
		for j, m := range s.Metrics {
			if strings.TrimSpace(m) == "" {
				return invalid(fmt.Sprintf("%s.metrics[%d]", field, j), "must not be blank")
			}
		}
	case selection.StrategyMomentum:
		if s.Lookback < 1 {
			return invalid(field+".lookback", "must be >= 1")
		}
		if _, err := s.MomentumDate(); err != nil {
			return invalid(field+".date", "must be YYYY-MM-DD")
		}
	}

	for _, name := range required {
		src := s.Inputs.Get(name)
		if src == nil {
			return invalid(field+".inputs."+name, "required for "+s.Kind)
		}
		if err := validateSource(field+".inputs."+name, src); err != nil {
			return err
		}
	}

	return nil
}

func validateSource(field string, src *Source) error {
	if src.Postgres {
		if src.Path != "" {
			return invalid(field, "path and postgres are mutually exclusive")
		}
		from, to, err := src.Window()
		if err != nil {
			return invalid(field, "postgres source needs from/to as YYYY-MM-DD")
		}
		if to.Before(from) {
			return invalid(field, "from must not be after to")
		}
		return nil
	}

	if src.Path == "" {
		return invalid(field+".path", "required")
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, s := range cfg.Strategies {
		// 방향이 알려지지 않은 지표는 오름차순 (밸류에이션 배수 취급)
		if s.Kind == selection.StrategyFactor && !knownMetric(s.Metric) {
			warnings = append(warnings, Warning{
				Code:    "UNKNOWN_METRIC_DIRECTION",
				Message: fmt.Sprintf("%s: metric %q ranks ascending by default", s.ID, s.Metric),
			})
		}

		for _, m := range s.RequirePositive {
			if !usesMetric(&s, m) {
				warnings = append(warnings, Warning{
					Code:    "UNUSED_POSITIVE_FILTER",
					Message: fmt.Sprintf("%s: require_positive %q is not ranked by this strategy", s.ID, m),
				})
			}
		}

		if s.TopN != nil && *s.TopN == 0 {
			warnings = append(warnings, Warning{
				Code:    "EMPTY_RESULT",
				Message: fmt.Sprintf("%s: top_n=0 always returns no rows", s.ID),
			})
		}
	}

	return warnings
}

// === Helper Functions ===

func knownMetric(metric string) bool {
	switch contracts.NormalizeMetric(metric) {
	case contracts.MetricPER, contracts.MetricPBR, contracts.MetricPSR, contracts.MetricPCR,
		contracts.MetricROA, contracts.MetricROE:
		return true
	}
	return false
}

// rankedMetrics lists the metrics a strategy ranks on
func rankedMetrics(s *Strategy) []string {
	switch s.Kind {
	case selection.StrategyFactor:
		return []string{s.Metric}
	case selection.StrategyMagicFormula:
		return []string{contracts.MetricPER, contracts.MetricROA}
	case selection.StrategyValueCombo:
		return s.Metrics
	case selection.StrategyValueQuality:
		return contracts.ValueMetrics
	}
	return nil
}

func usesMetric(s *Strategy, metric string) bool {
	want := contracts.NormalizeMetric(metric)
	for _, m := range rankedMetrics(s) {
		if contracts.NormalizeMetric(m) == want {
			return true
		}
	}
	return false
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return invalid(field, "must be in range [0, 1]")
	}
	return nil
}
