package strategyconfig

import (
	"time"

	"github.com/wonny/aegis-screen/internal/selection"
)

// Config는 스크리닝 전략 묶음의 전체 설정
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Quality    Quality    `yaml:"quality" json:"quality"`
	Strategies []Strategy `yaml:"strategies" json:"strategies"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
	TopN     int    `yaml:"top_n" json:"top_n"` // 전략별 top_n 미지정 시 기본값 (0 → SCREEN_TOP_N)
}

// Quality S0: 커버리지 게이트 임계값
type Quality struct {
	MinMetricCoverage float64 `yaml:"min_metric_coverage" json:"min_metric_coverage"`
	MinQualityScore   float64 `yaml:"min_quality_score" json:"min_quality_score"`
}

// Strategy 개별 랭킹 전략
type Strategy struct {
	ID          string `yaml:"id" json:"id"`
	Kind        string `yaml:"kind" json:"kind"` // factor | magic_formula | value_combo | fscore | momentum | value_quality
	Description string `yaml:"description" json:"description"`

	Period string `yaml:"period" json:"period"` // 비어 있으면 최신 기간
	TopN   *int   `yaml:"top_n" json:"top_n"`   // -1 = 전체

	Metric   string   `yaml:"metric" json:"metric"`     // factor
	Metrics  []string `yaml:"metrics" json:"metrics"`   // value_combo
	Lookback int      `yaml:"lookback" json:"lookback"` // momentum (거래일 수)
	Date     string   `yaml:"date" json:"date"`         // momentum 기준일 (YYYY-MM-DD), 비어 있으면 최신

	MissingPolicy   string   `yaml:"missing_policy" json:"missing_policy"` // last | drop
	RequirePositive []string `yaml:"require_positive" json:"require_positive"`

	Inputs Inputs `yaml:"inputs" json:"inputs"`
}

// Inputs 전략이 읽는 테이블
type Inputs struct {
	Invest     *Source `yaml:"invest" json:"invest,omitempty"`         // 투자지표 (PER, PBR, PSR, PCR)
	Ratios     *Source `yaml:"ratios" json:"ratios,omitempty"`         // 재무비율 (ROA)
	Statements *Source `yaml:"statements" json:"statements,omitempty"` // 재무제표 (당기순이익, 영업현금흐름)
	Prices     *Source `yaml:"prices" json:"prices,omitempty"`         // 일별 가격
}

// Source 파일 또는 Postgres 입력
type Source struct {
	Path     string `yaml:"path" json:"path,omitempty"`
	Sheet    string `yaml:"sheet" json:"sheet,omitempty"`
	Postgres bool   `yaml:"postgres" json:"postgres,omitempty"`
	From     string `yaml:"from" json:"from,omitempty"` // Postgres 조회 구간 (YYYY-MM-DD)
	To       string `yaml:"to" json:"to,omitempty"`
}

// Window returns the parsed Postgres date range
func (s *Source) Window() (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, s.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(dateLayout, s.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// Find returns the strategy with the given id
func (c *Config) Find(id string) (*Strategy, bool) {
	for i := range c.Strategies {
		if c.Strategies[i].ID == id {
			return &c.Strategies[i], true
		}
	}
	return nil, false
}

// IDs returns strategy ids in file order
func (c *Config) IDs() []string {
	ids := make([]string, len(c.Strategies))
	for i, s := range c.Strategies {
		ids[i] = s.ID
	}
	return ids
}

// Limit resolves top_n: strategy value, then meta.top_n, then fallback
func (s *Strategy) Limit(meta Meta, fallback int) int {
	if s.TopN != nil {
		return *s.TopN
	}
	if meta.TopN != 0 {
		return meta.TopN
	}
	return fallback
}

// Options converts the missing-data settings into ranker options
func (s *Strategy) Options() (selection.Options, error) {
	policy, err := selection.ParseMissingPolicy(s.MissingPolicy)
	if err != nil {
		return selection.Options{}, err
	}
	return selection.Options{
		Missing:         policy,
		RequirePositive: s.RequirePositive,
	}, nil
}

// MomentumDate parses the momentum reference date; zero time means latest
func (s *Strategy) MomentumDate() (time.Time, error) {
	if s.Date == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s.Date)
}

// RequiredInputs lists the input slots each kind reads
func RequiredInputs(kind string) []string {
	switch kind {
	case selection.StrategyFactor, selection.StrategyValueCombo:
		return []string{"invest"}
	case selection.StrategyMagicFormula:
		return []string{"invest", "ratios"}
	case selection.StrategyFScore:
		return []string{"statements"}
	case selection.StrategyMomentum:
		return []string{"prices"}
	case selection.StrategyValueQuality:
		return []string{"invest", "statements"}
	default:
		return nil
	}
}

// Get returns an input slot by name
func (in *Inputs) Get(name string) *Source {
	switch name {
	case "invest":
		return in.Invest
	case "ratios":
		return in.Ratios
	case "statements":
		return in.Statements
	case "prices":
		return in.Prices
	default:
		return nil
	}
}
