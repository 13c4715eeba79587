package contracts

import (
	"encoding/json"
	"math"
)

// RankedStock is one result row of a screening strategy
// ⭐ SSOT: 랭킹 결과 전달
//
// Ranks are averaged-tie positions (1 = best). NaN marks a rank that could not
// be computed because an input value was missing.
type RankedStock struct {
	Code      string
	Values    map[string]float64 // raw factor values keyed by metric
	Ranks     map[string]float64 // per-factor ranks keyed by metric
	TotalRank float64            // combined rank; NaN for unranked filters
	FScore    *FScore
}

// FScore is the simplified three-signal Piotroski score
type FScore struct {
	NetIncome       bool `json:"net_income"`        // 당기순이익 > 0
	CashFlow        bool `json:"cash_flow"`         // 영업활동현금흐름 > 0
	GreaterCashFlow bool `json:"greater_cash_flow"` // 영업활동현금흐름 > 당기순이익
	Total           int  `json:"total"`
}

// FScorePass is the only score that passes the quality filter
const FScorePass = 3

// NewFScore derives the three signals. Comparisons with NaN are false.
func NewFScore(netIncome, cashFlow float64) FScore {
	s := FScore{
		NetIncome:       netIncome > 0,
		CashFlow:        cashFlow > 0,
		GreaterCashFlow: cashFlow > netIncome,
	}
	for _, ok := range []bool{s.NetIncome, s.CashFlow, s.GreaterCashFlow} {
		if ok {
			s.Total++
		}
	}
	return s
}

// Passed checks the score-3 gate
func (s *FScore) Passed() bool {
	return s != nil && s.Total == FScorePass
}

// HasTotalRank reports whether TotalRank is a real number
func (r *RankedStock) HasTotalRank() bool {
	return !math.IsNaN(r.TotalRank)
}

// IsTopRanked checks if the stock is within the top n combined ranks
func (r *RankedStock) IsTopRanked(n int) bool {
	return r.HasTotalRank() && r.TotalRank <= float64(n)
}

// MarshalJSON writes NaN values as null; encoding/json rejects NaN
func (r RankedStock) MarshalJSON() ([]byte, error) {
	type wire struct {
		Code      string              `json:"code"`
		Values    map[string]*float64 `json:"values,omitempty"`
		Ranks     map[string]*float64 `json:"ranks,omitempty"`
		TotalRank *float64            `json:"total_rank"`
		FScore    *FScore             `json:"fscore,omitempty"`
	}
	return json.Marshal(wire{
		Code:      r.Code,
		Values:    nullableMap(r.Values),
		Ranks:     nullableMap(r.Ranks),
		TotalRank: nullable(r.TotalRank),
		FScore:    r.FScore,
	})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullableMap(m map[string]float64) map[string]*float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]*float64, len(m))
	for k, v := range m {
		out[k] = nullable(v)
	}
	return out
}

// Ranking is the ordered output of one strategy run
type Ranking struct {
	Strategy string        `json:"strategy"`
	Period   string        `json:"period"`
	Factors  []string      `json:"factors"`
	Rows     []RankedStock `json:"rows"`
}

// Len returns the number of rows
func (r *Ranking) Len() int {
	return len(r.Rows)
}

// Codes returns the company codes in rank order
func (r *Ranking) Codes() []string {
	codes := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		codes[i] = row.Code
	}
	return codes
}

// Get finds a row by code
func (r *Ranking) Get(code string) (*RankedStock, bool) {
	for i := range r.Rows {
		if r.Rows[i].Code == code {
			return &r.Rows[i], true
		}
	}
	return nil, false
}
