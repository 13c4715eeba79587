package contracts

// DataQualitySnapshot reports how complete a table is before ranking
// ⭐ SSOT: S0 → 랭킹 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	Source       string             `json:"source"`
	Period       string             `json:"period"`
	TotalStocks  int                `json:"total_stocks"`
	ValidStocks  int                `json:"valid_stocks"`  // 모든 지표가 있는 종목 수
	Coverage     map[string]float64 `json:"coverage"`      // 지표별 커버리지
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`        // 품질 검증 통과 여부
	Failures     []string           `json:"failures,omitempty"`
}

// IsValid checks if the snapshot passed and has at least one complete row
func (d *DataQualitySnapshot) IsValid() bool {
	return d.Passed && d.ValidStocks > 0
}

// CoverageRate returns the average coverage rate across all metrics
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
