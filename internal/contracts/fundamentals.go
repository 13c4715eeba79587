package contracts

import (
	"math"
	"strconv"
	"strings"
)

// Column identifies one cell column: a reporting period and a metric within it
type Column struct {
	Period string `json:"period"`
	Metric string `json:"metric"`
}

// FundamentalRow holds one company's raw cells.
// Missing values (blank or MissingSentinel) have no entry in Cells.
type FundamentalRow struct {
	Code  string            `json:"code"`
	Cells map[Column]string `json:"-"`
}

// Fundamentals is a company × (period, metric) table loaded from a FnGuide export
// ⭐ SSOT: S0 → 랭킹 단계 재무 테이블 전달
//
// Ranking operations only read a Fundamentals; derived columns live in result rows.
type Fundamentals struct {
	Columns []Column         `json:"columns"`
	Rows    []FundamentalRow `json:"rows"`
}

// Len returns the number of companies
func (f *Fundamentals) Len() int {
	return len(f.Rows)
}

// Periods returns the distinct periods in column order
func (f *Fundamentals) Periods() []string {
	seen := make(map[string]bool)
	periods := make([]string, 0)
	for _, c := range f.Columns {
		if !seen[c.Period] {
			seen[c.Period] = true
			periods = append(periods, c.Period)
		}
	}
	return periods
}

// HasPeriod checks whether any column belongs to period
func (f *Fundamentals) HasPeriod(period string) bool {
	for _, c := range f.Columns {
		if c.Period == period {
			return true
		}
	}
	return false
}

// Metrics returns the metrics available in a period, in column order
func (f *Fundamentals) Metrics(period string) []string {
	metrics := make([]string, 0)
	for _, c := range f.Columns {
		if c.Period == period {
			metrics = append(metrics, c.Metric)
		}
	}
	return metrics
}

// LatestPeriod returns the right-most period, or "" for an empty table
func (f *Fundamentals) LatestPeriod() string {
	if len(f.Columns) == 0 {
		return ""
	}
	return f.Columns[len(f.Columns)-1].Period
}

// lookup validates that (period, metric) exists
func (f *Fundamentals) lookup(period, metric string) (Column, error) {
	if !f.HasPeriod(period) {
		return Column{}, &UnknownPeriodError{Period: period}
	}
	col := Column{Period: period, Metric: metric}
	for _, c := range f.Columns {
		if c == col {
			return col, nil
		}
	}
	return Column{}, &UnknownMetricError{Period: period, Metric: metric}
}

// Numeric coerces one column to float64, aligned with Rows.
// Missing cells become NaN; any other unparseable text is a *NonNumericValueError.
func (f *Fundamentals) Numeric(period, metric string) ([]float64, error) {
	col, err := f.lookup(period, metric)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		raw, ok := row.Cells[col]
		if !ok {
			values[i] = math.NaN()
			continue
		}
		v, ok := ParseNumeric(raw)
		if !ok {
			return nil, &NonNumericValueError{Code: row.Code, Period: period, Metric: metric, Value: raw}
		}
		values[i] = v
	}
	return values, nil
}

// ParseNumeric parses a cleaned cell. Blank text and MissingSentinel yield NaN.
func ParseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == MissingSentinel {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsMissingCell reports whether raw text stands for a missing value
func IsMissingCell(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || s == MissingSentinel
}
