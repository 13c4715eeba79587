package contracts

import (
	"math"
	"time"
)

// DateLayout is the canonical text form of a price date
const DateLayout = "2006-01-02"

// PriceTable holds closing prices: one row per date (ascending), one column per company
type PriceTable struct {
	Dates  []time.Time `json:"dates"`
	Codes  []string    `json:"codes"`
	Prices [][]float64 `json:"-"` // Prices[dateIdx][codeIdx], NaN when missing
}

// Len returns the number of dates
func (p *PriceTable) Len() int {
	return len(p.Dates)
}

// DateIndex finds the row for a calendar date
func (p *PriceTable) DateIndex(date time.Time) (int, error) {
	y, m, d := date.Date()
	for i, t := range p.Dates {
		ty, tm, td := t.Date()
		if ty == y && tm == m && td == d {
			return i, nil
		}
	}
	return -1, &UnknownPeriodError{Period: date.Format(DateLayout)}
}

// Series returns one company's prices in date order
func (p *PriceTable) Series(codeIdx int) []float64 {
	series := make([]float64, len(p.Dates))
	for i := range p.Dates {
		if codeIdx < len(p.Prices[i]) {
			series[i] = p.Prices[i][codeIdx]
		} else {
			series[i] = math.NaN()
		}
	}
	return series
}

// LatestDate returns the last date, zero time for an empty table
func (p *PriceTable) LatestDate() time.Time {
	if len(p.Dates) == 0 {
		return time.Time{}
	}
	return p.Dates[len(p.Dates)-1]
}
