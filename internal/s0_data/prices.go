package s0_data

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// dateLayouts are the text date forms seen in price exports
var dateLayouts = []string{
	contracts.DateLayout,
	"2006/01/02",
	"2006.01.02",
	"20060102",
	"2006-01-02 15:04:05",
}

// LoadPrices reads a price sheet: header row "date, code1, code2, ...",
// then one row per date.
func (l *Loader) LoadPrices(path, sheet string) (*contracts.PriceTable, error) {
	grid, source, err := l.readGrid(path, sheet)
	if err != nil {
		return nil, err
	}

	table, err := l.ParsePrices(source, grid)
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(map[string]interface{}{
		"path":  path,
		"sheet": source,
		"dates": table.Len(),
		"codes": len(table.Codes),
	}).Info("Prices loaded")

	return table, nil
}

// ParsePrices builds a price table from a raw grid; rows end up in ascending date order
func (l *Loader) ParsePrices(source string, grid [][]string) (*contracts.PriceTable, error) {
	if len(grid) < 1 || len(grid[0]) < 2 {
		return nil, &contracts.MalformedHeaderError{Source: source, Column: -1, Reason: "expected a date column and at least one company"}
	}

	codes := make([]string, 0, len(grid[0])-1)
	for c := 1; c < len(grid[0]); c++ {
		code := cell(grid, 0, c)
		if code == "" {
			return nil, &contracts.MalformedHeaderError{Source: source, Column: c, Reason: "blank company code"}
		}
		codes = append(codes, code)
	}

	type priceRow struct {
		date   time.Time
		prices []float64
	}
	rows := make([]priceRow, 0, len(grid)-1)

	for r := 1; r < len(grid); r++ {
		rawDate := cell(grid, r, 0)
		if rawDate == "" {
			continue
		}
		date, err := parseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", source, r+1, err)
		}

		prices := make([]float64, len(codes))
		for j, code := range codes {
			raw := cell(grid, r, j+1)
			v, ok := contracts.ParseNumeric(raw)
			if !ok {
				return nil, &contracts.NonNumericValueError{
					Code:   code,
					Period: date.Format(contracts.DateLayout),
					Metric: "price",
					Value:  raw,
				}
			}
			prices[j] = v
		}
		rows = append(rows, priceRow{date: date, prices: prices})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	table := &contracts.PriceTable{
		Dates:  make([]time.Time, len(rows)),
		Codes:  codes,
		Prices: make([][]float64, len(rows)),
	}
	for i, row := range rows {
		table.Dates[i] = row.date
		table.Prices[i] = row.prices
	}
	return table, nil
}

// parseDate accepts the text layouts above or an Excel serial day number
func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || serial <= 0 {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid excel date %q: %w", raw, err)
	}
	return t, nil
}
