package s0_data

import (
	"github.com/wonny/aegis-screen/internal/contracts"
)

// LoadFundamentals reads a two-row-header sheet:
// row 0 holds reporting periods (blank cells repeat the label on their left),
// row 1 holds metric names, column 0 holds company codes.
func (l *Loader) LoadFundamentals(path, sheet string) (*contracts.Fundamentals, error) {
	grid, source, err := l.readGrid(path, sheet)
	if err != nil {
		return nil, err
	}

	table, err := l.ParseFundamentals(source, grid)
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(map[string]interface{}{
		"path":    path,
		"sheet":   source,
		"rows":    table.Len(),
		"periods": len(table.Periods()),
		"columns": len(table.Columns),
	}).Info("Fundamentals loaded")

	return table, nil
}

// ParseFundamentals builds a table from a raw cell grid
func (l *Loader) ParseFundamentals(source string, grid [][]string) (*contracts.Fundamentals, error) {
	if len(grid) < 2 {
		return nil, &contracts.MalformedHeaderError{Source: source, Column: -1, Reason: "expected two header rows"}
	}

	width := len(grid[0])
	if len(grid[1]) > width {
		width = len(grid[1])
	}
	if width < 2 {
		return nil, &contracts.MalformedHeaderError{Source: source, Column: -1, Reason: "no data columns"}
	}

	columns, err := repairHeader(source, grid, width)
	if err != nil {
		return nil, err
	}

	table := &contracts.Fundamentals{
		Columns: columns,
		Rows:    make([]contracts.FundamentalRow, 0, len(grid)-2),
	}

	seen := make(map[string]bool)
	skipped, duplicates := 0, 0
	for r := 2; r < len(grid); r++ {
		code := cell(grid, r, 0)
		if code == "" {
			skipped++
			continue
		}
		if seen[code] {
			duplicates++
			continue
		}
		seen[code] = true

		cells := make(map[contracts.Column]string)
		for c, col := range columns {
			raw := cell(grid, r, c+1)
			if contracts.IsMissingCell(raw) {
				continue
			}
			cells[col] = raw
		}
		table.Rows = append(table.Rows, contracts.FundamentalRow{Code: code, Cells: cells})
	}

	if duplicates > 0 {
		l.logger.WithFields(map[string]interface{}{
			"source":     source,
			"duplicates": duplicates,
		}).Warn("Duplicate company codes ignored, first row kept")
	}
	if skipped > 0 {
		l.logger.WithField("skipped", skipped).Debug("Rows without a company code dropped")
	}

	return table, nil
}

// repairHeader fills blank period labels from the left and pairs them with metric names
func repairHeader(source string, grid [][]string, width int) ([]contracts.Column, error) {
	columns := make([]contracts.Column, 0, width-1)
	seen := make(map[contracts.Column]bool, width-1)

	period := ""
	for c := 1; c < width; c++ {
		if label := cell(grid, 0, c); label != "" {
			period = label
		}
		if period == "" {
			return nil, &contracts.MalformedHeaderError{Source: source, Column: c, Reason: "first data column has no period label"}
		}

		metric := contracts.NormalizeMetric(cell(grid, 1, c))
		if metric == "" {
			return nil, &contracts.MalformedHeaderError{Source: source, Column: c, Reason: "blank metric name"}
		}

		col := contracts.Column{Period: period, Metric: metric}
		if seen[col] {
			return nil, &contracts.MalformedHeaderError{Source: source, Column: c, Reason: "duplicate column " + period + "/" + metric}
		}
		seen[col] = true
		columns = append(columns, col)
	}

	return columns, nil
}

// LoadMetricSheet reads a single-level sheet: an index column of codes and one value column.
// The value column is renamed to metric and filed under period.
func (l *Loader) LoadMetricSheet(path, sheet, metric, period string) (*contracts.Fundamentals, error) {
	grid, source, err := l.readGrid(path, sheet)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = source
	}
	return l.ParseMetricSheet(source, grid, metric, period)
}

// ParseMetricSheet builds a one-column table from a raw grid
func (l *Loader) ParseMetricSheet(source string, grid [][]string, metric, period string) (*contracts.Fundamentals, error) {
	if len(grid) < 1 || len(grid[0]) < 2 {
		return nil, &contracts.MalformedHeaderError{Source: source, Column: -1, Reason: "expected an index column and a value column"}
	}

	col := contracts.Column{Period: period, Metric: contracts.NormalizeMetric(metric)}
	table := &contracts.Fundamentals{
		Columns: []contracts.Column{col},
		Rows:    make([]contracts.FundamentalRow, 0, len(grid)-1),
	}

	seen := make(map[string]bool)
	for r := 1; r < len(grid); r++ {
		code := cell(grid, r, 0)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		cells := make(map[contracts.Column]string, 1)
		if raw := cell(grid, r, 1); !contracts.IsMissingCell(raw) {
			cells[col] = raw
		}
		table.Rows = append(table.Rows, contracts.FundamentalRow{Code: code, Cells: cells})
	}

	l.logger.WithFields(map[string]interface{}{
		"source": source,
		"metric": col.Metric,
		"rows":   table.Len(),
	}).Debug("Metric sheet loaded")

	return table, nil
}
