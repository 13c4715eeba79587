package s0_data

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/aegis-screen/pkg/logger"
)

// Loader reads FnGuide spreadsheet exports into contracts tables
// ⭐ SSOT: 파일 입력 파싱은 여기서만
type Loader struct {
	logger *logger.Logger
}

// NewLoader creates a new loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{logger: log}
}

// readGrid returns the raw cell grid of a sheet.
// .xlsx/.xlsm go through excelize; .csv through encoding/csv (sheet is ignored).
// An empty sheet name selects the workbook's first sheet.
func (l *Loader) readGrid(path, sheet string) ([][]string, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbookSheet(path, sheet)
	case ".csv":
		grid, err := readCSV(path)
		return grid, filepath.Base(path), err
	default:
		return nil, "", fmt.Errorf("unsupported file type %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

func readWorkbookSheet(path, sheet string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, "", fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	// Raw values keep numbers free of display formatting such as thousands separators
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", fmt.Errorf("read sheet %s of %s: %w", sheet, path, err)
	}
	if len(rows) > 0 {
		if err := headerDates(f, sheet, rows[0]); err != nil {
			return nil, "", fmt.Errorf("read header of %s: %w", path, err)
		}
	}
	return rows, sheet, nil
}

// headerDates rewrites header cells stored as Excel dates into PeriodLayout labels.
// Raw reads return such cells as serial numbers ("42735"), which no period would match.
func headerDates(f *excelize.File, sheet string, header []string) error {
	for c, raw := range header {
		serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}

		name, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		shown, err := f.GetCellValue(sheet, name)
		if err != nil {
			return err
		}
		if !isDateDisplay(raw, shown) {
			continue
		}

		date, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		header[c] = date.Format(PeriodLayout)
	}
	return nil
}

// isDateDisplay reports whether a numeric cell is displayed as something other than a number
func isDateDisplay(raw, shown string) bool {
	shown = strings.TrimSpace(shown)
	if shown == "" || shown == strings.TrimSpace(raw) || strings.HasSuffix(shown, "%") {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(shown, ",", ""), 64)
	return err != nil
}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// Excel writes a UTF-8 BOM in front of Korean CSV exports
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	return grid, nil
}

// cell returns grid[r][c] trimmed, "" when the row is short
func cell(grid [][]string, r, c int) string {
	if r >= len(grid) || c >= len(grid[r]) {
		return ""
	}
	return strings.TrimSpace(grid[r][c])
}
