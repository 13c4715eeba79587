package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screen/internal/contracts"
	"github.com/wonny/aegis-screen/pkg/logger"
)

const testPeriod = "2016/12"

type testRow struct {
	code  string
	cells []string // aligned with metrics; "" is a missing cell
}

func row(code string, cells ...string) testRow {
	return testRow{code: code, cells: cells}
}

// buildTable creates a single-period fundamentals table
func buildTable(t *testing.T, metrics []string, rows ...testRow) *contracts.Fundamentals {
	t.Helper()

	table := &contracts.Fundamentals{}
	for _, m := range metrics {
		table.Columns = append(table.Columns, contracts.Column{Period: testPeriod, Metric: m})
	}
	for _, r := range rows {
		require.Len(t, r.cells, len(metrics), "row %s", r.code)
		cells := make(map[contracts.Column]string)
		for i, raw := range r.cells {
			if raw != "" {
				cells[table.Columns[i]] = raw
			}
		}
		table.Rows = append(table.Rows, contracts.FundamentalRow{Code: r.code, Cells: cells})
	}
	return table
}

func newTestRanker(opts Options) *Ranker {
	return NewRanker(opts, logger.Nop())
}
