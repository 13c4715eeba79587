package s0_data

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// PeriodLayout formats report dates into FnGuide-style period labels
const PeriodLayout = "2006/01"

// Querier is the subset of pgxpool.Pool used by the read-only repositories
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// FinancialRepository builds fundamentals tables from data.fundamentals
// ⭐ SSOT: 재무 데이터 조회는 여기서만 (읽기 전용)
type FinancialRepository struct {
	pool Querier
}

// NewFinancialRepository creates a new financial repository
func NewFinancialRepository(pool Querier) *FinancialRepository {
	return &FinancialRepository{pool: pool}
}

// financialRecord is one data.fundamentals row; nil means NULL
type financialRecord struct {
	Code       string
	ReportDate time.Time
	PER        *float64
	PBR        *float64
	ROE        *float64
	NetProfit  *float64
}

// financialMetrics is the column order within each period
var financialMetrics = []string{
	contracts.MetricPER,
	contracts.MetricPBR,
	contracts.MetricROE,
	contracts.MetricNetIncome,
}

func (rec financialRecord) value(metric string) *float64 {
	switch metric {
	case contracts.MetricPER:
		return rec.PER
	case contracts.MetricPBR:
		return rec.PBR
	case contracts.MetricROE:
		return rec.ROE
	case contracts.MetricNetIncome:
		return rec.NetProfit
	}
	return nil
}

// LoadFundamentals reads every report between from and to (inclusive).
// Each report month becomes a period; NULL columns are missing cells.
func (r *FinancialRepository) LoadFundamentals(ctx context.Context, from, to time.Time) (*contracts.Fundamentals, error) {
	query := `
		SELECT stock_code, report_date,
		       per::float8, pbr::float8, roe::float8, net_profit::float8
		FROM data.fundamentals
		WHERE report_date BETWEEN $1 AND $2
		ORDER BY stock_code, report_date
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query fundamentals: %w", err)
	}
	defer rows.Close()

	var records []financialRecord
	for rows.Next() {
		var rec financialRecord
		if err := rows.Scan(&rec.Code, &rec.ReportDate, &rec.PER, &rec.PBR, &rec.ROE, &rec.NetProfit); err != nil {
			return nil, fmt.Errorf("scan fundamentals: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read fundamentals: %w", err)
	}

	return buildFundamentals(records), nil
}

// buildFundamentals pivots records into a table.
// Periods ascend left to right; rows follow first appearance of each code.
// A later report in the same month overwrites an earlier one.
func buildFundamentals(records []financialRecord) *contracts.Fundamentals {
	periodSet := make(map[string]bool)
	for _, rec := range records {
		periodSet[rec.ReportDate.Format(PeriodLayout)] = true
	}
	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	table := &contracts.Fundamentals{
		Columns: make([]contracts.Column, 0, len(periods)*len(financialMetrics)),
	}
	for _, p := range periods {
		for _, m := range financialMetrics {
			table.Columns = append(table.Columns, contracts.Column{Period: p, Metric: m})
		}
	}

	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.Code]
		if !ok {
			i = len(table.Rows)
			index[rec.Code] = i
			table.Rows = append(table.Rows, contracts.FundamentalRow{
				Code:  rec.Code,
				Cells: make(map[contracts.Column]string),
			})
		}

		period := rec.ReportDate.Format(PeriodLayout)
		for _, m := range financialMetrics {
			col := contracts.Column{Period: period, Metric: m}
			if v := rec.value(m); v != nil {
				table.Rows[i].Cells[col] = strconv.FormatFloat(*v, 'f', -1, 64)
			} else {
				delete(table.Rows[i].Cells, col)
			}
		}
	}

	return table
}
