package s0_data

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/aegis-screen/internal/contracts"
)

// PriceRepository builds price tables from data.daily_prices
// ⭐ SSOT: 가격 데이터 조회는 여기서만 (읽기 전용)
type PriceRepository struct {
	pool Querier
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool Querier) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// closeRecord is one (code, date, close) observation
type closeRecord struct {
	Code  string
	Date  time.Time
	Close float64
}

// LoadCloses reads close prices between from and to (inclusive).
// An empty codes slice selects every stock.
func (r *PriceRepository) LoadCloses(ctx context.Context, from, to time.Time, codes []string) (*contracts.PriceTable, error) {
	query := `
		SELECT stock_code, trade_date, close_price
		FROM data.daily_prices
		WHERE trade_date BETWEEN $1 AND $2
		  AND (cardinality($3::text[]) = 0 OR stock_code = ANY($3))
		ORDER BY trade_date ASC, stock_code ASC
	`
	if codes == nil {
		codes = []string{}
	}

	rows, err := r.pool.Query(ctx, query, from, to, codes)
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}
	defer rows.Close()

	var records []closeRecord
	for rows.Next() {
		var rec closeRecord
		var closePrice int64
		if err := rows.Scan(&rec.Code, &rec.Date, &closePrice); err != nil {
			return nil, fmt.Errorf("scan daily prices: %w", err)
		}
		// 가격은 원 단위 정수
		rec.Close = float64(closePrice)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read daily prices: %w", err)
	}

	return buildPriceTable(records), nil
}

// buildPriceTable pivots observations into a date × code grid.
// Dates ascend, codes are sorted, absent observations are NaN.
func buildPriceTable(records []closeRecord) *contracts.PriceTable {
	dateIndex := make(map[time.Time]int)
	codeIndex := make(map[string]int)
	table := &contracts.PriceTable{}

	for _, rec := range records {
		day := truncateDay(rec.Date)
		if _, ok := dateIndex[day]; !ok {
			dateIndex[day] = 0
			table.Dates = append(table.Dates, day)
		}
		if _, ok := codeIndex[rec.Code]; !ok {
			codeIndex[rec.Code] = 0
			table.Codes = append(table.Codes, rec.Code)
		}
	}

	sort.Slice(table.Dates, func(i, j int) bool { return table.Dates[i].Before(table.Dates[j]) })
	sort.Strings(table.Codes)
	for i, d := range table.Dates {
		dateIndex[d] = i
	}
	for j, c := range table.Codes {
		codeIndex[c] = j
	}

	table.Prices = make([][]float64, len(table.Dates))
	for i := range table.Prices {
		row := make([]float64, len(table.Codes))
		for j := range row {
			row[j] = math.NaN()
		}
		table.Prices[i] = row
	}
	for _, rec := range records {
		table.Prices[dateIndex[truncateDay(rec.Date)]][codeIndex[rec.Code]] = rec.Close
	}

	return table
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
