package quality

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screen/internal/contracts"
)

func sampleTable() *contracts.Fundamentals {
	per := contracts.Column{Period: "2016/12", Metric: contracts.MetricPER}
	roa := contracts.Column{Period: "2016/12", Metric: contracts.MetricROA}
	return &contracts.Fundamentals{
		Columns: []contracts.Column{per, roa},
		Rows: []contracts.FundamentalRow{
			{Code: "A", Cells: map[contracts.Column]string{per: "5", roa: "10"}},
			{Code: "B", Cells: map[contracts.Column]string{per: "7"}},
			{Code: "C", Cells: map[contracts.Column]string{per: "9"}},
			{Code: "D", Cells: map[contracts.Column]string{roa: "3"}},
		},
	}
}

func TestGate_Check(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		metrics    []string
		wantPassed bool
		wantValid  int
		wantScore  float64
	}{
		{
			name:       "default thresholds pass",
			config:     DefaultConfig(),
			wantPassed: true,
			wantValid:  1,
			wantScore:  (0.75 + 0.5) / 2,
		},
		{
			name:       "strict metric coverage fails",
			config:     Config{MinMetricCoverage: 0.8, MinQualityScore: 0.5},
			wantPassed: false,
			wantValid:  1,
			wantScore:  (0.75 + 0.5) / 2,
		},
		{
			name:       "single metric",
			config:     DefaultConfig(),
			metrics:    []string{"per"},
			wantPassed: true,
			wantValid:  3,
			wantScore:  0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, err := NewGate(tt.config).Check("invest", sampleTable(), "2016/12", tt.metrics)
			require.NoError(t, err)

			assert.Equal(t, "invest", snapshot.Source)
			assert.Equal(t, 4, snapshot.TotalStocks)
			assert.Equal(t, tt.wantValid, snapshot.ValidStocks)
			assert.InDelta(t, tt.wantScore, snapshot.QualityScore, 1e-12)
			assert.Equal(t, tt.wantPassed, snapshot.Passed)
			assert.Equal(t, tt.wantPassed, len(snapshot.Failures) == 0)
		})
	}
}

func TestGate_Check_Errors(t *testing.T) {
	gate := NewGate(DefaultConfig())

	_, err := gate.Check("invest", sampleTable(), "2015/12", nil)
	var unknownPeriod *contracts.UnknownPeriodError
	assert.True(t, errors.As(err, &unknownPeriod))

	_, err = gate.Check("invest", sampleTable(), "2016/12", []string{contracts.MetricPSR})
	var unknownMetric *contracts.UnknownMetricError
	assert.True(t, errors.As(err, &unknownMetric))
}

func TestGate_CheckPrices(t *testing.T) {
	d := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := &contracts.PriceTable{
		Dates:  []time.Time{d},
		Codes:  []string{"A", "B", "C", "D"},
		Prices: [][]float64{{1, math.NaN(), 3, 4}},
	}

	snapshot, err := NewGate(DefaultConfig()).CheckPrices("prices", prices, d)
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02", snapshot.Period)
	assert.Equal(t, 3, snapshot.ValidStocks)
	assert.InDelta(t, 0.75, snapshot.Coverage["price"], 1e-12)
	assert.True(t, snapshot.Passed)

	_, err = NewGate(DefaultConfig()).CheckPrices("prices", prices, d.AddDate(0, 0, 1))
	assert.Error(t, err)
}
