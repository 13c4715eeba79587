package contracts

import (
	"strings"
	"unicode"
)

// Metric names as they appear in FnGuide exports
const (
	MetricPER = "PER"
	MetricPBR = "PBR"
	MetricPSR = "PSR"
	MetricPCR = "PCR"
	MetricROA = "ROA"
	MetricROE = "ROE"

	MetricNetIncome         = "당기순이익"
	MetricOperatingCashFlow = "영업활동으로인한현금흐름"

	// MetricMomentum is the derived trailing-return column
	MetricMomentum = "momentum"
)

// MissingSentinel marks values FnGuide could not compute under IFRS
const MissingSentinel = "N/A(IFRS)"

// ValueMetrics is the fixed metric list of the value+quality strategy
var ValueMetrics = []string{MetricPER, MetricPBR, MetricPSR, MetricPCR}

// Direction tells which raw values rank first
type Direction int

const (
	// Ascending ranks the lowest raw value first (valuation multiples)
	Ascending Direction = iota
	// Descending ranks the highest raw value first (profitability, momentum)
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// MetricDirection returns the ranking direction for a metric.
// Unknown metrics are treated as valuation multiples.
func MetricDirection(metric string) Direction {
	switch NormalizeMetric(metric) {
	case MetricROA, MetricROE, MetricMomentum:
		return Descending
	default:
		return Ascending
	}
}

// metricAliases maps whitespace-free lowercase header spellings to canonical names
var metricAliases = map[string]string{
	"per":               MetricPER,
	"pbr":               MetricPBR,
	"psr":               MetricPSR,
	"pcr":               MetricPCR,
	"roa":               MetricROA,
	"roe":               MetricROE,
	"netincome":         MetricNetIncome,
	"당기순이익":             MetricNetIncome,
	"operatingcashflow": MetricOperatingCashFlow,
	"cfo":               MetricOperatingCashFlow,
	"영업활동으로인한현금흐름":      MetricOperatingCashFlow,
	"영업활동현금흐름":          MetricOperatingCashFlow,
	"momentum":          MetricMomentum,
}

// NormalizeMetric canonicalizes a metric header.
// Surrounding whitespace is trimmed; known spellings map to the constants above.
func NormalizeMetric(name string) string {
	trimmed := strings.TrimSpace(name)
	key := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, trimmed))

	if canonical, ok := metricAliases[key]; ok {
		return canonical
	}
	return trimmed
}
