package contracts

import "fmt"

// MalformedHeaderError means a sheet does not follow the two-row header layout
type MalformedHeaderError struct {
	Source string // file or sheet name
	Column int    // 0-based column, -1 when not column specific
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("malformed header in %s (column %d): %s", e.Source, e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed header in %s: %s", e.Source, e.Reason)
}

// NonNumericValueError means a ranking column holds text that is not a number
type NonNumericValueError struct {
	Code   string
	Period string
	Metric string
	Value  string
}

func (e *NonNumericValueError) Error() string {
	return fmt.Sprintf("non-numeric value %q for %s at %s/%s", e.Value, e.Code, e.Period, e.Metric)
}

// UnknownPeriodError means the requested reporting period or price date is absent
type UnknownPeriodError struct {
	Period string
}

func (e *UnknownPeriodError) Error() string {
	return fmt.Sprintf("unknown period %q", e.Period)
}

// UnknownMetricError means the period exists but does not carry the metric
type UnknownMetricError struct {
	Period string
	Metric string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("metric %q not found in period %q", e.Metric, e.Period)
}

// ValidationError reports a bad argument to a screening call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
