// Package usage models vision call budget reports.
package usage

import "fmt"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Budget is a snapshot of the vision call budget.
type Budget struct {
	callsLimit     int64
	callsUsed      int64
	callsRemaining int64
	resetsAt       int64 // unix millis
}

// NewBudget creates a Budget snapshot. A zero limit means unlimited.
func NewBudget(limit, used, remaining, resetsAt int64) Budget {
	return Budget{callsLimit: limit, callsUsed: used, callsRemaining: remaining, resetsAt: resetsAt}
}

// CallsLimit returns the call cap (0 = unlimited).
func (b Budget) CallsLimit() int64 { return b.callsLimit }

// CallsUsed returns calls made in the period.
func (b Budget) CallsUsed() int64 { return b.callsUsed }

// CallsRemaining returns calls left (-1 = unlimited).
func (b Budget) CallsRemaining() int64 { return b.callsRemaining }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.callsLimit > 0 && b.callsRemaining <= 0 }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }

// Report is a vision usage report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	provider    string
	budget      Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, provider string, b Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		provider:    provider,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Provider returns the vision provider name.
func (r *Report) Provider() string { return r.provider }

// Budget returns the budget status.
func (r *Report) Budget() Budget { return r.budget }
