// Package schedule computes execution times for recurring transactions.
//
// Each recurrence kind (daily, weekly, monthly, quarterly, yearly) has its
// own interval strategy registered in a lookup table, so adding a kind never
// touches the scheduling logic itself.
package schedule

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// IntervalFunc advances a date by one recurrence interval.
type IntervalFunc func(t time.Time) time.Time

// intervals maps recurrence kinds to their interval arithmetic.
var intervals = map[core.RecurrenceKind]IntervalFunc{
	core.Daily:     func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
	core.Weekly:    func(t time.Time) time.Time { return t.AddDate(0, 0, 7) },
	core.Monthly:   func(t time.Time) time.Time { return addMonthsClamped(t, 1) },
	core.Quarterly: func(t time.Time) time.Time { return addMonthsClamped(t, 3) },
	core.Yearly:    func(t time.Time) time.Time { return addMonthsClamped(t, 12) },
}

// NextExecution returns the epoch-ms timestamp one interval after startDate.
// Month-based kinds keep the day of month, clamping to the last valid day
// when the target month is shorter (Jan 31 + 1 month = Feb 29 in a leap
// year, Feb 28 otherwise). Unknown kinds fail with ErrInvalidRecurrenceKind.
func NextExecution(startDate core.Date, kind core.RecurrenceKind) (int64, error) {
	step, ok := intervals[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrInvalidRecurrenceKind, kind)
	}
	if err := startDate.Validate(); err != nil {
		return 0, err
	}
	return step(startDate.Time()).UnixMilli(), nil
}

// Register installs a custom interval for a recurrence kind.
func Register(kind core.RecurrenceKind, step IntervalFunc) {
	intervals[kind] = step
}

// Due reports whether a recurring transaction should fire at now: it must be
// active and its next execution time must have arrived.
func Due(rt core.RecurringTransaction, now time.Time) bool {
	return rt.Status == core.StatusActive && rt.NextExecution <= now.UnixMilli()
}

// Advance moves a fired recurring transaction forward one interval and
// returns the updated copy. When the advanced NextExecution passes a set
// EndDate the status transitions active -> ended; the transition to paused
// is never automatic (SetStatus is the manual path).
func Advance(rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	step, ok := intervals[rt.RecurringType]
	if !ok {
		return rt, fmt.Errorf("%w: %s", core.ErrInvalidRecurrenceKind, rt.RecurringType)
	}
	rt.NextExecution = step(time.UnixMilli(rt.NextExecution).UTC()).UnixMilli()
	if rt.EndDate != 0 && rt.NextExecution > rt.EndDate {
		rt.Status = core.StatusEnded
	}
	return rt, nil
}

// SetStatus is the manual status setter (pause/resume). Ended entries stay
// ended.
func SetStatus(rt core.RecurringTransaction, status core.RecurringStatus) core.RecurringTransaction {
	if rt.Status == core.StatusEnded {
		return rt
	}
	rt.Status = status
	return rt
}

// addMonthsClamped adds months keeping the day of month, clamping to the
// last valid day instead of letting time.AddDate roll into the next month.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := target.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, t.Location())
}
