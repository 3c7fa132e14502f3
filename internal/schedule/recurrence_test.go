package schedule

import (
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func epochOf(year, month, day int) int64 {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestNextExecution(t *testing.T) {
	cases := []struct {
		name  string
		start core.Date
		kind  core.RecurrenceKind
		want  int64
	}{
		{"daily", "2024-01-15", core.Daily, epochOf(2024, 1, 16)},
		{"weekly", "2024-01-15", core.Weekly, epochOf(2024, 1, 22)},
		{"monthly", "2024-01-15", core.Monthly, epochOf(2024, 2, 15)},
		{"monthly clamps to leap February", "2024-01-31", core.Monthly, epochOf(2024, 2, 29)},
		{"monthly clamps to short February", "2023-01-31", core.Monthly, epochOf(2023, 2, 28)},
		{"monthly across year boundary", "2024-12-15", core.Monthly, epochOf(2025, 1, 15)},
		{"quarterly", "2024-01-15", core.Quarterly, epochOf(2024, 4, 15)},
		{"quarterly clamps day", "2024-08-31", core.Quarterly, epochOf(2024, 11, 30)},
		{"yearly", "2024-03-10", core.Yearly, epochOf(2025, 3, 10)},
		{"yearly from leap day", "2024-02-29", core.Yearly, epochOf(2025, 2, 28)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextExecution(tc.start, tc.kind)
			if err != nil {
				t.Fatalf("NextExecution: %v", err)
			}
			if got != tc.want {
				t.Errorf("NextExecution(%s, %s) = %s, want %s",
					tc.start, tc.kind,
					time.UnixMilli(got).UTC().Format("2006-01-02"),
					time.UnixMilli(tc.want).UTC().Format("2006-01-02"))
			}
			if got <= tc.start.Epoch() {
				t.Error("next execution must be strictly after start date")
			}
		})
	}
}

func TestNextExecutionUnknownKind(t *testing.T) {
	_, err := NextExecution("2024-01-15", core.RecurrenceKind("biweekly"))
	if !errors.Is(err, core.ErrInvalidRecurrenceKind) {
		t.Errorf("error = %v, want ErrInvalidRecurrenceKind", err)
	}
}

func TestNextExecutionBadDate(t *testing.T) {
	if _, err := NextExecution("15/01/2024", core.Daily); err == nil {
		t.Error("expected error for malformed start date")
	}
}

func TestDue(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	rt := core.RecurringTransaction{Status: core.StatusActive, NextExecution: epochOf(2024, 3, 15)}

	if !Due(rt, now) {
		t.Error("expected due when next execution has passed")
	}

	rt.NextExecution = epochOf(2024, 3, 16)
	if Due(rt, now) {
		t.Error("expected not due before next execution")
	}

	rt.NextExecution = epochOf(2024, 3, 15)
	rt.Status = core.StatusPaused
	if Due(rt, now) {
		t.Error("paused transactions never fire")
	}
	rt.Status = core.StatusEnded
	if Due(rt, now) {
		t.Error("ended transactions never fire")
	}
}

func TestAdvance(t *testing.T) {
	rt := core.RecurringTransaction{
		Transaction:   core.Transaction{Type: core.Expense, Amount: 10, Category: "rent", AccountName: "SBI", Date: "2024-01-01"},
		RecurringType: core.Monthly,
		Status:        core.StatusActive,
		StartDate:     "2024-01-01",
		NextExecution: epochOf(2024, 2, 1),
	}

	got, err := Advance(rt)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got.NextExecution != epochOf(2024, 3, 1) {
		t.Errorf("NextExecution = %d, want %d", got.NextExecution, epochOf(2024, 3, 1))
	}
	if got.Status != core.StatusActive {
		t.Errorf("status = %s, want active", got.Status)
	}

	// Input copy untouched.
	if rt.NextExecution != epochOf(2024, 2, 1) {
		t.Error("Advance mutated its input")
	}
}

func TestAdvanceEndsPastEndDate(t *testing.T) {
	rt := core.RecurringTransaction{
		RecurringType: core.Monthly,
		Status:        core.StatusActive,
		NextExecution: epochOf(2024, 2, 1),
		EndDate:       epochOf(2024, 2, 15),
	}
	got, err := Advance(rt)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got.Status != core.StatusEnded {
		t.Errorf("status = %s, want ended once next execution passes end date", got.Status)
	}
}

func TestAdvanceUnknownKind(t *testing.T) {
	rt := core.RecurringTransaction{RecurringType: "fortnightly", Status: core.StatusActive}
	if _, err := Advance(rt); !errors.Is(err, core.ErrInvalidRecurrenceKind) {
		t.Errorf("error = %v, want ErrInvalidRecurrenceKind", err)
	}
}

func TestSetStatus(t *testing.T) {
	rt := core.RecurringTransaction{Status: core.StatusActive}

	paused := SetStatus(rt, core.StatusPaused)
	if paused.Status != core.StatusPaused {
		t.Errorf("status = %s, want paused", paused.Status)
	}

	resumed := SetStatus(paused, core.StatusActive)
	if resumed.Status != core.StatusActive {
		t.Errorf("status = %s, want active", resumed.Status)
	}

	ended := core.RecurringTransaction{Status: core.StatusEnded}
	if got := SetStatus(ended, core.StatusActive); got.Status != core.StatusEnded {
		t.Error("ended entries must stay ended")
	}
}

func TestRegisterCustomKind(t *testing.T) {
	kind := core.RecurrenceKind("biweekly")
	Register(kind, func(tm time.Time) time.Time { return tm.AddDate(0, 0, 14) })
	defer delete(intervals, kind)

	got, err := NextExecution("2024-01-01", kind)
	if err != nil {
		t.Fatalf("NextExecution: %v", err)
	}
	if got != epochOf(2024, 1, 15) {
		t.Errorf("NextExecution = %d, want %d", got, epochOf(2024, 1, 15))
	}
}
