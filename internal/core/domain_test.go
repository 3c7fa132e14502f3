package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-01-31", "2024-01-31", true},
		{" 2024-01-31 ", "2024-01-31", true},
		{"2024-2-3", "", false},
		{"31-01-2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseDate(%q) = %q, %v, want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseDate(%q) expected error", tc.in)
		}
	}
}

func TestDateOrderingIsLexical(t *testing.T) {
	// The whole date-cutoff logic relies on YYYY-MM-DD strings ordering the
	// same way the calendar does.
	earlier := NewDate(2024, 9, 30)
	later := NewDate(2024, 10, 1)
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
}

func TestDateEpoch(t *testing.T) {
	d := NewDate(2024, 1, 15)
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	if got := d.Epoch(); got != want {
		t.Errorf("Epoch() = %d, want %d", got, want)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		TransactionID: "t1",
		Type:          Expense,
		Amount:        120,
		Category:      "food",
		AccountName:   "SBI",
		Date:          NewDate(2024, 3, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Type: "transfer", Amount: 1, Category: "c", AccountName: "a", Date: "2024-01-01"},
		{Type: Income, Amount: 0, Category: "c", AccountName: "a", Date: "2024-01-01"},
		{Type: Income, Amount: -5, Category: "c", AccountName: "a", Date: "2024-01-01"},
		{Type: Income, Amount: 1, Category: "", AccountName: "a", Date: "2024-01-01"},
		{Type: Income, Amount: 1, Category: "c", AccountName: "", Date: "2024-01-01"},
		{Type: Income, Amount: 1, Category: "c", AccountName: "a", Date: "01/01/2024"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestRecurringTransactionValidate(t *testing.T) {
	base := Transaction{
		TransactionID: "t1",
		Type:          Expense,
		Amount:        99,
		Category:      "rent",
		AccountName:   "SBI",
		Date:          NewDate(2024, 3, 1),
	}
	good := RecurringTransaction{
		Transaction:            base,
		RecurringTransactionID: "r1",
		StartDate:              NewDate(2024, 3, 1),
		RecurringType:          Monthly,
		Status:                 StatusActive,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	badKind := good
	badKind.RecurringType = "biweekly"
	if err := badKind.Validate(); err == nil {
		t.Error("expected error for unknown recurrence kind")
	}

	badEnd := good
	badEnd.EndDate = NewDate(2024, 2, 1).Epoch()
	if err := badEnd.Validate(); err == nil {
		t.Error("expected error for end date before start date")
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"50", 50, true},
		{"12.34", 12.34, true},
		{"0", 0, true},
		{" 7 ", 7, true},
		{"-5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseAmount(%q) = %v, %v, want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseAmount(%q) expected error", tc.in)
		}
	}

	if _, err := ParsePositiveAmount("0"); err == nil {
		t.Error("ParsePositiveAmount(0) expected error")
	}
	if v, err := ParsePositiveAmount("0.01"); err != nil || v != 0.01 {
		t.Errorf("ParsePositiveAmount(0.01) = %v, %v", v, err)
	}
}
