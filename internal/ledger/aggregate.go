// Package ledger computes aggregations over decrypted transaction lists:
// period totals, windowed filtering, category and lender roll-ups. Every
// function is pure; "now" is always a parameter so results are reproducible.
package ledger

import (
	"math"
	"sort"
	"time"

	"fintrack/internal/core"
)

// Window selects a relative date range for filtering.
type Window string

const (
	Last7Days  Window = "7days"
	Last30Days Window = "30days"
	ThisMonth  Window = "thisMonth"
	LastMonth  Window = "lastMonth"
)

// Totals holds income and expense sums for a period.
type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// CategoryStat is one category's share of a breakdown. Percentage is relative
// to the largest category in the group, for bar rendering.
type CategoryStat struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// TotalsForPeriod sums amounts for transactions whose date falls inside
// [start, end] inclusive, split by type. Comparison is on the calendar date
// field, not on createdAt.
func TotalsForPeriod(txns []core.Transaction, start, end core.Date) Totals {
	var t Totals
	for _, tx := range txns {
		if tx.Date < start || tx.Date > end {
			continue
		}
		switch tx.Type {
		case core.Income:
			t.Income += tx.Amount
		case core.Expense:
			t.Expense += tx.Amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}

// FilterByWindow keeps transactions inside a relative window anchored at now.
// 7days and 30days are open-ended toward the future (date >= now - N days),
// thisMonth starts at the first of the current month, lastMonth covers the
// prior month only.
func FilterByWindow(txns []core.Transaction, w Window, now time.Time) []core.Transaction {
	switch w {
	case Last7Days:
		return filterFrom(txns, core.DateOf(now.AddDate(0, 0, -7)))
	case Last30Days:
		return filterFrom(txns, core.DateOf(now.AddDate(0, 0, -30)))
	case ThisMonth:
		return filterFrom(txns, firstOfMonth(now))
	case LastMonth:
		start := firstOfMonth(now.AddDate(0, -1, 0))
		end := firstOfMonth(now)
		out := make([]core.Transaction, 0, len(txns))
		for _, tx := range txns {
			if tx.Date >= start && tx.Date < end {
				out = append(out, tx)
			}
		}
		return out
	default:
		return txns
	}
}

// FilterByRange keeps transactions with start <= date <= end.
func FilterByRange(txns []core.Transaction, start, end core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns))
	for _, tx := range txns {
		if tx.Date >= start && tx.Date <= end {
			out = append(out, tx)
		}
	}
	return out
}

// CategoryBreakdown sums amounts per category for one transaction type and
// sizes each category against the group's maximum. An empty result is an
// empty map; there is no division by zero.
func CategoryBreakdown(txns []core.Transaction, typ core.TransactionType) map[string]CategoryStat {
	sums := make(map[string]float64)
	for _, tx := range txns {
		if tx.Type == typ {
			sums[tx.Category] += tx.Amount
		}
	}
	out := make(map[string]CategoryStat, len(sums))
	if len(sums) == 0 {
		return out
	}

	var max float64
	for _, v := range sums {
		if v > max {
			max = v
		}
	}
	for cat, amount := range sums {
		pct := 0.0
		if max > 0 {
			pct = round1(amount / max * 100)
		}
		out[cat] = CategoryStat{Amount: amount, Percentage: pct}
	}
	return out
}

// LenderLoanBalance returns the net amount owed to a lender: loan expenses
// (money borrowed) minus loan incomes (repayments).
func LenderLoanBalance(txns []core.Transaction, lenderName string) float64 {
	var expense, income float64
	for _, tx := range txns {
		if tx.Category != core.LoanCategory || tx.LenderName != lenderName {
			continue
		}
		switch tx.Type {
		case core.Expense:
			expense += tx.Amount
		case core.Income:
			income += tx.Amount
		}
	}
	return expense - income
}

// LoanTransactions lists a lender's loan transactions, newest first.
func LoanTransactions(txns []core.Transaction, lenderName string) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, tx := range txns {
		if tx.Category == core.LoanCategory && tx.LenderName == lenderName {
			out = append(out, tx)
		}
	}
	return sortByDateDesc(out)
}

// RecentTransactions returns the n newest transactions by date. The sort is
// stable: same-day transactions keep their original relative order.
func RecentTransactions(txns []core.Transaction, n int) []core.Transaction {
	out := sortByDateDesc(append([]core.Transaction(nil), txns...))
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sortByDateDesc(txns []core.Transaction) []core.Transaction {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date > txns[j].Date
	})
	return txns
}

func filterFrom(txns []core.Transaction, start core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns))
	for _, tx := range txns {
		if tx.Date >= start {
			out = append(out, tx)
		}
	}
	return out
}

func firstOfMonth(t time.Time) core.Date {
	return core.DateOf(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
