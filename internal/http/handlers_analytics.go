package http

import (
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Bounds wide enough to cover every well-formed date.
const (
	minDate = core.Date("0000-01-01")
	maxDate = core.Date("9999-12-31")
)

type summaryResponse struct {
	Window string        `json:"window,omitempty"`
	Totals ledger.Totals `json:"totals"`
	Count  int           `json:"count"`
}

type loanSummary struct {
	LenderName string  `json:"lenderName"`
	Balance    float64 `json:"balance"`
}

// filterByQuery applies the window or custom start/end query parameters.
// No parameters means no filtering.
func filterByQuery(r *http.Request, txns []core.Transaction) ([]core.Transaction, string, error) {
	q := r.URL.Query()
	window := q.Get("window")

	switch ledger.Window(window) {
	case ledger.Last7Days, ledger.Last30Days, ledger.ThisMonth, ledger.LastMonth:
		return ledger.FilterByWindow(txns, ledger.Window(window), time.Now()), window, nil
	}

	if window == "custom" {
		start, err := core.ParseDate(q.Get("start"))
		if err != nil {
			return nil, "", fmt.Errorf("invalid start date %q: %w", q.Get("start"), err)
		}
		end, err := core.ParseDate(q.Get("end"))
		if err != nil {
			return nil, "", fmt.Errorf("invalid end date %q: %w", q.Get("end"), err)
		}
		if end < start {
			return nil, "", fmt.Errorf("end date before start date")
		}
		return ledger.FilterByRange(txns, start, end), window, nil
	}

	if window != "" {
		return nil, "", fmt.Errorf("invalid window %q", window)
	}
	return txns, "", nil
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	txns, err := s.allTransactions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filtered, window, err := filterByQuery(r, txns)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, r, http.StatusOK, summaryResponse{
		Window: window,
		Totals: ledger.TotalsForPeriod(filtered, minDate, maxDate),
		Count:  len(filtered),
	})
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = core.Expense
	}
	if err := typ.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	txns, err := s.allTransactions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filtered, _, err := filterByQuery(r, txns)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ledger.CategoryBreakdown(filtered, typ))
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	lenders, err := s.categories.ListLenders(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	txns, err := s.allTransactions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	summaries := make([]loanSummary, 0, len(lenders))
	for _, lender := range lenders {
		summaries = append(summaries, loanSummary{
			LenderName: lender,
			Balance:    ledger.LenderLoanBalance(txns, lender),
		})
	}

	writeJSON(w, r, http.StatusOK, summaries)
}

func (s *Server) handleLoanTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	lender := sanitizeInput(r.PathValue("lender"))
	if lender == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("missing lender name"))
		return
	}

	txns, err := s.allTransactions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ledger.LoanTransactions(txns, lender))
}
