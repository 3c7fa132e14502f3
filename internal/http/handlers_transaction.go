package http

import (
	"fmt"
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

type createTransactionRequest struct {
	TransactionID string  `json:"transactionId"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	AccountName   string  `json:"accountName"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	BusinessName  string  `json:"businessName"`
	LenderName    string  `json:"lenderName"`
	IsRecurring   bool    `json:"isRecurring"`
	RecurringType string  `json:"recurringType"`
	EndDate       int64   `json:"endDate"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	in := services.CreateTransactionInput{
		Transaction: core.Transaction{
			TransactionID: sanitizeInput(req.TransactionID),
			Type:          core.TransactionType(req.Type),
			Amount:        req.Amount,
			Category:      sanitizeInput(req.Category),
			AccountName:   sanitizeInput(req.AccountName),
			Date:          core.Date(req.Date),
			Description:   sanitizeInput(req.Description),
			BusinessName:  sanitizeInput(req.BusinessName),
			LenderName:    sanitizeInput(req.LenderName),
			IsRecurring:   req.IsRecurring,
		},
		RecurringType: core.RecurrenceKind(req.RecurringType),
		EndDate:       req.EndDate,
	}

	txn, err := s.transactions.CreateTransaction(r.Context(), uid, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateTransactions(uid)
	s.structured.LogTransactionCreated(r.Context(), txn.TransactionID, string(txn.Type), txn.Category, txn.AccountName)
	writeJSON(w, r, http.StatusCreated, txn)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	income, expense, err := s.transactions.ListTransactions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string][]core.Transaction{
		"income":  income,
		"expense": expense,
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	typ := core.TransactionType(r.PathValue("type"))
	if err := typ.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("missing transaction id"))
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), uid, typ, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateTransactions(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	n := 5
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid count %q", v))
			return
		}
		n = parsed
	}

	txns, err := s.allTransactions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ledger.RecentTransactions(txns, n))
}

func (s *Server) handleListBusinessTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	txns, err := s.transactions.ListBusinessTransactions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, txns)
}
