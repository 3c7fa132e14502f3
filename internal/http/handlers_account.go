package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

type addAccountRequest struct {
	AccountName    string  `json:"accountName"`
	BankName       string  `json:"bankName"`
	AccountType    string  `json:"accountType"`
	CreateDate     string  `json:"createDate"`
	InitialBalance float64 `json:"initialBalance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	accounts, err := s.accounts.ListAccounts(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, accounts)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var req addAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	acct, err := s.accounts.AddAccount(r.Context(), uid, core.BankAccount{
		AccountName:    sanitizeInput(req.AccountName),
		BankName:       sanitizeInput(req.BankName),
		AccountType:    sanitizeInput(req.AccountType),
		CreateDate:     core.Date(req.CreateDate),
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, acct)
}

func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	name := sanitizeInput(r.PathValue("name"))
	if name == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("missing account name"))
		return
	}

	if err := s.accounts.RemoveAccount(r.Context(), uid, name); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
