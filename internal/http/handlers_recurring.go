package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

type setRecurringStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	templates, err := s.recurring.ListRecurring(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, templates)
}

func (s *Server) handleSetRecurringStatus(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("missing recurring transaction id"))
		return
	}

	var req setRecurringStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	// Only pause and resume are client operations. The ended status is
	// reached when a template passes its end date and is never set by hand.
	status := core.RecurringStatus(req.Status)
	if status != core.StatusActive && status != core.StatusPaused {
		writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("invalid status %q", req.Status))
		return
	}

	if err := s.recurring.SetStatus(r.Context(), uid, id, status); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": string(status)})
}
