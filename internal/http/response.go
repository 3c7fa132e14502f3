package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/docstore"
	applog "fintrack/internal/log"
)

const maxBodyBytes = 1 << 20

// httpLog is shared by the server middleware and the response helpers so
// request records and error records come out with the same shape.
var httpLog = applog.NewStructuredLogger(applog.New(applog.DefaultConfig()))

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Encode response failed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldError, err.Error(),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		httpLog.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, applog.OpServe,
			applog.LogFields{applog.FieldPath: r.URL.Path})
	}
	writeJSON(w, r, status, errorResponse{
		Error:     err.Error(),
		RequestID: applog.RequestIDFromContext(r.Context()),
	})
}

// writeServiceError maps domain sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, docstore.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, core.ErrDuplicateEntity),
		errors.Is(err, core.ErrCashAccountUndeletable),
		errors.Is(err, core.ErrEntityInUse):
		writeError(w, r, http.StatusConflict, err)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidRecurrenceKind),
		errors.Is(err, core.ErrInvalidEntity),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyAccountName),
		errors.Is(err, core.ErrEmptyLenderName):
		writeError(w, r, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, r, http.StatusInternalServerError, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// pathUID returns the sanitized user ID from the request path.
func pathUID(r *http.Request) (string, error) {
	uid := sanitizeInput(r.PathValue("uid"))
	if uid == "" {
		return "", fmt.Errorf("missing user id")
	}
	return uid, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
