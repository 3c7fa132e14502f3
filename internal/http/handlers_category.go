package http

import (
	"net/http"

	"fintrack/internal/core"
)

type addCategoryRequest struct {
	Category string `json:"category"`
	Type     string `json:"type"`
}

type addLenderRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	// An empty type filter lists categories of both types.
	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ != "" {
		if err := typ.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	cats, err := s.categories.ListCategories(r.Context(), uid, typ)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, cats)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var req addCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	cat, err := s.categories.AddCategory(r.Context(), uid, core.Category{
		Category: sanitizeInput(req.Category),
		Type:     core.TransactionType(req.Type),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, cat)
}

func (s *Server) handleListLenders(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, r, http.StatusOK, lenders)
}

func (s *Server) handleAddLender(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var req addLenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	name := sanitizeInput(req.Name)
	if err := s.categories.AddLender(r.Context(), uid, name); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	// The same name may exist once per type, so the type disambiguates.
	typ := core.TransactionType(r.URL.Query().Get("type"))
	if err := typ.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	err = s.categories.DeleteCategory(r.Context(), uid, core.Category{
		Category: sanitizeInput(r.PathValue("name")),
		Type:     typ,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteLender(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	name := sanitizeInput(r.PathValue("name"))
	if err := s.categories.DeleteLender(r.Context(), uid, name); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
