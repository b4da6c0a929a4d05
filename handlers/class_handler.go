package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/island-troll-tribes/stats-service/services"
)

type ClassHandler struct {
	classService services.ClassService
}

func NewClassHandler(cs services.ClassService) *ClassHandler {
	return &ClassHandler{classService: cs}
}

// ListHandler handles GET /api/classes.
func (h *ClassHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var category *string
	if c := r.URL.Query().Get("category"); c != "" {
		category = &c
	}

	stats, err := h.classService.ListClassStats(r.Context(), category)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"classes": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler handles GET /api/classes/{className}.
func (h *ClassHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	className := chi.URLParam(r, "className")
	if className == "" {
		badRequestResponse(w, r, errors.New("missing class name"))
		return
	}

	var category *string
	if c := r.URL.Query().Get("category"); c != "" {
		category = &c
	}

	stat, err := h.classService.GetClassStats(r.Context(), className, category)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"class": stat}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
