package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/island-troll-tribes/stats-service/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: ps}
}

// GetStatsHandler handles GET /api/players/{name}.
// Supported query parameters: category, startDate, endDate (RFC 3339 or
// YYYY-MM-DD) and includeGames.
func (h *PlayerHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		badRequestResponse(w, r, errors.New("missing player name"))
		return
	}

	var filter services.PlayerStatsFilter
	query := r.URL.Query()

	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}
	if startStr := query.Get("startDate"); startStr != "" {
		start, err := parseDate(startStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid startDate query parameter"))
			return
		}
		filter.StartDate = &start
	}
	if endStr := query.Get("endDate"); endStr != "" {
		end, err := parseDate(endStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid endDate query parameter"))
			return
		}
		filter.EndDate = &end
	}
	if includeStr := query.Get("includeGames"); includeStr != "" {
		include, err := strconv.ParseBool(includeStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid includeGames query parameter"))
			return
		}
		filter.IncludeGames = include
	}

	stats, err := h.playerService.GetPlayerStats(r.Context(), name, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /api/players.
func (h *PlayerHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
		limit = parsed
	}

	players, err := h.playerService.ListPlayers(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SearchHandler handles GET /api/players/search?q=.
func (h *PlayerHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	players, err := h.playerService.SearchPlayers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CompareHandler handles GET /api/players/compare?names=a,b,c.
func (h *PlayerHandler) CompareHandler(w http.ResponseWriter, r *http.Request) {
	names := strings.Split(r.URL.Query().Get("names"), ",")

	stats, err := h.playerService.ComparePlayers(r.Context(), names)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
