package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/island-troll-tribes/stats-service/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// GetHandler handles GET /api/standings.
// Supported query parameters: category, minGames, page, limit.
func (h *StandingsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	var filter services.StandingsFilter
	query := r.URL.Query()

	if category := query.Get("category"); category != "" {
		filter.Category = &category
	}
	if minGamesStr := query.Get("minGames"); minGamesStr != "" {
		minGames, err := strconv.Atoi(minGamesStr)
		if err != nil || minGames < 0 {
			badRequestResponse(w, r, errors.New("invalid minGames query parameter"))
			return
		}
		filter.MinGames = minGames
	}
	if pageStr := query.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid page query parameter"))
			return
		}
		filter.Page = page
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
		filter.Limit = limit
	}

	page, err := h.standingsService.GetStandings(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": page}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
