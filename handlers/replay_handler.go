package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/island-troll-tribes/stats-service/services"
)

// Replay files rarely exceed a few megabytes; 32MB leaves generous headroom.
const maxReplaySize = 32 << 20

type ReplayHandler struct {
	replayService services.ReplayService
}

func NewReplayHandler(rs services.ReplayService) *ReplayHandler {
	return &ReplayHandler{replayService: rs}
}

// UploadHandler handles POST /api/games/{id}/replay. The replay file is
// expected as the multipart form field "replay".
func (h *ReplayHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		badRequestResponse(w, r, errors.New("missing game id"))
		return
	}

	if err := r.ParseMultipartForm(maxReplaySize); err != nil {
		badRequestResponse(w, r, errors.New("request must be multipart form data with a replay file"))
		return
	}

	file, header, err := r.FormFile("replay")
	if err != nil {
		badRequestResponse(w, r, errors.New("missing replay form file"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.replayService.UploadReplay(r.Context(), id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"replay_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler handles GET /api/games/{id}/replay.
func (h *ReplayHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		badRequestResponse(w, r, errors.New("missing game id"))
		return
	}

	url, err := h.replayService.GetReplayURL(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"replay_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
