package handlers

import "net/http"

// HealthzHandler handles GET /healthz for liveness probes.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
