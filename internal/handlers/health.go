package handlers

import (
	"net/http"

	"bookchat-backend/internal/models"
)

// Health is a pure liveness probe; it never touches external services.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}
