package handler

import (
	"net/http"

	"motiontracker/internal/logger"
	"motiontracker/internal/repository"
	"motiontracker/internal/service"

	"github.com/pkg/errors"
)

// GetCoordinatesHandler serves the persisted trajectory as {"x": [...], "y": [...]}.
// Before anything has been tracked it answers 404 with an error body.
func GetCoordinatesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coords, err := manager.StoredCoordinates(r.Context())
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No coordinates found")
			return
		}
		if err != nil {
			logger.Error("Failed to read stored coordinates: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to read coordinates")
			return
		}
		writeJSON(w, http.StatusOK, coords)
	}
}

// GetLatestCoordinatesHandler serves the most recent tracked point from memory.
func GetLatestCoordinatesHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		point, ok := manager.Latest()
		if !ok {
			writeError(w, http.StatusNotFound, "No coordinates found")
			return
		}
		writeJSON(w, http.StatusOK, point)
	}
}
