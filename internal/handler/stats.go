package handler

import (
	"net/http"

	"motiontracker/internal/service"
)

type statsResponse struct {
	Cycles     uint64 `json:"cycles"`
	Found      uint64 `json:"found"`
	NotFound   uint64 `json:"not_found"`
	EmptyPulls uint64 `json:"empty_pulls"`
	Points     int    `json:"points"`
	Viewers    int    `json:"viewers"`
}

// StatsHandler reports pipeline counters with the trajectory and viewer counts.
func StatsHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := manager.Stats()
		resp := statsResponse{
			Cycles:     stats.Cycles,
			Found:      stats.Found,
			NotFound:   stats.NotFound,
			EmptyPulls: stats.EmptyPulls,
			Points:     manager.Snapshot().Len(),
		}
		if hub := manager.GetWebsocketService(); hub != nil {
			resp.Viewers = hub.GetClientCount()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
