package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"motiontracker/internal/logger"
	"motiontracker/internal/service"
	"motiontracker/internal/service/render"
)

// TrajectoryPlotHandler renders the in-memory trajectory as a PNG.
func TrajectoryPlotHandler(manager *service.Manager, renderer *render.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := renderer.WritePNG(&buf, manager.Snapshot()); err != nil {
			logger.Error("Failed to render trajectory: %v", err)
			http.Error(w, "Failed to render trajectory", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(buf.Bytes())
	}
}
