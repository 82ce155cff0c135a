package route

import (
	"net/http"

	"motiontracker/internal/handler"
	"motiontracker/internal/logger"
	"motiontracker/internal/middleware"
	"motiontracker/internal/service"
	"motiontracker/internal/service/render"

	"github.com/gorilla/mux"
)

// SetupRoutes registers the API endpoints and wraps the router with request logging.
func SetupRoutes(manager *service.Manager, renderer *render.Renderer, logger *logger.Logger) http.Handler {
	router := mux.NewRouter()

	// Trajectory endpoints
	router.HandleFunc("/coordinates", handler.GetCoordinatesHandler(manager, logger)).Methods(http.MethodGet)
	router.HandleFunc("/coordinates/latest", handler.GetLatestCoordinatesHandler(manager)).Methods(http.MethodGet)
	router.HandleFunc("/trajectory.png", handler.TrajectoryPlotHandler(manager, renderer, logger)).Methods(http.MethodGet)
	router.HandleFunc("/stats", handler.StatsHandler(manager)).Methods(http.MethodGet)

	// Live viewers
	router.HandleFunc("/ws", handler.ViewWebsocketHandler(manager, logger)).Methods(http.MethodGet)

	// Log endpoints
	router.HandleFunc("/logs/{level}", handler.ShowLogsHandler(logger)).Methods(http.MethodGet)
	router.HandleFunc("/logs/{level}/clear", handler.ClearLogsHandler(logger)).Methods(http.MethodPost)

	router.Use(middleware.LoggingMiddleware(logger))
	return router
}
