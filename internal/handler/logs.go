package handler

import (
	"net/http"
	"os"

	"motiontracker/internal/logger"

	"github.com/gorilla/mux"
)

// ShowLogsHandler serves the log file of the {level} route variable as text/plain.
func ShowLogsHandler(l *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, err := logger.ParseLevel(mux.Vars(r)["level"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		serveLogFile(w, r, l.Path(level))
	}
}

// ClearLogsHandler truncates the log file of the {level} route variable.
func ClearLogsHandler(l *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level, err := logger.ParseLevel(mux.Vars(r)["level"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err := l.Clean(level); err != nil {
			l.Error("Failed to clear %s log: %v", level, err)
			http.Error(w, "Failed to clear log", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// serveLogFile is a helper that sets headers and serves a log file if it exists.
func serveLogFile(w http.ResponseWriter, r *http.Request, filePath string) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filePath)
}
