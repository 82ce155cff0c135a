package middleware

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"motiontracker/internal/logger"

	"github.com/pkg/errors"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// LoggingMiddleware logs method, path, status and duration of every request.
// Server errors go to the error log, client errors to the warning log.
func LoggingMiddleware(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			switch {
			case rec.status >= 500:
				l.Error("%s %s %d %v", r.Method, r.URL.Path, rec.status, elapsed)
			case rec.status >= 400:
				l.Warning("%s %s %d %v", r.Method, r.URL.Path, rec.status, elapsed)
			default:
				l.Info("%s %s %d %v", r.Method, r.URL.Path, rec.status, elapsed)
			}
		})
	}
}
