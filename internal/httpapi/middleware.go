package httpapi

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// requireAPIKey enforces the shared-secret check of spec §7: requests
// without a matching X-Api-Key header are rejected with 401 before
// reaching the handler. An empty configured key disables the check,
// which is the local-dev default.
func requireAPIKey(expected string, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Api-Key") != expected {
				log.WithField("path", r.URL.Path).Warn("rejected request with missing/invalid x-api-key")
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "missing or invalid x-api-key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog logs method, path, status, and latency for every request, the
// teacher's doServeHTTPJSON style of logging failures generalized to every
// request (go/ingest/http_api.go).
func accessLog(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": time.Since(start).String(),
			}).Info("handled request")
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
