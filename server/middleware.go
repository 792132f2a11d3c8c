package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tulinowpavel/ticketgate/logger"
)

func cors(next http.Handler, allowOrigin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// trace tags the request context with the caller's X-Request-ID or a fresh uuid.
func trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(HeaderRequestID)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, traceID)
		next.ServeHTTP(w, r.WithContext(logger.WithTraceID(r.Context(), traceID)))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			slog.ErrorContext(r.Context(), "gateway api key is not configured")
			writeJSON(r.Context(), w, http.StatusInternalServerError,
				map[string]string{"detail": "API key is not configured"})
			return
		}

		key := r.Header.Get(HeaderAPIKey)
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			slog.WarnContext(r.Context(), "rejected request with invalid api key",
				slog.String("remote", r.RemoteAddr),
				slog.String("path", r.URL.Path),
			)
			writeJSON(r.Context(), w, http.StatusUnauthorized, map[string]string{"detail": "Invalid API Key"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.corsOrigin == "*" {
		return true
	}

	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.corsOrigin
}
