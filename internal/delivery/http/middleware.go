package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/chronos-watches/storefront/internal/auth"
)

// EnableCORS allows the browser storefront to call the API from another
// origin.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LogRequests logs each request, skipping the noisy health endpoints.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/ready" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// requireAdmin gates a handler behind a valid JWT carrying the admin role.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.GetBearerToken(r)
		if tokenStr == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := h.verifier.ParseToken(tokenStr)
		if err != nil {
			slog.Debug("JWT parse error", "err", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !auth.HasRole(claims.Roles, "admin") {
			http.Error(w, "forbidden - admin role required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
