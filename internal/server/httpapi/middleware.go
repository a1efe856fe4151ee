package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/logging"
	"github.com/Naimehossein77/gym-nfc/internal/server/auth"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the authenticated staff claims, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return c, ok
}

// Authenticator verifies the bearer token and stores its claims in the
// request context. Missing or invalid tokens end the request with 401.
func Authenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				writeError(w, common.ErrorUnauthorized)
				return
			}
			claims, err := auth.ParseToken(token, secret)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff ends the request with 401 unless the authenticated account
// holds the staff or admin role.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || (claims.Role != models.RoleStaff && claims.Role != models.RoleAdmin) {
			writeError(w, common.ErrorUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request with method, path, status, and
// duration.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
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
