package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/seismostack/hazview/internal/auth"
)

type contextKey string

const (
	tokenKey contextKey = "hazview.token"
	permsKey contextKey = "hazview.permissions"
)

// sessionToken returns the bearer token the middleware attached.
func sessionToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// sessionPerms returns the permission set the middleware attached.
func sessionPerms(ctx context.Context) auth.Set {
	perms, _ := ctx.Value(permsKey).(auth.Set)
	return perms
}

// middleware authenticates every request and logs it. The bearer token is
// never inspected, only passed through to the core API; permission keys come
// from the fronting gateway's header.
func (h *Handlers) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		perms := auth.ParseList(r.Header.Get(h.permissionsHeader))

		ctx := context.WithValue(r.Context(), tokenKey, token)
		ctx = context.WithValue(ctx, permsKey, perms)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(ctx))

		h.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", recorder.status),
			slog.Duration("duration", time.Since(start)))
	})
}

// requirePerm gates a handler on one permission key.
func (h *Handlers) requirePerm(key string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !sessionPerms(r.Context()).Has(key) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
