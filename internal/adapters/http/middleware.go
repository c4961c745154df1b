package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/access"
	"github.com/example/feecc/internal/ctxutil"
	"github.com/example/feecc/internal/ports/primary"
)

type contextKey string

const userKey contextKey = "user"

// requireAuth resolves the bearer token and checks the caller holds capability c.
// The authenticated user becomes the actor of every status change in the request.
func (h *Handler) requireAuth(c access.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				h.writeError(w, r, apperr.Unauthorized("missing bearer token"))
				return
			}
			user, err := h.svc.Auth.Authenticate(r.Context(), token)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			if err := access.CanAct(user.Username, user.RuleSet, c).Error(); err != nil {
				h.writeError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = ctxutil.WithActor(ctx, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func currentUser(ctx context.Context) *primary.User {
	user, _ := ctx.Value(userKey).(*primary.User)
	return user
}

// accessLog writes one log line per request and feeds the request metrics.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		h.metrics.ObserveRequest(r.Method, route, status, elapsed)
		h.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
