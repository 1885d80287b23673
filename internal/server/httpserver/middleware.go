package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const accountKey ctxKey = "account"

// AccountFromContext returns the account attached by requireIdentity.
func AccountFromContext(ctx context.Context) (*accounts.Account, bool) {
	a, ok := ctx.Value(accountKey).(*accounts.Account)
	return a, ok && a != nil
}

// bearerToken extracts the token from "Authorization: Bearer <t>".
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, common.TokenTypeBearer) {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireIdentity resolves the bearer token to an active account.
func (s *HTTPServer) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.metrics.ObserveIdentity("http", common.ErrorUnauthorized)
			unauthenticated(w)
			return
		}

		account, err := s.svc.ResolveIdentity(r.Context(), token)
		s.metrics.ObserveIdentity("http", err)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrorUnauthorized):
				unauthenticated(w)
			case errors.Is(err, common.ErrorInactiveAccount):
				writeError(w, http.StatusBadRequest, msgInactiveUser)
			default:
				writeError(w, http.StatusInternalServerError, msgInternal)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, account)))
	})
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msgCouldNotValidate)
}

// instrument records per-route metrics and logs every request.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.ObserveHTTP(r.Method, route, status, elapsed)
		s.logger.Debug(r.Context(), "request handled",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
