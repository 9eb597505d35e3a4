// internal/server/middleware.go
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/common/metrics"
	"loanbridge/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "authSession"

// statusRecorder captures the status code written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument logs every request and records its metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		if s.obs != nil {
			s.obs.RecordRequest(r.Context(), route, strconv.Itoa(rec.status))
			s.obs.RecordRequestDuration(r.Context(), route, elapsed)
		}

		s.logger.Info("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     route,
			"status":   rec.status,
			"duration": elapsed.String(),
		})
	})
}

// requireAuth resolves the bearer token to a session and stores it on the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.authenticate(r)
		if err != nil {
			s.errs.WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), sessionContextKey, sess),
		))
	})
}

// requireAdmin additionally checks the session role.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.authenticate(r)
		if err != nil {
			s.errs.WriteError(w, r, err)
			return
		}
		if sess.Role != models.RoleAdmin {
			s.errs.WriteError(w, r, errors.NewForbiddenError("admin role required"))
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), sessionContextKey, sess),
		))
	})
}

func (s *Server) authenticate(r *http.Request) (*models.Session, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.NewAuthTokenMissingError()
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return nil, errors.NewAuthTokenInvalidError("malformed Authorization header")
	}
	return s.tokens.Validate(r.Context(), token)
}

// sessionFromContext returns the authenticated session stored by the
// middleware. It panics only if a handler forgot its middleware, which the
// route table makes impossible.
func sessionFromContext(ctx context.Context) *models.Session {
	return ctx.Value(sessionContextKey).(*models.Session)
}
