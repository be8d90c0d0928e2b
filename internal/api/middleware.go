package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	issuerContextKey    contextKey = "issuer"
	requestIDContextKey contextKey = "request-id"
)

// requireIssuer authenticates the request with a configured bearer token
// and threads the mapped issuer identity through the context. The issuer
// is never taken from the request body.
func (s *Server) requireIssuer(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondJSON(w, http.StatusUnauthorized, errorResponse{
				Error:   "unauthorized",
				Message: "missing bearer token",
			})
			return
		}

		issuer, ok := s.issuers[token]
		if !ok {
			respondJSON(w, http.StatusUnauthorized, errorResponse{
				Error:   "unauthorized",
				Message: "unknown bearer token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), issuerContextKey, issuer)
		next(w, r.WithContext(ctx))
	})
}

func issuerFrom(ctx context.Context) string {
	issuer, _ := ctx.Value(issuerContextKey).(string)
	return issuer
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// requestID tags every request with an ID, honoring one supplied by a
// proxy.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", requestIDFrom(r.Context())),
		)
	})
}
