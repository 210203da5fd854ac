// Package httpkit provides the shared HTTP response envelope, request-id
// correlation, and logging/recovery middleware used by both the
// export-service and gateway-service HTTP surfaces.
package httpkit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/maktaba/corpus/internal/apperr"
)

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored on ctx, or "" if absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// errorBody is the JSON shape every failed response carries.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"kind"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// JSON writes payload as a status-coded JSON response.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Error renders err as the standard error envelope, deriving status and
// kind from apperr.As.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.As(err)
	JSON(w, ae.HTTPStatus, errorBody{
		Error:     ae.Message,
		Code:      ae.Kind,
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RequestIDMiddleware assigns (or propagates) an x-request-id header and
// stores it in the request context for downstream logging.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("x-request-id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("x-request-id", id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// LoggingMiddleware logs method, path, status, and duration for every
// request at Info level, with the request id attached for correlation.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestID(r.Context()),
			)
		})
	}
}

// RecoverMiddleware converts a panic in a handler into a 500 AppError
// response instead of crashing the process.
func RecoverMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", "panic", rec, "stack", string(debug.Stack()))
					Error(w, r, apperr.Internal(nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Chain composes middleware in application order: Chain(h, A, B) runs
// A(B(h)).
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
