// Package apperr defines the error taxonomy shared by every HTTP-facing
// component of the export and retrieval core.
//
// Every error that crosses a service boundary (HTTP handler, job result,
// dead-letter entry) should be an *AppError so that logging, client
// responses, and dead-letter records stay consistent. Construct one
// with the matching helper for its kind rather than building the struct
// directly.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type surfaced across HTTP boundaries.
type AppError struct {
	// Kind is one of the taxonomy kinds below (validation, not_found, ...).
	Kind string `json:"kind"`
	// Message is safe to return to a client.
	Message string `json:"error"`
	// HTTPStatus is the status code the gateway/export server responds with.
	HTTPStatus int `json:"-"`
	// Cause is the wrapped underlying error, logged but never serialized.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Taxonomy kinds.
const (
	KindValidation         = "validation"
	KindNotFound           = "not_found"
	KindUpstreamUnavail    = "upstream_unavailable"
	KindUpstreamTransient  = "upstream_transient"
	KindUpstreamPermanent  = "upstream_permanent"
	KindIntegrity          = "integrity"
	KindStorage            = "storage"
	KindInternal           = "internal"
	KindTimeout            = "timeout"
)

// Validation builds a 400 for malformed input.
func Validation(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg, HTTPStatus: http.StatusBadRequest}
}

// Validationf is Validation with fmt formatting.
func Validationf(format string, args ...any) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound builds a 404 for a missing resource, e.g. NotFound("book", 42).
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("%s not found: %v", resource, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// UpstreamUnavailable builds a 503 for a collaborator that is down or
// unreachable at startup (e.g. extractor binary missing, vector store
// unreachable).
func UpstreamUnavailable(msg string, cause error) *AppError {
	return &AppError{Kind: KindUpstreamUnavail, Message: msg, HTTPStatus: http.StatusServiceUnavailable, Cause: cause}
}

// UpstreamTransient wraps a retryable upstream failure that has exhausted
// its retries. Synchronous flows surface this as 500; export flows record
// it on the book result and append a DLQ entry instead of translating it
// to an HTTP status.
func UpstreamTransient(msg string, cause error) *AppError {
	return &AppError{Kind: KindUpstreamTransient, Message: msg, HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// UpstreamPermanent builds an error for a non-retryable upstream failure
// (extractor non-zero exit, zero content pages, zero chunks produced).
func UpstreamPermanent(msg string, cause error) *AppError {
	return &AppError{Kind: KindUpstreamPermanent, Message: msg, HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// Integrity builds a 400 describing a length-matching mismatch between
// chunk-side and page-side totals.
func Integrity(chunkTotal, pageTotal int) *AppError {
	return &AppError{
		Kind:       KindIntegrity,
		Message:    fmt.Sprintf("chunk/page length mismatch: chunks=%d pages=%d", chunkTotal, pageTotal),
		HTTPStatus: http.StatusBadRequest,
	}
}

// Storage builds an error for a failed write to S3/relational/vector
// stores mid-export. The next export attempt's delete-then-recreate step
// re-establishes consistency; this is surfaced as the export failure.
func Storage(msg string, cause error) *AppError {
	return &AppError{Kind: KindStorage, Message: msg, HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// Timeout builds a 504 for a stage that exceeded its configured
// deadline (e.g. the gateway's per-stage timeouts). Upstream HTTP
// status codes otherwise bubble up unchanged; only a timeout is
// translated at this boundary.
func Timeout(msg string, cause error) *AppError {
	return &AppError{Kind: KindTimeout, Message: msg, HTTPStatus: http.StatusGatewayTimeout, Cause: cause}
}

// Internal wraps an unexpected error as a 500, message hidden from the
// client body (only the kind and a generic message are returned).
func Internal(cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal error", HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// As extracts an *AppError from err, or synthesizes an Internal one.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
