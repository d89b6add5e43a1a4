package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gemba-cloud/gembot/internal/domain"
)

// errorCode identifies an error class in API responses.
type errorCode string

const (
	codeBadRequest          errorCode = "bad_request"
	codeValidationFailed    errorCode = "validation_failed"
	codeEmptyDocument       errorCode = "empty_document"
	codeEmptyQuestion       errorCode = "empty_question"
	codeAlreadyIngested     errorCode = "already_ingested"
	codeDuplicateChunk      errorCode = "duplicate_chunk"
	codeDimensionMismatch   errorCode = "dimension_mismatch"
	codeIndexNotReady       errorCode = "index_not_ready"
	codeProviderUnavailable errorCode = "provider_unavailable"
	codeProviderRejected    errorCode = "provider_rejected"
	codeProviderQuota       errorCode = "provider_quota_exceeded"
	codeUnauthorized        errorCode = "unauthorized"
	codeInternalError       errorCode = "internal_error"
)

// errorResponse is the JSON error body for every non-2xx response.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidChunking,
		domain.ErrEmptyDocument,
		domain.ErrEmptyQuestion,
		domain.ErrAlreadyIngested,
		domain.ErrDuplicateChunk,
		domain.ErrDimensionMismatch,
		domain.ErrIndexNotReady,
		domain.ErrProviderUnavailable,
		domain.ErrProviderRejected,
		domain.ErrProviderQuota,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
