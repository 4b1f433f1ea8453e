// Package httputil centralizes JSON encoding and domain error translation for HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "eldcore/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error envelope.
// Infrastructure and internal failures omit the description so callers only see a
// generic retry signal; validation failures name the rule that was violated.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)
	body := map[string]string{"error": string(code)}

	switch {
	case dErrors.Retryable(err):
		w.Header().Set("Retry-After", "1")
		body["error_description"] = "temporarily unavailable, try again"
	case status < http.StatusInternalServerError:
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, status, body)
}

// StatusFor maps a domain code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest, dErrors.CodeValidation,
		dErrors.CodeInvalidWindow, dErrors.CodeUnsortedInput:
		return http.StatusBadRequest
	case dErrors.CodeOutOfOrderEvent, dErrors.CodeRedundantStatus,
		dErrors.CodeDuplicateSequence, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodePersistence, dErrors.CodeStorageUnavailable, dErrors.CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a bounded JSON body into T, writing a 400 and returning false on failure.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "invalid request body", "path", r.URL.Path, "error", err)
		}
		msg := "invalid JSON body"
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			msg = "malformed JSON body"
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, msg))
		return nil, false
	}
	return &v, true
}
