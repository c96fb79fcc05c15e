package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
}

// writeEnvelope writes data and an optional error in the standard envelope.
func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, data interface{}, apiErr *APIError, meta *ResponseMeta) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Timestamp = time.Now().UTC()
	meta.Version = "v1"

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Error:     apiErr,
		Meta:      meta,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// writeJSON writes a successful JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, data, nil, nil)
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, nil, &APIError{Code: code, Message: message}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// statusForError maps a domain error kind to an HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case shared.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsIllegalState(err):
		return http.StatusConflict, "illegal_state"
	case shared.IsFeedbackRejected(err):
		return http.StatusUnprocessableEntity, "feedback_rejected"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError writes err using the domain error mapping. Unclassified
// errors are logged and hidden from the client.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", logger.Operation(op), zap.Error(err))
		writeJSONError(w, r, status, code, "Internal server error")
		return
	}

	// The innermost domain message is the one meant for users.
	msg := err.Error()
	var de *shared.DomainError
	for errors.As(err, &de) {
		msg = de.Message
		if de.Err == nil {
			break
		}
		err = de.Err
	}
	writeJSONError(w, r, status, code, msg)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeJSON reads the request body into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.NewDomainError("http", "Decode", shared.ErrInvalidInput, "request body is required")
		}
		return shared.WrapError("http", "Decode", shared.ErrInvalidInput, "malformed JSON body", err)
	}
	return nil
}

// parseTime parses an RFC 3339 instant.
func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, shared.NewDomainError("http", "ParseTime", shared.ErrInvalidInput,
			fmt.Sprintf("%s must be an RFC 3339 timestamp", field))
	}
	return t, nil
}

// queryBool reads a boolean query parameter.
func queryBool(r *http.Request, key string) bool {
	value := strings.ToLower(r.URL.Query().Get(key))
	return value == "true" || value == "1" || value == "yes"
}

// notConfigured answers for routes whose handler was not wired.
func notConfigured(w http.ResponseWriter, r *http.Request, name string) {
	writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", name+" is not configured")
}
