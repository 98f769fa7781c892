package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/roach88/pointecon/internal/engine"
)

// Response is the JSON envelope for every reply.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError is the error structure of a failed reply.
type ResponseError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Codes used by the transport itself, in addition to engine codes.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternal        = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Status: "ok", Data: data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Status: "error", Error: &ResponseError{Code: code, Message: message}})
}

// writeError maps engine errors to HTTP statuses. Anything that is not an
// engine error is logged and reported as 500 without its text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *engine.Error
	if !errors.As(err, &e) {
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeFailure(w, http.StatusInternalServerError, CodeInternal, "internal error")
		return
	}
	writeJSON(w, StatusFor(e.Code), Response{
		Status: "error",
		Error: &ResponseError{
			Code:      string(e.Code),
			Message:   e.Message,
			RequestID: e.RequestID,
			Details:   e.Details,
		},
	})
}

// StatusFor returns the HTTP status for an engine error code.
func StatusFor(code engine.ErrorCode) int {
	switch code {
	case engine.CodeInvalidAmount, engine.CodeInvalidRate, engine.CodeSelfTransfer,
		engine.CodeSameCurrency, engine.CodeInvalidArgument:
		return http.StatusBadRequest
	case engine.CodeInsufficientFunds, engine.CodeInvalidState, engine.CodeNoSubmissions:
		return http.StatusConflict
	case engine.CodeForbidden:
		return http.StatusForbidden
	case engine.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into v, rejecting unknown fields.
// On failure it writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// discardLogger is the default when no logger is configured.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
