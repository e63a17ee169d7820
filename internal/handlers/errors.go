package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"

	"finlearn/internal/logger"
	"finlearn/internal/service"
	"finlearn/internal/validation"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
	Detail string              `json:"detail,omitempty"`
	Stack  string              `json:"stack,omitempty"`
}

// Responder writes JSON responses and maps errors to status codes
type Responder struct {
	log         *logger.Logger
	development bool
}

// NewResponder creates a responder. In development 500 responses carry the
// error detail and a stack trace.
func NewResponder(log *logger.Logger, development bool) *Responder {
	if log == nil {
		log = logger.Nop()
	}
	return &Responder{log: log, development: development}
}

// JSON writes v with status
func (rs *Responder) JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.log.Warn("failed to encode response", "error", err)
	}
}

// Message writes {"message": msg}
func (rs *Responder) Message(w http.ResponseWriter, status int, msg string) {
	rs.JSON(w, status, map[string]string{"message": msg})
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: userMsg})
}

// Error maps err onto the error taxonomy and writes the response
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := validation.AsErrors(err); ok {
		rs.JSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: ve})
		return
	}

	status, msg := statusFor(err)
	if status != http.StatusInternalServerError {
		rs.JSON(w, status, errorBody{Error: msg})
		return
	}

	rs.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	body := errorBody{Error: "internal server error"}
	if rs.development {
		body.Detail = err.Error()
		body.Stack = string(debug.Stack())
	}
	rs.JSON(w, http.StatusInternalServerError, body)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrLessonNotFound):
		return http.StatusNotFound, "lesson not found"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrEmailNotVerified):
		return http.StatusForbidden, service.ErrEmailNotVerified.Error()
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, service.ErrEmailTaken.Error()
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusBadRequest, service.ErrInvalidToken.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decodeJSON reads a JSON request body into dst. Malformed bodies become a
// validation error so they are answered with 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.New("body", "request body is required")
		}
		return validation.New("body", "must be valid JSON")
	}
	return nil
}
