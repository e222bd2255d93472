// Package response provides the JSON envelope all API handlers use.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard response wrapper.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError carries a machine-readable code, a human message and, for
// validation failures, per-field details.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta carries pagination metadata for list responses.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta builds pagination metadata from the request page parameters
// and the total row count.
func NewMeta(page, perPage, total int) *Meta {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return &Meta{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// JSON sends a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: status < 400, Data: data})
}

// JSONWithMeta sends a success envelope with pagination metadata.
func JSONWithMeta(w http.ResponseWriter, status int, data any, meta *Meta) {
	write(w, status, Envelope{Success: status < 400, Data: data, Meta: meta})
}

// Error sends an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Error: &APIError{Code: code, Message: message}})
}

// ValidationFailed sends a 400 with per-field validation messages.
func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusBadRequest, Envelope{Error: &APIError{
		Code:    "VALIDATION_FAILED",
		Message: "request validation failed",
		Fields:  fields,
	}})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, "CONFLICT", message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, "FORBIDDEN", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
