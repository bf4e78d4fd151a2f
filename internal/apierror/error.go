// Package apierror provides the JSON error envelope returned by every route.
//
// Bodies carry a fixed, human-readable message and a machine-readable type.
// Upstream error detail is logged by the caller and never copied into a body.
package apierror

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Type constants classify the failure.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeAuthentication = "authentication_error"
	TypePermission     = "permission_error"
	TypeNotFound       = "not_found_error"
	TypeConflict       = "conflict_error"
	TypeRateLimit      = "rate_limit_error"
	TypeUpstream       = "upstream_error"
	TypeTimeout        = "timeout_error"
	TypeServer         = "server_error"
)

// Error is an API error with its HTTP status.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// response wraps an Error in the envelope format.
type response struct {
	Error *Error `json:"error"`
}

// Write sends an Error as a JSON HTTP response.
func Write(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)

	if encErr := json.NewEncoder(w).Encode(response{Error: err}); encErr != nil {
		slog.Error("failed to encode error response", "err", encErr)
	}
}

// InvalidRequest returns a 400 error for malformed requests.
func InvalidRequest(msg string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: msg,
		Type:    TypeInvalidRequest,
	}
}

// InvalidParam returns a 400 error for a specific invalid parameter.
func InvalidParam(param, msg string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: msg,
		Type:    TypeInvalidRequest,
		Param:   param,
	}
}

// Unauthorized returns a 401 error for authentication failures.
func Unauthorized() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Message: "Unauthorized",
		Type:    TypeAuthentication,
		Code:    "invalid_api_key",
	}
}

// Forbidden returns a 403 error when the caller lacks a required role.
func Forbidden() *Error {
	return &Error{
		Status:  http.StatusForbidden,
		Message: "Forbidden",
		Type:    TypePermission,
		Code:    "missing_role",
	}
}

// NotFound returns a 404 error for unrouted requests.
func NotFound() *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Message: "Not Found",
		Type:    TypeNotFound,
	}
}

// Duplicate returns a 409 error for a replayed idempotency key.
func Duplicate() *Error {
	return &Error{
		Status:  http.StatusConflict,
		Message: "Duplicate",
		Type:    TypeConflict,
		Code:    "duplicate_request",
	}
}

// RateLimited returns a 429 error when rate limits are exceeded.
func RateLimited() *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Message: "Too Many Requests",
		Type:    TypeRateLimit,
		Code:    "rate_limit_exceeded",
	}
}

// UpstreamFailed returns a 502 error when a remote dependency fails.
func UpstreamFailed() *Error {
	return &Error{
		Status:  http.StatusBadGateway,
		Message: "Upstream request failed.",
		Type:    TypeUpstream,
		Code:    "upstream_failed",
	}
}

// UpstreamTimeout returns a 504 error when a remote dependency is too slow.
func UpstreamTimeout() *Error {
	return &Error{
		Status:  http.StatusGatewayTimeout,
		Message: "Upstream request timed out.",
		Type:    TypeTimeout,
		Code:    "upstream_timeout",
	}
}

// Internal returns a 500 error for unexpected server failures.
func Internal(msg string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: msg,
		Type:    TypeServer,
	}
}
