package middleware

import (
	"net/http"
	"strings"

	"github.com/menezmethod/macrofx/internal/nominal"
)

// Header names read by the middleware in this package.
const (
	HeaderAPIKey         = "X-Api-Key"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRoles          = "X-Roles"
	HeaderRequestID      = "X-Request-ID"
)

// APIKeyFromRequest parses the X-Api-Key header. It reports false when the
// header is missing or not a valid key.
func APIKeyFromRequest(r *http.Request) (nominal.APIKey, bool) {
	k, err := nominal.NewAPIKey(strings.TrimSpace(r.Header.Get(HeaderAPIKey)))
	if err != nil {
		return "", false
	}
	return k, true
}

// IdempotencyKeyFromRequest parses the Idempotency-Key header.
func IdempotencyKeyFromRequest(r *http.Request) (nominal.IdempotencyKey, bool) {
	k, err := nominal.NewIdempotencyKey(strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)))
	if err != nil {
		return "", false
	}
	return k, true
}
