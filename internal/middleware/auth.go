package middleware

import (
	"context"
	"net/http"

	"github.com/menezmethod/macrofx/internal/apierror"
	"github.com/menezmethod/macrofx/internal/auth"
	"github.com/menezmethod/macrofx/internal/nominal"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const apiKeyContextKey contextKey = "api_key"

// Verifier decides whether a request is authenticated.
type Verifier func(r *http.Request) bool

// Auth returns middleware that rejects requests failing verify with 401.
// On success the request's API key, if any, is stored in the context.
func Auth(verify Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !verify(r) {
				apierror.Write(w, apierror.Unauthorized())
				return
			}

			if key, ok := APIKeyFromRequest(r); ok {
				r = r.WithContext(context.WithValue(r.Context(), apiKeyContextKey, key))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyPresent accepts any request carrying a well-formed X-Api-Key.
func APIKeyPresent(r *http.Request) bool {
	_, ok := APIKeyFromRequest(r)
	return ok
}

// KeyStoreVerifier accepts requests whose X-Api-Key is known to ks.
func KeyStoreVerifier(ks *auth.KeyStore) Verifier {
	return func(r *http.Request) bool {
		key, ok := APIKeyFromRequest(r)
		return ok && ks.Validate(string(key)) == nil
	}
}

// APIKeyFromContext retrieves the authenticated API key from the request context.
func APIKeyFromContext(ctx context.Context) nominal.APIKey {
	key, _ := ctx.Value(apiKeyContextKey).(nominal.APIKey)
	return key
}
