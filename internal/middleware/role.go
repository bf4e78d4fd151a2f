package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/menezmethod/macrofx/internal/apierror"
	"github.com/menezmethod/macrofx/internal/auth"
	"github.com/menezmethod/macrofx/internal/nominal"
)

const userContextKey contextKey = "user"

// User is the caller as seen by role checks.
type User struct {
	ID    nominal.UserID
	Roles []string
}

// HasRole reports whether u holds role.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// UserResolver derives the caller from a request.
type UserResolver func(r *http.Request) (User, bool)

// WithUser stores the resolved user in the request context.
// Requests that resolve to no user pass through unchanged.
func WithUser(resolve UserResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := resolve(r); ok {
				r = r.WithContext(context.WithValue(r.Context(), userContextKey, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey).(User)
	return u, ok
}

// UserFromHeaders trusts the caller: the id is X-Api-Key and roles are the
// comma-separated X-Roles header.
func UserFromHeaders(r *http.Request) (User, bool) {
	key, ok := APIKeyFromRequest(r)
	if !ok {
		return User{}, false
	}
	var roles []string
	for _, role := range strings.Split(r.Header.Get(HeaderRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return User{ID: nominal.UserID(key), Roles: roles}, true
}

// UserFromKeyStore takes roles from ks instead of the request.
func UserFromKeyStore(ks *auth.KeyStore) UserResolver {
	return func(r *http.Request) (User, bool) {
		key, ok := APIKeyFromRequest(r)
		if !ok || ks.Validate(string(key)) != nil {
			return User{}, false
		}
		return User{ID: nominal.UserID(key), Roles: ks.Roles(string(key))}, true
	}
}

// RequireRole answers 403 unless the context user holds role.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok || !u.HasRole(role) {
				apierror.Write(w, apierror.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
