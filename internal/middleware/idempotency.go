package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/menezmethod/macrofx/internal/apierror"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/nominal"
)

// KeyFunc extracts an idempotency key. ok is false when the request has none.
type KeyFunc func(r *http.Request) (key string, ok bool)

// SeenFunc reports whether key has been used.
type SeenFunc func(ctx context.Context, key string) (bool, error)

// RememberFunc records key for ttl.
type RememberFunc func(ctx context.Context, key string, ttl time.Duration) error

// Idempotency returns middleware that answers 409 for a key seen within ttl.
// Requests without a key pass through. A new key is remembered before the
// handler runs, so a retry racing the first attempt is also rejected.
func Idempotency(getKey KeyFunc, hasSeen SeenFunc, remember RememberFunc, ttl time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := getKey(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			seen, err := hasSeen(r.Context(), key)
			if err != nil {
				apierror.Write(w, apierror.Internal("Idempotency store unavailable."))
				return
			}
			if seen {
				DuplicateRejections.Inc()
				apierror.Write(w, apierror.Duplicate())
				return
			}
			if err := remember(r.Context(), key, ttl); err != nil {
				apierror.Write(w, apierror.Internal("Idempotency store unavailable."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdempotencyHeader reads a valid Idempotency-Key header.
func IdempotencyHeader(r *http.Request) (string, bool) {
	k, ok := IdempotencyKeyFromRequest(r)
	return string(k), ok
}

func idemKey(key string) string { return string(nominal.KVKeyOf("idem", key)) }

// KVIdempotency stores "idem:<key>" markers in kv.
func KVIdempotency(kv deps.KV) (SeenFunc, RememberFunc) {
	seen := func(ctx context.Context, key string) (bool, error) {
		_, found, err := kv.Get(ctx, idemKey(key))
		return found, err
	}
	remember := func(ctx context.Context, key string, ttl time.Duration) error {
		return kv.Set(ctx, idemKey(key), []byte("1"), ttl)
	}
	return seen, remember
}
