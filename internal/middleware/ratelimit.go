package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/menezmethod/macrofx/internal/apierror"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/nominal"
)

// IncrFunc increments the counter under key and returns its new value.
type IncrFunc func(ctx context.Context, key string) (int64, error)

// BucketFunc names the counter a request is charged against.
type BucketFunc func(r *http.Request) string

// RateKey is the store key for a rate-limit bucket.
func RateKey(bucket string) string {
	return string(nominal.RateBucketKeyOf(bucket))
}

// RateLimit returns middleware allowing at most limit requests per bucket.
// Every request increments RateKey(bucket(r)); once the count exceeds limit
// the request is answered with 429. The window is only reported in
// Retry-After; buckets roll over by name (see FixedWindowBucket).
func RateLimit(limit int, window time.Duration, bucket BucketFunc, incr IncrFunc) Middleware {
	limitHeader := strconv.Itoa(limit)
	retryAfter := strconv.Itoa(int((window + time.Second - 1) / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n, err := incr(r.Context(), RateKey(bucket(r)))
			if err != nil {
				apierror.Write(w, apierror.Internal("Rate limit store unavailable."))
				return
			}

			w.Header().Set("X-RateLimit-Limit", limitHeader)
			if n > int64(limit) {
				RateLimitRejections.Inc()
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", retryAfter)
				apierror.Write(w, apierror.RateLimited())
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-n, 10))
			next.ServeHTTP(w, r)
		})
	}
}

// FixedWindowBucket charges each API key a fresh counter per window:
// "<key>:<window index>". Requests without a key share "anon".
func FixedWindowBucket(clock deps.Clock, window time.Duration) BucketFunc {
	return func(r *http.Request) string {
		return WindowBucket(requestKey(r), clock.Now(), window)
	}
}

// WindowBucket is the bucket name FixedWindowBucket uses for key at now.
func WindowBucket(key string, now time.Time, window time.Duration) string {
	idx := int64(0)
	if window > 0 {
		idx = now.UnixNano() / int64(window)
	}
	return key + ":" + strconv.FormatInt(idx, 10)
}

// WindowEnd is when the window WindowBucket places now in closes. Windows
// are counted from the Unix epoch.
func WindowEnd(now time.Time, window time.Duration) time.Time {
	if window <= 0 {
		return time.Time{}
	}
	w := int64(window)
	return time.Unix(0, (now.UnixNano()/w+1)*w)
}

func requestKey(r *http.Request) string {
	if k := APIKeyFromContext(r.Context()); k != "" {
		return string(k)
	}
	if k, ok := APIKeyFromRequest(r); ok {
		return string(k)
	}
	return "anon"
}

// KVIncr counts in the bag's store.
func KVIncr(d deps.Deps) IncrFunc {
	return IncrFunc(deps.BumpCounter(d))
}

// KVIncrWindow is KVIncr for per-window counters. The first increment gives a
// key a lifetime of one window, which outlasts the window it counts, so
// finished windows age out of the store. Stores without deps.Expirer keep
// their counters.
func KVIncrWindow(d deps.Deps, window time.Duration) IncrFunc {
	incr := KVIncr(d)
	exp, ok := d.KV.(deps.Expirer)
	return func(ctx context.Context, key string) (int64, error) {
		n, err := incr(ctx, key)
		if err != nil || n != 1 || !ok || window <= 0 {
			return n, err
		}
		if err := exp.Expire(ctx, key, window); err != nil {
			return n, fmt.Errorf("expire %s: %w", key, err)
		}
		return n, nil
	}
}
