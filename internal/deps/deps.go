// Package deps defines the capability ports consumed by every operation and
// the Deps bag that carries them.
//
// A Deps value is built once at the composition root and passed explicitly
// into each operation constructor. Nothing in this module reads a port from
// package-level state.
package deps

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Logger is the minimal logging port.
type Logger interface {
	Log(msg string)
	Error(msg string)
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// KV is a key-value store with optional per-entry expiry.
//
// Get reports presence explicitly: a stored empty value is a hit.
// A zero ttl passed to Set means the entry never expires.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Incrementer is implemented by stores that can increment a counter atomically.
// Callers must fall back to read-modify-write when a store does not implement it.
type Incrementer interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Expirer is implemented by stores that can give an existing key a lifetime.
// Expiring a missing key is a no-op.
type Expirer interface {
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Response is the transport-neutral result of an HTTPClient call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// HTTPClient is the outbound HTTP port. Header may be nil.
type HTTPClient interface {
	Get(ctx context.Context, url string, header http.Header) (*Response, error)
	Post(ctx context.Context, url string, body any, header http.Header) (*Response, error)
}

// Deps bundles the capabilities available to an operation.
// It is passed by value and never mutated after construction.
type Deps struct {
	Log   Logger
	HTTP  HTTPClient
	Clock Clock
	KV    KV
}

// WithKV returns a copy of d using kv as its store.
func (d Deps) WithKV(kv KV) Deps {
	d.KV = kv
	return d
}

// WithClock returns a copy of d using c as its clock.
func (d Deps) WithClock(c Clock) Deps {
	d.Clock = c
	return d
}
