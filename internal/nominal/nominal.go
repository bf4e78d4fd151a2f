// Package nominal provides distinct named types for values that would
// otherwise be interchangeable strings and numbers.
//
// Types with invariants have a constructor that validates once; a value of
// the type is trusted everywhere else. Types without invariants exist only to
// stop arguments being swapped at compile time.
package nominal

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrValidation is wrapped by every constructor failure.
var ErrValidation = errors.New("validation failed")

// Identifiers and keys.
type (
	UserID        string
	OrderID       string
	TaskID        string
	KVKey         string
	CacheKey      string
	RateBucketKey string
	Rel           string
	Href          string
)

// Quantities.
type (
	Milliseconds int64
	Seconds      int64
	Bytes        int64
	Percent      float64
)

// Validated values.
type (
	Email          string
	NonEmpty       string
	PositiveInt    int
	APIKey         string
	IdempotencyKey string
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewEmail validates s as an email address.
func NewEmail(s string) (Email, error) {
	if !emailPattern.MatchString(s) {
		return "", fmt.Errorf("%w: invalid email %q", ErrValidation, s)
	}
	return Email(s), nil
}

// NewNonEmpty rejects blank strings. The value is kept as given.
func NewNonEmpty(s string) (NonEmpty, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty string", ErrValidation)
	}
	return NonEmpty(s), nil
}

// NewPositiveInt rejects zero and negative numbers.
func NewPositiveInt(n int) (PositiveInt, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d is not a positive integer", ErrValidation, n)
	}
	return PositiveInt(n), nil
}

// NewAPIKey requires at least three characters.
func NewAPIKey(s string) (APIKey, error) {
	if len(s) < 3 {
		return "", fmt.Errorf("%w: invalid api key", ErrValidation)
	}
	return APIKey(s), nil
}

// NewIdempotencyKey requires at least eight characters.
func NewIdempotencyKey(s string) (IdempotencyKey, error) {
	if len(s) < 8 {
		return "", fmt.Errorf("%w: invalid idempotency key", ErrValidation)
	}
	return IdempotencyKey(s), nil
}

// ToMillis converts seconds to milliseconds.
func ToMillis(s Seconds) Milliseconds { return Milliseconds(s * 1000) }

// ToSeconds converts milliseconds to whole seconds, rounding down.
func ToSeconds(ms Milliseconds) Seconds { return Seconds(ms / 1000) }

// Duration converts ms to a time.Duration.
func (ms Milliseconds) Duration() time.Duration { return time.Duration(ms) * time.Millisecond }

// CacheKeyOf joins parts with ':'.
func CacheKeyOf(parts ...string) CacheKey { return CacheKey(strings.Join(parts, ":")) }

// RateBucketKeyOf namespaces a rate-limit bucket name.
func RateBucketKeyOf(bucket string) RateBucketKey { return RateBucketKey("rl:" + bucket) }

// KVKeyOf namespaces id under ns.
func KVKeyOf(ns, id string) KVKey { return KVKey(ns + ":" + id) }
