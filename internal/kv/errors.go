package kv

import (
	"errors"
	"fmt"
)

// ErrNotCounter is returned by Incr when the stored value is not an integer.
var ErrNotCounter = errors.New("value is not a counter")

// ErrUnknownDriver is returned by Open for an unsupported store driver.
var ErrUnknownDriver = errors.New("unknown store driver")

func errNotCounter(key string, cause error) error {
	return fmt.Errorf("%w: %q: %v", ErrNotCounter, key, cause)
}
