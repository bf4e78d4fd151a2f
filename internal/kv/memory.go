// Package kv provides the key-value store adapters behind deps.KV:
// an in-process map, a SQLite file and Redis.
package kv

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/menezmethod/macrofx/internal/deps"
)

type entry struct {
	value []byte
	exp   time.Time // zero means no expiry
}

// Memory is an in-process store. Expired entries are removed lazily on access.
type Memory struct {
	mu    sync.Mutex
	data  map[string]entry
	clock deps.Clock
}

// NewMemory creates an empty Memory store. A nil clock uses the wall clock.
func NewMemory(clock deps.Clock) *Memory {
	if clock == nil {
		clock = deps.SystemClock
	}
	return &Memory{data: make(map[string]entry), clock: clock}
}

// purge drops key if it has expired. Callers hold m.mu.
func (m *Memory) purge(key string) {
	e, ok := m.data[key]
	if ok && !e.exp.IsZero() && e.exp.Before(m.clock.Now()) {
		delete(m.data, key)
	}
}

// Get implements deps.KV.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(key)
	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set implements deps.KV.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.exp = m.clock.Now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

// Delete implements deps.KV.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Incr implements deps.Incrementer. A new counter has no expiry; an existing
// one keeps its own.
func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(key)
	e, ok := m.data[key]
	var n int64
	if ok {
		parsed, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, errNotCounter(key, err)
		}
		n = parsed
	}
	n++
	m.data[key] = entry{value: []byte(strconv.FormatInt(n, 10)), exp: e.exp}
	return n, nil
}

// Expire implements deps.Expirer. A ttl of zero or less removes the expiry.
func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(key)
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	e.exp = time.Time{}
	if ttl > 0 {
		e.exp = m.clock.Now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

// Len returns the number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
