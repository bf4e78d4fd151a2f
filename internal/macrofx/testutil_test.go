package macrofx

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/kv"
)

// recordingLogger captures messages written through the Logger port.
type recordingLogger struct {
	mu     sync.Mutex
	logs   []string
	errors []string
}

func (l *recordingLogger) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, msg)
}

func (l *recordingLogger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

// manualClock only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDeps(clock deps.Clock) deps.Deps {
	return deps.Deps{
		Log:   &recordingLogger{},
		Clock: clock,
		KV:    kv.NewMemory(clock),
	}
}

// counted wraps op and counts invocations.
func counted[A, R any](calls *atomic.Int32, op func(context.Context, A) (R, error)) WithDeps[A, R] {
	return func(deps.Deps) Op[A, R] {
		return func(ctx context.Context, arg A) (R, error) {
			calls.Add(1)
			return op(ctx, arg)
		}
	}
}
