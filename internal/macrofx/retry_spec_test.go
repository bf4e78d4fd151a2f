package macrofx

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/macrofx/internal/deps"
)

var _ = Describe("Retry", func() {
	var (
		ctx   context.Context
		d     deps.Deps
		calls atomic.Int32
		boom  = errors.New("boom")
	)

	BeforeEach(func() {
		ctx = context.Background()
		d = newTestDeps(deps.SystemClock)
		calls.Store(0)
	})

	alwaysFail := func(context.Context, string) (string, error) { return "", boom }

	It("makes retries+1 attempts and returns the last error", func() {
		op := Retry(RetryConfig{Retries: 3}, counted(&calls, alwaysFail))(d)

		_, err := op(ctx, "x")

		Expect(err).To(BeIdenticalTo(boom))
		Expect(calls.Load()).To(BeEquivalentTo(4))
	})

	It("stops at the first success", func() {
		flaky := func(context.Context, string) (string, error) {
			if calls.Load() < 3 {
				return "", boom
			}
			return "ok", nil
		}
		op := Retry(RetryConfig{Retries: 5}, counted(&calls, flaky))(d)

		out, err := op(ctx, "x")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("ok"))
		Expect(calls.Load()).To(BeEquivalentTo(3))
	})

	It("makes a single attempt with zero retries", func() {
		op := Retry(RetryConfig{}, counted(&calls, alwaysFail))(d)

		_, err := op(ctx, "x")

		Expect(err).To(BeIdenticalTo(boom))
		Expect(calls.Load()).To(BeEquivalentTo(1))
	})

	It("gives up when ShouldRetry rejects the error", func() {
		cfg := RetryConfig{Retries: 5, ShouldRetry: func(err error) bool { return !errors.Is(err, boom) }}
		op := Retry(cfg, counted(&calls, alwaysFail))(d)

		_, err := op(ctx, "x")

		Expect(err).To(BeIdenticalTo(boom))
		Expect(calls.Load()).To(BeEquivalentTo(1))
	})

	It("waits the delay between attempts", func() {
		op := Retry(RetryConfig{Retries: 2, Delay: 20 * time.Millisecond}, counted(&calls, alwaysFail))(d)

		start := time.Now()
		_, _ = op(ctx, "x")

		Expect(time.Since(start)).To(BeNumerically(">=", 40*time.Millisecond))
		Expect(calls.Load()).To(BeEquivalentTo(3))
	})

	It("returns the context error when cancelled during a delay", func() {
		cctx, cancel := context.WithCancel(ctx)
		failThenCancel := func(context.Context, string) (string, error) {
			cancel()
			return "", boom
		}
		op := Retry(RetryConfig{Retries: 3, Delay: time.Minute}, counted(&calls, failThenCancel))(d)

		_, err := op(cctx, "x")

		Expect(err).To(MatchError(context.Canceled))
		Expect(calls.Load()).To(BeEquivalentTo(1))
	})
})
