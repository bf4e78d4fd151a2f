package macrofx

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/macrofx/internal/deps"
)

var _ = Describe("Timeout", func() {
	var (
		ctx context.Context
		d   deps.Deps
	)

	BeforeEach(func() {
		ctx = context.Background()
		d = newTestDeps(deps.SystemClock)
	})

	It("fails with ErrTimeout when the bound elapses first", func() {
		finished := make(chan struct{})
		slow := Lift(func(context.Context, int) (int, error) {
			time.Sleep(200 * time.Millisecond)
			close(finished)
			return 1, nil
		})

		start := time.Now()
		out, err := Timeout(30*time.Millisecond, slow)(d)(ctx, 0)
		elapsed := time.Since(start)

		Expect(err).To(MatchError(ErrTimeout))
		Expect(out).To(BeZero())
		Expect(elapsed).To(BeNumerically(">=", 30*time.Millisecond))
		Expect(elapsed).To(BeNumerically("<", 150*time.Millisecond))

		By("leaving the abandoned call to run to completion")
		Eventually(finished).Should(BeClosed())
	})

	It("returns a fast result unchanged", func() {
		fast := Lift(func(_ context.Context, n int) (int, error) { return n + 1, nil })

		out, err := Timeout(time.Second, fast)(d)(ctx, 41)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(42))
	})

	It("returns a fast failure unchanged", func() {
		boom := errors.New("boom")
		fail := Lift(func(context.Context, int) (int, error) { return 0, boom })

		_, err := Timeout(time.Second, fail)(d)(ctx, 0)

		Expect(err).To(BeIdenticalTo(boom))
	})

	It("returns the context error when the caller gives up", func() {
		cctx, cancel := context.WithCancel(ctx)
		block := Lift(func(context.Context, int) (int, error) {
			time.Sleep(100 * time.Millisecond)
			return 0, nil
		})
		cancel()

		_, err := Timeout(time.Second, block)(d)(cctx, 0)

		Expect(err).To(MatchError(context.Canceled))
	})
})
