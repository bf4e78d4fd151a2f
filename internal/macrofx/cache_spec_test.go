package macrofx

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menezmethod/macrofx/internal/deps"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingKV) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f failingKV) Delete(context.Context, string) error { return f.err }

// readOnlyKV serves reads from the embedded store and fails every write.
type readOnlyKV struct {
	deps.KV
	err error
}

func (r readOnlyKV) Set(context.Context, string, []byte, time.Duration) error { return r.err }

// sealed has no exported fields, so encoding/json cannot carry it.
type sealed struct{ n int }

var _ = Describe("Cache", func() {
	var (
		ctx   context.Context
		clock *manualClock
		d     deps.Deps
		calls atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = newManualClock()
		d = newTestDeps(clock)
		calls.Store(0)
	})

	square := func(_ context.Context, n int) (int, error) { return n * n, nil }

	It("returns the stored result within the TTL without calling again", func() {
		op := Cache(CacheConfig[int, int]{Name: "sq", TTL: time.Second}, counted(&calls, square))(d)

		first, err := op(ctx, 4)
		Expect(err).NotTo(HaveOccurred())
		clock.Advance(500 * time.Millisecond)
		second, err := op(ctx, 4)
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal(16))
		Expect(second).To(Equal(first))
		Expect(calls.Load()).To(BeEquivalentTo(1))
	})

	It("recomputes once the entry has expired", func() {
		op := Cache(CacheConfig[int, int]{Name: "sq", TTL: time.Second}, counted(&calls, square))(d)

		_, _ = op(ctx, 3)
		clock.Advance(time.Second + time.Millisecond)
		out, err := op(ctx, 3)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(9))
		Expect(calls.Load()).To(BeEquivalentTo(2))
	})

	It("keys entries by argument", func() {
		op := Cache(CacheConfig[int, int]{Name: "sq", TTL: time.Minute}, counted(&calls, square))(d)

		_, _ = op(ctx, 2)
		_, _ = op(ctx, 5)
		_, _ = op(ctx, 2)

		Expect(calls.Load()).To(BeEquivalentTo(2))
	})

	It("treats a stored zero value as a hit", func() {
		zero := func(context.Context, string) (*deps.Todo, error) { return nil, nil }
		op := Cache(CacheConfig[string, *deps.Todo]{Name: "nil", TTL: time.Minute}, counted(&calls, zero))(d)

		first, err := op(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(BeNil())
		second, err := op(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(BeNil())

		Expect(calls.Load()).To(BeEquivalentTo(1))
	})

	It("does not store failures", func() {
		boom := errors.New("boom")
		fail := func(context.Context, int) (int, error) { return 0, boom }
		op := Cache(CacheConfig[int, int]{Name: "fail", TTL: time.Minute}, counted(&calls, fail))(d)

		_, err1 := op(ctx, 1)
		_, err2 := op(ctx, 1)

		Expect(err1).To(BeIdenticalTo(boom))
		Expect(err2).To(BeIdenticalTo(boom))
		Expect(calls.Load()).To(BeEquivalentTo(2))
	})

	It("uses a custom key function", func() {
		cfg := CacheConfig[int, int]{TTL: time.Minute, Key: func(int) string { return "same" }}
		op := Cache(cfg, counted(&calls, square))(d)

		a, _ := op(ctx, 2)
		b, _ := op(ctx, 7)

		Expect(a).To(Equal(4))
		Expect(b).To(Equal(4))
		Expect(calls.Load()).To(BeEquivalentTo(1))

		_, found, err := d.KV.Get(ctx, "same")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
	})

	It("writes under the default key", func() {
		op := Cache(CacheConfig[int, int]{Name: "sq", TTL: time.Minute}, counted(&calls, square))(d)
		_, _ = op(ctx, 6)

		raw, found, err := d.KV.Get(ctx, "cache:sq:6")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(string(raw)).To(Equal("36"))
	})

	It("surfaces store errors without calling the operation", func() {
		storeErr := errors.New("store down")
		d = d.WithKV(failingKV{err: storeErr})
		op := Cache(CacheConfig[int, int]{Name: "sq"}, counted(&calls, square))(d)

		_, err := op(ctx, 1)

		Expect(err).To(MatchError(storeErr))
		Expect(calls.Load()).To(BeZero())
	})

	Context("with a custom codec", func() {
		It("returns the first result exactly for a type JSON cannot carry", func() {
			wrap := func(_ context.Context, n int) (sealed, error) { return sealed{n: n}, nil }
			cfg := CacheConfig[int, sealed]{
				Name:   "sealed",
				TTL:    time.Minute,
				Encode: func(v sealed) ([]byte, error) { return []byte(strconv.Itoa(v.n)), nil },
				Decode: func(b []byte) (sealed, error) {
					n, err := strconv.Atoi(string(b))
					return sealed{n: n}, err
				},
			}
			op := Cache(cfg, counted(&calls, wrap))(d)

			first, err := op(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			second, err := op(ctx, 7)
			Expect(err).NotTo(HaveOccurred())

			Expect(first).To(Equal(sealed{n: 7}))
			Expect(second).To(Equal(first))
			Expect(calls.Load()).To(BeEquivalentTo(1))
		})

		It("surfaces decode failures on a hit", func() {
			cfg := CacheConfig[int, int]{
				Name:   "bad",
				TTL:    time.Minute,
				Decode: func([]byte) (int, error) { return 0, errors.New("corrupt") },
			}
			op := Cache(cfg, counted(&calls, square))(d)

			_, err := op(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			_, err = op(ctx, 3)

			Expect(err).To(MatchError(ContainSubstring("cache bad: decode: corrupt")))
			Expect(calls.Load()).To(BeEquivalentTo(1))
		})
	})

	It("returns a result the default codec cannot encode without storing it", func() {
		nan := func(context.Context, int) (float64, error) { return math.NaN(), nil }
		op := Cache(CacheConfig[int, float64]{Name: "nan", TTL: time.Minute}, counted(&calls, nan))(d)

		out, err := op(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsNaN(out)).To(BeTrue())

		_, found, err := d.KV.Get(ctx, "cache:nan:1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())

		_, _ = op(ctx, 1)
		Expect(calls.Load()).To(BeEquivalentTo(2))
		Expect(d.Log.(*recordingLogger).errors).To(ContainElement(ContainSubstring("cache nan: encode:")))
	})

	It("returns the result when the store rejects the write", func() {
		d = d.WithKV(readOnlyKV{KV: d.KV, err: errors.New("read only")})
		op := Cache(CacheConfig[int, int]{Name: "sq", TTL: time.Minute}, counted(&calls, square))(d)

		out, err := op(ctx, 5)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(25))
		Expect(d.Log.(*recordingLogger).errors).To(ContainElement("cache sq: write: read only"))
	})
})
