/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package future_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pjasinski/taskpool/future"
	"github.com/pjasinski/taskpool/pool"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Future", func() {
	var p *pool.Pool

	BeforeEach(func() {
		var err error
		p, err = pool.NewPool(pool.Config{Size: 3})
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		p.Shutdown()
	})

	It("resolves Await to exactly what the callable returned", func() {
		var calls int32
		f, err := future.Async(p, func() (int, error) {
			atomic.AddInt32(&calls, 1)
			return 42, nil
		})
		Expect(err).ShouldNot(HaveOccurred())

		value, err := f.Await()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(value).Should(Equal(42))
		Expect(calls).Should(Equal(int32(1)))
	})

	It("runs the factorial chain scenario: async then N maps", func() {
		var (
			mu         sync.Mutex
			multiplier = 1
		)
		step := func(n int) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			result := n * multiplier
			multiplier++
			return result, nil
		}

		f0, err := future.Async(p, func() (int, error) { return step(1) })
		Expect(err).ShouldNot(HaveOccurred())

		f1, err := future.Map(p, f0, step)
		Expect(err).ShouldNot(HaveOccurred())
		f2, err := future.Map(p, f1, step)
		Expect(err).ShouldNot(HaveOccurred())
		f3, err := future.Map(p, f2, step)
		Expect(err).ShouldNot(HaveOccurred())
		f4, err := future.Map(p, f3, step)
		Expect(err).ShouldNot(HaveOccurred())

		result, err := f4.Await()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result).Should(Equal(120)) // 5!

		mu.Lock()
		defer mu.Unlock()
		Expect(multiplier).Should(Equal(6))
	})

	It("invokes Map's fn exactly once, strictly after from resolves", func() {
		f0, err := future.Async(p, func() (int, error) {
			time.Sleep(20 * time.Millisecond)
			return 7, nil
		})
		Expect(err).ShouldNot(HaveOccurred())

		var calls int32
		seenResolved := make(chan bool, 1)
		f1, err := future.Map(p, f0, func(v int) (int, error) {
			atomic.AddInt32(&calls, 1)
			seenResolved <- true
			return v * 2, nil
		})
		Expect(err).ShouldNot(HaveOccurred())

		v, err := f1.Await()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(v).Should(Equal(14))
		Expect(calls).Should(Equal(int32(1)))
		Eventually(seenResolved).Should(Receive(BeTrue()))
	})

	It("submits chained maps in registration order while from is still pending", func() {
		// A pool of size 1 serializes execution, so submission order and completion order
		// coincide -- the cleanest way to observe the ordering guarantee.
		serial, err := pool.NewPool(pool.Config{Size: 1})
		Expect(err).ShouldNot(HaveOccurred())
		defer serial.Shutdown()

		block := make(chan struct{})
		f0, err := future.Async(serial, func() (int, error) {
			<-block
			return 1, nil
		})
		Expect(err).ShouldNot(HaveOccurred())

		var (
			mu    sync.Mutex
			order []int
		)
		record := func(tag int) func(int) (int, error) {
			return func(v int) (int, error) {
				mu.Lock()
				order = append(order, tag)
				mu.Unlock()
				return v, nil
			}
		}

		f1, err := future.Map(serial, f0, record(1))
		Expect(err).ShouldNot(HaveOccurred())
		f2, err := future.Map(serial, f0, record(2))
		Expect(err).ShouldNot(HaveOccurred())

		close(block)

		_, err = f1.Await()
		Expect(err).ShouldNot(HaveOccurred())
		_, err = f2.Await()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(order).Should(Equal([]int{1, 2}))
	})

	It("returns the same value from repeated Awaits on a resolved future", func() {
		f, err := future.Async(p, func() (string, error) { return "done", nil })
		Expect(err).ShouldNot(HaveOccurred())

		v1, err1 := f.Await()
		v2, err2 := f.Await()
		Expect(err1).ShouldNot(HaveOccurred())
		Expect(err2).ShouldNot(HaveOccurred())
		Expect(v1).Should(Equal(v2))
	})

	It("lets two concurrent Awaiters observe the same resolved value", func() {
		f, err := future.Async(p, func() (int, error) {
			time.Sleep(100 * time.Millisecond)
			return 42, nil
		})
		Expect(err).ShouldNot(HaveOccurred())

		var wg sync.WaitGroup
		results := make([]int, 2)
		for i := 0; i < 2; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := f.Await()
				Expect(err).ShouldNot(HaveOccurred())
				results[i] = v
			}()
		}
		wg.Wait()

		Expect(results[0]).Should(Equal(42))
		Expect(results[1]).Should(Equal(42))
	})

	It("returns an error from Await when the callable failed", func() {
		boom := errors.New("boom")
		f, err := future.Async(p, func() (int, error) { return 0, boom })
		Expect(err).ShouldNot(HaveOccurred())

		_, err = f.Await()
		Expect(err).Should(MatchError(boom))
	})

	It("propagates an upstream error through Map without calling fn", func() {
		boom := errors.New("boom")
		f0, err := future.Async(p, func() (int, error) { return 0, boom })
		Expect(err).ShouldNot(HaveOccurred())

		var called int32
		f1, err := future.Map(p, f0, func(v int) (int, error) {
			atomic.AddInt32(&called, 1)
			return v, nil
		})
		Expect(err).ShouldNot(HaveOccurred())

		_, err = f1.Await()
		Expect(err).Should(MatchError(boom))
		Expect(called).Should(Equal(int32(0)))
	})

	It("returns ErrFromUninitialised when mapping from a nil future", func() {
		_, err := future.Map(p, (*future.Future[int])(nil), func(v int) (int, error) {
			return v, nil
		})
		Expect(err).Should(MatchError(future.ErrFromUninitialised))
	})

	It("returns ErrFromUninitialised when mapping from a never-produced future", func() {
		var zero future.Future[int]
		_, err := future.Map(p, &zero, func(v int) (int, error) {
			return v, nil
		})
		Expect(err).Should(MatchError(future.ErrFromUninitialised))
	})

	It("returns the zero value and ErrFutureUninitialised from Await on an uninitialised future", func() {
		var zero future.Future[int]
		v, err := zero.Await()
		Expect(err).Should(MatchError(future.ErrFutureUninitialised))
		Expect(v).Should(Equal(0))
	})

	It("fails Async when submission fails because the pool is shutting down", func() {
		p.Shutdown()
		_, err := future.Async(p, func() (int, error) { return 1, nil })
		Expect(err).Should(MatchError(future.ErrSubmitFailed))
	})
})
