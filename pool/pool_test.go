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

package pool_test

import (
	"sync"
	"sync/atomic"

	"github.com/pjasinski/taskpool/pool"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pool", func() {
	It("cannot be created with a zero size", func() {
		_, err := pool.NewPool(pool.Config{})
		Expect(err).Should(MatchError(pool.ErrInvalidSize))
	})

	It("runs every submitted task exactly once before Shutdown returns", func() {
		p, err := pool.NewPool(pool.Config{Size: 4})
		Expect(err).ShouldNot(HaveOccurred())

		const numTasks = 200
		var count int32
		for i := 0; i < numTasks; i++ {
			Expect(p.Submit(func() {
				atomic.AddInt32(&count, 1)
			})).Should(Succeed())
		}

		p.Shutdown()
		Expect(count).Should(Equal(int32(numTasks)))
	})

	It("serializes tasks on a pool of size 1", func() {
		p, err := pool.NewPool(pool.Config{Size: 1})
		Expect(err).ShouldNot(HaveOccurred())

		var (
			mu     sync.Mutex
			order  []int
		)
		for i := 0; i < 10; i++ {
			i := i
			Expect(p.Submit(func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})).Should(Succeed())
		}

		p.Shutdown()

		expected := make([]int, 10)
		for i := range expected {
			expected[i] = i
		}
		Expect(order).Should(Equal(expected))
	})

	It("rejects submissions once shutdown has begun", func() {
		p, err := pool.NewPool(pool.Config{Size: 2})
		Expect(err).ShouldNot(HaveOccurred())

		p.Shutdown()

		err = p.Submit(func() {})
		Expect(err).Should(MatchError(pool.ErrShuttingDown))
	})

	It("treats a nil pool's Submit as uninitiated", func() {
		var p *pool.Pool
		Expect(p.Submit(func() {})).Should(MatchError(pool.ErrUninitiated))
	})

	It("allows Shutdown to be called more than once", func() {
		p, err := pool.NewPool(pool.Config{Size: 2})
		Expect(err).ShouldNot(HaveOccurred())

		p.Shutdown()
		Expect(func() { p.Shutdown() }).ShouldNot(Panic())
	})

	It("lets every row's accumulation complete before Shutdown returns", func() {
		// Mirrors the matrix row-accumulation scenario: several tasks add into a shared
		// per-row accumulator guarded by its own lock.
		p, err := pool.NewPool(pool.Config{Size: 4})
		Expect(err).ShouldNot(HaveOccurred())

		rows := 3
		buffer := make([]int, rows)
		locks := make([]sync.Mutex, rows)
		values := [][]int{
			{3, 4},
			{1, 2, 3},
			{10},
		}

		for row, vals := range values {
			for _, v := range vals {
				row, v := row, v
				Expect(p.Submit(func() {
					locks[row].Lock()
					buffer[row] += v
					locks[row].Unlock()
				})).Should(Succeed())
			}
		}

		p.Shutdown()

		Expect(buffer).Should(Equal([]int{7, 6, 10}))
	})
})
