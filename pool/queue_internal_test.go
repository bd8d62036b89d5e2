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

package pool

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("taskQueue", func() {
	It("pops in FIFO order", func() {
		var q taskQueue

		_, ok := q.pop()
		Expect(ok).Should(BeFalse())

		var ran []int
		for i := 0; i < 5; i++ {
			i := i
			q.push(func() { ran = append(ran, i) })
		}
		Expect(q.len()).Should(Equal(5))

		for i := 0; i < 5; i++ {
			r, ok := q.pop()
			Expect(ok).Should(BeTrue())
			r()
		}
		Expect(ran).Should(Equal([]int{0, 1, 2, 3, 4}))
		Expect(q.len()).Should(Equal(0))

		_, ok = q.pop()
		Expect(ok).Should(BeFalse())
	})
})
