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

// Package algo contains two data-dependent parallel algorithms built directly on package pool: a
// row-partitioned wavefront knapsack and a tree-structured parallel merge sort. Both use latch,
// below, as their only cross-goroutine signal -- a single-shot gate, simpler than a full Future
// because neither algorithm needs to carry a value through it, only a "this row/node is done"
// notification.
package algo

import "sync"

// latch is a single-shot cross-goroutine gate: it starts closed, fires exactly once, and any
// number of goroutines may wait on it before or after it fires.
type latch struct {
	mu    sync.Mutex
	cond  *sync.Cond
	fired bool
}

func newLatch() *latch {
	l := &latch{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// fire signals the latch. Firing an already-fired latch is a no-op.
func (l *latch) fire() {
	l.mu.Lock()
	if !l.fired {
		l.fired = true
		l.cond.Broadcast()
	}
	l.mu.Unlock()
}

// wait blocks until the latch has fired.
func (l *latch) wait() {
	l.mu.Lock()
	for !l.fired {
		l.cond.Wait()
	}
	l.mu.Unlock()
}
