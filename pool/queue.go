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

// taskNode is one link in taskQueue's singly-linked list.
type taskNode struct {
	value Runnable
	next  *taskNode
}

// taskQueue is a FIFO buffer of pending Runnables. It is not safe for concurrent use on its own:
// every method here is only ever called while the owning Pool's mutex is held, so the queue itself
// needs no locking of its own (see Pool.mu).
type taskQueue struct {
	front, back *taskNode
	size        int
}

// push appends value to the back of the queue. O(1).
func (q *taskQueue) push(value Runnable) {
	node := &taskNode{value: value}
	if q.back == nil {
		q.front = node
		q.back = node
	} else {
		q.back.next = node
		q.back = node
	}
	q.size++
}

// pop removes and returns the value at the front of the queue. The second return value is false
// if the queue was empty. O(1).
func (q *taskQueue) pop() (Runnable, bool) {
	if q.front == nil {
		return nil, false
	}
	node := q.front
	q.front = node.next
	if q.front == nil {
		q.back = nil
	}
	node.next = nil
	q.size--
	return node.value, true
}

// len returns the number of queued Runnables.
func (q *taskQueue) len() int {
	return q.size
}
