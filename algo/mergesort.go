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

package algo

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pjasinski/taskpool/pool"
)

// sortNode is one range of a tree-structured parallel merge sort, materialised in full up front.
// Leaves are sorted directly; internal nodes merge their two children's already-sorted ranges.
type sortNode struct {
	lo, hi, mid int
	leaf        bool
	gate        *latch

	left, right *sortNode
	parent      *sortNode
	remaining   int32 // internal nodes only: children left to finish before this node can run
}

// ArrangeSand returns a sorted copy of values, computed by a tree-structured parallel merge sort
// running on p.
//
// The range [0, len(values)) is split in half recursively into a binary tree, stopping a branch
// once its range has size 1 or the tree has reached ceil(log2(p.Size())) levels below the root, so
// the leaf count is at most the smallest power of two not below p.Size() (4 leaves for a pool of
// 3). Every leaf
// is submitted to p as soon as the tree is built. An internal node is never pre-submitted and
// never blocks inside a running task waiting on its children -- instead, each child decrements an
// atomic counter on its parent when it fires its own gate, and whichever child observes the
// counter reach zero submits the parent. This makes the schedule deadlock-free regardless of how
// the leaf count compares to p.Size(): no task ever occupies a worker while waiting on a sibling
// task that is still sitting in the queue.
func ArrangeSand(values []int, p *pool.Pool) ([]int, error) {
	if p == nil {
		return nil, ErrNilPool
	}

	out := make([]int, len(values))
	copy(out, values)
	if len(out) <= 1 {
		return out, nil
	}

	workers := p.Size()
	if workers < 1 {
		workers = 1
	}
	maxDepth := 0
	for (1 << uint(maxDepth)) < workers {
		maxDepth++
	}

	var build func(lo, hi, depth int) *sortNode
	build = func(lo, hi, depth int) *sortNode {
		nd := &sortNode{lo: lo, hi: hi, gate: newLatch()}
		if hi-lo <= 1 || depth >= maxDepth {
			nd.leaf = true
			return nd
		}
		mid := lo + (hi-lo)/2
		nd.mid = mid
		nd.left = build(lo, mid, depth+1)
		nd.right = build(mid, hi, depth+1)
		nd.left.parent = nd
		nd.right.parent = nd
		nd.remaining = 2
		return nd
	}
	root := build(0, len(out), 0)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	// finish marks nd done: fires its gate and, if it was the last of its siblings to finish,
	// hands the parent off to submit. Used on both the success and the submission-failure path so
	// a failure partway through the tree still propagates a fired gate up to root instead of
	// leaving root.gate.wait() blocked forever.
	var submit func(nd *sortNode)
	finish := func(nd *sortNode) {
		nd.gate.fire()
		if nd.parent != nil {
			if atomic.AddInt32(&nd.parent.remaining, -1) == 0 {
				submit(nd.parent)
			}
		}
	}

	submit = func(nd *sortNode) {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()

			if nd.leaf {
				sort.Ints(out[nd.lo:nd.hi])
			} else {
				merge(out, nd.lo, nd.mid, nd.hi)
			}
			finish(nd)
		})
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			wg.Done()
			// The pool is shutting down; there is no worker left to run this node. Propagate
			// completion upward anyway so root.gate.wait() below does not hang forever.
			finish(nd)
		}
	}

	forEachLeaf(root, submit)

	root.gate.wait()
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// forEachLeaf submits every leaf under nd. Internal nodes are reached later, on demand, via the
// child-countdown in ArrangeSand's submit closure.
func forEachLeaf(nd *sortNode, submit func(*sortNode)) {
	if nd.leaf {
		submit(nd)
		return
	}
	forEachLeaf(nd.left, submit)
	forEachLeaf(nd.right, submit)
}

// merge merges the two adjacent, already-sorted ranges out[lo:mid] and out[mid:hi] in place.
func merge(out []int, lo, mid, hi int) {
	left := append([]int(nil), out[lo:mid]...)
	right := append([]int(nil), out[mid:hi]...)

	i, j, k := 0, 0, lo
	for i < len(left) && j < len(right) {
		if left[i] <= right[j] {
			out[k] = left[i]
			i++
		} else {
			out[k] = right[j]
			j++
		}
		k++
	}
	for ; i < len(left); i++ {
		out[k] = left[i]
		k++
	}
	for ; j < len(right); j++ {
		out[k] = right[j]
		k++
	}
}
