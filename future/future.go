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

// Package future provides a single-assignment result cell (Future) layered on top of package
// pool, plus Async and Map to produce and chain values computed on the pool's workers.
//
// A Future moves through three states: uninitialised, pending and resolved. Continuations
// registered with Map before a Future resolves are stored on it and, once the producing worker
// writes the result, are drained under the Future's own lock and resubmitted to the pool as fresh
// tasks -- never run inline on the resolving worker, so long continuation chains cannot grow the
// worker's stack or starve the pool.
package future

import (
	"errors"
	"sync"

	"github.com/pjasinski/taskpool/pool"
)

// state is the tri-valued lifecycle of a Future.
type state int

const (
	stateUninitialised state = iota
	statePending
	stateResolved
)

var (
	// ErrFutureUninitialised is returned by Await on a nil or never-initialised Future. Async also
	// returns it if the future it creates could not be set up, which does not happen for the
	// freshly allocated Future Async builds; Map never returns it.
	ErrFutureUninitialised = errors.New("future: could not be initialised")

	// ErrSubmitFailed is returned by Async/Map when the future was initialised but the task that
	// would resolve it could not be submitted to the pool (e.g. the pool is shutting down). The
	// returned Future is safe to discard; it will never resolve.
	ErrSubmitFailed = errors.New("future: initialised but submission to pool failed")

	// ErrFromUninitialised is returned by Map when its upstream Future is nil or was never
	// produced by Async/Map. The original source silently initialised such a future on the
	// caller's behalf, which only masks the bug: the resulting future can never resolve because
	// nothing is ever submitted to fulfil it. This is rejected instead.
	ErrFromUninitialised = errors.New("future: map called on an uninitialised upstream future")
)

// continuation is a single chain callback registered on an upstream Future. It is fulfilled by
// resubmitting itself to pool as a fresh task once the upstream Future resolves.
type continuation struct {
	run  func()
	next *continuation
}

// Future is a single-producer, multi-consumer result cell for a value of type T.
type Future[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state state

	value T
	err   error

	// continuations is the FIFO list of chain callbacks registered while the future was pending.
	// Drained, in registration order, under mu, the instant the future resolves.
	contHead, contTail *continuation
}

// initLocked transitions a freshly-zeroed or uninitialised Future to pending. Callers must hold
// f.mu. It is a no-op once the future has progressed past uninitialised.
func (f *Future[T]) initLocked() {
	if f.cond == nil {
		f.cond = sync.NewCond(&f.mu)
	}
	if f.state == stateUninitialised {
		f.state = statePending
	}
}

// appendContinuationLocked appends a chain callback to the continuation list. Callers must hold
// f.mu.
func (f *Future[T]) appendContinuationLocked(run func()) {
	node := &continuation{run: run}
	if f.contTail == nil {
		f.contHead = node
		f.contTail = node
	} else {
		f.contTail.next = node
		f.contTail = node
	}
}

// resolve stores value/err, marks the future Resolved, wakes every Await waiter, and drains the
// continuation list by resubmitting each callback to p as a fresh Runnable. It is called by the
// worker that ran the producing Callable; it must not be called more than once per future.
func (f *Future[T]) resolve(p *pool.Pool, value T, err error) {
	f.mu.Lock()
	f.value = value
	f.err = err
	f.state = stateResolved
	if f.cond != nil {
		f.cond.Broadcast()
	}

	for node := f.contHead; node != nil; node = node.next {
		// The pool is shutting down and will never run this continuation; its future stays
		// pending forever, which is the documented "never resolves" outcome of submitting after
		// shutdown.
		_ = p.Submit(node.run)
	}
	f.contHead, f.contTail = nil, nil
	f.mu.Unlock()
}

// Await blocks until f resolves, then returns the value and error its producer stored; a failed
// producer yields a non-nil err, so callers should always check err. Calling Await again on an
// already-resolved future returns the same value every time. Await on a nil or never-initialised
// Future returns the zero value and ErrFutureUninitialised.
func (f *Future[T]) Await() (T, error) {
	var zero T
	if f == nil {
		return zero, ErrFutureUninitialised
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == stateUninitialised {
		return zero, ErrFutureUninitialised
	}

	for f.state != stateResolved {
		f.cond.Wait()
	}

	return f.value, f.err
}
