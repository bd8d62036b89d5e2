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

package future

import "github.com/pjasinski/taskpool/pool"

// Callable is a unit of work that produces a value of type T (or fails) for a Future to store.
type Callable[T any] func() (T, error)

// Async schedules callable to run on pool and returns the Future that will hold its result. The
// returned future is at least Pending by the time Async returns successfully.
//
// Async returns ErrFutureUninitialised only in the degenerate case where the future itself could
// not be set up (practically unreachable for a freshly constructed *Future[T], included to mirror
// the distinction the original interface makes between "future is unusable" and "future is usable
// but its producing task never got enqueued"). It returns ErrSubmitFailed when pool rejected the
// submission (e.g. pool is shutting down); the returned future in that case is initialised but
// will never resolve, and callers should discard it.
func Async[T any](p *pool.Pool, callable Callable[T]) (*Future[T], error) {
	f := &Future[T]{}

	f.mu.Lock()
	f.initLocked()
	f.mu.Unlock()

	if f.cond == nil {
		return f, ErrFutureUninitialised
	}

	err := p.Submit(func() {
		value, callErr := callable()
		f.resolve(p, value, callErr)
	})
	if err != nil {
		return f, ErrSubmitFailed
	}

	return f, nil
}

// Map schedules fn to run on the result of from once from resolves, and stores the outcome in the
// returned Future. If from has already resolved, fn is submitted to pool immediately; otherwise
// fn is appended to from's continuation list and will be submitted by the worker that resolves
// from.
//
// from must be a Future previously produced by Async or Map; a nil or never-initialised from is
// rejected with ErrFromUninitialised rather than being silently initialised into a future that
// could never resolve.
func Map[T, U any](p *pool.Pool, from *Future[T], fn func(T) (U, error)) (*Future[U], error) {
	result := &Future[U]{}

	if from == nil {
		return nil, ErrFromUninitialised
	}

	from.mu.Lock()
	if from.state == stateUninitialised {
		from.mu.Unlock()
		return nil, ErrFromUninitialised
	}

	result.mu.Lock()
	result.initLocked()
	result.mu.Unlock()

	run := func() {
		from.mu.Lock()
		value, err := from.value, from.err
		from.mu.Unlock()

		if err != nil {
			// Propagate the upstream failure instead of running fn on a zero value: fn never
			// observes an error from from, so surface it directly on the downstream future.
			var zero U
			result.resolve(p, zero, err)
			return
		}
		mapped, mapErr := fn(value)
		result.resolve(p, mapped, mapErr)
	}

	if from.state == stateResolved {
		from.mu.Unlock()
		if err := p.Submit(run); err != nil {
			return result, ErrSubmitFailed
		}
		return result, nil
	}

	from.appendContinuationLocked(run)
	from.mu.Unlock()

	return result, nil
}
