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

// Package pool implements a fixed-size worker pool: a bounded set of goroutines pulling
// Runnables off a shared FIFO queue.
//
// Unlike a dynamically-sized executor, the pool here never grows or shrinks after NewPool: its
// goroutine count is fixed for the pool's whole lifetime, matching a classic pthread thread-pool
// where the size is chosen once and threads are created up front.
package pool

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Runnable is a fire-and-forget unit of work submitted to a Pool. It takes no arguments and
// returns no value; callers close over whatever state the work needs.
type Runnable func()

// Observer receives best-effort notifications about pool activity. It is used to feed external
// instrumentation (see package telemetry) without the pool depending on any particular metrics
// library. A nil Observer is valid and every method on it is skipped.
type Observer interface {
	// WorkerCountSet reports the current number of workers in the pool.
	WorkerCountSet(n int)
	// QueueDepthSet reports the current number of enqueued-but-not-started tasks.
	QueueDepthSet(n int)
	// TaskCompleted reports that one Runnable finished executing.
	TaskCompleted()
}

var (
	// ErrInvalidSize is returned by NewPool when Size is zero.
	ErrInvalidSize = errors.New("pool: size must be greater than zero")
	// ErrUninitiated is returned by Submit when called on a nil or not-yet-initialised pool.
	ErrUninitiated = errors.New("pool: not initiated")
	// ErrShuttingDown is returned by Submit once Shutdown has begun.
	ErrShuttingDown = errors.New("pool: shutting down")
)

// Config configures a Pool.
type Config struct {
	// Size is the fixed number of worker goroutines. Required, must be greater than 0.
	Size int

	// HandleSIGINT, when true, makes the pool watch for SIGINT and trigger a graceful Shutdown
	// followed by os.Exit(130) when it arrives. Libraries embedded in a larger process should
	// leave this false and manage their own signal handling; cmd/taskpool turns it on because it
	// owns the whole process.
	HandleSIGINT bool

	// Observer, if non-nil, is notified of pool activity (worker count, queue depth, completed
	// tasks). Safe to leave nil.
	Observer Observer
}

// Pool is a fixed-size set of worker goroutines draining a shared task queue.
//
// The mutex below guards every field that workers and callers touch concurrently: the task
// queue, waitingTasks, shutdown and initiated. It is held briefly and is never held across the
// execution of user-supplied Runnables.
type Pool struct {
	size     int
	observer Observer

	mu           sync.Mutex
	workCond     *sync.Cond
	tasks        taskQueue
	waitingTasks int
	shutdown     bool
	initiated    bool

	// exitOnShutdown is set only by the SIGINT watcher; when Shutdown finishes with it set, the
	// process exits with code 130.
	exitOnShutdown bool

	wg         sync.WaitGroup
	shutdownOnce sync.Once
	sigStop    chan struct{}
}

// NewPool allocates and starts a Pool of the given configuration. It fails if Size is zero. On
// failure no goroutines are left running.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Size <= 0 {
		return nil, ErrInvalidSize
	}

	p := &Pool{
		size:     cfg.Size,
		observer: cfg.Observer,
	}
	p.workCond = sync.NewCond(&p.mu)

	p.mu.Lock()
	p.initiated = true
	p.mu.Unlock()

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.reportWorkerCount()

	if cfg.HandleSIGINT {
		p.sigStop = make(chan struct{})
		go p.watchSIGINT()
	}

	return p, nil
}

// Size returns the fixed number of worker goroutines the pool was created with. It is safe to
// call on a nil pool, which reports 0.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return p.size
}

// Submit enqueues runnable for execution by one of the pool's workers. It fails if the pool is
// nil, uninitiated, or already shutting down.
func (p *Pool) Submit(runnable Runnable) error {
	if p == nil {
		return ErrUninitiated
	}

	p.mu.Lock()
	// shutdown is checked first: it is set the instant Shutdown begins and never cleared, while
	// initiated is only cleared once Shutdown has fully drained every worker. Checking initiated
	// first would report ErrUninitiated for any Submit racing with or arriving after a completed
	// Shutdown, masking the "was shutting down" distinction callers rely on.
	if p.shutdown {
		p.mu.Unlock()
		return ErrShuttingDown
	}
	if !p.initiated {
		p.mu.Unlock()
		return ErrUninitiated
	}

	p.tasks.push(runnable)
	p.waitingTasks++
	p.reportQueueDepthLocked()
	p.workCond.Signal()
	p.mu.Unlock()

	return nil
}

// worker is the per-goroutine run loop. It repeatedly waits for work, runs it outside the lock,
// and exits once shutdown has been requested and the queue is drained -- matching the pthread
// worker loop this pool is modeled on: wait while empty and not shutting down, bail out once both
// shutdown and empty are observed together.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.waitingTasks == 0 && !p.shutdown {
			p.workCond.Wait()
		}
		if p.shutdown && p.waitingTasks == 0 {
			p.mu.Unlock()
			return
		}

		runnable, ok := p.tasks.pop()
		p.waitingTasks--
		p.reportQueueDepthLocked()
		p.mu.Unlock()

		if ok {
			runnable()
			if p.observer != nil {
				p.observer.TaskCompleted()
			}
		}
	}
}

// Shutdown performs an orderly shutdown: no new task is accepted, every worker drains whatever is
// already queued, and Shutdown does not return until all of them have exited. It is idempotent --
// calling it twice is equivalent to calling it once. If the SIGINT watcher set exitOnShutdown, the
// process exits with code 130 once cleanup completes.
func (p *Pool) Shutdown() {
	if p == nil {
		return
	}

	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		if !p.initiated {
			p.mu.Unlock()
			return
		}
		p.shutdown = true
		p.workCond.Broadcast()
		p.mu.Unlock()

		p.wg.Wait()

		p.mu.Lock()
		p.initiated = false
		exit := p.exitOnShutdown
		p.mu.Unlock()
		p.reportWorkerCount()

		if p.sigStop != nil {
			close(p.sigStop)
		}

		if exit {
			os.Exit(130)
		}
	})
}

// watchSIGINT installs a SIGINT watcher for the lifetime of the pool. Go's os/signal delivers the
// notification straight to a channel with the pool already captured in the goroutine's closure --
// there is no need for the self-addressed bootstrap signal a POSIX sigaction handler would
// require to learn which pool it belongs to.
func (p *Pool) watchSIGINT() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		p.mu.Lock()
		p.exitOnShutdown = true
		p.mu.Unlock()
		p.Shutdown()
	case <-p.sigStop:
	}
}

func (p *Pool) reportWorkerCount() {
	if p.observer == nil {
		return
	}
	p.mu.Lock()
	n := p.size
	if !p.initiated {
		n = 0
	}
	p.mu.Unlock()
	p.observer.WorkerCountSet(n)
}

// reportQueueDepthLocked must be called with p.mu held.
func (p *Pool) reportQueueDepthLocked() {
	if p.observer == nil {
		return
	}
	p.observer.QueueDepthSet(p.waitingTasks)
}
