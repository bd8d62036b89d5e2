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

// Package telemetry exposes pool and future activity as Prometheus metrics.
//
// Metrics implements pool.Observer so it can be handed straight to pool.Config without pool
// importing this package (or Prometheus) at all -- the dependency points one way, from telemetry
// down to pool, never back.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects pool and future activity into a dedicated Prometheus registry. Using a private
// registry, rather than prometheus.MustRegister against the global DefaultRegisterer, lets a
// process build more than one Metrics (e.g. one per pool in a test suite) without panicking on a
// duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	workerCount   prometheus.Gauge
	queueDepth    prometheus.Gauge
	tasksTotal    prometheus.Counter
	futuresTotal  prometheus.Counter
	taskDuration  prometheus.Histogram
}

// NewMetrics builds and registers the full metric set. namespace prefixes every metric name
// (e.g. "taskpool") so multiple instrumented components in the same process don't collide.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		workerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_workers",
			Help:      "Current number of worker goroutines in the pool.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_queue_depth",
			Help:      "Current number of tasks enqueued but not yet started.",
		}),
		tasksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_tasks_completed_total",
			Help:      "Total number of Runnables that finished executing.",
		}),
		futuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "futures_resolved_total",
			Help:      "Total number of futures resolved, successfully or not.",
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of a single Runnable's execution.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.workerCount,
		m.queueDepth,
		m.tasksTotal,
		m.futuresTotal,
		m.taskDuration,
	)

	return m
}

// WorkerCountSet implements pool.Observer.
func (m *Metrics) WorkerCountSet(n int) {
	m.workerCount.Set(float64(n))
}

// QueueDepthSet implements pool.Observer.
func (m *Metrics) QueueDepthSet(n int) {
	m.queueDepth.Set(float64(n))
}

// TaskCompleted implements pool.Observer.
func (m *Metrics) TaskCompleted() {
	m.tasksTotal.Inc()
}

// FutureResolved records that a future resolved. It is not part of pool.Observer -- callers that
// want this signal wrap future.Async/future.Map's callables to call it directly, since package
// future has no observer hook of its own.
func (m *Metrics) FutureResolved() {
	m.futuresTotal.Inc()
}

// ObserveTaskDuration records how long a single Runnable took to run.
func (m *Metrics) ObserveTaskDuration(d time.Duration) {
	m.taskDuration.Observe(d.Seconds())
}

// Handler returns the http.Handler that serves this Metrics' registry in the Prometheus exposition
// format, suitable for mounting at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs an HTTP server exposing Handler at /metrics on addr until ctx is cancelled, at which
// point it shuts the server down gracefully and returns nil (http.ErrServerClosed is swallowed,
// matching the documented contract for a server stopped on purpose).
func Serve(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
