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

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pjasinski/taskpool/pool"
	"github.com/pjasinski/taskpool/telemetry"
)

func buildServeCmd() *cobra.Command {
	var (
		rows    int
		columns int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run a row-accumulation workload against the pool while exposing /metrics",
		Long: "serve defers rows*columns tasks onto the pool, each adding a value to its row's " +
			"running total under a per-row mutex, and serves Prometheus metrics until SIGINT.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rows, columns, seed)
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 8, "number of matrix rows")
	cmd.Flags().IntVar(&columns, "columns", 16, "number of matrix columns")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for the synthetic workload's random delays and values")

	return cmd
}

func runServe(rows, columns int, seed int64) error {
	metrics := telemetry.NewMetrics("taskpool_serve")

	p, err := pool.NewPool(pool.Config{
		Size:         cfg.PoolSize,
		HandleSIGINT: cfg.HandleSIGINT,
		Observer:     metrics,
	})
	if err != nil {
		return fmt.Errorf("starting pool: %w", err)
	}
	defer p.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- telemetry.Serve(ctx, cfg.MetricsAddr, metrics)
	}()

	color.New(color.FgCyan).Printf("serving metrics on %s/metrics, running a %dx%d row-accumulation workload\n", cfg.MetricsAddr, rows, columns)

	totals, err := accumulateRows(p, metrics, rows, columns, seed)
	if err != nil {
		return err
	}

	for row, total := range totals {
		log.Printf("row %d total: %d\n", row, total)
	}

	// Keep serving /metrics after the workload finishes, until SIGINT ends the process or the
	// server fails.
	if err := <-srvErr; err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// accumulateRows submits rows*columns tasks to p, one per matrix cell. Each task sleeps for a
// random, short duration (modelling the original workload's per-cell latency) then adds a random
// value into its row's running total under that row's own mutex, mirroring how the original
// thread-pool example partitions accumulation by row to keep unrelated rows lock-free of each
// other.
func accumulateRows(p *pool.Pool, metrics *telemetry.Metrics, rows, columns int, seed int64) ([]int, error) {
	rng := rand.New(rand.NewSource(seed))

	totals := make([]int, rows)
	locks := make([]sync.Mutex, rows)

	var wg sync.WaitGroup
	for row := 0; row < rows; row++ {
		for col := 0; col < columns; col++ {
			row := row
			delay := time.Duration(rng.Intn(5)) * time.Millisecond
			value := rng.Intn(10)

			wg.Add(1)
			err := p.Submit(func() {
				defer wg.Done()
				start := time.Now()
				time.Sleep(delay)

				locks[row].Lock()
				totals[row] += value
				locks[row].Unlock()

				metrics.ObserveTaskDuration(time.Since(start))
			})
			if err != nil {
				wg.Done()
				return nil, fmt.Errorf("submitting cell (%d,%d): %w", row, col, err)
			}
		}
	}
	wg.Wait()

	return totals, nil
}
