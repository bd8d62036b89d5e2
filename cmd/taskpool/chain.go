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
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pjasinski/taskpool/future"
	"github.com/pjasinski/taskpool/pool"
	"github.com/pjasinski/taskpool/telemetry"
)

func buildChainCmd() *cobra.Command {
	var base int

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "compute N! with an Async seed followed by a Future chain of N-1 Map calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(base)
		},
	}
	cmd.Flags().IntVar(&base, "base", 5, "compute base factorial")

	return cmd
}

func runChain(base int) error {
	if base < 0 {
		return fmt.Errorf("base must not be negative, got %d", base)
	}

	metrics := telemetry.NewMetrics("taskpool_chain")
	p, err := pool.NewPool(pool.Config{Size: cfg.PoolSize, HandleSIGINT: cfg.HandleSIGINT, Observer: metrics})
	if err != nil {
		return fmt.Errorf("starting pool: %w", err)
	}
	defer p.Shutdown()

	f, err := future.Async(p, func() (int, error) { return 1, nil })
	if err != nil {
		return fmt.Errorf("submitting chain seed: %w", err)
	}

	for i := 2; i <= base; i++ {
		i := i
		multiply := func(acc int) (int, error) { return acc * i, nil }
		f, err = future.Map(p, f, multiply)
		if err != nil {
			return fmt.Errorf("submitting chain step %d: %w", i, err)
		}
	}

	result, err := f.Await()
	if err != nil {
		return fmt.Errorf("chain failed: %w", err)
	}

	color.New(color.FgGreen, color.Bold).Printf("%d! = %d\n", base, result)
	return nil
}
