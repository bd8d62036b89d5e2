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
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pjasinski/taskpool/algo"
	"github.com/pjasinski/taskpool/pool"
	"github.com/pjasinski/taskpool/telemetry"
)

// knapsackResult is the JSON shape emitted by --json. The eggs are encoded straight from
// algo.Egg, which has no json tags, so each egg appears with its Go field names Size and Weight.
type knapsackResult struct {
	Capacity int        `json:"capacity"`
	Eggs     []algo.Egg `json:"eggs"`
	Best     int        `json:"best_weight"`
}

func buildKnapsackCmd() *cobra.Command {
	var (
		eggsFlag string
		capacity int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "knapsack",
		Short: "solve a 0/1 knapsack with the row-partitioned wavefront algorithm",
		Long: "knapsack parses --eggs as a comma-separated list of size:weight pairs " +
			"(e.g. 2:3,3:4,4:5,5:6) and reports the best total weight obtainable within --capacity.",
		RunE: func(cmd *cobra.Command, args []string) error {
			eggs, err := parseEggs(eggsFlag)
			if err != nil {
				return err
			}
			limit := capacity
			if !cmd.Flags().Changed("capacity") {
				limit = cfg.DefaultCapacity
			}
			return runKnapsack(eggs, limit, asJSON)
		},
	}
	cmd.Flags().StringVar(&eggsFlag, "eggs", "2:3,3:4,4:5,5:6", "comma-separated size:weight pairs")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "capacity limit (defaults to the configured default_capacity)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON instead of plain text")

	return cmd
}

func parseEggs(spec string) ([]algo.Egg, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(spec))
	fields, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("parsing --eggs: %w", err)
	}

	eggs := make([]algo.Egg, 0, len(fields))
	for _, field := range fields {
		parts := strings.SplitN(strings.TrimSpace(field), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid egg %q, want size:weight", field)
		}
		size, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid size in %q: %w", field, err)
		}
		weight, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", field, err)
		}
		eggs = append(eggs, algo.Egg{Size: size, Weight: weight})
	}
	return eggs, nil
}

func runKnapsack(eggs []algo.Egg, capacity int, asJSON bool) error {
	metrics := telemetry.NewMetrics("taskpool_knapsack")
	p, err := pool.NewPool(pool.Config{Size: cfg.PoolSize, HandleSIGINT: cfg.HandleSIGINT, Observer: metrics})
	if err != nil {
		return fmt.Errorf("starting pool: %w", err)
	}
	defer p.Shutdown()

	best, err := algo.PackEggs(eggs, capacity, p)
	if err != nil {
		return fmt.Errorf("packing eggs: %w", err)
	}

	if asJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
		return enc.Encode(knapsackResult{Capacity: capacity, Eggs: eggs, Best: best})
	}

	color.New(color.FgGreen, color.Bold).Printf("best weight within capacity %d: %d\n", capacity, best)
	return nil
}
