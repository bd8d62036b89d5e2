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
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pjasinski/taskpool/algo"
	"github.com/pjasinski/taskpool/pool"
	"github.com/pjasinski/taskpool/telemetry"
)

func buildSortCmd() *cobra.Command {
	var valuesFlag string

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "sort a list of integers with the tree-structured parallel merge sort",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseInts(valuesFlag)
			if err != nil {
				return err
			}
			return runSort(values)
		},
	}
	cmd.Flags().StringVar(&valuesFlag, "values", "5,2,9,1,5,6,3", "comma-separated integers to sort")

	return cmd
}

func parseInts(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	fields := strings.Split(spec, ",")
	values := make([]int, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", field, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func runSort(values []int) error {
	metrics := telemetry.NewMetrics("taskpool_sort")
	p, err := pool.NewPool(pool.Config{Size: cfg.PoolSize, HandleSIGINT: cfg.HandleSIGINT, Observer: metrics})
	if err != nil {
		return fmt.Errorf("starting pool: %w", err)
	}
	defer p.Shutdown()

	sorted, err := algo.ArrangeSand(values, p)
	if err != nil {
		return fmt.Errorf("sorting: %w", err)
	}

	color.New(color.FgGreen, color.Bold).Println(formatInts(sorted))
	return nil
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
