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
	"errors"
	"sync"

	"github.com/pjasinski/taskpool/pool"
)

var (
	// ErrNilPool is returned by PackEggs and ArrangeSand when p is nil.
	ErrNilPool = errors.New("algo: pool is nil")
	// ErrNegativeCapacity is returned by PackEggs when capacity is negative.
	ErrNegativeCapacity = errors.New("algo: capacity must not be negative")
)

// Egg is a single 0/1-knapsack item: it costs Size of capacity and is worth Weight if packed.
type Egg struct {
	Size   int
	Weight int
}

// PackEggs returns the maximum total Weight obtainable from eggs without exceeding capacity,
// computed by a row-partitioned wavefront knapsack running on p.
//
// The dynamic-programming table has one row per egg and one column per unit of capacity
// (0..capacity). Columns are split into p.Size() contiguous ranges (clamped so no worker is
// handed an empty range); the leading columns-mod-workers ranges get one extra column so the
// split is balanced within one column of each worker.
//
// Row r, column j of the table only ever reads row r-1 at columns j and j-size: strictly to its
// left or directly above, never to the right and never more than one row back. That lets each
// worker own one column range for the whole computation and communicate with its left neighbour
// through a single gate per row: worker w waits on gate[r][w-1] before computing its slice of row
// r (skipped for w==0), then fires gate[r][w]. Because worker w-1 only fires gate[r][w-1] once it
// has itself finished rows 0..r in its own range (workers process rows strictly in order), every
// column worker w might read from the left is guaranteed already written by the time it reads it.
// Since PackEggs submits exactly p.Size() (or fewer) tasks to p, every submitted worker is
// guaranteed a dedicated goroutine for the whole run -- no worker ever blocks on a gate that only
// a still-queued task could fire.
func PackEggs(eggs []Egg, capacity int, p *pool.Pool) (int, error) {
	if p == nil {
		return 0, ErrNilPool
	}
	if capacity < 0 {
		return 0, ErrNegativeCapacity
	}
	if len(eggs) == 0 || capacity == 0 {
		return 0, nil
	}

	n := len(eggs)
	totalCols := capacity + 1

	k := p.Size()
	if k > totalCols {
		k = totalCols
	}
	if k < 1 {
		k = 1
	}

	begs, ends := partitionColumns(totalCols, k)

	dp := make([][]int, n)
	for r := range dp {
		dp[r] = make([]int, totalCols)
	}

	gates := make([][]*latch, n)
	for r := range gates {
		gates[r] = make([]*latch, k)
		for w := range gates[r] {
			gates[r][w] = newLatch()
		}
	}

	var wg sync.WaitGroup
	for w := 0; w < k; w++ {
		w := w
		lo, hi := begs[w], ends[w]

		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			for r := 0; r < n; r++ {
				if w > 0 {
					gates[r][w-1].wait()
				}

				size, weight := eggs[r].Size, eggs[r].Weight
				for col := lo; col < hi; col++ {
					without := 0
					if r > 0 {
						without = dp[r-1][col]
					}
					best := without
					if col >= size {
						withItem := weight
						if r > 0 {
							withItem += dp[r-1][col-size]
						}
						if withItem > best {
							best = withItem
						}
					}
					dp[r][col] = best
				}

				gates[r][w].fire()
			}
		})
		if err != nil {
			wg.Done()
			return 0, err
		}
	}

	gates[n-1][k-1].wait()
	wg.Wait()

	return dp[n-1][totalCols-1], nil
}

// partitionColumns splits [0, total) into k contiguous, non-empty ranges, the first total%k of
// which are one column wider than the rest.
func partitionColumns(total, k int) (begs, ends []int) {
	base := total / k
	rem := total % k

	begs = make([]int, k)
	ends = make([]int, k)

	cur := 0
	for w := 0; w < k; w++ {
		size := base
		if w < rem {
			size++
		}
		begs[w] = cur
		cur += size
		ends[w] = cur
	}
	return begs, ends
}
