/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sigflow/sigflow/graph"
)

// Watchdog bounds how long a cycle may run before stuck followers are
// force-finished (spec.md §4.6.2).
func Watchdog(cyclePeriod time.Duration) time.Duration {
	min := 500 * time.Millisecond
	if d := 3 * cyclePeriod; d > min {
		return d
	}
	return min
}

// Engine runs cycles for a fixed set of subgraphs, bounding the number of
// concurrently-processing nodes (spec.md §5's "data loop" concurrency,
// modeled in-process as a worker pool rather than one realtime thread per
// client).
type Engine struct {
	MaxConcurrency int64
}

// New returns an Engine whose concurrent node-processing fan-out is
// bounded by maxConcurrency (spec.md §4.6.2 step 2's fan-out, modeled
// with a weighted semaphore the way the teacher bounds worker pools).
func New(maxConcurrency int64) *Engine {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Engine{MaxConcurrency: maxConcurrency}
}

// RunCycle drives one full cycle of sg (spec.md §4.6.2): the driver arms
// every follower's pending counter from the freshly-recomputed indegree,
// wakes it, and each awakened node runs NodeImpl.Process and decrements
// its own downstream targets. The call returns once every member has
// reached Finished or the watchdog has force-finished the stragglers.
func (e *Engine) RunCycle(ctx context.Context, sg *Subgraph, cycle uint64, period time.Duration) error {
	now := time.Now().UnixNano()

	for _, n := range sg.Members {
		if n == sg.Driver {
			continue
		}
		n.Activation.Arm(sg.indegree[n])
	}
	sg.Driver.Activation.Arm(0)
	sg.Driver.Position.Cycle = cycle
	sg.Driver.Position.Clock.Nsec = uint64(now)

	cctx, cancel := context.WithTimeout(ctx, Watchdog(period))
	defer cancel()

	g, gctx := errgroup.WithContext(cctx)
	sem := semaphore.NewWeighted(e.MaxConcurrency)

	var run func(n *graph.Node)
	run = func(n *graph.Node) {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			n.Activation.MarkAwake(time.Now().UnixNano())
			n.Impl.Process()
			n.Activation.MarkFinished(time.Now().UnixNano())

			for _, t := range n.TargetList {
				if t.Activation.Decrement() {
					run(t)
				}
			}
			return nil
		})
	}
	run(sg.Driver)

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		forceFinishStragglers(sg)
		return fmt.Errorf("engine: cycle %d watchdog expired on subgraph driven by node %d", cycle, sg.Driver.ID)
	}
}

func forceFinishStragglers(sg *Subgraph) {
	var wg sync.WaitGroup
	for _, n := range sg.Members {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n.Activation.State() != graph.ActFinished {
				n.Activation.MarkXrun()
			}
		}()
	}
	wg.Wait()
}
