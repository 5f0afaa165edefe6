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

package graph

import "sync/atomic"

// ActState is one of Activation's coarse per-cycle states (spec.md
// §4.6.2).
type ActState int32

const (
	ActInactive ActState = iota
	ActNotTriggered
	ActTriggered
	ActAwakeReady
	ActFinished
)

// Activation is the small shared-memory block every Node owns, carrying
// enough state for the lock-free per-cycle protocol (spec.md §3.2,
// §4.6.2). In-process nodes share the Go struct directly; cross-process
// nodes would back it with a mapped memblock.Block instead — the field
// layout here is what that mapping would mirror.
type Activation struct {
	state   int32 // ActState
	pending int32
	required int32

	Position      uint64 // cycle count
	SignalTime    int64
	AwakeTime     int64
	FinishTime    int64
	PrevSignalTime int64

	XrunCount int32

	wake chan struct{}
}

// NewActivation returns an Activation in ActInactive with a ready wake
// channel standing in for the cross-process eventfd.
func NewActivation() *Activation {
	return &Activation{wake: make(chan struct{}, 1)}
}

func (a *Activation) State() ActState { return ActState(atomic.LoadInt32(&a.state)) }
func (a *Activation) setState(s ActState) { atomic.StoreInt32(&a.state, int32(s)) }

// Arm sets pending = required = n and marks the node Triggered, done by
// the driver at cycle start (spec.md §4.6.2 step 1).
func (a *Activation) Arm(n int32) {
	atomic.StoreInt32(&a.required, n)
	atomic.StoreInt32(&a.pending, n)
	a.setState(ActTriggered)
}

// Decrement performs the atomic fetch-sub a follower applies to each of
// its downstream targets' pending counters (spec.md §4.6.2 step 3),
// returning true exactly once, when the result reaches zero.
func (a *Activation) Decrement() bool {
	return atomic.AddInt32(&a.pending, -1) == 0
}

// Pending reads the current pending counter without mutating it.
func (a *Activation) Pending() int32 { return atomic.LoadInt32(&a.pending) }

// Signal wakes the node (stands in for writing 1 to its eventfd).
func (a *Activation) Signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Wake blocks until Signal is called.
func (a *Activation) Wake() <-chan struct{} { return a.wake }

// MarkAwake records AwakeTime and transitions to AwakeReady; ts is a
// caller-supplied monotonic nanosecond timestamp (engine owns the clock
// source so Activation never calls time.Now itself).
func (a *Activation) MarkAwake(ts int64) {
	a.AwakeTime = ts
	a.setState(ActAwakeReady)
}

// MarkFinished records FinishTime and transitions to Finished.
func (a *Activation) MarkFinished(ts int64) {
	a.FinishTime = ts
	a.setState(ActFinished)
}

// MarkXrun is called by the engine when a follower misses its deadline
// (spec.md §4.6.2's xrun path): it force-finishes the node and counts the
// glitch.
func (a *Activation) MarkXrun() {
	atomic.AddInt32(&a.XrunCount, 1)
	a.setState(ActFinished)
}
