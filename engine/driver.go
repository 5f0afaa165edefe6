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
	"sync"
	"time"

	"github.com/sigflow/sigflow/logger"
	"github.com/sigflow/sigflow/loopctl"
)

// ErrorFunc receives a cycle's error (typically a watchdog expiry) so the
// caller can surface it on the affected nodes' resources -- the engine
// itself only logs it, off the cycle path, through the Driver's own
// logger.FuncLog; it never logs from inside RunCycle.
type ErrorFunc func(sg *Subgraph, cycle uint64, err error)

// Driver ticks a single Subgraph at a fixed period, starting every cycle
// from its own loopctl.Loop thread; RunCycle then runs each node's Process
// on the Engine's bounded worker goroutines, not on the Loop thread.
type Driver struct {
	engine *Engine
	sg     *Subgraph
	period time.Duration
	log    logger.FuncLog
	onErr  ErrorFunc

	mu      sync.Mutex
	cycle   uint64
	loop    *loopctl.Loop
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewDriver builds a Driver for sg, ticking every period. log is resolved
// lazily on each cycle failure; pass nil to log nothing (tests mostly do).
func NewDriver(e *Engine, sg *Subgraph, period time.Duration, log logger.FuncLog, onErr ErrorFunc) *Driver {
	return &Driver{engine: e, sg: sg, period: period, log: log, onErr: onErr}
}

func (d *Driver) logger() logger.Logger {
	if d.log == nil {
		return logger.NewNop()
	}
	return d.log()
}

// Start begins ticking on a fresh loopctl.Loop, in its own goroutine.
// Calling Start twice without an intervening Stop is a no-op. A Loop is
// single-use (Close never reopens it), so each Start builds a new one
// rather than reusing one across a Stop/Start cycle.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	loop := loopctl.New()
	d.loop = loop
	d.cancel = cancel
	d.stopped = make(chan struct{})
	d.mu.Unlock()

	d.scheduleTick(runCtx, loop)
	go func() {
		defer close(d.stopped)
		loop.Run(runCtx)
	}()
}

// scheduleTick arms a one-shot loopctl timer for the next cycle; the fired
// callback runs RunCycle on the loop thread and re-arms itself, turning
// AddTimer's one-shot semantics into the periodic tick spec.md describes.
func (d *Driver) scheduleTick(ctx context.Context, loop *loopctl.Loop) {
	loop.AddTimer(d.period, func() {
		d.mu.Lock()
		d.cycle++
		cycle := d.cycle
		d.mu.Unlock()

		if err := d.engine.RunCycle(ctx, d.sg, cycle, d.period); err != nil {
			d.logger().WithFields(map[string]interface{}{
				"cycle": cycle,
			}).WithError(err).Warning("subgraph cycle failed")
			if d.onErr != nil {
				d.onErr(d.sg, cycle, err)
			}
		}
		if ctx.Err() == nil {
			d.scheduleTick(ctx, loop)
		}
	})
}

// Stop cancels the Loop and waits for its goroutine to exit, mirroring
// spec.md §4.6.5's Pause semantics at the driver level.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	loop := d.loop
	stopped := d.stopped
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	loop.Close()
	<-stopped
}
