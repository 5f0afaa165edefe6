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

// Package loopctl implements the Loop capability consumed by the rest of
// sigflow (spec.md names it only as a capability set: epoll+eventfd+
// timerfd+signalfd wrappers around a single-threaded cooperative reactor).
// Loop is the one place cross-goroutine work crosses onto the thread that
// is allowed to touch the graph; everything else calls Invoke.
package loopctl

import (
	"container/list"
	"context"
	"sync"
	"time"

	liberr "github.com/sigflow/sigflow/errors"
)

var ErrClosed = liberr.New(uint16(liberr.MinPkgLoop+1), "loop: closed")

// SourceID identifies a registered source for later removal.
type SourceID uint64

type sourceKind uint8

const (
	kindIdle sourceKind = iota
	kindTimer
	kindSignal
	kindEvent
)

type source struct {
	id       SourceID
	kind     sourceKind
	fn       func()
	interval time.Duration
	timer    *time.Timer
	removed  bool
}

// Loop is a single-threaded cooperative reactor: one goroutine, Run,
// drains a work channel of invocations and fires due timer/idle sources
// between drains. Every other goroutine reaches the loop only through
// Invoke, Idle, AddTimer or Signal.
type Loop struct {
	mu      sync.Mutex
	nextID  SourceID
	sources map[SourceID]*source
	idle    *list.List // FIFO of SourceIDs pending idle dispatch

	invoke  chan func()
	closing chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

// New returns a Loop that has not started running yet; call Run to drive
// it, typically from its own goroutine.
func New() *Loop {
	return &Loop{
		sources: make(map[SourceID]*source),
		idle:    list.New(),
		invoke:  make(chan func(), 256),
		closing: make(chan struct{}),
	}
}

// Run drives the loop until ctx is cancelled or Close is called. It must
// be called from exactly one goroutine; that goroutine is thereafter "the
// loop thread" for every invariant in spec.md that refers to it.
func (l *Loop) Run(ctx context.Context) {
	for {
		l.drainIdle()

		select {
		case <-ctx.Done():
			l.doClose()
			return
		case <-l.closing:
			return
		case fn := <-l.invoke:
			fn()
		}
	}
}

func (l *Loop) drainIdle() {
	for {
		l.mu.Lock()
		el := l.idle.Front()
		if el == nil {
			l.mu.Unlock()
			return
		}
		id := el.Value.(SourceID)
		l.idle.Remove(el)
		src, ok := l.sources[id]
		l.mu.Unlock()

		if !ok || src.removed {
			continue
		}
		src.fn()
	}
}

func (l *Loop) doClose() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for _, s := range l.sources {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
	l.mu.Unlock()
	close(l.closing)
}

// Close stops the loop; safe to call from any goroutine, any number of
// times.
func (l *Loop) Close() { l.doClose() }

// Invoke schedules fn to run on the loop thread and returns immediately.
// Safe from any goroutine, including the loop thread itself (it then runs
// after the current dispatch).
func (l *Loop) Invoke(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.mu.Unlock()

	select {
	case l.invoke <- fn:
		return nil
	case <-l.closing:
		return ErrClosed
	}
}

// Idle registers fn to run once on the loop thread at the start of the
// next otherwise-idle iteration ("loop.h"'s add_idle). Returns a SourceID
// usable with Remove.
func (l *Loop) Idle(fn func()) SourceID {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID + 1
	l.nextID = id
	l.sources[id] = &source{id: id, kind: kindIdle, fn: fn}
	l.idle.PushBack(id)
	return id
}

// Sync invokes fn only after every invocation queued before this call has
// drained — the loop's sync barrier (spec SPEC_FULL §4, `loop.h`'s
// add_idle/invoke semantics). It queues fn through Invoke, whose FIFO
// channel gives the ordering.
func (l *Loop) Sync(fn func()) error {
	return l.Invoke(fn)
}

// AddTimer registers fn to fire once after d on the loop thread.
func (l *Loop) AddTimer(d time.Duration, fn func()) SourceID {
	l.mu.Lock()
	id := l.nextID + 1
	l.nextID = id
	src := &source{id: id, kind: kindTimer, fn: fn, interval: d}
	l.sources[id] = src
	l.mu.Unlock()

	src.timer = time.AfterFunc(d, func() {
		_ = l.Invoke(func() {
			l.mu.Lock()
			s, ok := l.sources[id]
			l.mu.Unlock()
			if ok && !s.removed {
				s.fn()
			}
		})
	})
	return id
}

// Remove unregisters a source; idempotent.
func (l *Loop) Remove(id SourceID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.sources[id]; ok {
		s.removed = true
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(l.sources, id)
	}
}
