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

// Package workqueue implements the work queue: the single mechanism that
// ties async sequence numbers back to continuations (spec.md §4.2). Every
// NodeImpl operation that returns Async(seq) routes its eventual result
// through here instead of an ad-hoc callback chain, so a failing chain can
// be cancelled in one place.
package workqueue

import (
	"sync"

	liberr "github.com/sigflow/sigflow/errors"
)

// Seq is an async sequence number. SeqInvalid marks work whose completion
// sequence is not known at add time; it is matched by the next completion
// posted for the same object, whatever sequence that carries.
type Seq uint32

const SeqInvalid Seq = 0

// ID identifies one queued entry, returned by Add and accepted by Cancel.
type ID uint32

const IDInvalid ID = 0

var ErrBadArgument = liberr.New(uint16(liberr.MinPkgWorkQueue+1), "work queue: bad argument")

// Callback receives the result posted by Complete. err is always nil:
// Cancel drops entries without running their callbacks.
type Callback func(result any, err error)

type entry struct {
	id       ID
	object   any
	sequence Seq
	cb       Callback
}

// Queue is the cross-subsystem deferral point (spec.md §4.2). All
// exported methods are safe to call from any goroutine; callbacks
// themselves are invoked synchronously on the calling goroutine of
// Complete/Cancel, which by convention is always the main loop thread.
type Queue struct {
	mu      sync.Mutex
	nextID  ID
	pending []entry
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{nextID: 1}
}

// Add queues cb for object. When sequence is SeqInvalid the work runs on
// the next matching Complete call for object regardless of that call's
// sequence; otherwise it waits specifically for sequence.
func (q *Queue) Add(object any, sequence Seq, cb Callback) ID {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	q.pending = append(q.pending, entry{id: id, object: object, sequence: sequence, cb: cb})
	return id
}

// Complete matches and runs the earliest pending entry for object whose
// sequence equals seq, or that was added with SeqInvalid. The matched
// entry is removed before its callback runs, so the callback may safely
// call Add again. A completion with no matching pending entry is a no-op.
func (q *Queue) Complete(object any, seq Seq, result any) {
	q.mu.Lock()
	idx := -1
	for i, e := range q.pending {
		if e.object == object && (e.sequence == seq || e.sequence == SeqInvalid) {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return
	}
	e := q.pending[idx]
	q.pending = append(q.pending[:idx], q.pending[idx+1:]...)
	q.mu.Unlock()

	e.cb(result, nil)
}

// Cancel removes entries without running them. When id is IDInvalid every
// pending entry for object is dropped; otherwise only the one matching id
// (if its object also matches) is dropped. Returns the number removed.
func (q *Queue) Cancel(object any, id ID) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.pending[:0:0]
	removed := 0
	for _, e := range q.pending {
		match := e.object == object && (id == IDInvalid || e.id == id)
		if match {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	q.pending = kept
	return removed
}

// Pending reports how many entries are queued for object, for tests and
// introspection.
func (q *Queue) Pending(object any) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, e := range q.pending {
		if e.object == object {
			n++
		}
	}
	return n
}
