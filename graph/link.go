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

import (
	"sync"

	"github.com/sigflow/sigflow/memblock"
)

// LinkState is the Link state machine of spec.md §4.5.6.
type LinkState uint8

const (
	LinkInit LinkState = iota
	LinkNegotiating
	LinkAllocating
	LinkPaused
	LinkActive
	LinkError
)

func (s LinkState) String() string {
	switch s {
	case LinkInit:
		return "init"
	case LinkNegotiating:
		return "negotiating"
	case LinkAllocating:
		return "allocating"
	case LinkPaused:
		return "paused"
	case LinkActive:
		return "active"
	case LinkError:
		return "error"
	default:
		return "unknown"
	}
}

// Link is a directed connection from an Output Port to an Input Port
// (spec.md §3.2).
type Link struct {
	ID      uint32
	Output  *Port
	Input   *Port
	Passive bool

	mu      sync.Mutex
	state   LinkState
	buffers *memblock.BufferPool
	errMsg  string
}

// NewLink creates a Link in Init state and registers it on both ports.
func NewLink(id uint32, output, input *Port, passive bool) *Link {
	l := &Link{ID: id, Output: output, Input: input, Passive: passive}
	output.addLink(l)
	input.addLink(l)
	return l
}

func (l *Link) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Info mirrors the Link `info` event's {state, error} pair (spec.md
// §6.1, §8 scenario 2).
type Info struct {
	State LinkState
	Error string
}

func (l *Link) Info() Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Info{State: l.state, Error: l.errMsg}
}

func (l *Link) setState(s LinkState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Fail moves the link to Error, recording msg for Info() and the owning
// Port's LastError (spec.md §4.5, §7's negotiation error handling).
func (l *Link) Fail(msg string) {
	l.mu.Lock()
	l.state = LinkError
	l.errMsg = msg
	l.mu.Unlock()

	l.Output.setError(msg)
	l.Input.setError(msg)
}

func (l *Link) setBuffers(bp *memblock.BufferPool) {
	l.mu.Lock()
	l.buffers = bp
	l.mu.Unlock()
}

// SetBuffers installs the buffer pool negotiate allocated for this link
// (spec.md §4.5.4). Exported so negotiate can drive allocation without
// reaching into Link's internals.
func (l *Link) SetBuffers(bp *memblock.BufferPool) {
	l.setBuffers(bp)
}

func (l *Link) Buffers() *memblock.BufferPool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffers
}

// BeginNegotiating moves the link from Init to Negotiating, the start of
// negotiate's phase 1 (spec.md §4.5.1).
func (l *Link) BeginNegotiating() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LinkInit {
		return ErrWrongState
	}
	l.state = LinkNegotiating
	return nil
}

// BeginAllocating moves the link from Negotiating to Allocating, once a
// format has been fixed on both ports (spec.md §4.5.3).
func (l *Link) BeginAllocating() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LinkNegotiating {
		return ErrWrongState
	}
	l.state = LinkAllocating
	return nil
}

// MarkPaused moves the link from Allocating to Paused once buffers and IO
// slots are installed on both ports (spec.md §4.5.4, §4.5.5).
func (l *Link) MarkPaused() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LinkAllocating {
		return ErrWrongState
	}
	l.state = LinkPaused
	return nil
}

// Activate moves the link to Active; both endpoint ports must already be
// Paused and both owning nodes active (spec.md §4.5.6). The link's own
// current state is not checked.
func (l *Link) Activate() error {
	if l.Output.State() != PortPaused || l.Input.State() != PortPaused {
		return ErrWrongState
	}
	if !l.Output.Node.IsActive() || !l.Input.Node.IsActive() {
		return ErrWrongState
	}
	l.setState(LinkActive)
	return nil
}

// Deactivate walks the link back to Paused, the mirror of Activate.
func (l *Link) Deactivate() {
	l.setState(LinkPaused)
}

// Destroy releases the link's buffer pool (if any) back to pool and
// detaches it from both ports. Per spec.md §3.4, the release must walk
// back through Paused first if currently Active; callers drive that
// transition via Deactivate before calling Destroy while the pool's
// owning memblock.Pool is still reachable.
func (l *Link) Destroy(pool *memblock.Pool) {
	l.mu.Lock()
	bp := l.buffers
	l.buffers = nil
	l.mu.Unlock()

	if bp != nil && pool != nil {
		pool.Release(bp)
	}
	l.Output.removeLink(l.ID)
	l.Input.removeLink(l.ID)
}
