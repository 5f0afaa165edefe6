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

	"github.com/sigflow/sigflow/pod"
)

// PortState is the port state machine of spec.md §4.4.
type PortState uint8

const (
	PortInit PortState = iota
	PortConfigure
	PortReady
	PortPaused
	PortStreaming
	PortError
)

func (s PortState) String() string {
	switch s {
	case PortInit:
		return "init"
	case PortConfigure:
		return "configure"
	case PortReady:
		return "ready"
	case PortPaused:
		return "paused"
	case PortStreaming:
		return "streaming"
	case PortError:
		return "error"
	default:
		return "unknown"
	}
}

// Port is a typed connection point on a Node (spec.md §3.2).
type Port struct {
	ID        uint32
	Node      *Node
	Direction Direction
	implID    uint32

	mu        sync.Mutex
	state     PortState
	format    *pod.Object
	links     map[uint32]*Link
	mixPorts  map[uint32]uint32 // per-link synthetic port id, keyed by Link id
	nextMix   uint32
	lastError string
}

func newPort(id uint32, node *Node, dir Direction, implID uint32) *Port {
	return &Port{
		ID:        id,
		Node:      node,
		Direction: dir,
		implID:    implID,
		links:     make(map[uint32]*Link),
		mixPorts:  make(map[uint32]uint32),
	}
}

// ImplID is the NodeImpl-assigned port id to pass back into NodeImpl
// methods (PortEnumParams, PortSetParam, PortSetIO, ...).
func (p *Port) ImplID() uint32 { return p.implID }

func (p *Port) State() PortState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Port) setState(s PortState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// LastError surfaces the most recent negotiation/alloc failure recorded
// against this port (SPEC_FULL §4, supplementing port.c's IDLE/ERROR/OK
// availability tri-state).
func (p *Port) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

func (p *Port) setError(msg string) {
	p.mu.Lock()
	p.state = PortError
	p.lastError = msg
	p.mu.Unlock()
}

// AdvertiseFormat transitions Init -> Configure: the port has offered at
// least one EnumFormat candidate.
func (p *Port) AdvertiseFormat() {
	p.mu.Lock()
	if p.state == PortInit {
		p.state = PortConfigure
	}
	p.mu.Unlock()
}

// SetFormat installs the negotiated format and transitions
// Configure -> Ready (spec.md §4.4).
func (p *Port) SetFormat(f *pod.Object) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PortConfigure && p.state != PortInit {
		return ErrWrongState
	}
	p.format = f
	p.state = PortReady
	return nil
}

// Format returns the negotiated format, if any.
func (p *Port) Format() *pod.Object {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}

// InstallBuffers transitions Ready -> Paused once a buffer pool is
// installed (spec.md §4.4).
func (p *Port) InstallBuffers() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PortReady {
		return ErrWrongState
	}
	p.state = PortPaused
	return nil
}

// Start transitions Paused -> Streaming when the owning Node starts.
func (p *Port) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PortPaused {
		return ErrWrongState
	}
	p.state = PortStreaming
	return nil
}

func (p *Port) addLink(l *Link) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.links[l.ID] = l
}

func (p *Port) removeLink(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.links, id)
	delete(p.mixPorts, id)
}

// Links returns a snapshot of the links this port currently participates
// in.
func (p *Port) Links() []*Link {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Link, 0, len(p.links))
	for _, l := range p.links {
		out = append(out, l)
	}
	return out
}

// MixPort returns (creating if needed) the synthetic port id this Input
// Port uses to give linkID's producer a distinct I/O slot (spec.md
// §4.4's mix-port mechanism).
func (p *Port) MixPort(linkID uint32) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.mixPorts[linkID]; ok {
		return id
	}
	p.nextMix++
	id := p.nextMix
	p.mixPorts[linkID] = id
	return id
}
