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

// Package graph implements the Node, Port and Link objects and their
// state machines (spec.md §3.2, §4.4, §4.5.6) — the topology the engine
// schedules and negotiate allocates buffers for.
package graph

import (
	"sync"
	"sync/atomic"

	liberr "github.com/sigflow/sigflow/errors"
	"github.com/sigflow/sigflow/pod"
	"github.com/sigflow/sigflow/propdict"
)

var (
	ErrMaxPorts   = liberr.New(uint16(liberr.MinPkgGraph+1), "graph: port direction at its max count")
	ErrNotFound   = liberr.New(uint16(liberr.MinPkgGraph+2), "graph: object not found")
	ErrWrongState = liberr.New(uint16(liberr.MinPkgGraph+3), "graph: operation invalid in current state")
)

// Direction is a Port's data direction.
type Direction uint8

const (
	Input Direction = iota
	Output
)

// NodeFlags advertise capability bits a NodeImpl exposes via get_info.
type NodeFlags uint8

const (
	FlagDriver NodeFlags = 1 << iota
	FlagCanAllocBuffers
)

// NodeState mirrors the Node's coarse lifecycle, separate from each
// Port's own state machine.
type NodeState uint8

const (
	NodeIdle NodeState = iota
	NodeRunning
	NodeSuspended
	NodeError
)

// Clock is the per-cycle clock sample written by the driver (spec.md
// §3.2).
type Clock struct {
	Nsec  uint64
	Rate  uint32
	Delay uint64
}

// Position is the per-cycle position record the driver writes at cycle
// start (spec.md §3.2, §4.6.2).
type Position struct {
	Clock    Clock
	Cycle    uint64
	Quantum  uint32
	RateNum  uint32
	RateDen  uint32
}

// NodeImpl is the external plugin contract a Node wraps (spec.md §4.4).
// The core only ever calls through this interface; it never inspects a
// node implementation's internals.
type NodeImpl interface {
	GetInfo() (flags NodeFlags, maxIn, maxOut int, props propdict.Dict)
	EnumParams(id uint32, start int, filter *pod.Object) (next *pod.Object, hasMore bool)
	SetParam(id uint32, flags uint32, value *pod.Object) error
	SetIO(id uint32, ptr []byte) error
	SendCommand(cmd string) error
	AddPort(dir Direction) (portID uint32, err error)
	RemovePort(portID uint32) error
	PortEnumParams(portID, id uint32, start int, filter *pod.Object) (next *pod.Object, hasMore bool)
	PortSetParam(portID, id uint32, flags uint32, value *pod.Object) error
	PortSetIO(portID, id uint32, ptr []byte) error
	Process() ProcessResult
}

// ProcessResult is the bitmask NodeImpl.Process returns each cycle.
type ProcessResult uint8

const (
	HaveData ProcessResult = 1 << iota
	NeedData
	Drained
)

// Node is a processing unit owned by a Client or the server (spec.md
// §3.2).
type Node struct {
	ID     uint32
	Impl   NodeImpl
	Props  propdict.Dict
	Flags  NodeFlags

	mu      sync.Mutex
	ports   map[uint32]*Port
	portSeq uint32
	state   NodeState

	Driver  *Node // back-ref to the subgraph's driver; self when IsDriver
	Active  int32 // atomic bool
	Runnable int32
	Added    bool

	NReadyInputs  int32
	NReadyOutputs int32

	Position Position
	Activation *Activation

	TargetList []*Node // downstream nodes to signal on cycle finish
}

// NewNode wraps impl in a scheduling-ready Node. id must be unique within
// the owning Core's node namespace (nodefactory.NodeFactory and
// bootstrap.CoreGlobal each assign it from their own counter starting at
// 1, not from the Global id-space).
func NewNode(id uint32, impl NodeImpl, props propdict.Dict) *Node {
	flags, _, _, _ := impl.GetInfo()
	return &Node{
		ID:         id,
		Impl:       impl,
		Props:      props,
		Flags:      flags,
		ports:      make(map[uint32]*Port),
		Activation: NewActivation(),
	}
}

// IsDriver reports whether n is the driver of its own subgraph.
func (n *Node) IsDriver() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.Driver == n
}

// SetActive flips the active flag; engine.Recompute reacts to transitions.
func (n *Node) SetActive(v bool) {
	if v {
		atomic.StoreInt32(&n.Active, 1)
	} else {
		atomic.StoreInt32(&n.Active, 0)
	}
}

func (n *Node) IsActive() bool { return atomic.LoadInt32(&n.Active) != 0 }

func (n *Node) SetRunnable(v bool) {
	if v {
		atomic.StoreInt32(&n.Runnable, 1)
	} else {
		atomic.StoreInt32(&n.Runnable, 0)
	}
}

func (n *Node) IsRunnable() bool { return atomic.LoadInt32(&n.Runnable) != 0 }

// AddPort creates a Port on the node in the given direction, honoring the
// NodeImpl's advertised max-ports-per-direction (spec.md §8's boundary
// behavior): a limit of 0, such as max_input_ports = 0 for
// add_port(Input), returns ErrMaxPorts, the same error as a direction at
// its max count; there is no separate not-supported error.
func (n *Node) AddPort(dir Direction) (*Port, error) {
	_, maxIn, maxOut, _ := n.Impl.GetInfo()

	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, p := range n.ports {
		if p.Direction == dir {
			count++
		}
	}
	limit := maxOut
	if dir == Input {
		limit = maxIn
	}
	if limit == 0 || count >= limit {
		return nil, ErrMaxPorts
	}

	implID, err := n.Impl.AddPort(dir)
	if err != nil {
		return nil, err
	}

	n.portSeq++
	p := newPort(n.portSeq, n, dir, implID)
	n.ports[p.ID] = p
	return p, nil
}

// RemovePort destroys a port explicitly (spec.md §3.4).
func (n *Node) RemovePort(portID uint32) error {
	n.mu.Lock()
	p, ok := n.ports[portID]
	if !ok {
		n.mu.Unlock()
		return ErrNotFound
	}
	delete(n.ports, portID)
	n.mu.Unlock()

	return n.Impl.RemovePort(p.implID)
}

// Port looks a port up by its node-local id.
func (n *Node) Port(portID uint32) (*Port, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.ports[portID]
	return p, ok
}

// Ports returns a snapshot of every port currently on the node.
func (n *Node) Ports() []*Port {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Port, 0, len(n.ports))
	for _, p := range n.ports {
		out = append(out, p)
	}
	return out
}

// State returns the node's coarse lifecycle state.
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Node) setState(s NodeState) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// SendCommand forwards to the NodeImpl and tracks coarse state for
// Start/Pause/Suspend (spec.md §4.6.5).
func (n *Node) SendCommand(cmd string) error {
	if err := n.Impl.SendCommand(cmd); err != nil {
		return err
	}
	switch cmd {
	case "Start":
		n.SetActive(true)
		n.setState(NodeRunning)
	case "Pause":
		n.SetActive(false)
		n.setState(NodeIdle)
	case "Suspend":
		n.SetActive(false)
		n.setState(NodeSuspended)
		for _, p := range n.Ports() {
			p.setState(PortReady)
		}
	}
	return nil
}
