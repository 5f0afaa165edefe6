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

package nodefactory

import (
	"sync/atomic"

	liberr "github.com/sigflow/sigflow/errors"
	"github.com/sigflow/sigflow/corereg"
	"github.com/sigflow/sigflow/graph"
	"github.com/sigflow/sigflow/propdict"
	"github.com/sigflow/sigflow/workqueue"
)

var (
	ErrUnknownFactory = liberr.New(uint16(liberr.MinPkgNodeFact+1), "nodefactory: unknown factory")
	ErrBadArgument    = liberr.New(uint16(liberr.MinPkgNodeFact+2), "nodefactory: bad argument")
)

// typeNode is the well-known Node interface namespace; the seeded typeid
// table already interns it (spec.md §6.1), nodefactory only looks it up.
const typeNode = "PipeWire:Interface:Node"

// MethodCreateNode is create_node's method index on the NodeFactory
// resource (spec.md §4.7).
const MethodCreateNode = 0

// CreateNodeArgs is create_node's argument set.
type CreateNodeArgs struct {
	FactoryName string
	Props       propdict.Dict
	NewID       uint32
}

// DoneEvent is what create_node_done carries back to the caller, whether
// resolved inline or deferred through the work queue.
type DoneEvent struct {
	NewID  uint32
	Node   *graph.Node
	Global *corereg.Global
	Err    error
}

// NodeFactory is one instance of the NodeFactory Global (spec.md §4.7). A
// server may register more than one, e.g. separate factories for
// "client-node" and built-in monitor nodes.
type NodeFactory struct {
	core     *corereg.Core
	registry *Registry

	nextNodeID uint32 // atomic; this factory's private graph.Node id space
}

// NewGlobal registers a NodeFactory Global on core, owned by owner (nil for
// a server-provided factory), advertising props, and returns the Global so
// the caller can add it to a Registry snapshot immediately.
func NewGlobal(core *corereg.Core, registry *Registry, owner *corereg.Client, props propdict.Dict) *corereg.Global {
	nf := &NodeFactory{core: core, registry: registry, nextNodeID: 1}
	typ := core.Types.Intern(corereg.TypeNodeFactory)
	return core.AddGlobal(typ, 0, owner, props, nf.bind)
}

func (nf *NodeFactory) bind(client *corereg.Client, version, newID uint32) (*corereg.Resource, error) {
	res := corereg.NewResource(newID, client, nil, corereg.PermAll, version)
	res.SetMethod(MethodCreateNode, func(args any) error {
		req, ok := args.(CreateNodeArgs)
		if !ok {
			return ErrBadArgument
		}
		return nf.handleCreateNode(client, res, req)
	})
	return res, nil
}

// build instantiates req's node: runs the factory's CreateFunc, wraps the
// result in a graph.Node, registers a Node Global owned by client, and
// binds it at req.NewID in the same call (spec.md §4.7: "returns a new
// Node (as a Global + Resource) bound in the requesting Client's
// id-space").
func (nf *NodeFactory) build(client *corereg.Client, factory *Factory, req CreateNodeArgs) (*graph.Node, *corereg.Global, error) {
	impl, err := factory.Create(req.Props)
	if err != nil {
		return nil, nil, err
	}

	id := atomic.AddUint32(&nf.nextNodeID, 1) - 1
	node := graph.NewNode(id, impl, req.Props)

	typ := nf.core.Types.Intern(typeNode)
	g := nf.core.AddGlobal(typ, 0, client, req.Props, func(c *corereg.Client, version, newID uint32) (*corereg.Resource, error) {
		return corereg.NewResource(newID, c, nil, corereg.PermAll, version), nil
	})

	if _, err := nf.core.Bind(client, g.ID, 0, req.NewID); err != nil {
		return node, g, err
	}
	return node, g, nil
}

// handleCreateNode resolves one create_node call. A synchronous factory
// builds and emits create_node_done before returning; an async factory
// routes the same result through the work queue, mirroring how Core.Sync
// defers its done callback (spec.md §4.2, §4.7).
func (nf *NodeFactory) handleCreateNode(client *corereg.Client, res *corereg.Resource, req CreateNodeArgs) error {
	factory, ok := nf.registry.Lookup(req.FactoryName)
	if !ok {
		res.Emit("create_node_done", DoneEvent{NewID: req.NewID, Err: ErrUnknownFactory})
		return ErrUnknownFactory
	}

	if !factory.Async {
		node, g, err := nf.build(client, factory, req)
		res.Emit("create_node_done", DoneEvent{NewID: req.NewID, Node: node, Global: g, Err: err})
		return err
	}

	nf.core.Work.Add(res, workqueue.SeqInvalid, func(result any, err error) {
		done, _ := result.(DoneEvent)
		res.Emit("create_node_done", done)
	})
	node, g, err := nf.build(client, factory, req)
	nf.core.Work.Complete(res, workqueue.SeqInvalid, DoneEvent{NewID: req.NewID, Node: node, Global: g, Err: err})
	return err
}
