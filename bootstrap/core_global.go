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

// Package bootstrap owns the one object none of the other packages (Core,
// NodeFactory, engine, monitor, debugapi, transport) may construct on
// their own: the Core's
// own singleton Global, whose Resource every client binds at id 0
// (spec.md §3.2, §6.1).
package bootstrap

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	liberr "github.com/sigflow/sigflow/errors"
	"github.com/sigflow/sigflow/corereg"
	"github.com/sigflow/sigflow/graph"
	"github.com/sigflow/sigflow/logger"
	"github.com/sigflow/sigflow/memblock"
	"github.com/sigflow/sigflow/negotiate"
	"github.com/sigflow/sigflow/nodefactory"
	"github.com/sigflow/sigflow/propdict"
	"github.com/sigflow/sigflow/typeid"
)

var (
	ErrBadArgument   = liberr.New(uint16(liberr.MinPkgBootstrap+1), "bootstrap: bad argument")
	ErrUnknownTarget = liberr.New(uint16(liberr.MinPkgBootstrap+2), "bootstrap: unknown resource id")
)

// Method indices for the Core resource's vtable (spec.md §3.2's "The Core
// (resource id 0) exposes methods: hello, sync(seq), update_types,
// get_registry, create_object, destroy, client_update, pong, error").
const (
	MethodHello = iota
	MethodSync
	MethodUpdateTypes
	MethodGetRegistry
	MethodCreateObject
	MethodDestroy
	MethodClientUpdate
	MethodPong
	MethodError
)

// UpdateTypesArgs carries update_types(first_id, names[])'s argument set.
// first_id is unused here: the PeerMap this produces keys off the names'
// own peer-assigned ids carried alongside them by the caller, matching
// typeid.Table.Import's (PeerID, Name) pairing.
type UpdateTypesArgs struct {
	FirstID uint32
	Updates []typeid.Update
}

// CreateObjectArgs carries create_object(factory, type, version, props,
// new_id)'s argument set. Type selects how the object is built: a Node
// Type looks Factory up in the nodefactory registry, a Link Type is built
// from the link.* endpoint properties, and any other Type is
// ErrUnknownFactory.
type CreateObjectArgs struct {
	Factory string
	Type    string
	Version uint32
	Props   propdict.Dict
	NewID   uint32
}

// DestroyArgs carries destroy(id)'s argument set.
type DestroyArgs struct {
	ID uint32
}

// ClientUpdateArgs carries client_update(props)'s argument set.
type ClientUpdateArgs struct {
	Props propdict.Dict
}

// ErrorArgs carries error(target, code, message)'s argument set, used by
// both the error method (client reporting to server) and the error event
// (server reporting to client).
type ErrorArgs struct {
	Target  uint32
	Code    uint32
	Message string
}

// InfoEvent is what the `info` event carries: the server's static
// identity, mirrored from the Global's own props.
type InfoEvent struct {
	Props propdict.Dict
}

const (
	typeNode = "PipeWire:Interface:Node"
	typeLink = "PipeWire:Interface:Link"
)

// Property keys a create_object(type=Link) call carries its endpoints in,
// the same property-bag convention PipeWire's own pw-link uses rather than
// a dedicated method signature.
const (
	PropLinkOutputNode = "link.output.node"
	PropLinkInputNode  = "link.input.node"
	PropLinkPassive    = "link.passive"
)

// CoreGlobal is the Core's own Global: a single instance per server,
// bound into every connecting client's resource namespace at id 0.
type CoreGlobal struct {
	core    *corereg.Core
	nodeReg *nodefactory.Registry
	global  *corereg.Global
	pool    *memblock.Pool
	log     logger.FuncLog

	mu         sync.Mutex
	nodes      []*graph.Node
	links      []*graph.Link
	nodeOwner  map[uint32]*corereg.Client
	nextNodeID uint32
	nextLinkID uint32
}

// NewCoreGlobal registers the Core's singleton Global on core. nodeReg is
// the NodeFactory registry create_object(type="Node", ...) dispatches
// into; passing nil disables that path (ErrUnknownFactory for every
// Node create_object call; Link creation is unaffected).
func NewCoreGlobal(core *corereg.Core, nodeReg *nodefactory.Registry, props propdict.Dict) *CoreGlobal {
	cg := &CoreGlobal{core: core, nodeReg: nodeReg, pool: memblock.New(), nodeOwner: make(map[uint32]*corereg.Client)}
	typ := core.Types.Intern(corereg.TypeCore)
	cg.global = core.AddGlobal(typ, 0, nil, props, cg.bind)
	return cg
}

// Nodes returns every graph.Node created through create_object so far, in
// creation order -- the input the bootstrap's run loop feeds to
// engine.Partition on each topology change.
func (cg *CoreGlobal) Nodes() []*graph.Node {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	out := make([]*graph.Node, len(cg.nodes))
	copy(out, cg.nodes)
	return out
}

// SetLog wires cg's logger, resolved lazily on every create_object failure.
// Unset, cg logs nothing -- the zero value is a fully functional CoreGlobal
// for tests.
func (cg *CoreGlobal) SetLog(log logger.FuncLog) { cg.log = log }

func (cg *CoreGlobal) logger() logger.Logger {
	if cg.log == nil {
		return logger.NewNop()
	}
	return cg.log()
}

// Links returns every successfully negotiated graph.Link so far, the other
// half of engine.Partition's input.
func (cg *CoreGlobal) Links() []*graph.Link {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	out := make([]*graph.Link, len(cg.links))
	copy(out, cg.links)
	return out
}

func (cg *CoreGlobal) nodeByID(id uint32) (*graph.Node, bool) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	for _, n := range cg.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// ownerUID returns the uid of the client that created node id, or 0 if
// the node was server-created (no owning client on record).
func (cg *CoreGlobal) ownerUID(id uint32) uint32 {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	c, ok := cg.nodeOwner[id]
	if !ok || c == nil {
		return 0
	}
	return c.Creds.UID
}

// Bind installs the Core resource at id 0 in client's own namespace --
// the call transport.Server.OnClientConnected makes for every accepted
// connection, before any frame is read.
func (cg *CoreGlobal) Bind(client *corereg.Client) (*corereg.Resource, error) {
	return cg.core.Bind(client, cg.global.ID, 0, 0)
}

func (cg *CoreGlobal) bind(client *corereg.Client, version, newID uint32) (*corereg.Resource, error) {
	res := corereg.NewResource(newID, client, nil, corereg.PermAll, version)
	client.CoreResource = res

	res.SetMethod(MethodHello, func(any) error {
		res.Emit("info", InfoEvent{Props: cg.global.Props})
		return nil
	})

	res.SetMethod(MethodSync, func(args any) error {
		seq, ok := args.(uint32)
		if !ok {
			return ErrBadArgument
		}
		cg.core.Sync(client, seq, func(seq uint32) {
			res.Emit("done", seq)
		})
		return nil
	})

	res.SetMethod(MethodUpdateTypes, func(args any) error {
		req, ok := args.(UpdateTypesArgs)
		if !ok {
			return ErrBadArgument
		}
		pm := cg.core.Types.Import(req.Updates)
		client.SetPeerMap(pm)
		return nil
	})

	res.SetMethod(MethodGetRegistry, func(args any) error {
		newID, ok := args.(uint32)
		if !ok {
			return ErrBadArgument
		}
		_, err := cg.core.GetRegistry(client, newID)
		return err
	})

	res.SetMethod(MethodCreateObject, func(args any) error {
		req, ok := args.(CreateObjectArgs)
		if !ok {
			return ErrBadArgument
		}
		return cg.handleCreateObject(client, res, req)
	})

	res.SetMethod(MethodDestroy, func(args any) error {
		req, ok := args.(DestroyArgs)
		if !ok {
			return ErrBadArgument
		}
		target, ok := client.Resource(req.ID)
		if !ok {
			return ErrUnknownTarget
		}
		cg.core.DestroyResource(target)
		res.Emit("remove_id", req.ID)
		return nil
	})

	res.SetMethod(MethodClientUpdate, func(args any) error {
		req, ok := args.(ClientUpdateArgs)
		if !ok {
			return ErrBadArgument
		}
		client.Props = client.Props.Merge(req.Props)
		return nil
	})

	res.SetMethod(MethodPong, func(args any) error {
		seq, ok := args.(uint32)
		if !ok {
			return ErrBadArgument
		}
		res.Emit("pong", seq)
		return nil
	})

	res.SetMethod(MethodError, func(args any) error {
		req, ok := args.(ErrorArgs)
		if !ok {
			return ErrBadArgument
		}
		res.Emit("error", req)
		return nil
	})

	return res, nil
}

// handleCreateObject resolves create_object by delegating to the
// NodeFactory registry for Type=="Node", or to a local Link build+
// negotiate for Type=="Link", binding the result at req.NewID in the
// caller's own id-space the same way NodeFactory.create_node does
// (spec.md §4.7) -- create_object is the Core-level generalization, of
// which create_node is the Node-specific convenience.
func (cg *CoreGlobal) handleCreateObject(client *corereg.Client, res *corereg.Resource, req CreateObjectArgs) error {
	switch req.Type {
	case typeNode:
		return cg.createNode(client, res, req)
	case typeLink:
		return cg.createLink(client, res, req)
	default:
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 1, Message: "unknown object type"})
		return nodefactory.ErrUnknownFactory
	}
}

func (cg *CoreGlobal) createNode(client *corereg.Client, res *corereg.Resource, req CreateObjectArgs) error {
	if cg.nodeReg == nil {
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 1, Message: "unknown object type"})
		return nodefactory.ErrUnknownFactory
	}

	factory, ok := cg.nodeReg.Lookup(req.Factory)
	if !ok {
		cg.logger().WithField("factory", req.Factory).Warning("create_object: unknown node factory")
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 1, Message: "unknown factory"})
		return nodefactory.ErrUnknownFactory
	}

	impl, err := factory.Create(req.Props)
	if err != nil {
		cg.logger().WithField("factory", req.Factory).WithError(err).Warning("create_object: factory.Create failed")
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 2, Message: err.Error()})
		return err
	}

	nodeID := atomic.AddUint32(&cg.nextNodeID, 1) - 1
	node := graph.NewNode(nodeID, impl, req.Props)
	cg.mu.Lock()
	cg.nodes = append(cg.nodes, node)
	cg.nodeOwner[nodeID] = client
	cg.mu.Unlock()

	typ := cg.core.Types.Intern(typeNode)
	g := cg.core.AddGlobal(typ, req.Version, client, req.Props, func(c *corereg.Client, version, newID uint32) (*corereg.Resource, error) {
		return corereg.NewResource(newID, c, nil, corereg.PermAll, version), nil
	})

	if _, err := cg.core.Bind(client, g.ID, req.Version, req.NewID); err != nil {
		return err
	}
	res.Emit("bound_id", g.ID)
	return nil
}

// createLink resolves a Link's two endpoint nodes from
// link.output.node/link.input.node (set in req.Props, the same
// property-bag convention pw-link uses), adds a fresh port on each, and
// runs it through negotiate.Negotiate -- spec.md §4.5's five phases --
// before binding it into the caller's id-space. A node referenced by id
// that doesn't exist, or a negotiation failure, leaves no Global
// registered: nothing partially built is ever emitted to the registry.
func (cg *CoreGlobal) createLink(client *corereg.Client, res *corereg.Resource, req CreateObjectArgs) error {
	outID, err := parseNodeProp(req.Props, PropLinkOutputNode)
	if err != nil {
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 1, Message: err.Error()})
		return ErrBadArgument
	}
	inID, err := parseNodeProp(req.Props, PropLinkInputNode)
	if err != nil {
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 1, Message: err.Error()})
		return ErrBadArgument
	}

	outNode, ok := cg.nodeByID(outID)
	if !ok {
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 1, Message: "unknown output node"})
		return ErrUnknownTarget
	}
	inNode, ok := cg.nodeByID(inID)
	if !ok {
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 1, Message: "unknown input node"})
		return ErrUnknownTarget
	}

	outPort, err := outNode.AddPort(graph.Output)
	if err != nil {
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 2, Message: err.Error()})
		return err
	}
	inPort, err := inNode.AddPort(graph.Input)
	if err != nil {
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 2, Message: err.Error()})
		return err
	}

	linkID := atomic.AddUint32(&cg.nextLinkID, 1) - 1
	link := graph.NewLink(linkID, outPort, inPort, req.Props.Bool(PropLinkPassive))

	if err := negotiate.Negotiate(link, cg.pool, negotiate.DefaultSettings()); err != nil {
		cg.logger().WithFields(map[string]interface{}{
			"link.id":          linkID,
			"link.output.node": outID,
			"link.input.node":  inID,
		}).WithError(err).Warning("create_object: link negotiation failed")
		res.Emit("error", ErrorArgs{Target: req.NewID, Code: 3, Message: err.Error()})
		return err
	}

	cg.mu.Lock()
	cg.links = append(cg.links, link)
	cg.mu.Unlock()

	linkProps := req.Props.Clone()
	linkProps[corereg.PropLinkEndpointOwnerUIDs] = fmt.Sprintf("%d,%d", cg.ownerUID(outID), cg.ownerUID(inID))

	typ := cg.core.Types.Intern(typeLink)
	g := cg.core.AddGlobal(typ, req.Version, client, linkProps, func(c *corereg.Client, version, newID uint32) (*corereg.Resource, error) {
		return corereg.NewResource(newID, c, nil, corereg.PermAll, version), nil
	})

	if _, err := cg.core.Bind(client, g.ID, req.Version, req.NewID); err != nil {
		return err
	}
	res.Emit("bound_id", g.ID)
	return nil
}

func parseNodeProp(props propdict.Dict, key string) (uint32, error) {
	s, ok := props[key]
	if !ok {
		return 0, ErrBadArgument
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ErrBadArgument
	}
	return uint32(v), nil
}
