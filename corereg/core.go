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

package corereg

import (
	"sort"
	"sync"

	"github.com/sigflow/sigflow/propdict"
	"github.com/sigflow/sigflow/typeid"
	"github.com/sigflow/sigflow/workqueue"
)

// TypeCore, TypeRegistry and TypeNodeFactory are the well-known Global
// types the core itself binds (spec.md §6.1). Other packages (graph,
// nodefactory) intern and use their own type names through the same
// Types table.
var (
	TypeCore        = "PipeWire:Interface:Core"
	TypeRegistry    = "PipeWire:Interface:Registry"
	TypeNodeFactory = "PipeWire:Interface:NodeFactory"
)

// Core is the singleton per-process registry (spec.md §3.2): the type
// table, the global id-map, the client list and the global permission
// function. It does not itself own the Loop, MemPool or graph engine —
// those are composed alongside it by the server bootstrap — but every
// object lifetime rule in spec.md §3.4 is enforced here.
type Core struct {
	Types *typeid.Table
	Work  *workqueue.Queue

	mu         sync.RWMutex
	globalIDs  *idAllocator
	globals    map[uint32]*Global
	globalSeq  []uint32 // creation order, for registry snapshot fanout
	clients    map[uint32]*Client
	clientIDs  *idAllocator
	registries map[*Client]*Registry

	permission PermissionFunc

	onGlobalAdded   *listeners[func(*Global)]
	onGlobalRemoved *listeners[func(*Global)]
}

// New returns a Core with the default (allow-all) permission policy.
// Global ids are allocated from 1, so no Global ever has id 0; the Core's
// own singleton Global is registered through AddGlobal like any other and
// takes the first free id.
func New() *Core {
	c := &Core{
		Types:           typeid.NewSeededTable(),
		Work:            workqueue.New(),
		globalIDs:       newIDAllocator(1),
		globals:         make(map[uint32]*Global),
		clients:         make(map[uint32]*Client),
		clientIDs:       newIDAllocator(1),
		registries:      make(map[*Client]*Registry),
		permission:      DefaultPermissions,
		onGlobalAdded:   newListeners[func(*Global)](),
		onGlobalRemoved: newListeners[func(*Global)](),
	}
	return c
}

// SetPermissionFunc installs the Core's global permission policy (one of
// DefaultPermissions, SameUIDPermissions, NetworkOriginPermissions, or a
// caller-supplied function — spec.md §4.3 names these as examples, not an
// exhaustive closed set).
func (c *Core) SetPermissionFunc(fn PermissionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permission = fn
}

func (c *Core) permissionFor(g *Global, client *Client) Permission {
	c.mu.RLock()
	fn := c.permission
	c.mu.RUnlock()
	return fn(g, client)
}

// OnGlobalAdded / OnGlobalRemoved let in-process collaborators (the
// engine recomputing subgraphs, the debug API) observe the global
// lifecycle without going through a Registry resource.
func (c *Core) OnGlobalAdded(fn func(*Global))   { c.onGlobalAdded.Add(fn) }
func (c *Core) OnGlobalRemoved(fn func(*Global)) { c.onGlobalRemoved.Add(fn) }

// AddGlobal registers a new Global and fans out `global` to every bound
// Registry whose client currently passes the permission filter (spec.md
// §3.2, §4.3).
func (c *Core) AddGlobal(typ typeid.Id, version uint32, owner *Client, props propdict.Dict, bind BindFunc) *Global {
	id := c.globalIDs.alloc()
	g := newGlobal(id, typ, version, owner, props, bind)

	c.mu.Lock()
	c.globals[id] = g
	c.globalSeq = append(c.globalSeq, id)
	regs := make([]*Registry, 0, len(c.registries))
	for _, r := range c.registries {
		regs = append(regs, r)
	}
	c.mu.Unlock()

	c.onGlobalAdded.Emit(func(fn func(*Global)) { fn(g) })
	for _, reg := range regs {
		reg.notifyAdded(g)
	}
	return g
}

// RemoveGlobal destroys a Global: every bound Resource is emitted a
// `removed` event and torn down, then every Registry is notified
// `global_remove`, then the id is released for reuse (spec.md §3.2,
// §3.4).
func (c *Core) RemoveGlobal(id uint32) error {
	c.mu.Lock()
	g, ok := c.globals[id]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownGlobal
	}
	delete(c.globals, id)
	regs := make([]*Registry, 0, len(c.registries))
	for _, r := range c.registries {
		regs = append(regs, r)
	}
	c.mu.Unlock()

	g.markDestroyed()
	for _, r := range g.boundResources() {
		r.Emit("removed", nil)
		c.destroyResource(r)
	}

	c.onGlobalRemoved.Emit(func(fn func(*Global)) { fn(g) })
	for _, reg := range regs {
		reg.notifyRemoved(id)
	}

	c.globalIDs.release(id)
	return nil
}

// snapshotGlobals returns every live Global in creation order, used by a
// freshly-bound Registry to build its initial view.
func (c *Core) snapshotGlobals() []*Global {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Global, 0, len(c.globalSeq))
	for _, id := range c.globalSeq {
		if g, ok := c.globals[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Globals returns every live Global in creation order, for the debug API
// and other in-process introspection (spec.md §4.7's Registry snapshot,
// exposed read-only outside the client protocol).
func (c *Core) Globals() []*Global {
	return c.snapshotGlobals()
}

// Global looks up a live Global by id.
func (c *Core) Global(id uint32) (*Global, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.globals[id]
	return g, ok
}

// AddClient registers a newly-accepted peer and returns its Client
// record; the caller is expected to immediately call GetRegistry or bind
// the Core resource as the protocol layer requires.
func (c *Core) AddClient(creds Creds, props propdict.Dict) *Client {
	id := c.clientIDs.alloc()
	cl := newClient(id, creds, props, c)

	c.mu.Lock()
	c.clients[id] = cl
	c.mu.Unlock()
	return cl
}

// Bind validates globalID, applies the permission filter, and invokes the
// Global's bind function to produce a Resource in the client's id-space
// at newID (spec.md §4.3). Binding requires at least PermRead.
func (c *Core) Bind(client *Client, globalID, version, newID uint32) (*Resource, error) {
	g, ok := c.Global(globalID)
	if !ok {
		return nil, ErrUnknownGlobal
	}
	perm := c.permissionFor(g, client)
	if !perm.Has(PermRead) {
		return nil, ErrPermissionDenied
	}

	res, err := g.Bind(client, version, newID)
	if err != nil {
		return nil, err
	}
	res.Permissions = perm
	if err := client.addResource(res); err != nil {
		return nil, err
	}
	g.addResource(res)
	return res, nil
}

// GetRegistry creates the Registry resource for client at newID and
// immediately sends the initial `global` snapshot, in creation order
// (spec.md §4.3, §8).
func (c *Core) GetRegistry(client *Client, newID uint32) (*Registry, error) {
	c.Types.Intern(TypeRegistry)
	res := newResource(newID, client, nil, PermAll, 0)

	if err := client.addResource(res); err != nil {
		return nil, err
	}

	reg := newRegistry(res, client, c)
	c.mu.Lock()
	c.registries[client] = reg
	c.mu.Unlock()

	reg.sendInitialSnapshot()
	return reg, nil
}

func (c *Core) destroyResource(r *Resource) {
	r.destroy()
	if r.Owner != nil {
		r.Owner.removeResource(r.ID)
	}
}

// DestroyResource tears a single resource down explicitly (spec.md
// §3.4's "explicit destroy" path), independent of its Global's or
// Client's lifetime.
func (c *Core) DestroyResource(r *Resource) {
	c.destroyResource(r)
}

// DisconnectClient tears down every Resource owned by client on the main
// loop thread, cancelling any work-queue item scoped to them first
// (spec.md §5's cancellation rule), then drops the client's Registry and
// record. Idempotent.
func (c *Core) DisconnectClient(client *Client) {
	client.mu.Lock()
	if client.disconnected {
		client.mu.Unlock()
		return
	}
	client.disconnected = true
	client.mu.Unlock()

	for _, r := range client.Resources() {
		c.Work.Cancel(r, workqueue.IDInvalid)
		c.destroyResource(r)
	}

	c.mu.Lock()
	delete(c.registries, client)
	delete(c.clients, client.ID)
	c.mu.Unlock()
	c.clientIDs.release(client.ID)
}

// Sync echoes seq back to the client once every event enqueued before
// this call has been delivered (spec.md §6.1's `sync(seq)` / `done(seq)`,
// SPEC_FULL §4's per-client sync sequence echoing). It is implemented as
// a work-queue item so overlapping syncs from different clients never
// block one another.
func (c *Core) Sync(client *Client, seq uint32, done func(seq uint32)) {
	c.Work.Add(client, workqueue.SeqInvalid, func(result any, err error) {
		done(seq)
	})
	c.Work.Complete(client, workqueue.SeqInvalid, nil)
}

// ClientIDsSorted returns connected client ids in ascending order, used
// by the debug API and tests for deterministic listings.
func (c *Core) ClientIDsSorted() []uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]uint32, 0, len(c.clients))
	for id := range c.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
