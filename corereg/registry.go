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
	"github.com/sigflow/sigflow/propdict"
	"github.com/sigflow/sigflow/typeid"
)

// GlobalEvent is what a Registry resource emits for one visible Global
// (spec.md §6.1's `global(id, type, version, permissions, props)`).
type GlobalEvent struct {
	ID          uint32
	Type        typeid.Id
	Version     uint32
	Permissions Permission
	Props       propdict.Dict
}

// Registry is the per-client view of every Global currently visible to
// it (spec.md §4.3). It is backed by an ordinary Resource bound to the
// well-known Registry global type, and fans out global/global_remove
// events filtered by the Core's permission function.
type Registry struct {
	*Resource
	client *Client
	core   *Core
}

func newRegistry(res *Resource, client *Client, core *Core) *Registry {
	return &Registry{Resource: res, client: client, core: core}
}

// sendInitialSnapshot emits one `global` event per currently-visible
// Global, in the order the Core created them — spec.md §8's universal
// invariant that a client observes global(g.id) strictly before any
// resource bound to g.
func (reg *Registry) sendInitialSnapshot() {
	for _, g := range reg.core.snapshotGlobals() {
		if g.IsDestroyed() {
			continue
		}
		perm := reg.core.permissionFor(g, reg.client)
		if !perm.Has(PermRead) {
			continue
		}
		reg.Emit("global", GlobalEvent{ID: g.ID, Type: g.Type, Version: g.Version, Permissions: perm, Props: g.Props})
	}
}

// notifyAdded emits `global` for a freshly-added Global if this
// registry's client's permission filter allows it.
func (reg *Registry) notifyAdded(g *Global) {
	perm := reg.core.permissionFor(g, reg.client)
	if !perm.Has(PermRead) {
		return
	}
	reg.Emit("global", GlobalEvent{ID: g.ID, Type: g.Type, Version: g.Version, Permissions: perm, Props: g.Props})
}

// notifyRemoved emits `global_remove` unconditionally: a client that
// never saw the global simply ignores an id it doesn't recognize, which
// is cheaper than tracking per-registry visibility state.
func (reg *Registry) notifyRemoved(id uint32) {
	reg.Emit("global_remove", id)
}

// Bind requests a binding to globalID, installing it at newID in the
// owning client's id-space (spec.md §4.3's registry `bind` method).
func (reg *Registry) Bind(globalID, version, newID uint32) (*Resource, error) {
	return reg.core.Bind(reg.client, globalID, version, newID)
}
