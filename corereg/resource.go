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
	"container/list"
	"sync"

	liberr "github.com/sigflow/sigflow/errors"
)

var (
	ErrPermissionDenied = liberr.New(uint16(liberr.MinPkgCoreReg+1), "corereg: permission denied")
	ErrUnknownMethod    = liberr.New(uint16(liberr.MinPkgCoreReg+2), "corereg: unknown method")
	ErrIDInUse          = liberr.New(uint16(liberr.MinPkgCoreReg+3), "corereg: id already in use")
	ErrUnknownGlobal    = liberr.New(uint16(liberr.MinPkgCoreReg+4), "corereg: unknown global")
	ErrDestroyed        = liberr.New(uint16(liberr.MinPkgCoreReg+5), "corereg: resource destroyed")
)

// MethodFunc is one entry of a Resource's versioned method dispatch
// table, looked up by index (spec.md §4.3).
type MethodFunc func(args any) error

// EventFunc is one handler registered on a Resource's event emitter.
type EventFunc func(name string, args any)

// Override lets a client install per-request interception on its own
// resource (spec.md §4.3): it runs before the server implementation and
// may short-circuit, forward to Next, or defer via the work queue.
type Override func(method int, args any, next MethodFunc) error

// Resource is a Client's view of a Global (spec.md §3.2).
type Resource struct {
	ID          uint32
	Owner       *Client
	Global      *Global
	Permissions Permission
	Version     uint32

	mu        sync.RWMutex
	methods   map[int]MethodFunc
	overrides map[int]Override
	events    *listeners[EventFunc]
	destroyed bool
}

// NewResource builds a Resource ready for use outside this package —
// node factories and the graph package construct their own Resources
// from a Global's BindFunc and must go through this constructor so the
// event emitter is initialized.
func NewResource(id uint32, owner *Client, global *Global, perm Permission, version uint32) *Resource {
	return newResource(id, owner, global, perm, version)
}

func newResource(id uint32, owner *Client, global *Global, perm Permission, version uint32) *Resource {
	return &Resource{
		ID:          id,
		Owner:       owner,
		Global:      global,
		Permissions: perm,
		Version:     version,
		methods:     make(map[int]MethodFunc),
		overrides:   make(map[int]Override),
		events:      newListeners[EventFunc](),
	}
}

// SetMethod installs the server-side handler for a method index.
func (r *Resource) SetMethod(index int, fn MethodFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[index] = fn
}

// SetOverride installs a client-side override for a method index
// (spec.md §4.3's "a client may install overrides on its own resources").
func (r *Resource) SetOverride(index int, fn Override) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[index] = fn
}

// Dispatch invokes the method at index, running any installed override
// first and requiring PermExecute. Missing/too-new indices are reported
// as ErrUnknownMethod per spec.md §4.3's "missing/too-new indices produce
// a client error event and close the resource" (closing the resource is
// the caller's responsibility, at the protocol layer).
func (r *Resource) Dispatch(index int, args any) error {
	r.mu.RLock()
	if r.destroyed {
		r.mu.RUnlock()
		return ErrDestroyed
	}
	if !r.Permissions.Has(PermExecute) {
		r.mu.RUnlock()
		return ErrPermissionDenied
	}
	fn, ok := r.methods[index]
	ov, hasOv := r.overrides[index]
	r.mu.RUnlock()

	if !ok {
		return ErrUnknownMethod
	}
	if hasOv {
		return ov(index, args, fn)
	}
	return fn(args)
}

// On registers an event handler and returns a token for Off.
func (r *Resource) On(fn EventFunc) *list.Element { return r.events.Add(fn) }

// Off unregisters a handler installed by On.
func (r *Resource) Off(tok *list.Element) { r.events.Remove(tok) }

// Emit fires name with args to every registered event handler, in
// registration order (spec.md §5's main-loop ordering invariant).
func (r *Resource) Emit(name string, args any) {
	r.events.Emit(func(fn EventFunc) { fn(name, args) })
}

// IsDestroyed reports whether the resource has already been torn down.
func (r *Resource) IsDestroyed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.destroyed
}

// destroy marks the resource torn down and detaches it from its Global;
// idempotent.
func (r *Resource) destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.mu.Unlock()

	if r.Global != nil {
		r.Global.removeResource(r)
	}
}
