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

// Package nodefactory implements the NodeFactory Global and its
// create_node method (spec.md §4.7): the mechanism by which a client asks
// the core to instantiate a Node from a named, plugin-registered
// constructor and bind it into the client's own id-space.
package nodefactory

import (
	"sync"

	"github.com/sigflow/sigflow/graph"
	"github.com/sigflow/sigflow/propdict"
)

// CreateFunc builds a NodeImpl for one create_node call. props carries the
// caller-supplied construction parameters (e.g. "audio.rate", "audio.channels").
type CreateFunc func(props propdict.Dict) (graph.NodeImpl, error)

// Factory is one named entry a NodeFactory global can instantiate. Async
// marks a factory whose construction is deferred through the work queue
// rather than resolved inline (spec.md §4.7's "the call may asynchronously
// produce the Node").
type Factory struct {
	Name  string
	Async bool
	Create CreateFunc
}

// Registry holds every Factory a running server has loaded. Lookup is a
// linear scan by name, matching spec.md §4.7: "the core maintains a linear
// search by factory name" -- the list rarely exceeds a few dozen entries,
// so an index buys nothing.
type Registry struct {
	mu        sync.RWMutex
	factories []*Factory
}

// NewRegistry returns an empty factory registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds f, replacing any existing entry of the same name.
func (r *Registry) Register(f *Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.factories {
		if existing.Name == f.Name {
			r.factories[i] = f
			return
		}
	}
	r.factories = append(r.factories, f)
}

// Lookup finds a registered factory by name.
func (r *Registry) Lookup(name string) (*Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.factories {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Names returns every registered factory name, in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.factories))
	for i, f := range r.factories {
		out[i] = f.Name
	}
	return out
}
