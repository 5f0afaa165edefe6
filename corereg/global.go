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
	"sync"

	"github.com/sigflow/sigflow/propdict"
	"github.com/sigflow/sigflow/typeid"
)

// BindFunc creates a Resource on behalf of a Client binding to a Global
// (spec.md §3.2's `bind` function pointer).
type BindFunc func(client *Client, version uint32, newID uint32) (*Resource, error)

// Global is a publicly-advertised object (spec.md §3.2).
type Global struct {
	ID      uint32
	Owner   *Client
	Type    typeid.Id
	Version uint32
	Props   propdict.Dict
	Bind    BindFunc

	mu        sync.Mutex
	resources map[*Client]map[uint32]*Resource
	destroyed bool
}

func newGlobal(id uint32, typ typeid.Id, version uint32, owner *Client, props propdict.Dict, bind BindFunc) *Global {
	return &Global{
		ID:        id,
		Owner:     owner,
		Type:      typ,
		Version:   version,
		Props:     props,
		Bind:      bind,
		resources: make(map[*Client]map[uint32]*Resource),
	}
}

func (g *Global) addResource(r *Resource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resources[r.Owner] == nil {
		g.resources[r.Owner] = make(map[uint32]*Resource)
	}
	g.resources[r.Owner][r.ID] = r
}

func (g *Global) removeResource(r *Resource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m := g.resources[r.Owner]; m != nil {
		delete(m, r.ID)
		if len(m) == 0 {
			delete(g.resources, r.Owner)
		}
	}
}

// boundResources returns a snapshot of every Resource currently bound to
// this Global, across every Client.
func (g *Global) boundResources() []*Resource {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []*Resource
	for _, m := range g.resources {
		for _, r := range m {
			out = append(out, r)
		}
	}
	return out
}

// IsDestroyed reports whether Core.RemoveGlobal already ran for this
// Global.
func (g *Global) IsDestroyed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.destroyed
}

func (g *Global) markDestroyed() {
	g.mu.Lock()
	g.destroyed = true
	g.mu.Unlock()
}
