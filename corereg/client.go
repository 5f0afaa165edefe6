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

// Creds is the credentials record captured at socket accept (spec.md
// §3.2).
type Creds struct {
	UID uint32
	GID uint32
	PID uint32
}

// Client is a connected peer (spec.md §3.2).
type Client struct {
	ID           uint32
	Creds        Creds
	Props        propdict.Dict
	CoreResource *Resource

	core     *Core
	peerIDs  *typeid.PeerMap
	mu       sync.Mutex
	byLocal  map[uint32]*Resource // resources keyed by the id the client chose
	resNext  uint32
	disconnected bool
}

func newClient(id uint32, creds Creds, props propdict.Dict, core *Core) *Client {
	return &Client{
		ID:      id,
		Creds:   creds,
		Props:   props,
		core:    core,
		byLocal: make(map[uint32]*Resource),
	}
}

// SetPeerMap installs the type-map translation established for this
// client after a type-map update exchange (spec.md §3.1).
func (c *Client) SetPeerMap(pm *typeid.PeerMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerIDs = pm
}

func (c *Client) addResource(r *Resource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byLocal[r.ID]; exists {
		return ErrIDInUse
	}
	c.byLocal[r.ID] = r
	return nil
}

func (c *Client) removeResource(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byLocal, id)
}

// Resource looks up one of this client's own resources by the id the
// client chose for it.
func (c *Client) Resource(id uint32) (*Resource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.byLocal[id]
	return r, ok
}

// Resources returns a snapshot of every Resource currently owned by this
// client.
func (c *Client) Resources() []*Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Resource, 0, len(c.byLocal))
	for _, r := range c.byLocal {
		out = append(out, r)
	}
	return out
}

// IsDisconnected reports whether Core.DisconnectClient already ran.
func (c *Client) IsDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}
