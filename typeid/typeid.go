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

// Package typeid interns the string namespaces (e.g. "Spa:Interface:Node")
// that the graph exchanges as 32-bit ids. Ids are process-local: two peers
// that need to share one first exchange a type-map update establishing the
// peer's local id<->string mapping (see Table.Export/Table.Import).
package typeid

import (
	"sync"
)

// Id is a 32-bit handle interned from a string namespace.
type Id uint32

// Invalid is the zero value, never allocated by Table.Intern.
const Invalid Id = 0

// Table is a process-local, concurrency-safe string<->Id interner.
type Table struct {
	mu   sync.RWMutex
	toID map[string]Id
	toNm map[Id]string
	next Id
}

// NewTable returns an empty Table. Id 1 is the first id handed out by Intern;
// 0 (Invalid) is reserved so callers can distinguish "not yet interned".
func NewTable() *Table {
	return &Table{
		toID: make(map[string]Id, 64),
		toNm: make(map[Id]string, 64),
		next: 1,
	}
}

// Intern returns the Id for name, allocating a new one if this Table has
// never seen it before. Safe for concurrent use.
func (t *Table) Intern(name string) Id {
	t.mu.RLock()
	if id, ok := t.toID[name]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.toID[name]; ok {
		return id
	}

	id := t.next
	t.next++
	t.toID[name] = id
	t.toNm[id] = name
	return id
}

// Name returns the string a previously-interned Id maps to.
func (t *Table) Name(id Id) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.toNm[id]
	return n, ok
}

// Lookup returns the Id for name without interning it.
func (t *Table) Lookup(name string) (Id, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.toID[name]
	return id, ok
}

// Update is one entry of a type-map update exchanged with a peer: the
// peer's local id paired with the well-known string it names.
type Update struct {
	PeerID Id
	Name   string
}

// Export snapshots this Table as a sequence of Updates a peer can replay
// with Import to build its own local mapping for the same namespaces.
func (t *Table) Export() []Update {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Update, 0, len(t.toNm))
	for id, name := range t.toNm {
		out = append(out, Update{PeerID: id, Name: name})
	}
	return out
}

// PeerMap translates a peer's local ids into this Table's local ids, built
// by Import. It never allocates; unknown peer ids resolve to Invalid.
type PeerMap struct {
	toLocal map[Id]Id
}

// Import consumes a sequence of Updates received from a peer and returns a
// PeerMap that translates that peer's ids to this Table's own ids (interning
// any name this Table has not seen yet).
func (t *Table) Import(updates []Update) *PeerMap {
	pm := &PeerMap{toLocal: make(map[Id]Id, len(updates))}
	for _, u := range updates {
		pm.toLocal[u.PeerID] = t.Intern(u.Name)
	}
	return pm
}

// Translate maps a peer-local id to this Table's local id. ok is false for
// an id never exchanged via a type-map update.
func (p *PeerMap) Translate(peerID Id) (Id, bool) {
	if p == nil {
		return Invalid, false
	}
	id, ok := p.toLocal[peerID]
	return id, ok
}

// Well-known namespaces the core itself interns eagerly so every Table
// agrees on the interface/object-type ids before any peer connects.
var wellKnown = []string{
	"Spa:Interface:Node",
	"Spa:Interface:Link",
	"Spa:Pointer:Buffer",
	"PipeWire:Interface:Core",
	"PipeWire:Interface:Registry",
	"PipeWire:Interface:Client",
	"PipeWire:Interface:Node",
	"PipeWire:Interface:Port",
	"PipeWire:Interface:Link",
	"PipeWire:Interface:Factory",
	"PipeWire:Interface:Session",
	"PipeWire:Interface:Endpoint",
	"PipeWire:Interface:EndpointStream",
	"PipeWire:Interface:EndpointLink",
}

// NewSeededTable returns a Table with the well-known core namespaces
// pre-interned, matching what a freshly-started Core advertises.
func NewSeededTable() *Table {
	t := NewTable()
	for _, n := range wellKnown {
		t.Intern(n)
	}
	return t
}
