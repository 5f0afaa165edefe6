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

// Package corereg implements the object registry: Core, Global, Client,
// Resource and the permission plane that gates them (spec.md §3.2, §4.3).
// The object graph is cyclic by construction (Client -> Resource -> Global
// -> owner Client). The Core looks Clients and Globals up in uint32
// id-keyed maps, but the cross-references between objects
// (Resource.Owner, Resource.Global, Global.Owner, Client.CoreResource)
// are direct pointers, not ids resolved through those maps.
package corereg

import "sync"

// idAllocator is a reusable small-int id source: free ids are recycled
// before the counter advances, matching spec.md §3.2's "reusable id-map"
// for Core.add_global.
type idAllocator struct {
	mu   sync.Mutex
	next uint32
	free []uint32
}

func newIDAllocator(start uint32) *idAllocator {
	return &idAllocator{next: start}
}

func (a *idAllocator) alloc() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

func (a *idAllocator) release(id uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, id)
}
