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
)

// listeners is an intrusive-style doubly-linked listener list (spec.md
// §9): Emit snapshots the current elements before it starts walking, so a
// handler that removes itself (or any other listener) does not invalidate
// the in-progress iteration.
type listeners[T any] struct {
	mu sync.Mutex
	l  *list.List
}

func newListeners[T any]() *listeners[T] {
	return &listeners[T]{l: list.New()}
}

// Add registers fn and returns a token usable with Remove.
func (ls *listeners[T]) Add(fn T) *list.Element {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.l.PushBack(fn)
}

// Remove unregisters the listener identified by tok. Safe to call from
// within an in-progress Emit, including from the handler being removed.
func (ls *listeners[T]) Remove(tok *list.Element) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if tok.Value == nil {
		return
	}
	ls.l.Remove(tok)
	tok.Value = nil
}

// Emit calls visit for every listener present at call time, in insertion
// order. Listeners added during Emit are not visited in this pass;
// listeners removed during Emit are skipped if not yet reached.
func (ls *listeners[T]) Emit(visit func(T)) {
	ls.mu.Lock()
	els := make([]*list.Element, 0, ls.l.Len())
	for el := ls.l.Front(); el != nil; el = el.Next() {
		els = append(els, el)
	}
	ls.mu.Unlock()

	for _, el := range els {
		ls.mu.Lock()
		v := el.Value
		ls.mu.Unlock()

		if v != nil {
			visit(v.(T))
		}
	}
}
