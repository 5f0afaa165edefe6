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

package engine

import (
	"github.com/sigflow/sigflow/graph"
	"github.com/sigflow/sigflow/memblock"
)

// ReuseQueue collects buffer ids a Node releases from its I/O slots when
// paused, so the allocating side can recycle them without a round trip
// through the main loop (spec.md §4.6.5 step 2).
type ReuseQueue struct {
	ids []uint32
}

func (q *ReuseQueue) Push(bufferID uint32) { q.ids = append(q.ids, bufferID) }

// Drain empties and returns the queued buffer ids.
func (q *ReuseQueue) Drain() []uint32 {
	ids := q.ids
	q.ids = nil
	return ids
}

// Pause stops scheduling n after its current cycle and releases every
// buffer its links currently hold back into each link's reuse queue
// (spec.md §4.6.5). n itself remains in Paused until Start or Suspend.
func Pause(n *graph.Node, reuse map[*graph.Link]*ReuseQueue) error {
	if err := n.SendCommand("Pause"); err != nil {
		return err
	}
	for _, p := range n.Ports() {
		for _, l := range p.Links() {
			q, ok := reuse[l]
			if !ok {
				q = &ReuseQueue{}
				reuse[l] = q
			}
			if bp := l.Buffers(); bp != nil {
				for i := range bp.Buffers {
					q.Push(uint32(i))
				}
			}
		}
	}
	return nil
}

// Suspend additionally tears down n's buffer pools and returns every port
// to Ready (spec.md §4.6.5). n.SendCommand("Suspend") already walks ports
// back to PortReady; Suspend releases the link-owned pools through pool.
func Suspend(n *graph.Node, pool *memblock.Pool) error {
	if err := n.SendCommand("Suspend"); err != nil {
		return err
	}
	for _, p := range n.Ports() {
		for _, l := range p.Links() {
			l.Deactivate()
			l.Destroy(pool)
		}
	}
	return nil
}
