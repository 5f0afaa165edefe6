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

package transport

import (
	"encoding/binary"

	"github.com/sigflow/sigflow/corereg"
)

const (
	// OpSync is the Core resource's sync(seq) method opcode.
	OpSync uint8 = 0
	// OpDone is the matching done(seq) event opcode echoed back.
	OpDone uint8 = 1
)

// Session pumps frames for one connected Client, echoing sync(seq) back
// as done(seq) through corereg.Core.Sync -- the one piece of spec.md
// §6.1's wire invariants ("a sequence number is echoed back in Done
// events so clients can drive Sync") this package wires concretely. Every
// other resource's method/event payload shape belongs to its own package
// (corereg, graph, nodefactory); the wire POD codec itself is out of
// scope (spec.md §1).
type Session struct {
	conn   *Conn
	core   *corereg.Core
	client *corereg.Client
}

// NewSession pairs a freshly-accepted Conn with the Client record the
// core allocated for it.
func NewSession(conn *Conn, core *corereg.Core, client *corereg.Client) *Session {
	return &Session{conn: conn, core: core, client: client}
}

// HandleFrame dispatches one frame addressed to the Core resource
// (resource id 0, spec.md §6.1). Any other resource id is the caller's
// responsibility to route to that resource's own Dispatch.
func (s *Session) HandleFrame(f Frame) error {
	if f.ResourceID != 0 || f.Opcode != OpSync {
		return nil
	}
	seq := decodeSeq(f.Payload)
	s.core.Sync(s.client, seq, func(seq uint32) {
		_ = s.conn.WriteFrame(Frame{ResourceID: 0, Opcode: OpDone, Payload: encodeSeq(seq)})
	})
	return nil
}

func encodeSeq(seq uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, seq)
	return b
}

func decodeSeq(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}
