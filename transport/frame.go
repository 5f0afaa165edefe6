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

// Package transport implements the client wire protocol's invariants
// (spec.md §6.1): ordered, reliable, FD-capable message delivery over a
// unix-domain socket, framed as (resource_id, opcode, n_fds, payload_size).
// The POD wire codec itself is out of scope (spec.md §1); payloads are
// opaque bytes to this package.
package transport

import (
	"encoding/binary"

	liberr "github.com/sigflow/sigflow/errors"
)

var ErrTooManyFDs = liberr.New(uint16(liberr.MinPkgTransport+1), "transport: too many fds in one message")

const (
	// MaxFDsPerMessage is spec.md §6.1's fd-passing ceiling: "a message
	// may carry up to 64 fds per chunk; the receiver maps fds to payload
	// by index."
	MaxFDsPerMessage = 64

	// headerSize is the on-wire (resource_id, opcode, n_fds, payload_size)
	// framing spec.md §6.1 names.
	headerSize = 4 + 1 + 1 + 4

	// MaxFrameSize bounds a single read so one ReadMsgUnix call always
	// captures header, payload and any attached fds atomically.
	MaxFrameSize = 1 << 20
)

// Frame is one (resource_id, opcode, payload, fds) message (spec.md §6.1).
type Frame struct {
	ResourceID uint32
	Opcode     uint8
	Payload    []byte
	FDs        []int
}

func encodeHeader(f Frame) ([]byte, error) {
	if len(f.FDs) > MaxFDsPerMessage {
		return nil, ErrTooManyFDs
	}
	h := make([]byte, headerSize)
	binary.BigEndian.PutUint32(h[0:4], f.ResourceID)
	h[4] = f.Opcode
	h[5] = uint8(len(f.FDs))
	binary.BigEndian.PutUint32(h[6:10], uint32(len(f.Payload)))
	return h, nil
}

func decodeHeader(b []byte) (resourceID uint32, opcode uint8, nFDs uint8, payloadSize uint32) {
	resourceID = binary.BigEndian.Uint32(b[0:4])
	opcode = b[4]
	nFDs = b[5]
	payloadSize = binary.BigEndian.Uint32(b[6:10])
	return
}
