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
	"net"

	"golang.org/x/sys/unix"

	liberr "github.com/sigflow/sigflow/errors"
)

var (
	ErrShortWrite = liberr.New(uint16(liberr.MinPkgTransport+2), "transport: short write on unix socket")
	ErrShortRead  = liberr.New(uint16(liberr.MinPkgTransport+3), "transport: short read on unix socket")
)

// Conn is one ordered, reliable, FD-capable connection over a unix-domain
// stream socket, structured the way the teacher's socket/server/unix
// package pairs a raw connection with framed read/write helpers.
type Conn struct {
	raw *net.UnixConn
}

// NewConn wraps an already-accepted or dialed unix connection.
func NewConn(raw *net.UnixConn) *Conn { return &Conn{raw: raw} }

// Close closes the underlying socket.
func (c *Conn) Close() error { return c.raw.Close() }

// WriteFrame sends f as one header+payload write, with any fds attached
// as an SCM_RIGHTS control message in the same sendmsg call so the kernel
// keeps the byte offset and the fd list atomically paired (spec.md §6.1's
// "the receiver maps fds to payload by index").
func (c *Conn) WriteFrame(f Frame) error {
	header, err := encodeHeader(f)
	if err != nil {
		return err
	}
	buf := append(header, f.Payload...)

	var oob []byte
	if len(f.FDs) > 0 {
		oob = unix.UnixRights(f.FDs...)
	}

	n, oobn, err := c.raw.WriteMsgUnix(buf, oob, nil)
	if err != nil {
		return err
	}
	if n != len(buf) || oobn != len(oob) {
		return ErrShortWrite
	}
	return nil
}

// ReadFrame reads one frame. sigflow bounds frames to MaxFrameSize, so a
// single ReadMsgUnix call is always large enough to receive header,
// payload and fds in one shot -- no reassembly across reads is needed.
func (c *Conn) ReadFrame() (Frame, error) {
	buf := make([]byte, MaxFrameSize)
	oob := make([]byte, unix.CmsgSpace(MaxFDsPerMessage*4))

	n, oobn, _, _, err := c.raw.ReadMsgUnix(buf, oob)
	if err != nil {
		return Frame{}, err
	}
	if n < headerSize {
		return Frame{}, ErrShortRead
	}

	resourceID, opcode, nFDs, payloadSize := decodeHeader(buf[:headerSize])
	if int(nFDs) > MaxFDsPerMessage {
		return Frame{}, ErrTooManyFDs
	}
	if headerSize+int(payloadSize) > n {
		return Frame{}, ErrShortRead
	}

	payload := make([]byte, payloadSize)
	copy(payload, buf[headerSize:headerSize+int(payloadSize)])

	var fds []int
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return Frame{}, err
		}
		for _, cmsg := range cmsgs {
			got, err := unix.ParseUnixRights(&cmsg)
			if err != nil {
				continue
			}
			fds = append(fds, got...)
		}
	}

	return Frame{ResourceID: resourceID, Opcode: opcode, Payload: payload, FDs: fds}, nil
}
