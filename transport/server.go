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
	"sync"

	"github.com/sigflow/sigflow/corereg"
	"github.com/sigflow/sigflow/logger"
)

// Server accepts client connections on one Listener and drives a Session
// per connection. Its lifecycle mirrors the teacher's socket/server/unix
// ServerUnix: New, Start (a blocking accept loop), IsRunning, Close.
type Server struct {
	ln   *Listener
	core *corereg.Core
	log  logger.FuncLog

	// OnClientConnected, if set, runs right after a Client is registered
	// and before its read loop starts -- the bootstrap's hook point for
	// binding the Core's singleton Global into the new client's
	// id-space (spec.md §3.2).
	OnClientConnected func(*corereg.Client)

	mu      sync.Mutex
	running bool
	conns   map[*Conn]struct{}
}

// NewServer wraps an already-listening Listener.
func NewServer(ln *Listener, core *corereg.Core) *Server {
	return &Server{ln: ln, core: core, conns: make(map[*Conn]struct{})}
}

// SetLog wires s's logger, resolved lazily per connection error. Unset, s
// logs nothing.
func (s *Server) SetLog(log logger.FuncLog) { s.log = log }

func (s *Server) logger() logger.Logger {
	if s.log == nil {
		return logger.NewNop()
	}
	return s.log()
}

// Start runs the accept loop until Close is called; each connection is
// served on its own goroutine.
func (s *Server) Start() error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return nil
			}
			s.logger().WithError(err).Error("transport: accept failed")
			return err
		}
		s.track(conn)
		go s.serve(conn)
	}
}

func (s *Server) track(c *Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) serve(conn *Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	client := s.core.AddClient(corereg.Creds{}, nil)
	defer s.core.DisconnectClient(client)

	if s.OnClientConnected != nil {
		s.OnClientConnected(client)
	}

	sess := NewSession(conn, s.core, client)
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			s.logger().WithField("client.id", client.ID).WithError(err).Debug("transport: read frame failed, closing")
			return
		}
		if err := sess.HandleFrame(f); err != nil {
			s.logger().WithField("client.id", client.ID).WithError(err).Warning("transport: handle frame failed, closing")
			return
		}
	}
}

// IsRunning reports whether Start's accept loop is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close stops the accept loop and every tracked connection.
func (s *Server) Close() error {
	s.mu.Lock()
	s.running = false
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	return s.ln.Close()
}
