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

package debugapi

import (
	"context"
	"net"
	"net/http"
	"time"

	libatm "github.com/sigflow/sigflow/atomic"
	"github.com/sigflow/sigflow/logger"
)

const shutdownTimeout = 10 * time.Second

// Config is the debug API server's bind configuration.
type Config struct {
	Name   string
	Listen string
}

// Server is a minimal HTTP lifecycle wrapper grounded on the teacher's
// httpserver run/Start/Stop/Restart/IsRunning pattern, stripped to the
// one plain listener this introspection surface needs -- no TLS, no
// HTTP/2 tuning, no handler merging across reconfigurations.
type Server struct {
	cfg     Config
	handler FuncHandler
	log     logger.FuncLog

	running libatm.Value[bool]
	srv     libatm.Value[*http.Server]
}

// NewServer builds a Server bound to cfg, serving h once Start runs.
func NewServer(cfg Config, h FuncHandler) *Server {
	s := &Server{
		cfg:     cfg,
		handler: h,
		running: libatm.NewValue[bool](),
		srv:     libatm.NewValue[*http.Server](),
	}
	return s
}

// Handler replaces the handler set served by the next Start/Restart.
func (s *Server) Handler(h FuncHandler) { s.handler = h }

// SetLog wires s's logger, resolved lazily if the background Serve loop
// exits with an error. Unset, s logs nothing.
func (s *Server) SetLog(log logger.FuncLog) { s.log = log }

func (s *Server) logger() logger.Logger {
	if s.log == nil {
		return logger.NewNop()
	}
	return s.log()
}

// IsRunning reports whether the listener is currently accepting
// connections.
func (s *Server) IsRunning() bool { return s.running.Load() }

// GetName returns the server's configured name, for logs and the
// bootstrap's multi-server fan-out.
func (s *Server) GetName() string { return s.cfg.Name }

// Start binds the listener and serves in a background goroutine; it
// returns once the listener is accepting connections, not once serving
// stops. Canceling ctx triggers a graceful Stop.
func (s *Server) Start(ctx context.Context) error {
	if s.IsRunning() {
		return ErrAlreadyRunning
	}
	if s.handler == nil {
		return ErrNoHandler
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	for _, h := range s.handler() {
		mux.Handle("/", h)
	}

	srv := &http.Server{Handler: mux}
	s.srv.Store(srv)
	s.running.Store(true)

	go func() {
		defer s.running.Store(false)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger().WithField("name", s.cfg.Name).WithError(err).Error("debugapi: serve exited")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()

	return nil
}

// Stop shuts the server down gracefully within shutdownTimeout. A Stop
// on an already-stopped server is a no-op, matching the teacher's
// idempotent Shutdown.
func (s *Server) Stop(ctx context.Context) error {
	if !s.IsRunning() {
		return nil
	}
	srv := s.srv.Load()
	if srv == nil {
		return nil
	}

	x, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(x)
	s.running.Store(false)
	return err
}

// Restart stops then starts the server with its current handler set.
func (s *Server) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}
