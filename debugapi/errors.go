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

// Package debugapi exposes the server's introspection surface -- live
// globals, connected clients, health and metrics -- over plain HTTP,
// entirely outside the client wire protocol (transport/). Nothing here
// is reachable through a resource bind; it is read-only and meant for
// operators and tests, the in-process analogue of pw-dump/pw-top.
package debugapi

import (
	liberr "github.com/sigflow/sigflow/errors"
)

var (
	ErrAlreadyRunning = liberr.New(uint16(liberr.MinPkgDebugAPI+1), "debugapi: server already running")
	ErrNoHandler      = liberr.New(uint16(liberr.MinPkgDebugAPI+2), "debugapi: no handler registered")
)
