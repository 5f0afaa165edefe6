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

// Package config drives sigflow-server's startup/shutdown through the
// teacher's Component lifecycle (Init/Start/Reload/Stop), trimmed to what
// one process with a fixed component set needs: no hot-reloadable
// component graph, no per-component sub-viper, just dependency-ordered
// Start/Stop over spf13/viper + spf13/cobra flag registration.
package config

import (
	spfcbr "github.com/spf13/cobra"
	spfvpr "github.com/spf13/viper"

	liberr "github.com/sigflow/sigflow/errors"
	"github.com/sigflow/sigflow/logger"
)

var (
	ErrComponentNotFound = liberr.New(uint16(liberr.MinPkgConfig+1), "config: component not found")
	ErrDependencyFailed  = liberr.New(uint16(liberr.MinPkgConfig+2), "config: dependency failed to start")
)

// Component is one independently startable/stoppable piece of
// sigflow-server: the transport listener, the core registry, the
// data-loop/engine, the debug HTTP API, or the permission policy
// (spec.md §2's ambient configuration section names these five).
type Component interface {
	// Type identifies the component's kind for logs and diagnostics
	// ("transport", "corereg", "engine", "debugapi", "permission").
	Type() string

	// Init hands the component its key and logger before RegisterFlag,
	// Start, Reload or Stop are ever called.
	Init(key string, log logger.FuncLog)

	// RegisterFlag registers this component's cobra flags, bound to vpr
	// under a "<key>." prefix, the same convention the teacher's
	// Component.RegisterFlag uses to keep flag namespaces disjoint.
	RegisterFlag(cmd *spfcbr.Command, vpr *spfvpr.Viper) error

	// Dependencies names other component keys that must be started
	// before this one.
	Dependencies() []string

	// Start brings the component up. Called at most once per Start/Stop
	// cycle.
	Start() error

	// Reload re-applies configuration without a full Stop/Start, where
	// the component supports it.
	Reload() error

	// Stop tears the component down. Must be safe to call on a component
	// that was never started.
	Stop()

	// IsRunning reports whether Start has completed and Stop has not yet
	// been called.
	IsRunning() bool
}
