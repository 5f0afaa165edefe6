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

package config

import (
	"fmt"
	"sync"

	spfcbr "github.com/spf13/cobra"
	spfvpr "github.com/spf13/viper"

	"github.com/sigflow/sigflow/logger"
)

// Manager holds sigflow-server's Component set and drives it through
// Start/Reload/Stop in dependency order, mirroring the teacher's
// ComponentList.ComponentStart/ComponentStop but without the hot
// add/remove support a single static binary never needs.
type Manager struct {
	log logger.FuncLog

	mu      sync.Mutex
	order   []string
	byKey   map[string]Component
	started map[string]bool
}

// NewManager returns an empty Manager. log is threaded into every
// Register'd Component's Init.
func NewManager(log logger.FuncLog) *Manager {
	return &Manager{log: log, byKey: make(map[string]Component), started: make(map[string]bool)}
}

// Register adds cpt under key, calling its Init immediately. Registration
// order is preserved as the default Start order when Dependencies doesn't
// force otherwise.
func (m *Manager) Register(key string, cpt Component) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpt.Init(key, m.log)
	if _, exists := m.byKey[key]; !exists {
		m.order = append(m.order, key)
	}
	m.byKey[key] = cpt
}

// Get returns the Component registered under key, or nil.
func (m *Manager) Get(key string) Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byKey[key]
}

// RegisterFlag registers every component's flags against cmd/vpr, in
// registration order.
func (m *Manager) RegisterFlag(cmd *spfcbr.Command, vpr *spfvpr.Viper) error {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	m.mu.Unlock()

	for _, key := range order {
		if err := m.byKey[key].RegisterFlag(cmd, vpr); err != nil {
			return fmt.Errorf("component %s: %w", key, err)
		}
	}
	return nil
}

// Start brings up every registered component in dependency order,
// starting a component's dependencies first (depth-first, each started at
// most once). The first error stops the whole sequence; components
// already started are left running for the caller to Stop.
func (m *Manager) Start() error {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	m.mu.Unlock()

	for _, key := range order {
		if err := m.startOne(key, make(map[string]bool)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) startOne(key string, visiting map[string]bool) error {
	m.mu.Lock()
	cpt, ok := m.byKey[key]
	already := m.started[key]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrComponentNotFound, key)
	}
	if already {
		return nil
	}
	if visiting[key] {
		return fmt.Errorf("config: dependency cycle at %s", key)
	}
	visiting[key] = true

	for _, dep := range cpt.Dependencies() {
		if err := m.startOne(dep, visiting); err != nil {
			return fmt.Errorf("%w: %s needs %s: %v", ErrDependencyFailed, key, dep, err)
		}
	}

	if err := cpt.Start(); err != nil {
		return fmt.Errorf("component %s: %w", key, err)
	}

	m.mu.Lock()
	m.started[key] = true
	m.mu.Unlock()
	return nil
}

// Reload calls Reload on every started component, in registration order.
// The first error is returned; remaining components are still given a
// chance to reload.
func (m *Manager) Reload() error {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	m.mu.Unlock()

	var first error
	for _, key := range order {
		m.mu.Lock()
		cpt, started := m.byKey[key], m.started[key]
		m.mu.Unlock()
		if !started {
			continue
		}
		if err := cpt.Reload(); err != nil && first == nil {
			first = fmt.Errorf("component %s: %w", key, err)
		}
	}
	return first
}

// Stop tears every started component down in reverse registration order,
// without regard to dependencies (spec.md's shutdown is best-effort, not
// ordered the way Start is).
func (m *Manager) Stop() {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	m.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		key := order[i]
		m.mu.Lock()
		cpt, started := m.byKey[key], m.started[key]
		m.mu.Unlock()
		if !started {
			continue
		}
		cpt.Stop()
		m.mu.Lock()
		m.started[key] = false
		m.mu.Unlock()
	}
}

// IsRunning reports whether every registered component is currently
// running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.order {
		if !m.byKey[key].IsRunning() {
			return false
		}
	}
	return true
}
