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

// The five config.Component wrappers sigflow-server's Manager drives,
// one per bootstrap piece SPEC_FULL.md names: permission policy, core
// registry, data-loop/engine, debug HTTP API and transport listener.
// Each is a thin adapter translating Component's Init/Start/Stop into
// calls against the already-package-owned type doing the real work --
// none of this file's structs hold domain logic of their own.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	spfcbr "github.com/spf13/cobra"
	spfvpr "github.com/spf13/viper"

	"github.com/sigflow/sigflow/bootstrap"
	"github.com/sigflow/sigflow/corereg"
	"github.com/sigflow/sigflow/debugapi"
	"github.com/sigflow/sigflow/engine"
	"github.com/sigflow/sigflow/logger"
	"github.com/sigflow/sigflow/monitor"
	"github.com/sigflow/sigflow/nodefactory"
	"github.com/sigflow/sigflow/propdict"
	"github.com/sigflow/sigflow/transport"
)

// permissionComponent installs the Core's PermissionFunc (spec.md §4.3)
// before anything else starts. It has no running state of its own beyond
// "has Start run" -- the policy is a pure function swapped atomically by
// the Core.
type permissionComponent struct {
	key string
	log logger.FuncLog
	vpr *spfvpr.Viper

	core    *corereg.Core
	running atomic.Bool
}

func newPermissionComponent(core *corereg.Core) *permissionComponent {
	return &permissionComponent{core: core}
}

func (p *permissionComponent) Type() string                        { return "permission" }
func (p *permissionComponent) Init(key string, log logger.FuncLog) { p.key = key; p.log = log }
func (p *permissionComponent) Dependencies() []string               { return nil }

func (p *permissionComponent) RegisterFlag(cmd *spfcbr.Command, vpr *spfvpr.Viper) error {
	p.vpr = vpr
	name := p.key + "-same-uid"
	cmd.Flags().Bool(name, true, "restrict Global visibility to clients sharing a global's owner uid")
	return vpr.BindPFlag(p.key+".same_uid", cmd.Flags().Lookup(name))
}

func (p *permissionComponent) Start() error {
	if p.vpr == nil || p.vpr.GetBool(p.key+".same_uid") {
		p.core.SetPermissionFunc(corereg.SameUIDPermissions)
	} else {
		p.core.SetPermissionFunc(corereg.DefaultPermissions)
	}
	p.running.Store(true)
	return nil
}

func (p *permissionComponent) Reload() error   { return p.Start() }
func (p *permissionComponent) Stop()           { p.running.Store(false) }
func (p *permissionComponent) IsRunning() bool { return p.running.Load() }

// coreregComponent owns corereg.Core's own singleton Global -- it
// depends on "permission" so SameUIDPermissions/DefaultPermissions is
// already installed before the Core Global (or any client) can ever be
// added.
type coreregComponent struct {
	key string
	log logger.FuncLog

	core    *corereg.Core
	nodeReg *nodefactory.Registry
	minVer  string

	coreG   *bootstrap.CoreGlobal
	running atomic.Bool
}

func newCoreregComponent(core *corereg.Core, nodeReg *nodefactory.Registry, minVer string) *coreregComponent {
	return &coreregComponent{core: core, nodeReg: nodeReg, minVer: minVer}
}

func (c *coreregComponent) Type() string                        { return "corereg" }
func (c *coreregComponent) Init(key string, log logger.FuncLog) { c.key = key; c.log = log }
func (c *coreregComponent) Dependencies() []string               { return []string{"permission"} }

func (c *coreregComponent) RegisterFlag(cmd *spfcbr.Command, vpr *spfvpr.Viper) error { return nil }

func (c *coreregComponent) Start() error {
	c.coreG = bootstrap.NewCoreGlobal(c.core, c.nodeReg, propdict.New(
		"core.name", "sigflow-0",
		"core.version", c.minVer,
	))
	c.coreG.SetLog(c.log)
	nodefactory.NewGlobal(c.core, c.nodeReg, nil, propdict.New("factory.name", "client-node"))
	c.running.Store(true)
	return nil
}

func (c *coreregComponent) Reload() error   { return nil }
func (c *coreregComponent) Stop()           { c.running.Store(false) }
func (c *coreregComponent) IsRunning() bool { return c.running.Load() }

// engineComponent repartitions the Engine's Driver set on every Global
// add/remove (spec.md §4.6.1) and drives each Driver at cfg.CyclePeriod.
// It depends on "corereg" for the Node/Link set it partitions.
type engineComponent struct {
	key string
	log logger.FuncLog

	coreg          *coreregComponent
	maxConcurrency int64
	period         time.Duration

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	eng       *engine.Engine
	drivers   []*engine.Driver
	subgraphs []*engine.Subgraph
	running   atomic.Bool
}

func newEngineComponent(coreg *coreregComponent, maxConcurrency int64, period time.Duration) *engineComponent {
	return &engineComponent{coreg: coreg, maxConcurrency: maxConcurrency, period: period}
}

func (e *engineComponent) Type() string                        { return "engine" }
func (e *engineComponent) Init(key string, log logger.FuncLog) { e.key = key; e.log = log }
func (e *engineComponent) Dependencies() []string               { return []string{"corereg"} }

func (e *engineComponent) RegisterFlag(cmd *spfcbr.Command, vpr *spfvpr.Viper) error { return nil }

func (e *engineComponent) Start() error {
	e.mu.Lock()
	e.eng = engine.New(e.maxConcurrency)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.mu.Unlock()

	e.coreg.core.OnGlobalAdded(func(*corereg.Global) { e.repartition() })
	e.coreg.core.OnGlobalRemoved(func(*corereg.Global) { e.repartition() })

	e.running.Store(true)
	return nil
}

// repartition rebuilds the subgraph decomposition from the current node
// and link set and replaces the running driver set.
func (e *engineComponent) repartition() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return
	}

	for _, d := range e.drivers {
		d.Stop()
	}

	subgraphs := engine.Partition(e.coreg.coreG.Nodes(), e.coreg.coreG.Links())
	drivers := make([]*engine.Driver, 0, len(subgraphs))
	for _, sg := range subgraphs {
		d := engine.NewDriver(e.eng, sg, e.period, e.log, func(sg *engine.Subgraph, cycle uint64, err error) {})
		d.Start(e.ctx)
		drivers = append(drivers, d)
	}
	e.drivers = drivers
	e.subgraphs = subgraphs
}

func (e *engineComponent) activeSubgraphs() []*engine.Subgraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*engine.Subgraph, len(e.subgraphs))
	copy(out, e.subgraphs)
	return out
}

func (e *engineComponent) Reload() error { return nil }

func (e *engineComponent) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	drivers := e.drivers
	e.drivers = nil
	e.ctx = nil
	e.cancel = nil
	e.mu.Unlock()

	for _, d := range drivers {
		d.Stop()
	}
	if cancel != nil {
		cancel()
	}
	e.running.Store(false)
}

func (e *engineComponent) IsRunning() bool { return e.running.Load() }

// debugapiComponent serves the health/metrics/registry introspection
// surface (spec.md §7). It depends on "engine" for the active subgraph
// set its health check reads, and "corereg" for the registry it
// exposes.
type debugapiComponent struct {
	key string
	log logger.FuncLog
	vpr *spfvpr.Viper

	coreg  *coreregComponent
	eng    *engineComponent
	listen string

	srv     *debugapi.Server
	running atomic.Bool
}

func newDebugAPIComponent(coreg *coreregComponent, eng *engineComponent, listen string) *debugapiComponent {
	return &debugapiComponent{coreg: coreg, eng: eng, listen: listen}
}

func (d *debugapiComponent) Type() string                        { return "debugapi" }
func (d *debugapiComponent) Init(key string, log logger.FuncLog) { d.key = key; d.log = log }
func (d *debugapiComponent) Dependencies() []string               { return []string{"corereg", "engine"} }

func (d *debugapiComponent) RegisterFlag(cmd *spfcbr.Command, vpr *spfvpr.Viper) error {
	d.vpr = vpr
	name := d.key + "-listen"
	cmd.Flags().String(name, d.listen, "debug API listen address")
	return vpr.BindPFlag(d.key+".listen", cmd.Flags().Lookup(name))
}

func (d *debugapiComponent) Start() error {
	listen := d.listen
	if d.vpr != nil {
		if v := d.vpr.GetString(d.key + ".listen"); v != "" {
			listen = v
		}
	}

	collector := monitor.NewCollector()
	handler := debugapi.NewHandler(d.coreg.core, collector, func() error {
		return monitor.HealthCheck(d.eng.activeSubgraphs())
	})
	d.srv = debugapi.NewServer(debugapi.Config{Name: "sigflow-debug", Listen: listen}, handler)
	d.srv.SetLog(d.log)

	if err := d.srv.Start(context.Background()); err != nil {
		return fmt.Errorf("starting debug api: %w", err)
	}
	d.running.Store(true)
	return nil
}

func (d *debugapiComponent) Reload() error { return nil }

func (d *debugapiComponent) Stop() {
	if d.srv != nil {
		_ = d.srv.Stop(context.Background())
	}
	d.running.Store(false)
}

func (d *debugapiComponent) IsRunning() bool { return d.running.Load() }

// transportComponent runs the client-facing socket's accept loop on its
// own goroutine, binding the Core Global into every new client's
// namespace before handing it to the session layer. It depends on
// "corereg" for the CoreGlobal it binds.
type transportComponent struct {
	key string
	log logger.FuncLog
	vpr *spfvpr.Viper

	coreg      *coreregComponent
	socketPath string

	srv     *transport.Server
	errCh   chan error
	running atomic.Bool
}

func newTransportComponent(coreg *coreregComponent, socketPath string) *transportComponent {
	return &transportComponent{coreg: coreg, socketPath: socketPath}
}

func (t *transportComponent) Type() string                        { return "transport" }
func (t *transportComponent) Init(key string, log logger.FuncLog) { t.key = key; t.log = log }
func (t *transportComponent) Dependencies() []string               { return []string{"corereg"} }

func (t *transportComponent) RegisterFlag(cmd *spfcbr.Command, vpr *spfvpr.Viper) error {
	t.vpr = vpr
	name := t.key + "-socket"
	cmd.Flags().String(name, t.socketPath, "client-facing unix socket path")
	return vpr.BindPFlag(t.key+".socket", cmd.Flags().Lookup(name))
}

func (t *transportComponent) Start() error {
	socketPath := t.socketPath
	if t.vpr != nil {
		if v := t.vpr.GetString(t.key + ".socket"); v != "" {
			socketPath = v
		}
	}

	_ = os.Remove(socketPath)
	ln, err := transport.Listen(socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}

	t.srv = transport.NewServer(ln, t.coreg.core)
	t.srv.SetLog(t.log)
	t.srv.OnClientConnected = func(c *corereg.Client) {
		if _, err := t.coreg.coreG.Bind(c); err != nil {
			if t.log != nil {
				t.log().WithError(err).Error("binding core global to new client")
			}
		}
	}

	t.errCh = make(chan error, 1)
	go func() { t.errCh <- t.srv.Start() }()

	t.running.Store(true)
	return nil
}

func (t *transportComponent) Reload() error { return nil }

func (t *transportComponent) Stop() {
	if t.srv != nil {
		_ = t.srv.Close()
	}
	t.running.Store(false)
}

func (t *transportComponent) IsRunning() bool { return t.running.Load() }

// Errors surfaces the transport accept loop's terminal error, if any, to
// run's shutdown select -- mirroring the old errCh pattern main.go used
// before the Manager owned the component's lifecycle.
func (t *transportComponent) Errors() <-chan error { return t.errCh }
