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

package monitor

import (
	"context"

	liberr "github.com/sigflow/sigflow/errors"
	"github.com/sigflow/sigflow/engine"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var ErrDriverNotActive = liberr.New(uint16(liberr.MinPkgMonitor+1), "monitor: subgraph driver is not active")

// HostStats is one sample of host resource pressure, gathered alongside
// engine cycle stats so an operator can correlate xruns with CPU/memory
// contention.
type HostStats struct {
	CPUPercent []float64
	MemPercent float64
}

// SampleHost gathers one HostStats reading. Mirrors the teacher's
// httpserver.srv.HealthCheck shape of a single synchronous probe rather
// than a long-lived background sampler.
func SampleHost(ctx context.Context) (HostStats, error) {
	cpuPct, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return HostStats{}, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return HostStats{}, err
	}
	return HostStats{CPUPercent: cpuPct, MemPercent: vm.UsedPercent}, nil
}

// HealthCheck reports an error if any subgraph's driver is missing or not
// active, the engine-level analogue of httpserver.srv.HealthCheck's
// "server not running" check.
func HealthCheck(sgs []*engine.Subgraph) error {
	for _, sg := range sgs {
		if sg.Driver == nil || !sg.Driver.IsActive() {
			return ErrDriverNotActive
		}
	}
	return nil
}
