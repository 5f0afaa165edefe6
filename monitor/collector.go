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

// Package monitor tracks engine stats (xruns, watchdog trips, cycle
// duration) and host resource pressure, supplementing spec.md §8 scenario
// 5 ("xruns are counted in stats, not fatal") with the observability
// surface a running server needs.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports engine-visible counters as prometheus metrics.
type Collector struct {
	Registry *prometheus.Registry

	Xruns         *prometheus.CounterVec
	WatchdogTrips *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec
}

// NewCollector builds a Collector with its own registry, so a server can
// run more than one core (e.g. under test) without metric name clashes.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		Registry: reg,
		Xruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigflow",
			Name:      "node_xruns_total",
			Help:      "Count of cycle deadlines a node missed.",
		}, []string{"node"}),
		WatchdogTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigflow",
			Name:      "cycle_watchdog_trips_total",
			Help:      "Count of cycles force-finished by the watchdog.",
		}, []string{"subgraph"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sigflow",
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of one engine cycle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"subgraph"}),
	}
	reg.MustRegister(c.Xruns, c.WatchdogTrips, c.CycleDuration)
	return c
}

// RecordXrun increments the per-node xrun counter.
func (c *Collector) RecordXrun(nodeName string) {
	c.Xruns.WithLabelValues(nodeName).Inc()
}

// RecordWatchdogTrip increments the per-subgraph watchdog-trip counter.
func (c *Collector) RecordWatchdogTrip(subgraph string) {
	c.WatchdogTrips.WithLabelValues(subgraph).Inc()
}

// ObserveCycle records one cycle's wall-clock duration.
func (c *Collector) ObserveCycle(subgraph string, seconds float64) {
	c.CycleDuration.WithLabelValues(subgraph).Observe(seconds)
}
