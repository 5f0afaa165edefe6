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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sigflow/sigflow/corereg"
	"github.com/sigflow/sigflow/monitor"
)

// FuncHandler returns the handlers this server exposes, keyed by a
// label (the teacher's httpserver registers handlers the same way --
// one server, several logical handler sets fanned out by the caller).
type FuncHandler func() map[string]http.Handler

// HealthFunc reports the current server health; returning a non-nil
// error marks /healthz unhealthy.
type HealthFunc func() error

type globalView struct {
	ID      uint32            `json:"id"`
	Type    string            `json:"type"`
	Version uint32            `json:"version"`
	Props   map[string]string `json:"props"`
}

// NewHandler builds the introspection router over core: /globals lists
// every live Global (spec.md §3.2's Registry snapshot, reachable here
// without a client connection), /clients lists connected client ids,
// /healthz runs healthFn, and /metrics serves collector's prometheus
// registry when collector is non-nil.
func NewHandler(core *corereg.Core, collector *monitor.Collector, healthFn HealthFunc) FuncHandler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		if healthFn == nil {
			c.Status(http.StatusOK)
			return
		}
		if err := healthFn(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	})

	r.GET("/globals", func(c *gin.Context) {
		globals := core.Globals()
		out := make([]globalView, 0, len(globals))
		for _, g := range globals {
			name, _ := core.Types.Name(g.Type)
			out = append(out, globalView{ID: g.ID, Type: name, Version: g.Version, Props: g.Props})
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/clients", func(c *gin.Context) {
		c.JSON(http.StatusOK, core.ClientIDsSorted())
	})

	if collector != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(collector.Registry, promhttp.HandlerOpts{})))
	}

	return func() map[string]http.Handler {
		return map[string]http.Handler{"debugapi": r}
	}
}
