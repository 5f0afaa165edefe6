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

// Package engine schedules the graph's driver/follower cycles (spec.md
// §4.6): subgraph partitioning, the per-cycle activation protocol, and
// rate matching between nodes running at different sample rates.
package engine

import (
	"sort"

	"github.com/sigflow/sigflow/graph"
)

// Subgraph is one maximal weakly-connected component of the active,
// non-passive link graph, with its elected driver (spec.md §4.6.1).
type Subgraph struct {
	Driver   *graph.Node
	Members  []*graph.Node
	indegree map[*graph.Node]int32
}

type unionFind struct {
	parent map[*graph.Node]*graph.Node
}

func newUnionFind(nodes []*graph.Node) *unionFind {
	uf := &unionFind{parent: make(map[*graph.Node]*graph.Node, len(nodes))}
	for _, n := range nodes {
		uf.parent[n] = n
	}
	return uf
}

func (uf *unionFind) find(n *graph.Node) *graph.Node {
	for uf.parent[n] != n {
		uf.parent[n] = uf.parent[uf.parent[n]]
		n = uf.parent[n]
	}
	return n
}

func (uf *unionFind) union(a, b *graph.Node) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// driverPriority reads a node's advertised priority.driver property,
// defaulting to 0 when absent or unparseable.
func driverPriority(n *graph.Node) int {
	v, ok := n.Props["priority.driver"]
	if !ok {
		return 0
	}
	p := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0
		}
		p = p*10 + int(c-'0')
	}
	return p
}

// Partition recomputes the subgraph decomposition of spec.md §4.6.1:
// maximal weakly-connected components joined by active, non-passive
// Links, each with exactly one elected driver (highest priority.driver
// among FlagDriver-capable members, ties broken by node id) and a
// populated TargetList per member for the per-cycle fan-out.
func Partition(nodes []*graph.Node, links []*graph.Link) []*Subgraph {
	uf := newUnionFind(nodes)
	edges := make(map[*graph.Node][]*graph.Node)

	for _, l := range links {
		if l.Passive || l.State() != graph.LinkActive {
			continue
		}
		out, in := l.Output.Node, l.Input.Node
		uf.union(out, in)
		edges[out] = append(edges[out], in)
	}

	groups := make(map[*graph.Node][]*graph.Node)
	for _, n := range nodes {
		root := uf.find(n)
		groups[root] = append(groups[root], n)
	}

	var out []*Subgraph
	for _, members := range groups {
		sg := &Subgraph{Members: members, indegree: make(map[*graph.Node]int32, len(members))}

		for _, n := range members {
			n.TargetList = nil
		}
		for _, n := range members {
			for _, t := range edges[n] {
				n.TargetList = append(n.TargetList, t)
				sg.indegree[t]++
			}
		}

		sg.Driver = electDriver(members)
		for _, n := range members {
			n.Driver = sg.Driver
		}
		out = append(out, sg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Driver.ID < out[j].Driver.ID })
	return out
}

func electDriver(members []*graph.Node) *graph.Node {
	var best *graph.Node
	bestPriority := -1
	for _, n := range members {
		if n.Flags&graph.FlagDriver == 0 {
			continue
		}
		p := driverPriority(n)
		if best == nil || p > bestPriority || (p == bestPriority && n.ID < best.ID) {
			best = n
			bestPriority = p
		}
	}
	if best == nil {
		// No member advertises Driver: fall back to the lowest id so the
		// subgraph still has exactly one driver.
		for _, n := range members {
			if best == nil || n.ID < best.ID {
				best = n
			}
		}
	}
	return best
}
