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

// Package propdict implements the Dict value model: an unordered set of
// string key/value pairs carried on Globals, Clients, Nodes and Links.
// Well-known keys are documented as constants but any key is accepted.
package propdict

import "sort"

// Well-known property keys. Any other key is legal; these are merely the
// ones the core itself reads to make scheduling/permission decisions.
const (
	KeyNodeName      = "node.name"
	KeyMediaClass    = "media.class"
	KeyAudioRate     = "audio.rate"
	KeyAudioChannels = "audio.channels"
	KeyPriorityDriver = "priority.driver"
	KeyLinkPassive   = "link.passive"
	KeyNodeDriver    = "node.driver"
	KeyObjectOwnerUID = "object.owner.uid"
	KeyClientAccess  = "client.access"

	// KeyLatencyLegacyPrefix is the older "pinos.latency.*"-era namespace;
	// Dict.Normalize translates it to KeyLatencyPrefix.
	KeyLatencyLegacyPrefix = "pinos.latency."
	KeyLatencyPrefix       = "pipewire.latency."
)

// Dict is an unordered set of string key/value pairs.
type Dict map[string]string

// New builds a Dict from alternating key, value, key, value arguments.
func New(kv ...string) Dict {
	d := make(Dict, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		d[kv[i]] = kv[i+1]
	}
	return d
}

// Clone returns an independent copy.
func (d Dict) Clone() Dict {
	if d == nil {
		return nil
	}
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge overlays other's keys onto a clone of d, other taking precedence.
func (d Dict) Merge(other Dict) Dict {
	out := d.Clone()
	if out == nil {
		out = make(Dict, len(other))
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Keys returns the dict's keys in sorted order, for deterministic iteration
// (registry fanout, debug dumps).
func (d Dict) Keys() []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Normalize rewrites deprecated "pinos.latency.*" keys to their
// "pipewire.latency.*" equivalent, per the design note that the two
// namespaces carry near-duplicate semantics across eras of the source.
// The pipewire.* key, if already present, is never overwritten.
func (d Dict) Normalize() Dict {
	out := d.Clone()
	for k, v := range d {
		if len(k) > len(KeyLatencyLegacyPrefix) && k[:len(KeyLatencyLegacyPrefix)] == KeyLatencyLegacyPrefix {
			nk := KeyLatencyPrefix + k[len(KeyLatencyLegacyPrefix):]
			if _, exists := out[nk]; !exists {
				out[nk] = v
			}
		}
	}
	return out
}

// Bool parses a well-known boolean-valued property ("true"/"1"/"yes"/"on").
func (d Dict) Bool(key string) bool {
	switch d[key] {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
