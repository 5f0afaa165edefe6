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

package engine

// Bandwidth is the DLL's tightening stage (spec.md §4.6.3): coarse while
// the stream is still settling, tightening to fine once stable.
type Bandwidth int

const (
	BandwidthCoarse Bandwidth = iota
	BandwidthMedium
	BandwidthFine
)

func (b Bandwidth) next() Bandwidth {
	if b < BandwidthFine {
		return b + 1
	}
	return b
}

// bandwidth coefficients, loosely modeled on a second-order DLL: larger
// values react faster but ring more.
var bandwidthGain = map[Bandwidth]float64{
	BandwidthCoarse: 0.25,
	BandwidthMedium: 0.08,
	BandwidthFine:   0.02,
}

// RateMatch is the I/O slot installed between two nodes whose logical
// sample rate differs from their subgraph driver's (spec.md §4.6.3).
type RateMatch struct {
	Delay   int64   // driver samples to apply downstream
	Size    int     // expected input frame count for next cycle
	Rate    float64 // current resample ratio
	Queued  int     // frames currently buffered

	target    float64
	bandwidth Bandwidth
	stableFor int
}

// NewRateMatch returns a RateMatch with an initial 1:1 ratio and the
// coarse DLL stage.
func NewRateMatch(targetFill float64) *RateMatch {
	return &RateMatch{Rate: 1.0, target: targetFill, bandwidth: BandwidthCoarse}
}

// Stage reports the DLL's current bandwidth tightening stage.
func (r *RateMatch) Stage() Bandwidth { return r.bandwidth }

// Update runs one DLL step: actualFill is the upstream buffer's current
// fill level in the same units as the target passed to NewRateMatch.
// The multiplier is written to Rate once per cycle, as spec.md §4.6.3
// requires, and Queued/Size/Delay are updated from the caller's
// measurements of the live buffer state.
func (r *RateMatch) Update(actualFill float64, queued int, nextSize int, delaySamples int64) {
	delta := r.target - actualFill
	gain := bandwidthGain[r.bandwidth]
	r.Rate += gain * delta / r.target

	// clamp to a sane resampling window; real hardware rarely drifts more
	// than a few hundred ppm per cycle.
	if r.Rate < 0.9 {
		r.Rate = 0.9
	}
	if r.Rate > 1.1 {
		r.Rate = 1.1
	}

	r.Queued = queued
	r.Size = nextSize
	r.Delay = delaySamples

	if delta < 1 && delta > -1 {
		r.stableFor++
		if r.stableFor > 8 {
			r.bandwidth = r.bandwidth.next()
			r.stableFor = 0
		}
	} else {
		r.stableFor = 0
	}
}
