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

// Package negotiate runs the five-phase link negotiation algorithm of
// spec.md §4.5: param filter, format fixation, buffer parameter
// intersection, allocation, and I/O slot installation. It runs entirely
// on the main loop thread, as the spec requires — nothing here spawns a
// goroutine or blocks.
package negotiate

import (
	"fmt"

	liberr "github.com/sigflow/sigflow/errors"
	"github.com/sigflow/sigflow/graph"
	"github.com/sigflow/sigflow/memblock"
	"github.com/sigflow/sigflow/pod"
)

// ParamKind identifies which parameter enumeration a phase targets
// (spec.md §4.5.1).
type ParamKind uint32

const (
	ParamEnumFormat ParamKind = iota
	ParamBuffers
	ParamMeta
	ParamIO
)

// IO slot ids the link installs in phase 5 (spec.md §4.5.5).
const (
	IOBuffers uint32 = iota
	IOPosition
	IOClock
	IOControl
)

var (
	ErrFormatIncompatible = liberr.New(uint16(liberr.MinPkgNegotiate+1), "negotiate: format incompatible")
	ErrFormatNotAccepted  = liberr.New(uint16(liberr.MinPkgNegotiate+2), "negotiate: format not accepted")
	ErrBufferNotAccepted  = liberr.New(uint16(liberr.MinPkgNegotiate+3), "negotiate: buffer not accepted")
	ErrNoMemory           = liberr.New(uint16(liberr.MinPkgNegotiate+4), "negotiate: no memory")
)

// Settings bounds the negotiation (spec.md §4.5.3).
type Settings struct {
	LinkMaxBuffers int // default 64
	CPUMaxAlign    uint32
}

// DefaultSettings matches spec.md §4.5.3's stated defaults.
func DefaultSettings() Settings {
	return Settings{LinkMaxBuffers: 64, CPUMaxAlign: 16}
}

// Buffer-parameter property keys, well-known within the Buffers object
// (spec.md §4.5.3's table).
const (
	KeyBufferCount uint32 = iota + 100
	KeyBlocks
	KeySize
	KeyStride
	KeyAlign
	KeyDataType
	KeyMetaType
	// KeyAsync carries spec.md §3.3's Async pool flag through the Buffers
	// object: a nonzero value means producer and consumer must be able to
	// hold a buffer each at once, raising the min_buffers floor to 2
	// (spec.md §4.5.3's table, §8 scenario: max_buffers=1 with Async=true
	// must still allocate 2).
	KeyAsync
)

func enumAll(port *graph.Port, kind ParamKind) []pod.Object {
	var out []pod.Object
	start := 0
	for {
		obj, more := port.Node.Impl.PortEnumParams(port.ImplID(), uint32(kind), start, nil)
		if obj == nil {
			break
		}
		out = append(out, *obj)
		start++
		if !more {
			break
		}
	}
	return out
}

// paramFilter implements spec.md §4.5.1's consumer-filtered-producer
// enumeration: draw candidates from the input side, for each enumerate
// the output side filtered by it, and keep the first combined result.
func paramFilter(output, input *graph.Port, kind ParamKind) (pod.Object, error) {
	inCandidates := enumAll(input, kind)
	if len(inCandidates) == 0 {
		return pod.Object{}, ErrFormatIncompatible
	}

	for _, in := range inCandidates {
		outCandidates := enumAll(output, kind)
		for _, out := range outCandidates {
			combined, err := pod.FilterObjects(in, out)
			if err != nil {
				continue
			}
			return combined, nil
		}
	}
	return pod.Object{}, ErrFormatIncompatible
}

// Negotiate drives a Link through all five phases, mutating its state as
// it progresses and leaving it in LinkPaused on success, or LinkError (via
// Link.Fail) on any failure.
func Negotiate(link *graph.Link, pool *memblock.Pool, settings Settings) error {
	if err := link.BeginNegotiating(); err != nil {
		link.Fail(err.Error())
		return err
	}

	link.Output.AdvertiseFormat()
	link.Input.AdvertiseFormat()

	// Phase 1+2: param filter then fixate a single format.
	filtered, err := paramFilter(link.Output, link.Input, ParamEnumFormat)
	if err != nil {
		link.Fail("format incompatible")
		return ErrFormatIncompatible
	}
	format := pod.Fixate(filtered)

	outID, inID := link.Output.ImplID(), link.Input.ImplID()

	if err := link.Output.Node.Impl.PortSetParam(outID, uint32(ParamEnumFormat), 0, &format); err != nil {
		link.Fail("format not accepted")
		return ErrFormatNotAccepted
	}
	if err := link.Input.Node.Impl.PortSetParam(inID, uint32(ParamEnumFormat), 0, &format); err != nil {
		link.Fail("format not accepted")
		return ErrFormatNotAccepted
	}
	if err := link.Output.SetFormat(&format); err != nil {
		link.Fail(err.Error())
		return err
	}
	if err := link.Input.SetFormat(&format); err != nil {
		link.Fail(err.Error())
		return err
	}

	// Phase 3: buffer parameter intersection.
	buffersFiltered, err := paramFilter(link.Output, link.Input, ParamBuffers)
	if err != nil {
		link.Fail("buffer not accepted")
		return ErrBufferNotAccepted
	}
	bufParams, err := resolveBufferParams(buffersFiltered, isAsync(buffersFiltered), settings)
	if err != nil {
		link.Fail(err.Error())
		return err
	}

	if err := link.BeginAllocating(); err != nil {
		link.Fail(err.Error())
		return err
	}

	// Phase 4: allocation.
	flags := memblock.PoolFlags(0)
	if bufParams.dataType&dataTypeMemFd != 0 {
		flags |= memblock.Shared
	}
	layout := memblock.Pack(flags, bufParams.count, 1, 16, bufParams.blocks, uint32(bufParams.size), bufParams.align)
	bp, err := pool.Allocate(flags, layout, 1, bufParams.blocks)
	if err != nil {
		link.Fail("no memory")
		return ErrNoMemory
	}

	if err := link.Output.Node.Impl.PortSetIO(outID, IOBuffers, nil); err != nil {
		link.Fail("buffer not accepted")
		return ErrBufferNotAccepted
	}
	if err := link.Input.Node.Impl.PortSetIO(inID, IOBuffers, nil); err != nil {
		link.Fail("buffer not accepted")
		return ErrBufferNotAccepted
	}
	link.SetBuffers(bp)

	if err := link.Output.InstallBuffers(); err != nil {
		link.Fail(err.Error())
		return err
	}
	if err := link.Input.InstallBuffers(); err != nil {
		link.Fail(err.Error())
		return err
	}

	// Phase 5: shared realtime IO slots.
	for _, id := range []uint32{IOPosition, IOClock, IOControl} {
		if err := link.Output.Node.Impl.PortSetIO(outID, id, nil); err != nil {
			link.Fail(fmt.Sprintf("io slot %d rejected", id))
			return err
		}
		if err := link.Input.Node.Impl.PortSetIO(inID, id, nil); err != nil {
			link.Fail(fmt.Sprintf("io slot %d rejected", id))
			return err
		}
	}

	if err := link.MarkPaused(); err != nil {
		link.Fail(err.Error())
		return err
	}

	return nil
}

const (
	dataTypeMemPtr uint32 = 1 << iota
	dataTypeMemFd
	dataTypeDmaBuf
)

type bufferParams struct {
	count, blocks, size int
	stride              int
	align               uint32
	dataType            uint32
	metaType            uint32
}

// isAsync reports the negotiated Buffers object's Async flag (spec.md
// §3.3): it is a property of the pool itself, independent of the link's
// Passive state, which governs liveness, not buffer ownership.
func isAsync(o pod.Object) bool {
	p, ok := o.Find(KeyAsync)
	return ok && p.Choice.Default.Int != 0
}

// resolveBufferParams applies spec.md §4.5.3's per-property combination
// rules to an already-filtered Buffers object.
func resolveBufferParams(o pod.Object, async bool, s Settings) (bufferParams, error) {
	minBuffers := 1
	if async {
		minBuffers = 2
	}

	count := minBuffers
	if p, ok := o.Find(KeyBufferCount); ok {
		count = int(p.Choice.Default.Int)
		if count < minBuffers {
			count = minBuffers
		}
	}
	if count > s.LinkMaxBuffers {
		count = s.LinkMaxBuffers
	}

	blocks := 1
	if p, ok := o.Find(KeyBlocks); ok {
		blocks = int(p.Choice.Default.Int)
	}
	if blocks > 256 {
		blocks = 256
	}

	size := 0
	if p, ok := o.Find(KeySize); ok {
		size = int(p.Choice.Default.Int)
	}

	stride := 0
	if p, ok := o.Find(KeyStride); ok {
		stride = int(p.Choice.Default.Int)
	}

	align := s.CPUMaxAlign
	if p, ok := o.Find(KeyAlign); ok {
		if a := uint32(p.Choice.Default.Int); a > align {
			align = a
		}
	}

	dataType := dataTypeMemPtr
	if p, ok := o.Find(KeyDataType); ok {
		dataType = uint32(p.Choice.Default.Int)
	}
	if dataType == 0 {
		return bufferParams{}, ErrBufferNotAccepted
	}
	if dataType&dataTypeDmaBuf != 0 {
		dataType = dataTypeDmaBuf
	} else if dataType&dataTypeMemFd != 0 {
		dataType = dataTypeMemFd
	} else {
		dataType = dataTypeMemPtr
	}

	metaType := uint32(0)
	if p, ok := o.Find(KeyMetaType); ok {
		metaType = uint32(p.Choice.Default.Int)
	}

	return bufferParams{
		count: count, blocks: blocks, size: size, stride: stride,
		align: align, dataType: dataType, metaType: metaType,
	}, nil
}
