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

package memblock

// MetaType identifies what a Meta carries.
type MetaType uint8

const (
	MetaHeader MetaType = iota
	MetaVideoCrop
	MetaBitmap
	MetaCursor
	MetaControl
)

// Meta is (type, size, payload) living in a Buffer's skeleton.
type Meta struct {
	Type MetaType
	Size uint32
}

// Chunk is a Data's small mutable current-window descriptor.
type Chunk struct {
	Offset uint32
	Size   uint32
	Stride uint32
}

// DataType mirrors memblock.Type restricted to what a Data block may carry.
type DataType = Type

// DataFlags on a Data entry.
type DataFlags uint8

const (
	DataDynamic DataFlags = 1 << iota
)

// Data is one (type, flags, block-relative window, Chunk) entry of a
// Buffer.
type Data struct {
	Type    DataType
	Flags   DataFlags
	Block   *Block
	MapOff  int64
	MaxSize uint32
	Chunk   Chunk
}

// Buffer is a skeleton plus N Metas and M Datas (spec.md §3.3).
type Buffer struct {
	Metas []Meta
	Datas []Data
}

// PoolFlags control how a BufferPool's skeleton/payload are laid out.
type PoolFlags uint8

const (
	// Shared: the skeleton array lives in the shared fd alongside payload.
	Shared PoolFlags = 1 << iota
	// NoMem: only skeletons/chunks are shared; the node supplies data
	// pointers itself each cycle.
	NoMem
	// Async: require at least min_buffers+1 so producer and consumer can
	// each hold one concurrently.
	Async
	// Dynamic: Data.Flags may carry DataDynamic, re-pointing the window
	// each cycle.
	Dynamic
)

// Layout is the result of Pack: per-buffer byte layout inside the backing
// Block, honoring max-align and per-meta/per-data alignment.
type Layout struct {
	BufferCount int
	BufferSize  int64 // size of one buffer's skeleton+metas+chunks region
	PayloadSize int64 // size of one buffer's payload region (0 if NoMem)
	TotalSize   int64
	PageAligned bool
}

const cpuMaxAlign = 16

func alignUp(n, align int64) int64 {
	if align <= 0 {
		align = 1
	}
	return (n + align - 1) &^ (align - 1)
}

// Pack computes the Layout for a BufferPool of count buffers, each with
// nMetas metas of metaSize bytes and nDatas datas of payload dataSize
// bytes, per spec.md §3.3's packing invariants: the skeleton array plus
// metas plus chunks are densely packed with per-field alignment; payload
// data, when Shared, is page-aligned.
func Pack(flags PoolFlags, count int, nMetas int, metaSize uint32, nDatas int, dataSize uint32, align uint32) Layout {
	a := int64(align)
	if a < cpuMaxAlign {
		a = cpuMaxAlign
	}

	skeleton := alignUp(int64(nMetas)*int64(metaSize), a) +
		alignUp(int64(nDatas)*int64(dataSize_chunkOnly()), a)

	var payload int64
	if flags&NoMem == 0 {
		payload = alignUp(int64(nDatas)*int64(dataSize), a)
		if flags&Shared != 0 {
			payload = pageAlign(payload)
		}
	}

	bufSize := alignUp(skeleton, a)
	total := int64(count) * (bufSize + payload)
	if flags&Shared != 0 {
		total = pageAlign(total)
	}

	return Layout{
		BufferCount: count,
		BufferSize:  bufSize,
		PayloadSize: payload,
		TotalSize:   total,
		PageAligned: flags&Shared != 0,
	}
}

// dataSize_chunkOnly is the fixed size of a Data's Chunk header (offset,
// size, stride — three uint32 fields) packed into the skeleton region.
func dataSize_chunkOnly() uint32 { return 12 }

// BufferPool is a fixed array of buffers sharing one underlying Block
// layout (spec.md §3.3). Immutable once allocated.
type BufferPool struct {
	Flags   PoolFlags
	Layout  Layout
	Block   *Block
	Buffers []Buffer
}

// Allocate builds a BufferPool backed by a freshly-allocated Block from p,
// per the layout computed by Pack.
func (p *Pool) Allocate(flags PoolFlags, layout Layout, nMetas, nDatas int) (*BufferPool, error) {
	typ := TypeMemPtr
	allocFlags := Readable | Writable
	if flags&Shared != 0 {
		typ = TypeMemFd
		allocFlags |= Seal
	}

	blk, err := p.Alloc(allocFlags, typ, layout.TotalSize)
	if err != nil {
		return nil, err
	}

	bp := &BufferPool{Flags: flags, Layout: layout, Block: blk}
	bp.Buffers = make([]Buffer, layout.BufferCount)
	for i := range bp.Buffers {
		bp.Buffers[i] = Buffer{
			Metas: make([]Meta, nMetas),
			Datas: make([]Data, nDatas),
		}
		for d := range bp.Buffers[i].Datas {
			bp.Buffers[i].Datas[d].Block = blk
			bp.Buffers[i].Datas[d].MaxSize = uint32(layout.PayloadSize)
		}
	}
	return bp, nil
}

// Release returns the pool's Block to p. Per spec.md's lifecycle table, a
// BufferPool is destroyed when its Link leaves Allocating or is destroyed.
func (p *Pool) Release(bp *BufferPool) {
	if bp == nil || bp.Block == nil {
		return
	}
	p.Unref(bp.Block)
}
