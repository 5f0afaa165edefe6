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

// Package memblock implements the memory pool: allocation, tracking,
// sharing and mapping of the memory that participates in the zero-copy
// graph (spec.md §4.1). One Pool lives on the Core; peers exchange blocks
// by id and receive the backing fd out-of-band over the transport.
package memblock

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	liberr "github.com/sigflow/sigflow/errors"
)

// Type is the kind of memory a Block is backed by.
type Type uint8

const (
	TypeMemFd Type = iota
	TypeDmaBuf
	TypeMemPtr
	TypeShmFd
)

// Flags requested at alloc time.
type Flags uint8

const (
	Readable Flags = 1 << iota
	Writable
	Seal
	MapNow
)

var (
	ErrOutOfMemory  = liberr.New(uint16(liberr.MinPkgMemBlock+1), "memory pool: out of memory")
	ErrNoSupport    = liberr.New(uint16(liberr.MinPkgMemBlock+2), "memory pool: unsupported block type")
	ErrBadArgument  = liberr.New(uint16(liberr.MinPkgMemBlock+3), "memory pool: bad argument")
	ErrNotFound     = liberr.New(uint16(liberr.MinPkgMemBlock+4), "memory pool: block not found")
)

const pageSize = 4096

func pageAlign(n int64) int64 {
	if n <= 0 {
		return pageSize
	}
	return (n + pageSize - 1) &^ (pageSize - 1)
}

// Map is a refcounted window into a Block's address space. Multiple Maps
// can reference the same Block independently; unmapping the last one may
// munmap the region but never frees the Block itself.
type Map struct {
	block  *Block
	offset int64
	size   int64
	data   []byte
	refs   int32
}

// Data returns the mapped byte slice. Valid until the last Unref.
func (m *Map) Data() []byte { return m.data }

func (m *Map) ref()   { atomic.AddInt32(&m.refs, 1) }
func (m *Map) unref() int32 { return atomic.AddInt32(&m.refs, -1) }

// Block is a refcounted shared-memory region (spec.md's MemBlock).
type Block struct {
	ID     uint32
	Type   Type
	Flags  Flags
	Fd     int
	Offset int64
	Size   int64

	mu    sync.Mutex
	refs  int32
	maps  []*Map
	ptr   []byte // backing storage for TypeMemPtr
}

// Pool is the id-indexed memory pool (spec.md §4.1).
type Pool struct {
	mu     sync.Mutex
	byID   map[uint32]*Block
	byFd   map[int]*Block
	nextID uint32
}

// New returns an empty Pool. Block ids start at 1.
func New() *Pool {
	return &Pool{byID: make(map[uint32]*Block), byFd: make(map[int]*Block), nextID: 1}
}

// Alloc allocates a new Block of the given type and size. size is rounded
// up to at least one page for file-backed types, per spec.md §4.1.
func (p *Pool) Alloc(flags Flags, typ Type, size int64) (*Block, error) {
	if size < 0 {
		return nil, ErrBadArgument
	}

	b := &Block{Type: typ, Flags: flags, refs: 1}

	switch typ {
	case TypeMemPtr:
		b.Size = size
		b.ptr = make([]byte, size)
		b.Fd = -1

	case TypeMemFd, TypeShmFd:
		sz := pageAlign(size)
		fd, err := unix.MemfdCreate("sigflow-membuf", unix.MFD_ALLOW_SEALING)
		if err != nil {
			return nil, ErrOutOfMemory
		}
		if err := unix.Ftruncate(fd, sz); err != nil {
			_ = unix.Close(fd)
			return nil, ErrOutOfMemory
		}
		if flags&Seal != 0 {
			seals := unix.F_SEAL_SHRINK | unix.F_SEAL_GROW
			if flags&Writable == 0 {
				seals |= unix.F_SEAL_WRITE
			}
			if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, seals); err != nil {
				_ = unix.Close(fd)
				return nil, ErrOutOfMemory
			}
		}
		b.Fd = fd
		b.Size = sz

	case TypeDmaBuf:
		// DmaBuf allocation is delegated to the node implementing the
		// capture/render device; the core only tracks the fd it is given
		// via Import.
		return nil, ErrNoSupport

	default:
		return nil, ErrNoSupport
	}

	p.mu.Lock()
	b.ID = p.nextID
	p.nextID++
	p.byID[b.ID] = b
	if b.Fd >= 0 {
		p.byFd[b.Fd] = b
	}
	p.mu.Unlock()

	if flags&MapNow != 0 && b.Fd >= 0 {
		if _, err := p.Map(b, 0, b.Size); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Import registers a Block backed by an fd received from a peer.
func (p *Pool) Import(fd int, typ Type, flags Flags, offset, size int64) (*Block, error) {
	var st unix.Stat_t
	if typ != TypeMemPtr {
		if err := unix.Fstat(fd, &st); err != nil {
			return nil, ErrBadArgument
		}
		if offset+size > st.Size {
			return nil, ErrBadArgument
		}
	}

	b := &Block{Type: typ, Flags: flags, Fd: fd, Offset: offset, Size: size, refs: 1}

	p.mu.Lock()
	b.ID = p.nextID
	p.nextID++
	p.byID[b.ID] = b
	p.byFd[fd] = b
	p.mu.Unlock()

	return b, nil
}

// Map creates a refcounted mapping of [offset,offset+size) into the
// process's address space.
func (p *Pool) Map(b *Block, offset, size int64) (*Map, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Type == TypeMemPtr {
		if offset+size > int64(len(b.ptr)) {
			return nil, ErrBadArgument
		}
		m := &Map{block: b, offset: offset, size: size, data: b.ptr[offset : offset+size], refs: 1}
		b.maps = append(b.maps, m)
		return m, nil
	}

	prot := unix.PROT_READ
	if b.Flags&Writable != 0 {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(b.Fd, b.Offset+offset, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, ErrBadArgument
	}
	m := &Map{block: b, offset: offset, size: size, data: data, refs: 1}
	b.maps = append(b.maps, m)
	return m, nil
}

// Unmap drops a reference on m; when the last reference goes away the
// mapping is torn down (the Block itself may still be live).
func (p *Pool) Unmap(m *Map) error {
	if m.unref() > 0 {
		return nil
	}
	b := m.block
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, mm := range b.maps {
		if mm == m {
			b.maps = append(b.maps[:i], b.maps[i+1:]...)
			break
		}
	}
	if b.Type != TypeMemPtr {
		return unix.Munmap(m.data)
	}
	return nil
}

// Ref adds a reference to a Block.
func (p *Pool) Ref(b *Block) { atomic.AddInt32(&b.refs, 1) }

// Unref drops a reference; the last unref removes the Block from the id
// map before closing its fd, per spec.md §4.1's ordering invariant.
func (p *Pool) Unref(b *Block) {
	if atomic.AddInt32(&b.refs, -1) > 0 {
		return
	}
	p.mu.Lock()
	delete(p.byID, b.ID)
	if b.Fd >= 0 {
		delete(p.byFd, b.Fd)
	}
	p.mu.Unlock()

	if b.Fd >= 0 {
		_ = unix.Close(b.Fd)
	}
}

// Free is an explicit unref used by callers that never shared the Block
// beyond their own reference.
func (p *Pool) Free(b *Block) { p.Unref(b) }

// FindID looks a Block up by pool-local id.
func (p *Pool) FindID(id uint32) (*Block, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.byID[id]
	return b, ok
}

// FindFd looks a Block up by its backing fd.
func (p *Pool) FindFd(fd int) (*Block, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.byFd[fd]
	return b, ok
}
