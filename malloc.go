// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"fmt"
	"unsafe"
)

const headerOverhead = wordSize

// Allocator allocates and frees memory out of a single, monotonically
// growable heap region. Its zero value is not ready for use; call Init.
//
// Allocator is not safe for concurrent use: the caller serializes all
// access, exactly as spec §5 requires of a single-mutator allocator.
type Allocator struct {
	provider    Provider
	mem         []byte // == provider.Bytes(), refreshed after every Extend
	base        int    // prologue's bp; the zero point for free-list offsets
	hi          int    // epilogue's bp; == len(mem)
	lists       [numClasses]int
	chunkSize   int
	strict      bool // Check invokes onViolation instead of only returning ErrCorruptHeap
	onViolation func(string)

	allocs int // outstanding allocations
	bytes  int // bytes currently committed from the provider
}

// Init brings up a fresh heap: an empty free-list index and a minimal
// prologue/epilogue pair (spec §4.5, §9's exact 24-byte initial layout).
// Further growth happens lazily inside Malloc.
func (a *Allocator) Init(opts Options) error {
	opts = opts.normalize()
	onViolation := opts.OnViolation
	if opts.Strict && onViolation == nil {
		onViolation = func(msg string) { panic("malloc: " + msg) }
	}
	*a = Allocator{chunkSize: opts.ChunkSize, strict: opts.Strict, onViolation: onViolation}
	if opts.Provider != nil {
		a.provider = opts.Provider
	} else {
		a.provider = newArena(opts.Capacity)
	}

	start, err := a.provider.Extend(6 * wordSize) // pad + prologue hdr/pred/succ/ftr + epilogue hdr
	if err != nil {
		return fmt.Errorf("malloc: init: %w", err)
	}
	a.mem = a.provider.Bytes()

	// start+0: alignment pad, left zero.
	a.base = start + 2*wordSize
	a.putWord(a.header(a.base), pack(initSize, true, true))
	a.setPred(a.base, 0)
	a.setSucc(a.base, 0)
	a.putWord(a.footer(a.base), pack(initSize, true, true))
	epilogue := a.base + initSize
	a.putWord(a.header(epilogue), pack(0, true, true))
	a.hi = epilogue
	a.bytes = a.hi - start

	if !aligned8(a.base) {
		return fmt.Errorf("malloc: init: provider returned a misaligned region")
	}
	return nil
}

// Malloc allocates size bytes and returns the payload as a byte slice.
// The memory is not initialized. Malloc panics for size < 0 and returns
// (nil, nil) for zero size, per spec §4.5 (allocate(0) -> null).
func (a *Allocator) Malloc(size int) ([]byte, error) {
	if a.mem == nil {
		return nil, ErrNotInitialized
	}
	if size < 0 {
		panic("malloc: invalid size")
	}
	if size == 0 {
		return nil, nil
	}

	asize := align8(maxInt(size+headerOverhead, initSize))
	bp := a.findFit(asize)
	if bp == 0 {
		if err := a.growBy(maxInt(asize, a.chunkSize)); err != nil {
			return nil, err
		}
		bp = a.findFit(asize)
		if bp == 0 {
			return nil, ErrOutOfMemory
		}
	}
	a.place(bp, asize)
	a.allocs++
	return a.sliceFor(bp, size), nil
}

// Calloc is like Malloc except the allocated memory is zeroed.
func (a *Allocator) Calloc(count, size int) ([]byte, error) {
	b, err := a.Malloc(count * size)
	if err != nil || b == nil {
		return b, err
	}
	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// Free deallocates memory acquired from Malloc, Calloc or Realloc. A nil
// or zero-capacity slice, or one whose data pointer falls outside the
// heap, is a no-op (spec §7's InvalidPointer has no observable effect).
func (a *Allocator) Free(b []byte) error {
	bp, ok := a.bpOf(b)
	if !ok {
		return nil
	}

	prevAlloc := a.isPrevAlloc(bp)
	a.setFreeBlock(bp, a.blockSize(bp), prevAlloc)
	a.coalesce(bp)
	a.allocs--
	return nil
}

// Realloc changes the size of the allocation backing b to size bytes.
// Contents are preserved up to min(size, old payload capacity). A nil b
// behaves like Malloc(size); size == 0 behaves like Free(b). If the
// right neighbor is free and large enough the block grows in place;
// otherwise a fresh block is allocated, the data copied, and the old
// block freed. On failure the original block is left untouched.
func (a *Allocator) Realloc(b []byte, size int) ([]byte, error) {
	if cap(b) == 0 {
		return a.Malloc(size)
	}
	if size == 0 {
		return nil, a.Free(b)
	}

	bp, ok := a.bpOf(b)
	if !ok {
		return nil, nil
	}

	asize := align8(maxInt(size+headerOverhead, initSize))
	cur := a.blockSize(bp)
	if asize <= cur {
		a.place(bp, asize)
		return a.sliceFor(bp, size), nil
	}

	next := a.nextBlock(bp)
	if !a.isAlloc(next) && cur+a.blockSize(next) >= asize {
		prevAlloc := a.isPrevAlloc(bp)
		combined := cur + a.blockSize(next)
		a.unlink(next)
		a.putWord(a.header(bp), pack(combined, prevAlloc, true))
		a.place(bp, asize)
		return a.sliceFor(bp, size), nil
	}

	newB, err := a.Malloc(size)
	if err != nil {
		return nil, err
	}
	copy(newB, b[:cap(b)])
	if err := a.Free(b); err != nil {
		return nil, err
	}
	return newB, nil
}

// growBy rounds nBytes up to an even word count and extends the heap by
// that many bytes, reusing the old epilogue's header slot as the new
// block's header (spec §4.6) and coalescing the result into the index.
func (a *Allocator) growBy(nBytes int) error {
	words := nBytes / wordSize
	if words%2 != 0 {
		words++
	}
	n := words * wordSize

	start, err := a.provider.Extend(n)
	if err != nil {
		return err
	}
	a.mem = a.provider.Bytes()
	a.bytes += n

	bp := start
	prevAlloc := prevAllocOfWord(a.getWord(a.header(bp))) // old epilogue's prev_alloc, carried forward
	a.setFreeBlock(bp, n, prevAlloc)
	a.putWord(a.header(bp+n), pack(0, false, true)) // fresh epilogue
	a.hi = bp + n

	a.coalesce(bp)
	return nil
}

// sliceFor builds the Go slice the caller sees for a just-placed block:
// len == the size the caller asked for, cap == the block's full usable
// payload capacity (which may exceed len when find_fit rounded up).
func (a *Allocator) sliceFor(bp, reqLen int) []byte {
	usable := a.blockSize(bp) - headerOverhead
	return a.mem[bp : bp+reqLen : bp+usable]
}

// bpOf recovers the payload offset of a slice previously returned by
// this Allocator, or ok=false if b is nil, empty, or does not point
// inside this heap (spec §7's InvalidPointer).
func (a *Allocator) bpOf(b []byte) (bp int, ok bool) {
	b = b[:cap(b)]
	if len(b) == 0 || a.mem == nil {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&a.mem[0]))
	p := uintptr(unsafe.Pointer(&b[0]))
	if p < base {
		return 0, false
	}
	off := int(p - base)
	if off <= a.base || off >= a.hi {
		return 0, false
	}
	return off, true
}

// Stats reports the allocator's outstanding allocation count and the
// number of bytes currently committed from the Provider.
func (a *Allocator) Stats() (allocs, bytes int) { return a.allocs, a.bytes }
