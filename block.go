// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "encoding/binary"

// Every block is addressed by its payload pointer bp, an offset into
// a.mem. The header lives at bp-wordSize; the footer, present only on
// free blocks, lives at bp+size-dwordSize. A free block's first two
// words (at bp and bp+wordSize) hold the predecessor and successor
// offsets of its free-list chain, each relative to a.base (the
// prologue's bp) with zero encoding the null link — the prologue is
// always allocated, so it is never a valid pred/succ target and zero is
// unambiguous.
//
//	pad(4) | prologue header(4) | pred(4) | succ(4) | prologue footer(4) | epilogue header(4) | ...
//	        ^ a.base-4                                                   ^ a.hi-4
//	                             ^ a.base=8                                       ^ a.hi

func (a *Allocator) getWord(p int) uint32 {
	return binary.LittleEndian.Uint32(a.mem[p : p+wordSize])
}

func (a *Allocator) putWord(p int, v uint32) {
	binary.LittleEndian.PutUint32(a.mem[p:p+wordSize], v)
}

// pack combines a block's size with its flag bits into a header/footer
// word, per spec §3: size occupies the upper bits, prev_alloc is bit 1,
// alloc is bit 0, bit 2 is reserved zero.
func pack(size int, prevAlloc, alloc bool) uint32 {
	w := uint32(size)
	if prevAlloc {
		w |= 2
	}
	if alloc {
		w |= 1
	}
	return w
}

func sizeOfWord(w uint32) int       { return int(w &^ 7) }
func allocOfWord(w uint32) bool     { return w&1 != 0 }
func prevAllocOfWord(w uint32) bool { return w&2 != 0 }

func (a *Allocator) header(bp int) int { return bp - wordSize }

// footer is only meaningful when bp names a free block.
func (a *Allocator) footer(bp int) int { return bp + a.blockSize(bp) - dwordSize }

func (a *Allocator) blockSize(bp int) int { return sizeOfWord(a.getWord(a.header(bp))) }
func (a *Allocator) isAlloc(bp int) bool  { return allocOfWord(a.getWord(a.header(bp))) }
func (a *Allocator) isPrevAlloc(bp int) bool {
	return prevAllocOfWord(a.getWord(a.header(bp)))
}

func (a *Allocator) nextBlock(bp int) int { return bp + a.blockSize(bp) }

// prevBlock reads the left neighbor's size from its footer. The caller
// must have already established isPrevAlloc(bp) == false; reading a
// footer that doesn't exist (because the left neighbor is allocated) is
// undefined, per spec §4.1.
func (a *Allocator) prevBlock(bp int) int {
	return bp - sizeOfWord(a.getWord(bp-dwordSize))
}

// setFreeBlock writes a free block's header and footer with the given
// size and prev_alloc bit. The block's alloc bit is always cleared.
func (a *Allocator) setFreeBlock(bp, size int, prevAlloc bool) {
	w := pack(size, prevAlloc, false)
	a.putWord(a.header(bp), w)
	a.putWord(bp+size-dwordSize, w)
}

// setNextPrevAlloc updates the prev_alloc bit of bp's right neighbor,
// keeping its footer in sync if it is itself free. This is the single
// place that touches a neighbor's boundary tag from the outside, used by
// free, place and coalesce per the three mutation points spec §9 calls
// out.
func (a *Allocator) setNextPrevAlloc(bp int, prevAlloc bool) {
	next := a.nextBlock(bp)
	hdr := a.header(next)
	w := a.getWord(hdr)
	if prevAlloc {
		w |= 2
	} else {
		w &^= 2
	}
	a.putWord(hdr, w)
	if !allocOfWord(w) {
		a.putWord(a.footer(next), w)
	}
}

// predSlot and succSlot are the two link words inside a free block's
// payload area.
func (a *Allocator) predSlot(bp int) int { return bp }
func (a *Allocator) succSlot(bp int) int { return bp + wordSize }

func (a *Allocator) getLink(slot int) int {
	w := a.getWord(slot)
	if w == 0 {
		return 0
	}
	return a.base + int(w)
}

func (a *Allocator) putLink(slot, target int) {
	if target == 0 {
		a.putWord(slot, 0)
		return
	}
	a.putWord(slot, uint32(target-a.base))
}

func (a *Allocator) pred(bp int) int   { return a.getLink(a.predSlot(bp)) }
func (a *Allocator) succ(bp int) int   { return a.getLink(a.succSlot(bp)) }
func (a *Allocator) setPred(bp, v int) { a.putLink(a.predSlot(bp), v) }
func (a *Allocator) setSucc(bp, v int) { a.putLink(a.succSlot(bp), v) }

// aligned8 reports whether bp is 8-byte aligned, invariant I7/I8.
func aligned8(bp int) bool { return bp&(dwordSize-1) == 0 }
