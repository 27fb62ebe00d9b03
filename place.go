// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

// place services an allocation of asize bytes from the free block at bp
// (size(bp) >= asize), splitting off a free tail when the remainder is
// at least initSize, else consuming bp whole. It is idempotent with
// respect to free-list membership: bp is unlinked iff it was free on
// entry, and any split tail is inserted or coalesced exactly once — this
// is what lets the reallocate-grow-in-place path (§4.5) call place on a
// block that is already allocated without double-linking the tail, the
// bug spec §9 warns against.
func (a *Allocator) place(bp, asize int) {
	wasFree := !a.isAlloc(bp)
	size := a.blockSize(bp)
	prevAlloc := a.isPrevAlloc(bp)
	if wasFree {
		a.unlink(bp)
	}

	if size-asize < initSize {
		a.putWord(a.header(bp), pack(size, prevAlloc, true))
		a.setNextPrevAlloc(bp, true)
		return
	}

	a.putWord(a.header(bp), pack(asize, prevAlloc, true))
	tail := bp + asize
	a.setFreeBlock(tail, size-asize, true)
	a.setNextPrevAlloc(tail, false)
	if wasFree {
		a.insert(tail)
	} else {
		a.coalesce(tail)
	}
}
