// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

// classOf returns the segregated-fit size class for size, per spec
// §4.2: class 0 covers up to rangeBase, each subsequent class doubles
// the upper bound, and the last class absorbs everything beyond.
func classOf(size int) int {
	id, upper := 0, rangeBase
	for upper < size && id < numClasses-1 {
		upper <<= 1
		id++
	}
	return id
}

// insert places bp at the head of its size class's free list.
func (a *Allocator) insert(bp int) {
	id := classOf(a.blockSize(bp))
	head := a.lists[id]
	a.setPred(bp, 0)
	a.setSucc(bp, head)
	if head != 0 {
		a.setPred(head, bp)
	}
	a.lists[id] = bp
}

// unlink splices bp out of whatever free list it belongs to, promoting
// its successor to list head if bp was the head. bp must currently be a
// member of exactly one free list.
func (a *Allocator) unlink(bp int) {
	p, s := a.pred(bp), a.succ(bp)
	if p != 0 {
		a.setSucc(p, s)
	} else {
		a.lists[classOf(a.blockSize(bp))] = s
	}
	if s != 0 {
		a.setPred(s, p)
	}
}

// findFit walks the free lists from classOf(asize) upward, first-fit
// within a class and first-nonempty-larger-class across classes, and
// returns the first block of size >= asize, or 0 if none exists.
func (a *Allocator) findFit(asize int) int {
	for id := classOf(asize); id < numClasses; id++ {
		for bp := a.lists[id]; bp != 0; bp = a.succ(bp) {
			if a.blockSize(bp) >= asize {
				return bp
			}
		}
	}
	return 0
}
