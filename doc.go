// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package malloc implements a single-goroutine, segregated-fit dynamic
// memory allocator over a contiguous, growable byte region.
//
// The allocator is an explicit, boundary-tag allocator in the classic
// CS:APP mold: every block carries a 4-byte header (and, when free, a
// 4-byte footer) recording its size and two flag bits, free blocks are
// indexed by a fixed array of size-class lists threaded through the
// payload area, and adjacent free blocks are eagerly coalesced. It does
// not allocate real process memory by itself; it asks a Provider (see
// Provider) for a contiguous region and never gives bytes back to it.
//
// The zero value of Allocator is not ready for use; call Init first.
//
// Allocator is not safe for concurrent use: the caller must serialize
// all calls to a single Allocator, the same way a single-threaded
// mutator would serialize calls to a real heap allocator.
package malloc
