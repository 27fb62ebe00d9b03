// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

const (
	wordSize  = 4  // WSIZE: header/footer/link-slot width.
	dwordSize = 8  // DSIZE: alignment granularity.
	initSize  = 16 // INITSIZE: size of the prologue block and the minimum block size.

	// numClasses and rangeBase mirror the reference design's RANGE_SIZE=20,
	// RANGE=48: class 0 covers [initSize, rangeBase], class i>0 covers
	// (rangeBase*2^(i-1), rangeBase*2^i], the last class covers the rest.
	numClasses = 20
	rangeBase  = 48

	// defaultChunkSize is CHUNKSIZE: the minimum number of bytes requested
	// from the Provider on a find_fit miss.
	defaultChunkSize = 1 << 8

	// defaultCapacity bounds the default in-process arena Provider. The
	// heap never shrinks, so this is the ceiling on total bytes ever
	// outstanding across the Allocator's lifetime.
	defaultCapacity = 1 << 26 // 64 MiB
)

// align8 rounds n up to the next multiple of 8.
func align8(n int) int { return (n + dwordSize - 1) &^ (dwordSize - 1) }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Options configures Init. The zero Options value selects the reference
// design's defaults (CHUNKSIZE=256, a 64 MiB in-process arena).
type Options struct {
	// ChunkSize is the minimum number of bytes requested from the
	// Provider whenever find_fit misses. Rounded up to a multiple of 8.
	ChunkSize int

	// Provider supplies the heap's backing bytes. If nil, Init creates a
	// default in-process arena sized by Capacity.
	Provider Provider

	// Capacity bounds the default Provider's total size. Ignored if
	// Provider is set explicitly.
	Capacity int

	// Strict makes Check invoke OnViolation (panicking by default) on
	// the first violated invariant, instead of only returning
	// ErrCorruptHeap.
	Strict bool

	// OnViolation, if set, is called with a description of the first
	// violated invariant Check finds while Strict is set. Defaults to a
	// panic when Strict is set and OnViolation is nil.
	OnViolation func(string)
}

// WithChunkSize returns Options with ChunkSize set, defaults otherwise.
func WithChunkSize(n int) Options { return Options{ChunkSize: n} }

// WithCapacity returns Options with Capacity set, defaults otherwise.
func WithCapacity(n int) Options { return Options{Capacity: n} }

// WithProvider returns Options with an explicit Provider, defaults
// otherwise.
func WithProvider(p Provider) Options { return Options{Provider: p} }

// WithStrict returns Options with Strict set, defaults otherwise.
func WithStrict(strict bool) Options { return Options{Strict: strict} }

func (o Options) normalize() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	o.ChunkSize = align8(o.ChunkSize)
	if o.Capacity <= 0 {
		o.Capacity = defaultCapacity
	}
	return o
}
