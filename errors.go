// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "errors"

// ErrOutOfMemory is returned when the Provider refuses to extend the heap
// region. The heap is left in a valid state; no block is modified.
var ErrOutOfMemory = errors.New("malloc: out of memory")

// ErrNotInitialized is returned by Malloc, Calloc, Check, and Realloc of
// a nil slice, on an Allocator before Init has succeeded. Free, and
// Realloc of a non-nil slice, treat the slice as foreign to such an
// Allocator and return no error.
var ErrNotInitialized = errors.New("malloc: allocator not initialized")

// ErrCorruptHeap is returned by Check when it finds a violated invariant
// and the Allocator was not configured to panic instead (see WithStrict).
var ErrCorruptHeap = errors.New("malloc: heap invariant violated")
