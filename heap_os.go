// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"fmt"
	"os"
	"unsafe"
)

var (
	osPageSize = os.Getpagesize()
	osPageMask = osPageSize - 1
)

// OSArena is a Provider backed by a single real OS mapping (mmap on
// Unix, CreateFileMapping/MapViewOfFile on Windows — see mmap_unix.go
// and mmap_windows.go) instead of a Go-heap slice. It is the
// high-capacity alternative to the default arena: reserving the region
// directly from the OS lets the caller size a heap far larger than is
// comfortable to carve out of the Go runtime's own heap, at the cost of
// a cleanup step (Close) since the Go garbage collector does not know
// about the mapping.
type OSArena struct {
	buf  []byte
	used int
}

// NewOSArena reserves capacity bytes directly from the OS. The region is
// zeroed by the OS and is never moved or shrunk.
func NewOSArena(capacity int) (*OSArena, error) {
	b, err := reserveOS(capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: reserveOS(%d): %v", ErrOutOfMemory, capacity, err)
	}
	return &OSArena{buf: b}, nil
}

func (a *OSArena) Lo() int { return 0 }
func (a *OSArena) Hi() int { return a.used }

func (a *OSArena) Extend(n int) (int, error) {
	old := a.used
	if old+n > len(a.buf) {
		return 0, fmt.Errorf("%w: OS arena exhausted (cap=%d, requested %d more after %d in use)", ErrOutOfMemory, len(a.buf), n, old)
	}
	a.used += n
	return old, nil
}

func (a *OSArena) Bytes() []byte { return a.buf[:a.used] }

// Close releases the OS mapping. It is not necessary to Close an
// OSArena when exiting a process.
func (a *OSArena) Close() error {
	if a.buf == nil {
		return nil
	}
	err := releaseOS(unsafe.Pointer(&a.buf[0]), len(a.buf))
	a.buf, a.used = nil, 0
	return err
}
