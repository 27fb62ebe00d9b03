// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "fmt"

// Provider is the external heap-region collaborator of spec §6: a thin
// contract over a contiguous byte range that only ever grows. The
// allocator is the only consumer; it never shrinks what a Provider hands
// it back.
//
// Lo and Hi bound the region currently in use, [Lo, Hi). Extend grows
// that region by n bytes (always a multiple of 8) and returns the offset
// at which the new bytes begin (the old Hi), or ErrOutOfMemory if the
// provider cannot grow further. Bytes exposes the region's storage,
// re-sliced to [0, Hi) after every successful Extend.
type Provider interface {
	Lo() int
	Hi() int
	Extend(n int) (int, error)
	Bytes() []byte
}

// arena is the default, in-process Provider: it pre-reserves a fixed Go
// byte slice and grows the heap by advancing a high-water mark inside it.
// Because the backing array is never reallocated (capacity is fixed at
// construction and Extend never exceeds it), every []byte previously
// handed out by the Allocator remains valid for the Provider's lifetime.
type arena struct {
	buf []byte
}

// newArena reserves capacity bytes of backing storage and returns a
// Provider over it. capacity bounds the total heap size for the life of
// the arena; it is never resized.
func newArena(capacity int) *arena {
	return &arena{buf: make([]byte, 0, capacity)}
}

func (a *arena) Lo() int { return 0 }
func (a *arena) Hi() int { return len(a.buf) }

func (a *arena) Extend(n int) (int, error) {
	old := len(a.buf)
	if old+n > cap(a.buf) {
		return 0, fmt.Errorf("%w: arena exhausted (cap=%d, requested %d more after %d in use)", ErrOutOfMemory, cap(a.buf), n, old)
	}
	a.buf = a.buf[:old+n]
	return old, nil
}

func (a *arena) Bytes() []byte { return a.buf }
