// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"bytes"
	"math"
	"testing"

	"github.com/cznic/mathutil"
)

const quota = 1 << 20

var (
	max    = 4 * initSize
	bigMax = 64 * initSize
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	var a Allocator
	if err := a.Init(Options{}); err != nil {
		t.Fatal(err)
	}
	return &a
}

func test1(t *testing.T, max int) {
	a := newTestAllocator(t)
	rem := quota
	var got [][]byte
	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	if err != nil {
		t.Fatal(err)
	}

	rng.Seed(42)
	pos := rng.Pos()
	for rem > 0 {
		size := rng.Next()%max + 1
		rem -= size
		b, err := a.Malloc(size)
		if err != nil {
			t.Fatal(err)
		}

		got = append(got, b)
		for i := range b {
			b[i] = byte(rng.Next())
		}
	}
	t.Logf("allocs=%d bytes=%d", a.allocs, a.bytes)

	rng.Seek(pos)
	for i, b := range got {
		if g, e := len(b), rng.Next()%max+1; g != e {
			t.Fatal(i, g, e)
		}
		for i, g := range b {
			if e := byte(rng.Next()); g != e {
				t.Fatalf("%v %p: %#02x %#02x", i, &b[i], g, e)
			}
			b[i] = 0
		}
	}

	for i := range got {
		j := rng.Next() % len(got)
		got[i], got[j] = got[j], got[i]
	}

	for _, b := range got {
		if err := a.Free(b); err != nil {
			t.Fatal(err)
		}
	}
	if a.allocs != 0 {
		t.Fatalf("allocs=%d, want 0", a.allocs)
	}
	if err := a.Check(CheckHeapWalk, bytes.NewBuffer(nil)); err != nil {
		t.Fatal(err)
	}
}

func Test1Small(t *testing.T) { test1(t, max) }
func Test1Big(t *testing.T)   { test1(t, bigMax) }

func test2(t *testing.T, max int) {
	a := newTestAllocator(t)
	rem := quota
	var got [][]byte
	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	if err != nil {
		t.Fatal(err)
	}

	rng.Seed(42)
	pos := rng.Pos()
	for rem > 0 {
		size := rng.Next()%max + 1
		rem -= size
		b, err := a.Malloc(size)
		if err != nil {
			t.Fatal(err)
		}

		got = append(got, b)
		for i := range b {
			b[i] = byte(rng.Next())
		}
	}

	rng.Seek(pos)
	for i, b := range got {
		if g, e := len(b), rng.Next()%max+1; g != e {
			t.Fatal(i, g, e)
		}
		for i, g := range b {
			if e := byte(rng.Next()); g != e {
				t.Fatalf("%v %p: %#02x %#02x", i, &b[i], g, e)
			}
			b[i] = 0
		}
		if err := a.Free(b); err != nil {
			t.Fatal(err)
		}
	}
	if a.allocs != 0 {
		t.Fatalf("allocs=%d, want 0", a.allocs)
	}
}

func Test2Small(t *testing.T) { test2(t, max) }
func Test2Big(t *testing.T)   { test2(t, bigMax) }

func test3(t *testing.T, max int) {
	a := newTestAllocator(t)
	rem := quota
	m := map[*[]byte][]byte{}
	rng, err := mathutil.NewFC32(1, max, true)
	if err != nil {
		t.Fatal(err)
	}

	for rem > 0 {
		switch rng.Next() % 3 {
		case 0, 1: // 2/3 allocate
			size := rng.Next()
			rem -= size
			b, err := a.Malloc(size)
			if err != nil {
				t.Fatal(err)
			}

			m[&b] = append([]byte(nil), b...)
		default: // 1/3 free
			for k := range m {
				b := *k
				for i := range b {
					b[i] = 0
				}
				rem += len(b)
				if err := a.Free(b); err != nil {
					t.Fatal(err)
				}
				delete(m, k)
				break
			}
		}
	}
	for k, v := range m {
		b := *k
		if !bytes.Equal(b, v) {
			t.Fatal("corrupted heap")
		}

		for i := range b {
			b[i] = 0
		}
		if err := a.Free(b); err != nil {
			t.Fatal(err)
		}
	}
	if a.allocs != 0 {
		t.Fatalf("allocs=%d, want 0", a.allocs)
	}
}

func Test3Small(t *testing.T) { test3(t, max) }
func Test3Big(t *testing.T)   { test3(t, bigMax) }

func TestMallocZero(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Malloc(0)
	if err != nil {
		t.Fatal(err)
	}
	if b != nil {
		t.Fatalf("malloc(0) = %v, want nil", b)
	}
}

func TestFreeInvalid(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.Free(nil); err != nil {
		t.Fatal(err)
	}
	if err := a.Free([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
}

func TestFreeTwiceIsUndefinedButDoesNotPanic(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Malloc(32)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(b); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(b); err != nil {
		t.Fatal(err)
	}
}

func TestReallocGrowInPlace(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Malloc(16)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b {
		b[i] = byte(i)
	}

	// Allocate a neighbor then free it so Realloc can absorb it.
	n, err := a.Malloc(64)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(n); err != nil {
		t.Fatal(err)
	}

	grown, err := a.Realloc(b, 48)
	if err != nil {
		t.Fatal(err)
	}
	if &grown[0] != &b[0] {
		t.Fatal("Realloc moved the block instead of absorbing its free right neighbor")
	}
	for i := 0; i < 16; i++ {
		if grown[i] != byte(i) {
			t.Fatalf("byte %d corrupted on grow-in-place", i)
		}
	}
	if err := a.Free(grown); err != nil {
		t.Fatal(err)
	}
}

// TestReallocGrowByCopy is spec.md §8's Concrete Scenario 5: p and q are
// allocated back to back so p has no free right neighbor to absorb, so
// growing p forces Realloc onto its allocate-copy-free fallback
// (malloc.go's final branch) rather than either in-place path.
func TestReallocGrowByCopy(t *testing.T) {
	a := newTestAllocator(t)
	p, err := a.Malloc(32)
	if err != nil {
		t.Fatal(err)
	}
	for i := range p {
		p[i] = byte(i + 1)
	}
	q, err := a.Malloc(32)
	if err != nil {
		t.Fatal(err)
	}

	orig := append([]byte(nil), p...)
	pAddr := &p[0]

	grown, err := a.Realloc(p, 200)
	if err != nil {
		t.Fatal(err)
	}
	if len(grown) != 200 {
		t.Fatalf("len=%d, want 200", len(grown))
	}
	if &grown[0] == pAddr {
		t.Fatal("Realloc returned the same address; expected the copy-fallback path")
	}
	for i, want := range orig {
		if grown[i] != want {
			t.Fatalf("byte %d = %d, want %d (original contents not preserved)", i, grown[i], want)
		}
	}

	if err := a.Free(grown); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(q); err != nil {
		t.Fatal(err)
	}
}

func TestReallocNilIsMalloc(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Realloc(nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 10 {
		t.Fatalf("len=%d, want 10", len(b))
	}
}

func TestReallocZeroIsFree(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Malloc(10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Realloc(b, 0); err != nil {
		t.Fatal(err)
	}
	if a.allocs != 0 {
		t.Fatalf("allocs=%d, want 0", a.allocs)
	}
}

func TestCalloc(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Calloc(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestGrowBeyondChunk(t *testing.T) {
	a := newTestAllocator(t)
	var got [][]byte
	for i := 0; i < 10_000; i++ {
		b, err := a.Malloc(24)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, b)
	}
	for _, b := range got {
		if err := a.Free(b); err != nil {
			t.Fatal(err)
		}
	}
	if a.allocs != 0 {
		t.Fatalf("allocs=%d, want 0", a.allocs)
	}
}

func benchmarkFree(b *testing.B, size int) {
	var a Allocator
	if err := a.Init(Options{}); err != nil {
		b.Fatal(err)
	}
	m := make([][]byte, b.N)
	for i := 0; i < b.N; i++ {
		p, err := a.Malloc(size)
		if err != nil {
			b.Fatal(err)
		}
		m[i] = p
	}
	b.ResetTimer()
	for _, p := range m {
		a.Free(p)
	}
	b.StopTimer()
}

func BenchmarkFree16(b *testing.B) { benchmarkFree(b, 1<<4) }
func BenchmarkFree32(b *testing.B) { benchmarkFree(b, 1<<5) }
func BenchmarkFree64(b *testing.B) { benchmarkFree(b, 1<<6) }

func benchmarkMalloc(b *testing.B, size int) {
	var a Allocator
	if err := a.Init(Options{}); err != nil {
		b.Fatal(err)
	}
	m := make([][]byte, b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := a.Malloc(size)
		if err != nil {
			b.Fatal(err)
		}
		m[i] = p
	}
	b.StopTimer()
	for _, p := range m {
		a.Free(p)
	}
}

func BenchmarkMalloc16(b *testing.B) { benchmarkMalloc(b, 1<<4) }
func BenchmarkMalloc32(b *testing.B) { benchmarkMalloc(b, 1<<5) }
func BenchmarkMalloc64(b *testing.B) { benchmarkMalloc(b, 1<<6) }
