// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"fmt"
	"io"
	"math"

	"github.com/cznic/mathutil"
)

// OpKind enumerates the trace operations a Trace can replay, mirroring
// the alloc/realloc/free id stream the original driver program reads
// from a .rep file (spec §7's supplemented trace-replay feature).
type OpKind int

const (
	OpMalloc OpKind = iota
	OpRealloc
	OpFree
)

// Op is one trace instruction. ID names the allocation slot this op
// refers to; Size is the requested size for OpMalloc/OpRealloc.
type Op struct {
	Kind OpKind
	ID   int
	Size int
}

// Trace is a fixed, replayable sequence of allocator operations.
type Trace struct {
	Ops []Op
}

// GenerateRandomTrace builds a Trace of n operations against a working
// set of at most live allocations, using a seekable, seeded PRNG so the
// same seed always reproduces the same trace. Sizes are drawn uniformly
// from [1, maxSize]. This is the Go-native replacement for reading a
// pre-recorded .rep file: the original driver's fixed trace corpus has
// no equivalent once the allocator is a library instead of a CLI
// accepting trace files on disk.
func GenerateRandomTrace(seed uint32, n, live, maxSize int) (Trace, error) {
	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	if err != nil {
		return Trace{}, err
	}
	rng.Seed(int(seed))

	ops := make([]Op, 0, n)
	alive := make(map[int]bool, live)
	nextID := 0
	for len(ops) < n {
		if len(alive) > 0 && rng.Next()%3 == 0 {
			id := -1
			for k := range alive {
				if id < 0 || k < id {
					id = k
				}
			}
			if rng.Next()%2 == 0 {
				ops = append(ops, Op{Kind: OpFree, ID: id})
				delete(alive, id)
			} else {
				ops = append(ops, Op{Kind: OpRealloc, ID: id, Size: rng.Next()%maxSize + 1})
			}
			continue
		}
		if len(alive) >= live {
			id := -1
			for k := range alive {
				if id < 0 || k < id {
					id = k
				}
			}
			ops = append(ops, Op{Kind: OpFree, ID: id})
			delete(alive, id)
			continue
		}
		id := nextID
		nextID++
		ops = append(ops, Op{Kind: OpMalloc, ID: id, Size: rng.Next()%maxSize + 1})
		alive[id] = true
	}
	return Trace{Ops: ops}, nil
}

// Replay executes every op in t against a, logging each step to w if w
// is non-nil, and returns the first error encountered. A Realloc or
// Free naming an ID that was never allocated, or was already freed, is
// treated as a no-op rather than an error (mirroring Free's own
// tolerance of invalid pointers, spec §7).
func (t Trace) Replay(a *Allocator, w io.Writer) error {
	live := make(map[int][]byte, len(t.Ops))
	for i, op := range t.Ops {
		switch op.Kind {
		case OpMalloc:
			b, err := a.Malloc(op.Size)
			if err != nil {
				return fmt.Errorf("op %d: malloc(%d): %w", i, op.Size, err)
			}
			live[op.ID] = b
			if w != nil {
				fmt.Fprintf(w, "%d: malloc id=%d size=%d\n", i, op.ID, op.Size)
			}
		case OpRealloc:
			b, ok := live[op.ID]
			if !ok {
				continue
			}
			nb, err := a.Realloc(b, op.Size)
			if err != nil {
				return fmt.Errorf("op %d: realloc(id=%d, %d): %w", i, op.ID, op.Size, err)
			}
			live[op.ID] = nb
			if w != nil {
				fmt.Fprintf(w, "%d: realloc id=%d size=%d\n", i, op.ID, op.Size)
			}
		case OpFree:
			b, ok := live[op.ID]
			if !ok {
				continue
			}
			if err := a.Free(b); err != nil {
				return fmt.Errorf("op %d: free(id=%d): %w", i, op.ID, err)
			}
			delete(live, op.ID)
			if w != nil {
				fmt.Fprintf(w, "%d: free id=%d\n", i, op.ID)
			}
		}
	}
	return nil
}
