// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"bytes"
	"testing"
)

func TestGenerateRandomTraceDeterministic(t *testing.T) {
	tr1, err := GenerateRandomTrace(7, 500, 32, 256)
	if err != nil {
		t.Fatal(err)
	}
	tr2, err := GenerateRandomTrace(7, 500, 32, 256)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr1.Ops) != len(tr2.Ops) {
		t.Fatalf("len mismatch: %d vs %d", len(tr1.Ops), len(tr2.Ops))
	}
	for i := range tr1.Ops {
		if tr1.Ops[i] != tr2.Ops[i] {
			t.Fatalf("op %d differs: %+v vs %+v", i, tr1.Ops[i], tr2.Ops[i])
		}
	}
}

func TestTraceReplay(t *testing.T) {
	a := newTestAllocator(t)
	tr, err := GenerateRandomTrace(11, 2000, 64, 512)
	if err != nil {
		t.Fatal(err)
	}
	var log bytes.Buffer
	if err := tr.Replay(a, &log); err != nil {
		t.Fatal(err)
	}
	allChecks(t, a)
}
