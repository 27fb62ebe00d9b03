// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "testing"

func TestArenaExhaustion(t *testing.T) {
	ar := newArena(64)
	if _, err := ar.Extend(64); err != nil {
		t.Fatal(err)
	}
	if _, err := ar.Extend(8); err == nil {
		t.Fatal("expected an error extending past capacity")
	}
}

func TestOSArena(t *testing.T) {
	ar, err := NewOSArena(1 << 20)
	if err != nil {
		t.Skipf("OS mapping unavailable in this environment: %v", err)
	}
	defer ar.Close()

	var a Allocator
	if err := a.Init(Options{Provider: ar}); err != nil {
		t.Fatal(err)
	}
	b, err := a.Malloc(128)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b {
		b[i] = byte(i)
	}
	if err := a.Free(b); err != nil {
		t.Fatal(err)
	}
}
