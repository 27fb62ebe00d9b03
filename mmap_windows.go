// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

package malloc

import (
	"fmt"
	"reflect"
	"syscall"
	"unsafe"
)

// reserveOS on Windows is a two-step process: CreateFileMapping gets a
// handle, then MapViewOfFile gets an actual pointer into memory.

// handleMap lets releaseOS recover the original handle from the memory
// address it was given back.
var handleMap = map[uintptr]syscall.Handle{}

func reserveOS(size int) ([]byte, error) {
	flProtect := uint32(syscall.PAGE_READWRITE)
	dwDesiredAccess := uint32(syscall.FILE_MAP_WRITE)

	// The maximum size is the area of the file, starting from 0, that we
	// wish to allow to be mappable. This does not map the data into
	// memory yet.
	maxSizeHigh := uint32(int64(size) >> 32)
	maxSizeLow := uint32(int64(size) & 0xFFFFFFFF)
	h, errno := syscall.CreateFileMapping(syscall.Handle(^uintptr(0)), nil, flProtect, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, fmt.Errorf("malloc: CreateFileMapping: %w", errno)
	}

	// Map a view of the data into memory. The view's size is the length
	// the caller requested.
	addr, errno := syscall.MapViewOfFile(h, dwDesiredAccess, 0, 0, uintptr(size))
	if addr == 0 {
		return nil, fmt.Errorf("malloc: MapViewOfFile: %w", errno)
	}

	if addr&uintptr(osPageMask) != 0 {
		panic("malloc: MapViewOfFile returned a non-page-aligned address")
	}

	handleMap[addr] = h
	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = size
	sh.Cap = size
	return b, nil
}

func releaseOS(addr unsafe.Pointer, size int) error {
	// The view is unmapped before its handleMap entry is looked up and
	// deleted. handleMap is not guarded by a lock, so concurrent
	// reserveOS/releaseOS calls race on it.
	err := syscall.UnmapViewOfFile(uintptr(addr))
	if err != nil {
		return fmt.Errorf("malloc: UnmapViewOfFile: %w", err)
	}

	handle, ok := handleMap[uintptr(addr)]
	if !ok {
		return fmt.Errorf("malloc: releaseOS: unknown base address %#x", addr)
	}
	delete(handleMap, uintptr(addr))

	if err := syscall.CloseHandle(syscall.Handle(handle)); err != nil {
		return fmt.Errorf("malloc: CloseHandle: %w", err)
	}
	return nil
}
