// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package osmem

import (
	"unsafe"

	"github.com/pkg/errors"
)

// ErrMapFailed wraps any allocation failure from the portable backend.
var ErrMapFailed = errors.New("osmem: allocation failed")

// portableBackend stands in for a real mmap on platforms the module
// isn't tuned for: it carves page-aligned slices out of plain Go-heap
// allocations, over-allocating by one page and trimming to an aligned
// sub-slice, the same trick the teacher's own persistentalloc plays
// when rounding a sysAlloc result up to an alignment boundary. Memory
// is never actually returned to the OS on Unmap — it is left for the
// garbage collector, which is the best this backend can do without a
// real unmap syscall.
type portableBackend struct{}

// New returns the portable Backend used on non-linux platforms.
func New() Backend {
	return portableBackend{}
}

func (portableBackend) Map(n uintptr) ([]byte, error) {
	raw := make([]byte, n+PageSize)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (addr + PageSize - 1) &^ (PageSize - 1)
	off := aligned - addr
	return raw[off : off+n], nil
}

func (portableBackend) Unmap(b []byte) error {
	return nil
}
