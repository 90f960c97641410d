// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import "unsafe"

// defaultAllocator backs the package-level Alloc/Free convenience
// functions, the same shape as the original's process-wide
// ConcurrentAlloc/ConcurrentFree singletons. Most programs want
// exactly one allocator per process; programs that want several
// independent arenas construct their own with New.
var defaultAllocator = New()

// Alloc allocates size bytes from the package-wide default Allocator.
// See Allocator.Alloc.
func Alloc(size uintptr) (unsafe.Pointer, error) {
	return defaultAllocator.Alloc(size)
}

// Free returns an object allocated by Alloc to the package-wide
// default Allocator. See Allocator.Free.
func Free(p unsafe.Pointer) {
	defaultAllocator.Free(p)
}
