// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package osmem abstracts the allocator's only point of contact with
// the operating system: granting and returning whole pages of
// anonymous memory. It exists so PageHeap never imports
// golang.org/x/sys/unix directly and so tests can swap in a backend
// that doesn't touch the OS at all.
package osmem

// Backend grants and releases page-aligned anonymous memory. All
// sizes and the returned slice's address are a multiple of PageSize.
// Implementations need not zero memory on Map; callers that care
// must zero it themselves (the allocator does not: it hands out
// unzeroed memory).
type Backend interface {
	// Map requests n bytes (a multiple of PageSize) of fresh anonymous
	// memory. Returns an error wrapping ErrMapFailed on failure.
	Map(n uintptr) ([]byte, error)

	// Unmap releases memory previously returned by Map. b must be
	// exactly a slice (or sub-slice covering the whole mapping) this
	// Backend produced; behavior is undefined otherwise.
	Unmap(b []byte) error
}

// PageSize is the granularity Map/Unmap operate at. It matches the
// allocator's own pageSize constant; kept independent here so this
// package has no dependency on the root package.
const PageSize = 4096
