// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pagemap implements a concurrent three-level radix map from
// page id to an arbitrary pointer (span metadata, in practice). Reads
// are fully lock-free; the write paths (Set/Clear and
// SetRange/ClearRange) must be serialized by the caller, matching the
// PageHeap's mutex.
package pagemap

import (
	"sync/atomic"
	"unsafe"
)

const (
	bits   = 12
	fanout = 1 << bits
	mask   = fanout - 1
)

type leaf struct {
	slot [fanout]unsafe.Pointer
}

type l2 struct {
	next [fanout]unsafe.Pointer // *leaf, accessed via atomic.*Pointer
}

type root struct {
	next [fanout]unsafe.Pointer // *l2
}

// Map is a page-id -> unsafe.Pointer radix trie covering 36 bits of
// page id space (3 levels x 12 bits), the same fan-out as the
// original RadixSpanMap. Zero value is ready to use.
type Map struct {
	root root
}

func index(pageID uint64) (i1, i2, i3 uintptr) {
	return uintptr((pageID >> 24) & mask),
		uintptr((pageID >> 12) & mask),
		uintptr(pageID & mask)
}

// Get returns the pointer stored for pageID, or nil if none has ever
// been installed on this path. Safe to call concurrently with Get,
// Set, and Clear — including concurrently with a Set/Clear on the
// very same pageID, in which case the caller observes either the old
// or new value, never a torn one.
func (m *Map) Get(pageID uint64) unsafe.Pointer {
	i1, i2, i3 := index(pageID)

	l2p := (*l2)(atomic.LoadPointer(&m.root.next[i1]))
	if l2p == nil {
		return nil
	}
	lf := (*leaf)(atomic.LoadPointer(&l2p.next[i2]))
	if lf == nil {
		return nil
	}
	return atomic.LoadPointer(&lf.slot[i3])
}

// Set installs v for pageID, allocating any missing interior nodes
// along the way. Must not be called concurrently with another Set or
// Clear (the PageHeap's mutex enforces this); may run concurrently
// with any number of Get calls.
func (m *Map) Set(pageID uint64, v unsafe.Pointer) {
	i1, i2, i3 := index(pageID)

	l2p := m.ensureL2(i1)
	lf := m.ensureLeaf(l2p, i2)
	atomic.StorePointer(&lf.slot[i3], v)
}

// Clear removes any mapping for pageID. Equivalent to Set(pageID, nil)
// but never allocates interior nodes that don't already exist.
func (m *Map) Clear(pageID uint64) {
	i1, i2, i3 := index(pageID)

	l2p := (*l2)(atomic.LoadPointer(&m.root.next[i1]))
	if l2p == nil {
		return
	}
	lf := (*leaf)(atomic.LoadPointer(&l2p.next[i2]))
	if lf == nil {
		return
	}
	atomic.StorePointer(&lf.slot[i3], nil)
}

// SetRange installs v for each of the n consecutive pages starting at
// startPage. Same serialization requirement as Set.
func (m *Map) SetRange(startPage uint64, n uintptr, v unsafe.Pointer) {
	for i := uintptr(0); i < n; i++ {
		m.Set(startPage+uint64(i), v)
	}
}

// ClearRange clears n consecutive pages starting at startPage. Same
// serialization requirement as Clear.
func (m *Map) ClearRange(startPage uint64, n uintptr) {
	for i := uintptr(0); i < n; i++ {
		m.Clear(startPage + uint64(i))
	}
}

func (m *Map) ensureL2(i1 uintptr) *l2 {
	p := atomic.LoadPointer(&m.root.next[i1])
	if p != nil {
		return (*l2)(p)
	}
	neo := unsafe.Pointer(&l2{})
	if !atomic.CompareAndSwapPointer(&m.root.next[i1], nil, neo) {
		// Lost the race; the winner's node is the one to use. The
		// loser's neo is left for the GC, same tradeoff the original
		// makes with its own leaked `new L2()` on a lost CAS.
		return (*l2)(atomic.LoadPointer(&m.root.next[i1]))
	}
	return (*l2)(neo)
}

func (m *Map) ensureLeaf(l *l2, i2 uintptr) *leaf {
	p := atomic.LoadPointer(&l.next[i2])
	if p != nil {
		return (*leaf)(p)
	}
	neo := unsafe.Pointer(&leaf{})
	if !atomic.CompareAndSwapPointer(&l.next[i2], nil, neo) {
		return (*leaf)(atomic.LoadPointer(&l.next[i2]))
	}
	return (*leaf)(neo)
}
