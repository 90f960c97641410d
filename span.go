// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import "unsafe"

// span is the fundamental unit of page-level ownership: a run of
// contiguous pages carved into equal-sized objects (or, for a huge
// allocation, a single object spanning the whole run). A span lives in
// at most one spanList at a time — the PageHeap's per-page-count free
// lists, or a single CentralCache bucket's list — never both.
//
// Ownership is arena-style: the PageHeap (via internal/spanpool) is
// the sole owner of span records. CentralCache holds a borrowed
// pointer while a span sits in its bucket; ThreadCache never touches
// a span directly.
type span struct {
	pageID   uintptr // starting page id (address >> pageShift)
	numPages uintptr // page count; for cached spans 1 <= numPages < maxSpanPages

	objSize  uintptr        // 0 while free, and for the whole life of a huge allocation's span
	freeList unsafe.Pointer // head of this span's own singly-linked object free list

	useCount int32  // atomic: objects carved from this span held outside freeList
	inUse    uint32 // atomic bool

	prev, next *span // spanList membership
}

func (s *span) setInUse(v bool) {
	if v {
		atomicStoreUint32(&s.inUse, 1)
	} else {
		atomicStoreUint32(&s.inUse, 0)
	}
}

func (s *span) isInUse() bool {
	return atomicLoadUint32(&s.inUse) != 0
}

// spanList is a doubly-linked list of spans with a dummy-head
// sentinel, the same shape as the original SpanList / the teacher's
// mSpanList: Insert/PushFront/Erase/Pop all operate in O(1) and never
// allocate.
type spanList struct {
	root span
}

func (l *spanList) init() {
	l.root.prev = &l.root
	l.root.next = &l.root
}

func (l *spanList) empty() bool {
	return l.root.next == &l.root
}

func (l *spanList) insertFront(s *span) {
	at := l.root.next
	prev := at.prev
	prev.next = s
	s.prev = prev
	s.next = at
	at.prev = s
}

func (l *spanList) remove(s *span) {
	s.prev.next = s.next
	s.next.prev = s.prev
	s.prev = nil
	s.next = nil
}

// pop removes and returns the span at the front of the list. The
// caller must have checked !empty().
func (l *spanList) pop() *span {
	s := l.root.next
	l.remove(s)
	return s
}

// nextObj and setNextObj read and write the free-list link threaded
// through the first machine word of a free object — the same
// NextObj(obj) macro trick the original plays, turning any
// objSize-byte slot (objSize is always >= pointer size) into a
// singly-linked-list node with no separate bookkeeping allocation.
func nextObj(obj unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(obj)
}

func setNextObj(obj, next unsafe.Pointer) {
	*(*unsafe.Pointer)(obj) = next
}

// firstNonEmpty returns the first span in the list whose own
// free-list has capacity, or nil if none do. A linear scan, same as
// CentralCache::GetOneSpan in the original — caching the first
// non-empty span is a valid future optimization the spec explicitly
// allows, not a correctness requirement.
func (l *spanList) firstNonEmpty() *span {
	for s := l.root.next; s != &l.root; s = s.next {
		if s.freeList != nil {
			return s
		}
	}
	return nil
}
