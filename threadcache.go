// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import "unsafe"

// freeList is one size class's local inventory inside a ThreadCache,
// plus the TCP-slow-start-shaped congestion state that governs how
// many objects it asks the CentralCache for at once. Not safe for
// concurrent use — each ThreadCache owns its own array of these and
// is itself meant to be used from a single goroutine at a time.
type freeList struct {
	head unsafe.Pointer
	size int

	cwnd     int
	ssthresh int
}

func (f *freeList) push(obj unsafe.Pointer) {
	setNextObj(obj, f.head)
	f.head = obj
	f.size++
}

// pushRange hangs an already-linked chain of n objects, running from
// start to end, onto the front of the list in one step.
func (f *freeList) pushRange(start, end unsafe.Pointer, n int) {
	if n == 0 {
		return
	}
	setNextObj(end, f.head)
	f.head = start
	f.size += n
}

// popRange detaches the first n objects as a chain and returns its
// two ends. Caller guarantees n <= f.size and n > 0.
func (f *freeList) popRange(n int) (start, end unsafe.Pointer) {
	start = f.head
	end = start
	for i := 0; i < n-1; i++ {
		end = nextObj(end)
	}
	f.head = nextObj(end)
	setNextObj(end, nil)
	f.size -= n
	return start, end
}

func (f *freeList) pop() unsafe.Pointer {
	obj := f.head
	f.head = nextObj(obj)
	f.size--
	return obj
}

func (f *freeList) empty() bool {
	return f.head == nil
}

// ThreadCache is the allocator's front end: one per logical thread of
// execution, holding a small private inventory per size class so the
// overwhelmingly common case — allocate, free, allocate again — never
// takes a CentralCache bucket mutex. (free does briefly take the
// pageHeap mutex to resolve the object's owning span.) Go has no OS-level
// thread-local storage or thread-exit hook to pin a ThreadCache to an
// OS thread the way the original pins one per pthread; Allocator
// substitutes a sync.Pool of ThreadCaches for the convenience
// top-level API, and an explicit Acquire/Release handle for callers
// that need one ThreadCache's congestion state to persist across
// calls on a single goroutine (see Allocator.Acquire).
type ThreadCache struct {
	lists   [nFreeList]freeList
	central *[nFreeList]centralCache
	heap    *pageHeap
}

func newThreadCache(central *[nFreeList]centralCache, heap *pageHeap) *ThreadCache {
	tc := &ThreadCache{central: central, heap: heap}
	for i := range tc.lists {
		tc.lists[i].cwnd = 1
		tc.lists[i].ssthresh = 32
	}
	return tc
}

// alloc returns objSize bytes of unzeroed memory drawn from this
// ThreadCache's local inventory, replenishing from the CentralCache
// bucket when empty. size must already be <= maxBytes; callers above
// this layer route larger requests to Allocator.allocHuge instead.
func (tc *ThreadCache) alloc(size uintptr) (unsafe.Pointer, error) {
	csize := roundUp(size)
	index := classIndex(csize)

	fl := &tc.lists[index]
	if !fl.empty() {
		return fl.pop(), nil
	}
	return tc.fetchFromCentral(index, csize)
}

// free returns obj to this ThreadCache's local inventory, spilling
// half a congestion window's worth to the CentralCache bucket once
// the list has reached its current congestion window.
//
// free takes no size argument: the original's ConcurrentFree resolves
// an object's size from its owning span's PageMap entry before doing
// anything else, precisely so a pointer this allocator never handed
// out is caught here instead of being linked onto a free list as if
// it were valid. free does the same lookup rather than trusting a
// caller-supplied size.
func (tc *ThreadCache) free(obj unsafe.Pointer) {
	s := tc.heap.resolveSpan(obj)
	if s == nil {
		contractViolation("ThreadCache.free: %p is not an allocator address", obj)
	}
	size := s.objSize
	if size == 0 || size > maxBytes {
		contractViolation("ThreadCache.free: %p is a huge allocation, not a ThreadCache object", obj)
	}

	index := classIndex(size)
	fl := &tc.lists[index]
	fl.push(obj)

	if fl.size >= fl.cwnd {
		tc.listTooLong(index)
	}
}

// fetchFromCentral asks the CentralCache bucket for a batch of
// objects sized by the slow-start-shaped congestion window, keeps one
// to satisfy the caller, and banks the rest locally. batch is also
// capped so a single fetch can never push this size class's resident
// bytes past residencyBudget.
func (tc *ThreadCache) fetchFromCentral(index int, size uintptr) (unsafe.Pointer, error) {
	fl := &tc.lists[index]

	residentBytes := uintptr(fl.size) * size
	roomObjs := 1
	if residentBytes < residencyBudget {
		roomObjs = int((residencyBudget - residentBytes) / size)
		if roomObjs < 1 {
			roomObjs = 1
		}
	}

	capBySize := numMoveSize(size)
	batch := minInt(fl.cwnd, capBySize, roomObjs)
	if batch < 1 {
		batch = 1
	}

	start, end, n, err := tc.central[index].fetchRange(batch)
	if err != nil {
		fl.ssthresh = maxInt(2, fl.cwnd/2)
		fl.cwnd = 1
		return nil, err
	}

	if n == batch {
		if fl.cwnd < fl.ssthresh {
			fl.cwnd = minIntPair(fl.cwnd*2, capBySize)
		} else {
			fl.cwnd = minIntPair(fl.cwnd+1, capBySize)
		}
	} else {
		fl.ssthresh = maxInt(2, fl.cwnd/2)
		fl.cwnd = 1
	}

	if n == 1 {
		return start, nil
	}
	fl.pushRange(nextObj(start), end, n-1)
	return start, nil
}

// listTooLong spills cwnd/2 objects (at least one, at most the whole
// list) of this size class's local inventory back to the CentralCache
// bucket it came from.
func (tc *ThreadCache) listTooLong(index int) {
	fl := &tc.lists[index]

	n := fl.cwnd >> 1
	if n < 1 {
		n = 1
	}
	if n > fl.size {
		n = fl.size
	}

	start, _ := fl.popRange(n)
	tc.central[index].releaseList(start)
}
