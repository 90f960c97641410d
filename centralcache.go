// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"sync"
	"unsafe"
)

// centralCache is one of nFreeList size-class buckets shared by every
// ThreadCache. It holds zero or more spans already carved into
// objSize-byte objects, and is the only layer that talks to both a
// ThreadCache (above) and the pageHeap (below).
type centralCache struct {
	mu       sync.Mutex
	spans    spanList
	objSize  uintptr
	heap     *pageHeap
}

func (c *centralCache) init(objSize uintptr, heap *pageHeap) {
	c.spans.init()
	c.objSize = objSize
	c.heap = heap
}

// fetchRange pops up to num objects off one of this bucket's spans,
// linked through their own first-word pointers, and returns how many
// it actually got (fewer than num when that span's free list runs
// out; never 0 on success — failure is reported as an error).
// start/end bound the returned chain; nextObj(end) is nil.
func (c *centralCache) fetchRange(num int) (start, end unsafe.Pointer, n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.getOneSpanLocked()
	if err != nil {
		return nil, nil, 0, err
	}
	if s == nil || s.freeList == nil {
		return nil, nil, 0, ErrOutOfMemory
	}

	start = s.freeList
	end = start
	n = 1
	for n < num {
		next := nextObj(end)
		if next == nil {
			break
		}
		end = next
		n++
	}

	s.freeList = nextObj(end)
	setNextObj(end, nil)

	atomicAddInt32(&s.useCount, int32(n))
	s.setInUse(true)
	s.objSize = c.objSize

	return start, end, n, nil
}

// getOneSpanLocked returns a span in this bucket with at least one
// free object, fetching and carving a fresh one from the pageHeap if
// every span currently in the bucket is fully checked out. Caller
// holds c.mu, which is released and reacquired around the pageHeap
// call — the only lock ordering this allocator allows is
// bucket-mutex-then-heap-mutex, never the reverse, so the bucket lock
// must never be held while blocking on the heap.
func (c *centralCache) getOneSpanLocked() (*span, error) {
	if s := c.spans.firstNonEmpty(); s != nil {
		return s, nil
	}

	c.mu.Unlock()
	s, err := c.fetchFromHeap()
	c.mu.Lock()
	if err != nil {
		return nil, err
	}

	c.spans.insertFront(s)
	return s, nil
}

// fetchFromHeap asks the pageHeap for a fresh span sized for this
// bucket's class and carves it into a linked free list of objSize
// objects. Does not touch c.mu.
func (c *centralCache) fetchFromHeap() (*span, error) {
	pages := numMovePage(c.objSize)

	c.heap.mu.Lock()
	s, err := c.heap.newSpan(pages)
	if err == nil {
		s.setInUse(true)
		s.objSize = c.objSize
	}
	c.heap.mu.Unlock()
	if err != nil {
		return nil, err
	}

	base := unsafe.Pointer(s.pageID << pageShift)
	bytes := s.numPages * pageSize
	end := uintptr(base) + bytes

	head := base
	tail := head
	cur := uintptr(base) + c.objSize
	for cur+c.objSize <= end {
		next := unsafe.Pointer(cur)
		setNextObj(tail, next)
		tail = next
		cur += c.objSize
	}
	setNextObj(tail, nil)
	s.freeList = head

	return s, nil
}

// releaseList hangs a chain of freed objects (already joined through
// their own first words) back onto their owning spans, reclaiming any
// span whose use count drops to zero back to the pageHeap.
func (c *centralCache) releaseList(start unsafe.Pointer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for start != nil {
		next := nextObj(start)

		s := c.heap.lookupObject(uintptr(start))
		if s == nil {
			contractViolation("centralCache.releaseList: %p is not an allocator address", start)
		}

		setNextObj(start, s.freeList)
		s.freeList = start
		left := atomicAddInt32(&s.useCount, -1)

		if left == 0 {
			c.spans.remove(s)
			s.freeList = nil

			c.mu.Unlock()
			c.heap.mu.Lock()
			c.heap.reclaimSpan(s)
			c.heap.mu.Unlock()
			c.mu.Lock()
		}

		start = next
	}
}
