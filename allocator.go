// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"sync"
	"unsafe"

	"github.com/1797127235/Memory-pool/internal/osmem"
)

// Allocator is a self-contained three-tier memory pool: a PageHeap
// backing nFreeList CentralCache buckets, fronted by per-caller
// ThreadCaches. The zero value is not usable; construct with New.
//
// All of Allocator's exported methods are safe for concurrent use.
type Allocator struct {
	heap     pageHeap
	central  [nFreeList]centralCache
	tcPool   sync.Pool
}

// Option configures an Allocator constructed by New.
type Option func(*config)

type config struct {
	backend osmem.Backend
	diag    func(event string, kv ...interface{})
}

// WithOSBackend overrides the OS memory backend an Allocator uses to
// map and unmap pages. Tests substitute a backend that never touches
// the real OS; production code has no reason to call this.
func WithOSBackend(b osmem.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithDiagnosticHook wires a slog-shaped callback for the handful of
// noteworthy, off-the-hot-path events this allocator reports: growing
// a fresh chunk from the OS ("pageheap.grow") and returning a huge
// allocation's pages to the OS ("pageheap.free_huge").
// No alloc/free call ever invokes hook directly; it is strictly an
// observability hook for whoever embeds this allocator, not a
// substitute for the error returns on the hot path.
func WithDiagnosticHook(hook func(event string, kv ...interface{})) Option {
	return func(c *config) { c.diag = hook }
}

// New constructs a ready-to-use Allocator. By default pages are
// mapped from the operating system via internal/osmem's platform
// backend.
func New(opts ...Option) *Allocator {
	cfg := config{backend: osmem.New()}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Allocator{}
	a.heap.init(cfg.backend)
	a.heap.diag = cfg.diag
	for i := range a.central {
		a.central[i].init(classToSize[i], &a.heap)
	}
	a.tcPool.New = func() interface{} {
		return newThreadCache(&a.central, &a.heap)
	}
	return a
}

// Alloc returns size bytes of unzeroed memory, or an error wrapping
// ErrInvalidArgument (size == 0) or ErrOutOfMemory. Requests above
// maxBytes are served straight from the PageHeap as a single-object
// huge span; everything else goes through a pooled ThreadCache.
//
// The returned pointer must eventually be passed to Free, which
// resolves its size on its own via the PageMap.
func (a *Allocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, ErrInvalidArgument
	}
	if size > maxBytes {
		return a.allocHuge(size)
	}

	tc := a.tcPool.Get().(*ThreadCache)
	p, err := tc.alloc(size)
	a.tcPool.Put(tc)
	return p, err
}

// Free returns an object obtained from Alloc. Passing a pointer not
// obtained from this Allocator is a ContractViolation (panics) — there
// is no way to safely recover once the allocator's internal
// bookkeeping is suspect. Free takes no size argument: like the
// original's ConcurrentFree, it resolves the object's owning span (and
// so its size) via the PageMap first, which is what lets a foreign or
// corrupt pointer be caught here instead of silently corrupting a free
// list.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	s := a.heap.resolveSpan(p)
	if s == nil {
		contractViolation("Allocator.Free: %p is not an allocator address", p)
	}

	if s.objSize == 0 || s.objSize > maxBytes {
		if err := a.heap.freeHuge(s); err != nil {
			contractViolation("Allocator.Free: %v", err)
		}
		return
	}

	tc := a.tcPool.Get().(*ThreadCache)
	tc.free(p)
	a.tcPool.Put(tc)
}

func (a *Allocator) allocHuge(size uintptr) (unsafe.Pointer, error) {
	pages := (size + pageSize - 1) >> pageShift
	s, err := a.heap.allocHuge(pages)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(s.pageID << pageShift), nil
}

// Acquire hands out a ThreadCache dedicated to the calling goroutine
// for as long as it likes, the same way rand.New gives out a private
// generator instead of sharing the package-level default. Unlike
// Alloc/Free's pooled path, a ThreadCache returned by Acquire keeps
// its congestion-window state across calls, which matters for
// workloads that care about batch-transfer behavior converging rather
// than resetting on every call.
//
// Go has no thread-exit hook to release a ThreadCache automatically
// the way the original frees one when its owning pthread exits — the
// caller must call Release when done, or the cache's remaining
// inventory is simply leaked until the process exits.
func (a *Allocator) Acquire() *ThreadCache {
	return newThreadCache(&a.central, &a.heap)
}

// Release drains every object a ThreadCache acquired via Acquire is
// still holding back to their CentralCache buckets. After Release the
// ThreadCache must not be used again.
func (a *Allocator) Release(tc *ThreadCache) {
	for i := range tc.lists {
		fl := &tc.lists[i]
		if fl.empty() {
			continue
		}
		start, _ := fl.popRange(fl.size)
		a.central[i].releaseList(start)
	}
}
