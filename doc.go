// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mempool implements a three-tier, tcmalloc-style concurrent
// memory pool: per-caller ThreadCaches backed by per-size-class
// CentralCache buckets, backed in turn by a single PageHeap that talks
// to the operating system.
//
// Small and medium requests (up to maxBytes) are served from one of
// nFreeList fixed size classes; each class amortizes lock contention
// by batching object transfers between a ThreadCache and its
// CentralCache bucket, with the batch size governed by a slow-start
// congestion window so a size class that is actually contended grows
// its batches and one that isn't stays lean. Requests above maxBytes
// bypass all of that and go straight to the PageHeap as a single span.
//
// Use Alloc and Free for the common case of one allocator per
// process; use New and Allocator.Acquire/Release when a program needs
// more than one independent pool, or needs a ThreadCache whose
// congestion state survives across calls on a single goroutine.
package mempool
