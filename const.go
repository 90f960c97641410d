// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

// Bit-exact constants from the allocator's contract: changing any of
// these changes the wire-level behavior other processes or tests
// depend on, so they are not configurable.
const (
	pageShift = 12              // log2(pageSize)
	pageSize  = 1 << pageShift  // 4096 bytes
	maxBytes  = 256 * 1024      // size-class ceiling; above this a request is "huge"
	nFreeList = 208             // number of size-class buckets

	// maxSpanPages bounds the PageHeap's per-page-count free-list
	// array. Index k in [1, maxSpanPages-1] is valid; a span with
	// n >= maxSpanPages pages is served straight from the OS and
	// never touches spanLists.
	maxSpanPages = 129

	// residencyBudget bounds how many bytes of carried inventory a
	// single ThreadCache free-list is allowed before fetchFromCentral
	// starts shrinking its requested batch size.
	residencyBudget = 64 * 1024
)
