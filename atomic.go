// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import "sync/atomic"

// The teacher's runtime reaches for runtime/internal/atomic, which is
// off-limits to anything outside the standard library. sync/atomic is
// its public equivalent and is used here for exactly the same
// narrow purpose: racy, lock-free reads/writes of a handful of span
// and controller fields that are otherwise protected by a coarser
// mutex for everything else they touch.

func atomicStoreUint32(addr *uint32, val uint32) {
	atomic.StoreUint32(addr, val)
}

func atomicLoadUint32(addr *uint32) uint32 {
	return atomic.LoadUint32(addr)
}

func atomicAddInt32(addr *int32, delta int32) int32 {
	return atomic.AddInt32(addr, delta)
}

func atomicLoadInt32(addr *int32) int32 {
	return atomic.LoadInt32(addr)
}
