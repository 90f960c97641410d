// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCentral(t *testing.T, objSize uintptr) (*centralCache, *pageHeap) {
	t.Helper()
	h := newTestHeap()
	c := &centralCache{}
	c.init(objSize, h)
	return c, h
}

func TestFetchRangeReturnsRequestedBatch(t *testing.T) {
	c, _ := newTestCentral(t, 64)

	start, end, n, err := c.fetchRange(8)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.NotNil(t, start)
	assert.NotNil(t, end)
	assert.Nil(t, nextObj(end))
}

func TestFetchRangeChainIsWellFormed(t *testing.T) {
	c, _ := newTestCentral(t, 64)

	start, end, n, err := c.fetchRange(5)
	require.NoError(t, err)

	cur := start
	count := 1
	for cur != end {
		cur = nextObj(cur)
		require.NotNil(t, cur)
		count++
	}
	assert.Equal(t, n, count)
}

func TestReleaseListReclaimsFullyFreedSpan(t *testing.T) {
	c, h := newTestCentral(t, 1024)

	// Pull an entire span's worth of objects so useCount will hit
	// zero exactly when every one of them is released.
	start, _, n, err := c.fetchRange(numMoveSize(1024))
	require.NoError(t, err)
	require.Greater(t, n, 0)

	before := h.spans.InUse()
	c.releaseList(start)

	// The span's bucket membership is gone...
	assert.True(t, c.spans.empty())
	// ...and the PageHeap got it back: releaseSpan coalesced it with the
	// free 64-page remainder of the split, returning that remainder's
	// record to the span pool.
	assert.Equal(t, before-unsafe.Sizeof(span{}), h.spans.InUse())
}

func TestFetchRangeGrowsFromHeapWhenBucketEmpty(t *testing.T) {
	c, h := newTestCentral(t, 128)

	_, _, n, err := c.fetchRange(4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.False(t, c.spans.empty())
	assert.Greater(t, h.spans.InUse(), uintptr(0))
}
