// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundUpBoundaries(t *testing.T) {
	cases := []struct {
		size uintptr
		want uintptr
	}{
		{1, 8},
		{8, 8},
		{9, 16},
		{128, 128},
		{129, 144},
		{1024, 1024},
		{1025, 1152},
		{8 * 1024, 8 * 1024},
		{8*1024 + 1, 9 * 1024},
		{64 * 1024, 64 * 1024},
		{64*1024 + 1, 72 * 1024},
		{maxBytes, maxBytes},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, roundUp(c.size), "roundUp(%d)", c.size)
	}
}

func TestClassIndexMonotonic(t *testing.T) {
	prev := -1
	for size := uintptr(1); size <= maxBytes; size += 7 {
		idx := classIndex(roundUp(size))
		assert.GreaterOrEqual(t, idx, prev)
		assert.Less(t, idx, nFreeList)
		prev = idx
	}
}

func TestClassIndexRoundTrip(t *testing.T) {
	for i := 0; i < nFreeList; i++ {
		size := classToSize[i]
		require.Equal(t, i, classIndex(size), "class %d size %d", i, size)
	}
}

func TestClassIndexPanicsAboveMaxBytes(t *testing.T) {
	assert.Panics(t, func() {
		classIndex(maxBytes + 1)
	})
}

func TestNumMoveSizeBounds(t *testing.T) {
	assert.Equal(t, 512, numMoveSize(8))
	assert.Equal(t, 2, numMoveSize(maxBytes))
	assert.GreaterOrEqual(t, numMoveSize(1024), 2)
	assert.LessOrEqual(t, numMoveSize(1024), 512)
}

func TestNumMovePageAtLeastOne(t *testing.T) {
	for i := 0; i < nFreeList; i++ {
		assert.GreaterOrEqual(t, numMovePage(classToSize[i]), uintptr(1))
	}
}
