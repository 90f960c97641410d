// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1797127235/Memory-pool/internal/osmem"
)

func newTestAllocator() *Allocator {
	return New(WithOSBackend(fakeBackend{}))
}

func TestAllocatorRejectsZeroSize(t *testing.T) {
	a := newTestAllocator()
	_, err := a.Alloc(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAllocatorSmallRoundTrip(t *testing.T) {
	a := newTestAllocator()

	p, err := a.Alloc(48)
	require.NoError(t, err)
	require.NotNil(t, p)

	buf := unsafe.Slice((*byte)(p), 48)
	for i := range buf {
		buf[i] = byte(i)
	}

	a.Free(p)
}

func TestAllocatorHugeRoundTrip(t *testing.T) {
	a := newTestAllocator()

	p, err := a.Alloc(maxBytes + 1)
	require.NoError(t, err)
	require.NotNil(t, p)

	a.Free(p)
}

func TestAllocatorFreeNilIsNoop(t *testing.T) {
	a := newTestAllocator()
	assert.NotPanics(t, func() { a.Free(nil) })
}

func TestAllocatorAcquireReleaseDrainsInventory(t *testing.T) {
	a := newTestAllocator()
	tc := a.Acquire()

	p, err := tc.alloc(16)
	require.NoError(t, err)
	tc.free(p)

	idx := classIndex(roundUp(16))
	require.Greater(t, tc.lists[idx].size, 0)

	a.Release(tc)
	assert.Equal(t, 0, tc.lists[idx].size)
}

func TestDiagnosticHookFiresOnGrowth(t *testing.T) {
	var events []string
	a := New(
		WithOSBackend(fakeBackend{}),
		WithDiagnosticHook(func(event string, kv ...interface{}) {
			events = append(events, event)
		}),
	)

	p, err := a.Alloc(64)
	require.NoError(t, err)
	a.Free(p)

	assert.Contains(t, events, "pageheap.grow")
}

func TestNewDefaultsToRealOSBackend(t *testing.T) {
	a := New()
	assert.NotNil(t, a)
	_ = osmem.PageSize
}
