// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pagemap

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestGetMissingReturnsNil(t *testing.T) {
	var m Map
	assert.Nil(t, m.Get(12345))
}

func TestSetThenGet(t *testing.T) {
	var m Map
	v := 42
	p := unsafe.Pointer(&v)

	m.Set(7, p)
	assert.Equal(t, p, m.Get(7))
	assert.Nil(t, m.Get(8))
}

func TestClearRemovesMapping(t *testing.T) {
	var m Map
	v := 1
	p := unsafe.Pointer(&v)
	m.Set(100, p)
	m.Clear(100)
	assert.Nil(t, m.Get(100))
}

func TestSetRangeAndClearRange(t *testing.T) {
	var m Map
	v := 1
	p := unsafe.Pointer(&v)

	m.SetRange(1000, 16, p)
	for i := uint64(1000); i < 1016; i++ {
		assert.Equal(t, p, m.Get(i))
	}
	assert.Nil(t, m.Get(999))
	assert.Nil(t, m.Get(1016))

	m.ClearRange(1000, 16)
	for i := uint64(1000); i < 1016; i++ {
		assert.Nil(t, m.Get(i))
	}
}

func TestCrossesInteriorNodeBoundaries(t *testing.T) {
	var m Map
	v := 1
	p := unsafe.Pointer(&v)

	// fanout is 4096; pick ids that land in different L2/leaf buckets.
	ids := []uint64{0, 4095, 4096, 1 << 24, (1 << 24) + 4096*4096 - 1}
	for _, id := range ids {
		m.Set(id, p)
	}
	for _, id := range ids {
		assert.Equal(t, p, m.Get(id), "id=%d", id)
	}
}

func TestConcurrentReadsDuringWrite(t *testing.T) {
	var m Map
	v := 1
	p := unsafe.Pointer(&v)

	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					m.Get(555)
				}
			}
		}()
	}

	m.Set(555, p)
	close(done)
	wg.Wait()
	assert.Equal(t, p, m.Get(555))
}
