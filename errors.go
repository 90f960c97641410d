// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors returned from the allocator's public API. Callers
// compare against these with errors.Is; internal code wraps them with
// github.com/pkg/errors.Wrap to attach the call site that observed the
// failure, the convention pageheap.go follows on its OS-growth paths.
var (
	// ErrOutOfMemory is returned when the PageHeap cannot satisfy a
	// request even after growing from the OS backend.
	ErrOutOfMemory = errors.New("mempool: out of memory")

	// ErrInvalidArgument is returned for a zero-size Alloc. (A Free of
	// a pointer this allocator did not hand out panics with a
	// ContractViolation instead.)
	ErrInvalidArgument = errors.New("mempool: invalid argument")
)

// ContractViolation is a programmer error, not a runtime condition a
// caller can recover from — a corrupted free-list, a double free, an
// out-of-range size class. The teacher's runtime reports equivalent
// conditions by calling throw(), which crashes the process rather than
// returning an error up through dozens of call frames; contractViolation
// panics for the same reason. Recovering from a ContractViolation is
// possible but not meaningful: the allocator's internal state is
// suspect once one fires.
type ContractViolation struct {
	msg string
}

func (c *ContractViolation) Error() string { return c.msg }

func contractViolation(format string, args ...interface{}) {
	panic(&ContractViolation{msg: fmt.Sprintf(format, args...)})
}
