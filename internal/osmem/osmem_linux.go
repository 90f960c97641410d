// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package osmem

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrMapFailed wraps any mmap/munmap failure reported by the kernel.
var ErrMapFailed = errors.New("osmem: mmap failed")

// linuxBackend grants memory via a real anonymous, private mmap — no
// file backing, no swap reservation beyond what the kernel's
// overcommit policy already does. This is the allocator's actual path
// to the OS on every platform this module is expected to run on in
// production.
type linuxBackend struct{}

// New returns the Backend used on linux: anonymous mmap/munmap via
// golang.org/x/sys/unix.
func New() Backend {
	return linuxBackend{}
}

func (linuxBackend) Map(n uintptr) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, int(n),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrapf(ErrMapFailed, "mmap %d bytes: %v", n, err)
	}
	return b, nil
}

func (linuxBackend) Unmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return errors.Wrapf(ErrMapFailed, "munmap %d bytes: %v", len(b), err)
	}
	return nil
}
