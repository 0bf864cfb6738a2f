// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package periphhost

import "golang.org/x/sys/unix"

func allocLocked(size int, lock bool) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	if lock {
		if err := unix.Mlock(b); err != nil {
			_ = unix.Munmap(b)
			return nil, errNoLock
		}
	}
	return b, nil
}

func freeLocked(b []byte) {
	_ = unix.Munlock(b)
	_ = unix.Munmap(b)
}
