// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import "errors"

// Error kinds. Errors returned by this package wrap one of these, test with
// errors.Is.
var (
	// ErrResourceExhausted is returned by New when no draw buffer can be
	// allocated in DMA-capable memory.
	ErrResourceExhausted = errors.New("not enough DMA-capable memory")
	// ErrTransport wraps failures of the bus, the device or a transaction.
	ErrTransport = errors.New("transport failure")
	// ErrSize is returned when data does not fit the transfer it was given
	// to. Nothing is sent in that case.
	ErrSize = errors.New("size violation")
	// ErrConfig is returned by New for out of range options.
	ErrConfig = errors.New("invalid configuration")
	// ErrArea is returned by Flush for areas outside the panel.
	ErrArea = errors.New("area out of bounds")
	// ErrHalted is returned when the driver is used after Halt.
	ErrHalted = errors.New("device halted")
	// ErrTimeout is returned by Device.Result when no transaction completed
	// in time.
	ErrTimeout = errors.New("timeout")
)
