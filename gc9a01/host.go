// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Forever makes Device.Queue and Device.Result wait without a deadline.
const Forever time.Duration = -1

// Host is the platform layer the driver runs on: the SPI controller, GPIO,
// DMA-capable memory and the CPU cycle counter.
type Host interface {
	// InitBus configures the SPI controller host.
	InitBus(host int, cfg *BusConfig) error
	// FreeBus releases the SPI controller host.
	FreeBus(host int) error
	// AddDevice attaches a device to an initialized bus.
	AddDevice(host int, cfg *DeviceConfig) (Device, error)

	// ConfigureOutput routes p to GPIO and makes it an output.
	ConfigureOutput(p Pin) error
	// ConfigureInput routes p to GPIO and makes it an input.
	ConfigureInput(p Pin, pull gpio.Pull) error
	// Out drives p to l.
	Out(p Pin, l gpio.Level) error

	// Alloc returns size bytes of memory the SPI DMA engine can read, or nil
	// if there is not enough left.
	Alloc(size int) []byte
	// Free releases memory returned by Alloc.
	Free(b []byte)

	// CycleCount returns the free running CPU cycle counter. It is called
	// from interrupt context and must not allocate.
	CycleCount() uint32
	// CPUFrequency is the rate at which CycleCount increments.
	CPUFrequency() physic.Frequency
}

// Device is a device attached to a SPI bus.
//
// At most one transaction is outstanding on a device at a time: the driver
// collects the result of every queued transaction before starting another
// one.
type Device interface {
	// Transmit sends t and returns when the transfer is done.
	Transmit(t *Transaction) error
	// Queue hands t to the DMA engine and returns immediately. t and its
	// buffer must not be modified until Result returned it.
	Queue(t *Transaction, timeout time.Duration) error
	// Result returns the next completed queued transaction, waiting up to
	// timeout. It returns ErrTimeout when none completed.
	Result(timeout time.Duration) (*Transaction, error)
	// Remove detaches the device from the bus.
	Remove() error
}

// BusConfig configures a SPI controller.
type BusConfig struct {
	MISO, MOSI, CLK Pin
	QuadWP, QuadHD  Pin
	// MaxTransferSize is the largest transaction in bytes.
	MaxTransferSize int
}

// DeviceConfig configures a device on a SPI bus.
type DeviceConfig struct {
	Freq physic.Frequency
	Mode spi.Mode
	CS   Pin
	// QueueSize is the number of transactions Queue accepts before it blocks.
	QueueSize  int
	HalfDuplex bool
	// NoDummy disables the dummy phase the controller inserts at high clock
	// rates in half duplex mode.
	NoDummy bool
	// DutyCyclePos is the clock duty cycle in 1/256th.
	DutyCyclePos int

	// Pre and Post run in interrupt context right before and after every
	// transfer. Set them to DispatchPre and DispatchPost to run the per
	// transaction Completion hooks.
	Pre  func(t *Transaction)
	Post func(t *Transaction)
}

// Transaction describes one SPI transfer.
type Transaction struct {
	// Length of the transfer in bits.
	Length int
	// Tx is the data sent. It must be DMA-capable memory.
	Tx []byte
	// User carries the completion context to the interrupt handlers. It is
	// nil for plain blocking transfers.
	User *Completion
}

// Completion is the preallocated context a queued transfer carries into
// interrupt context.
type Completion struct {
	// Pre and Post are called by DispatchPre and DispatchPost.
	Pre  func(t *Transaction)
	Post func(t *Transaction)

	// Buffer is the index of the draw buffer being sent, -1 if the pixels
	// came from elsewhere.
	Buffer int
	// End is the cycle counter sampled when the transfer finished.
	End atomic.Uint32
}

// DispatchPre runs the Pre hook of the transaction's completion context.
func DispatchPre(t *Transaction) {
	if c := t.User; c != nil && c.Pre != nil {
		c.Pre(t)
	}
}

// DispatchPost runs the Post hook of the transaction's completion context.
func DispatchPost(t *Transaction) {
	if c := t.User; c != nil && c.Post != nil {
		c.Post(t)
	}
}

// Compositor is the graphics framework that renders into the draw buffers.
type Compositor interface {
	// InitBuffers hands the draw buffers to the framework. buf2 is nil in
	// single buffer mode. pixels is the capacity of each buffer in pixels.
	InitBuffers(buf1, buf2 []byte, pixels int)
	// Register makes d the framework's display. From then on the framework
	// calls d.Flush for each rendered area and d.Monitor after each flush.
	Register(d Display) error
	// Remove stops the framework from calling into the display.
	Remove()
	// FlushReady tells the framework that the buffer of the last Flush can
	// be reused. It is called from interrupt context and must neither
	// allocate nor block.
	FlushReady()
}

// Display is what the driver exposes to the Compositor.
type Display interface {
	// Flush sends the pixels of area a. The framework must not touch pixels
	// until it got FlushReady.
	Flush(a Area, pixels []byte) error
	// Monitor records the time the framework spent on a refresh of px
	// pixels.
	Monitor(elapsed time.Duration, px int)
	// Size returns the horizontal and vertical resolution.
	Size() (x, y int16)
}
