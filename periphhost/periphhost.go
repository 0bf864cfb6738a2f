// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package periphhost runs the gc9a01 driver on a host supported by periph,
// like a Raspberry Pi, through spidev and the GPIO registry.
package periphhost

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
	"github.com/minyiky/lvgl-esp32-gc9a01/spiqueue"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Opts selects the SPI port and the way pin numbers are resolved.
type Opts struct {
	// PortName is passed to spireg.Open; empty selects the first port.
	PortName string
	// Port is used instead of opening PortName when set.
	Port spi.PortCloser
	// Pin resolves a pin number. The default looks up "GPIO<n>" in gpioreg.
	Pin func(p gc9a01.Pin) gpio.PinIO
}

// Host implements gc9a01.Host.
type Host struct {
	opts  Opts
	start time.Time

	mu    sync.Mutex
	port  spi.PortCloser
	bus   bool // the port was opened by InitBus
	pins  map[gc9a01.Pin]gpio.PinIO
	mlock bool
}

// Open initializes periph's host drivers and returns a Host.
func Open(opts *Opts) (*Host, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphhost: %w", err)
	}
	return New(opts), nil
}

// New returns a Host without initializing periph's host drivers. It is meant
// for tests and for programs that called host.Init themselves.
func New(opts *Opts) *Host {
	h := &Host{start: time.Now(), pins: map[gc9a01.Pin]gpio.PinIO{}, mlock: true}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Pin == nil {
		h.opts.Pin = byNumber
	}
	return h
}

// errNoLock is returned by allocLocked when the memory could not be locked.
var errNoLock = errors.New("periphhost: cannot lock memory")

func byNumber(p gc9a01.Pin) gpio.PinIO {
	return gpioreg.ByName("GPIO" + strconv.Itoa(int(p)))
}

func (h *Host) String() string {
	return fmt.Sprintf("periphhost{%s}", h.opts.PortName)
}

// InitBus implements gc9a01.Host. The pins and transfer ceiling of a spidev
// port are set by the kernel, so it only opens the port.
func (h *Host) InitBus(bus int, cfg *gc9a01.BusConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.openPort(); err != nil {
		return err
	}
	h.bus = true
	return nil
}

// FreeBus implements gc9a01.Host.
func (h *Host) FreeBus(bus int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bus = false
	return h.closePort()
}

// AddDevice implements gc9a01.Host. Chip select is driven by the port, so
// cfg.CS is ignored. When InitBus was not called, removing the device closes
// the port.
func (h *Host) AddDevice(bus int, cfg *gc9a01.DeviceConfig) (gc9a01.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.openPort(); err != nil {
		return nil, err
	}
	mode := cfg.Mode
	if cfg.HalfDuplex {
		mode |= spi.HalfDuplex
	}
	c, err := h.port.Connect(cfg.Freq, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("periphhost: %w", err)
	}
	return &device{Dev: spiqueue.New(c, cfg), h: h}, nil
}

// closePort closes the port if open. h.mu must be held.
func (h *Host) closePort() error {
	if h.port == nil {
		return nil
	}
	err := h.port.Close()
	h.port = nil
	return err
}

// device closes the port with the device when the bus is not owned.
type device struct {
	*spiqueue.Dev
	h *Host
}

func (d *device) Remove() error {
	err := d.Dev.Remove()
	d.h.mu.Lock()
	defer d.h.mu.Unlock()
	if !d.h.bus {
		if e := d.h.closePort(); err == nil {
			err = e
		}
	}
	return err
}

func (h *Host) openPort() error {
	if h.port != nil {
		return nil
	}
	if h.opts.Port != nil {
		h.port = h.opts.Port
		return nil
	}
	p, err := spireg.Open(h.opts.PortName)
	if err != nil {
		return fmt.Errorf("periphhost: %w", err)
	}
	h.port = p
	return nil
}

func (h *Host) pin(p gc9a01.Pin) (gpio.PinIO, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if g, ok := h.pins[p]; ok {
		return g, nil
	}
	g := h.opts.Pin(p)
	if g == nil {
		return nil, fmt.Errorf("periphhost: no GPIO for pin %d", p)
	}
	h.pins[p] = g
	return g, nil
}

// ConfigureOutput implements gc9a01.Host. The pin starts low.
func (h *Host) ConfigureOutput(p gc9a01.Pin) error {
	g, err := h.pin(p)
	if err != nil {
		return err
	}
	return g.Out(gpio.Low)
}

// ConfigureInput implements gc9a01.Host.
func (h *Host) ConfigureInput(p gc9a01.Pin, pull gpio.Pull) error {
	g, err := h.pin(p)
	if err != nil {
		return err
	}
	return g.In(pull, gpio.NoEdge)
}

// Out implements gc9a01.Host.
func (h *Host) Out(p gc9a01.Pin, l gpio.Level) error {
	g, err := h.pin(p)
	if err != nil {
		return err
	}
	return g.Out(l)
}

// Alloc implements gc9a01.Host. The memory is page aligned and locked in RAM
// where the platform allows it, so the kernel's SPI driver can map it.
func (h *Host) Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	b, err := allocLocked(size, h.mlock)
	if errors.Is(err, errNoLock) {
		// RLIMIT_MEMLOCK is low for unprivileged users; fall back to plain
		// pages.
		h.mlock = false
		b, err = allocLocked(size, false)
	}
	if err != nil {
		return nil
	}
	return b
}

// Free implements gc9a01.Host.
func (h *Host) Free(b []byte) {
	freeLocked(b)
}

// CycleCount implements gc9a01.Host. The counter ticks every nanosecond and
// wraps about every 4.3s.
func (h *Host) CycleCount() uint32 {
	return uint32(time.Since(h.start))
}

// CPUFrequency implements gc9a01.Host.
func (h *Host) CPUFrequency() physic.Frequency {
	return physic.GigaHertz
}

var _ gc9a01.Host = &Host{}
var _ gc9a01.Device = &device{}
