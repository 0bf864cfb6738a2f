// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tinygohost runs the gc9a01 driver on a microcontroller through a
// TinyGo drivers.SPI bus and machine pins.
package tinygohost

import (
	"fmt"
	"sync"
	"time"

	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
	"github.com/minyiky/lvgl-esp32-gc9a01/spiqueue"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Pin is an output line. machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
}

// Opts wires the host to the board.
type Opts struct {
	// Bus is the configured SPI bus.
	Bus drivers.SPI
	// Pins maps pin numbers to lines.
	Pins map[gc9a01.Pin]Pin
	// Configure sets the direction of a pin. It may be nil when the pins are
	// configured by the caller.
	Configure func(p gc9a01.Pin, output bool, pull gpio.Pull) error
	// ConfigureBus configures the SPI controller. It may be nil when Bus is
	// already configured.
	ConfigureBus func(cfg *gc9a01.BusConfig) error
	// Memory limits the bytes Alloc hands out; 0 is unlimited.
	Memory int
	// Cycles returns the CPU cycle counter. The default counts microseconds.
	Cycles func() uint32
	// CPU is the rate of Cycles.
	CPU physic.Frequency
}

// Host implements gc9a01.Host.
type Host struct {
	opts  Opts
	start time.Time

	mu   sync.Mutex
	used int
}

// New returns a Host.
func New(opts *Opts) *Host {
	h := &Host{opts: *opts, start: time.Now()}
	if h.opts.Cycles == nil {
		h.opts.Cycles = h.micros
		h.opts.CPU = physic.MegaHertz
	}
	return h
}

func (h *Host) micros() uint32 {
	return uint32(time.Since(h.start) / time.Microsecond)
}

// InitBus implements gc9a01.Host.
func (h *Host) InitBus(bus int, cfg *gc9a01.BusConfig) error {
	if h.opts.ConfigureBus == nil {
		return nil
	}
	return h.opts.ConfigureBus(cfg)
}

// FreeBus implements gc9a01.Host.
func (h *Host) FreeBus(bus int) error {
	return nil
}

// AddDevice implements gc9a01.Host. The chip select line is driven around
// every transfer.
func (h *Host) AddDevice(bus int, cfg *gc9a01.DeviceConfig) (gc9a01.Device, error) {
	var c spiqueue.Conn = h.opts.Bus
	if cfg.CS != gc9a01.NoPin {
		cs, ok := h.opts.Pins[cfg.CS]
		if !ok {
			return nil, fmt.Errorf("tinygohost: no line for CS pin %d", cfg.CS)
		}
		if err := h.ConfigureOutput(cfg.CS); err != nil {
			return nil, err
		}
		cs.Set(true)
		c = &selected{bus: h.opts.Bus, cs: cs}
	}
	return spiqueue.New(c, cfg), nil
}

// selected drives CS low during each transfer.
type selected struct {
	bus drivers.SPI
	cs  Pin
}

func (s *selected) Tx(w, r []byte) error {
	s.cs.Set(false)
	err := s.bus.Tx(w, r)
	s.cs.Set(true)
	return err
}

// ConfigureOutput implements gc9a01.Host.
func (h *Host) ConfigureOutput(p gc9a01.Pin) error {
	if h.opts.Configure == nil {
		return nil
	}
	return h.opts.Configure(p, true, gpio.Float)
}

// ConfigureInput implements gc9a01.Host.
func (h *Host) ConfigureInput(p gc9a01.Pin, pull gpio.Pull) error {
	if h.opts.Configure == nil {
		return nil
	}
	return h.opts.Configure(p, false, pull)
}

// Out implements gc9a01.Host.
func (h *Host) Out(p gc9a01.Pin, l gpio.Level) error {
	line, ok := h.opts.Pins[p]
	if !ok {
		return fmt.Errorf("tinygohost: no line for pin %d", p)
	}
	line.Set(bool(l))
	return nil
}

// Alloc implements gc9a01.Host. Any RAM can be read by the DMA engine of the
// supported chips.
func (h *Host) Alloc(size int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.opts.Memory != 0 && h.used+size > h.opts.Memory {
		return nil
	}
	h.used += size
	return make([]byte, size)
}

// Free implements gc9a01.Host.
func (h *Host) Free(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.used -= len(b)
}

// CycleCount implements gc9a01.Host.
func (h *Host) CycleCount() uint32 {
	return h.opts.Cycles()
}

// CPUFrequency implements gc9a01.Host.
func (h *Host) CPUFrequency() physic.Frequency {
	return h.opts.CPU
}

var _ gc9a01.Host = &Host{}
