// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gc9a01sim emulates a GC9A01 display and the host it is wired to.
//
// The Host decodes what the driver sends into a Panel, which can be looked
// at as an image.Image or rendered on a terminal.
package gc9a01sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
	"github.com/minyiky/lvgl-esp32-gc9a01/spiqueue"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Opts configures the emulation.
type Opts struct {
	// Panel size; 240x240 when zero.
	Width, Height int
	// DC is the pin the driver uses as data/command select.
	DC gc9a01.Pin
	// Memory limits the bytes Alloc hands out; 0 is unlimited.
	Memory int
	// Async completes queued transfers on a worker goroutine. Otherwise they
	// complete before Queue returns.
	Async bool
	// Record keeps a copy of every transfer, see Transfers.
	Record bool
}

// DefaultOpts matches gc9a01.DefaultOpts.
var DefaultOpts = Opts{
	Width:  240,
	Height: 240,
	DC:     gc9a01.DefaultOpts.DC,
	Record: true,
}

// Transfer is one SPI transfer seen by the Host.
type Transfer struct {
	DC   gpio.Level
	Data []byte
}

// cpu is the rate of the emulated cycle counter.
const cpu = 240 * physic.MegaHertz

// Host implements gc9a01.Host on top of a Panel.
type Host struct {
	opts  Opts
	panel *Panel
	start time.Time

	mu      sync.Mutex
	levels  map[gc9a01.Pin]gpio.Level
	pulls   map[gc9a01.Pin]gpio.Pull
	outputs map[gc9a01.Pin]bool
	buses   map[int]bool
	used    int
	allocs  int
	frees   int
	log     []Transfer
}

// New returns an emulated host with a blank panel.
func New(opts *Opts) *Host {
	if opts == nil {
		opts = &DefaultOpts
	}
	h := &Host{
		opts:    *opts,
		start:   time.Now(),
		levels:  map[gc9a01.Pin]gpio.Level{},
		pulls:   map[gc9a01.Pin]gpio.Pull{},
		outputs: map[gc9a01.Pin]bool{},
		buses:   map[int]bool{},
	}
	if h.opts.Width == 0 || h.opts.Height == 0 {
		h.opts.Width, h.opts.Height = 240, 240
	}
	h.panel = NewPanel(h.opts.Width, h.opts.Height)
	return h
}

func (h *Host) String() string {
	return fmt.Sprintf("gc9a01sim{%dx%d}", h.opts.Width, h.opts.Height)
}

// Panel returns the emulated display.
func (h *Host) Panel() *Panel {
	return h.panel
}

// Level returns the level last driven on p.
func (h *Host) Level(p gc9a01.Pin) gpio.Level {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.levels[p]
}

// IsOutput reports whether p was configured as an output.
func (h *Host) IsOutput(p gc9a01.Pin) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outputs[p]
}

// Pull returns the pull configured on input p.
func (h *Host) Pull(p gc9a01.Pin) gpio.Pull {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pulls[p]
}

// Transfers returns the transfers recorded so far and clears the record.
func (h *Host) Transfers() []Transfer {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.log
	h.log = nil
	return t
}

// Memory returns the number of Alloc and Free calls and the bytes still
// allocated.
func (h *Host) Memory() (allocs, frees, used int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocs, h.frees, h.used
}

// BusInUse reports whether bus was initialized and not freed.
func (h *Host) BusInUse(bus int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buses[bus]
}

// InitBus implements gc9a01.Host.
func (h *Host) InitBus(bus int, cfg *gc9a01.BusConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buses[bus] {
		return fmt.Errorf("gc9a01sim: SPI host %d already initialized", bus)
	}
	if cfg.MaxTransferSize <= 0 {
		return fmt.Errorf("gc9a01sim: invalid max transfer size %d", cfg.MaxTransferSize)
	}
	h.buses[bus] = true
	return nil
}

// FreeBus implements gc9a01.Host.
func (h *Host) FreeBus(bus int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.buses[bus] {
		return fmt.Errorf("gc9a01sim: SPI host %d not initialized", bus)
	}
	delete(h.buses, bus)
	return nil
}

// AddDevice implements gc9a01.Host.
func (h *Host) AddDevice(bus int, cfg *gc9a01.DeviceConfig) (gc9a01.Device, error) {
	if cfg.Freq <= 0 {
		return nil, errors.New("gc9a01sim: invalid clock")
	}
	if h.opts.Async {
		return spiqueue.New(wire{h}, cfg), nil
	}
	return &syncDevice{w: wire{h}, cfg: *cfg}, nil
}

// ConfigureOutput implements gc9a01.Host.
func (h *Host) ConfigureOutput(p gc9a01.Pin) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputs[p] = true
	h.levels[p] = gpio.Low
	return nil
}

// ConfigureInput implements gc9a01.Host.
func (h *Host) ConfigureInput(p gc9a01.Pin, pull gpio.Pull) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.outputs, p)
	h.pulls[p] = pull
	return nil
}

// Out implements gc9a01.Host.
func (h *Host) Out(p gc9a01.Pin, l gpio.Level) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.levels[p] = l
	return nil
}

// Alloc implements gc9a01.Host.
func (h *Host) Alloc(size int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.opts.Memory != 0 && h.used+size > h.opts.Memory {
		return nil
	}
	h.used += size
	h.allocs++
	return make([]byte, size)
}

// Free implements gc9a01.Host.
func (h *Host) Free(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.used -= len(b)
	h.frees++
}

// CycleCount implements gc9a01.Host.
func (h *Host) CycleCount() uint32 {
	return uint32(time.Since(h.start).Nanoseconds() * 6 / 25)
}

// CPUFrequency implements gc9a01.Host.
func (h *Host) CPUFrequency() physic.Frequency {
	return cpu
}

// receive routes a transfer to the panel according to the DC line.
func (h *Host) receive(w []byte) {
	h.mu.Lock()
	dc := h.levels[h.opts.DC]
	if h.opts.Record {
		h.log = append(h.log, Transfer{DC: dc, Data: append([]byte(nil), w...)})
	}
	h.mu.Unlock()
	if dc == gpio.Low {
		for _, b := range w {
			h.panel.Command(b)
		}
		return
	}
	h.panel.Data(w)
}

// wire is the SPI bus as seen from the panel.
type wire struct {
	h *Host
}

func (w wire) Tx(b, r []byte) error {
	if len(r) != 0 {
		return errors.New("gc9a01sim: the panel is write only")
	}
	w.h.receive(b)
	return nil
}

// syncDevice completes queued transfers before Queue returns.
type syncDevice struct {
	w       wire
	cfg     gc9a01.DeviceConfig
	results []*gc9a01.Transaction
	removed bool
}

func (d *syncDevice) send(t *gc9a01.Transaction) error {
	if d.removed {
		return errors.New("gc9a01sim: device removed")
	}
	if d.cfg.Pre != nil {
		d.cfg.Pre(t)
	}
	err := d.w.Tx(t.Tx[:t.Length/8], nil)
	if d.cfg.Post != nil {
		d.cfg.Post(t)
	}
	return err
}

func (d *syncDevice) Transmit(t *gc9a01.Transaction) error {
	return d.send(t)
}

func (d *syncDevice) Queue(t *gc9a01.Transaction, timeout time.Duration) error {
	if len(d.results) >= d.cfg.QueueSize {
		return fmt.Errorf("gc9a01sim: queue full: %w", gc9a01.ErrTimeout)
	}
	if err := d.send(t); err != nil {
		return err
	}
	d.results = append(d.results, t)
	return nil
}

func (d *syncDevice) Result(timeout time.Duration) (*gc9a01.Transaction, error) {
	if len(d.results) == 0 {
		return nil, gc9a01.ErrTimeout
	}
	t := d.results[0]
	d.results = d.results[1:]
	return t, nil
}

func (d *syncDevice) Remove() error {
	d.removed = true
	return nil
}

var _ gc9a01.Host = &Host{}
var _ gc9a01.Device = &syncDevice{}
