// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Dev is a handle to a GC9A01 display.
//
// Flush, Monitor, Stat and Init must be called from a single goroutine, the
// one running the compositor.
type Dev struct {
	host Host
	comp Compositor
	opts Opts
	bus  bus
	cmds []initCmd

	state      State
	registered bool
	halted     bool

	mon  Monitor
	done Completion
	// dmaStart is the cycle count when the pending pixel transfer was queued.
	dmaStart   uint32
	dmaPending bool

	sched     *Queue
	accountFn func(uint32)
	stop      chan struct{}

	completed   atomic.Uint32
	dropped     atomic.Uint32
	transmitted atomic.Uint64
}

// New allocates the draw buffers, attaches the display to the SPI bus and,
// unless opts.Initialize is false, runs Init.
//
// The buffers are handed to c with InitBuffers; c is registered as the
// display's compositor at the end of the initialization.
func New(h Host, c Compositor, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	d := &Dev{
		host:  h,
		comp:  c,
		opts:  *opts,
		bus:   bus{host: h, spiHost: opts.SPIHost, dc: opts.DC},
		sched: NewQueue(),
	}
	d.cmds = initCommands(&d.opts)
	d.done.Post = d.flushDone
	d.done.Buffer = -1
	d.accountFn = d.account
	d.bus.collected = d.collected

	size := d.opts.bufferSize()
	if err := d.bus.allocBuffers(size, d.opts.DoubleBuffer); err != nil {
		return nil, err
	}
	if err := d.bus.open(&d.opts, size); err != nil {
		_ = d.bus.close()
		return nil, err
	}
	c.InitBuffers(d.bus.buf1, d.bus.buf2, size/bytesPerPixel)

	if !d.opts.Asynchronous {
		d.stop = make(chan struct{})
		go serve(d.sched, d.stop)
		runtime.SetFinalizer(d, (*Dev).Halt)
	}

	if d.opts.Initialize {
		if err := d.Init(); err != nil {
			_ = d.Halt()
			return nil, err
		}
	}
	return d, nil
}

// serve runs deferred calls until stop is closed. It must not reference the
// Dev, so that the finalizer can run.
func serve(q *Queue, stop <-chan struct{}) {
	for {
		select {
		case <-q.Ready():
			q.Run()
		case <-stop:
			q.Run()
			return
		}
	}
}

// Init powers the display up and configures it, blocking the calling
// goroutine during the delays of the sequence.
func (d *Dev) Init() error {
	return d.InitWith(context.Background(), Sleep)
}

// InitContext is Init but parks only the calling goroutine during delays and
// aborts when ctx is done.
func (d *Dev) InitContext(ctx context.Context) error {
	return d.InitWith(ctx, Yield)
}

// InitWith runs the power-on sequence, suspending with wait for each delay.
func (d *Dev) InitWith(ctx context.Context, wait WaitFunc) error {
	if d.halted {
		return fmt.Errorf("gc9a01: init: %w", ErrHalted)
	}
	eh := errorHandler{d: d, ctx: ctx, suspend: wait}
	initDisplay(&eh, &d.opts, d.cmds)
	if eh.err != nil {
		return eh.err
	}
	log.Printf("gc9a01: initialization completed")
	if d.opts.Backlight != NoPin {
		log.Printf("gc9a01: enable backlight")
	}
	return nil
}

func (d *Dev) register() error {
	if d.registered {
		return nil
	}
	if err := d.comp.Register(d); err != nil {
		return fmt.Errorf("gc9a01: register display: %w", err)
	}
	d.registered = true
	return nil
}

// Monitor records the time the compositor spent on a refresh of px pixels.
func (d *Dev) Monitor(elapsed time.Duration, px int) {
	d.mon.RecordFrame(elapsed, px)
}

// Stat returns the averages since the last call and clears them. It returns
// false when no refresh was recorded.
func (d *Dev) Stat() (Stats, bool) {
	return d.mon.ReadAndReset()
}

// RunPending runs the deferred bookkeeping of finished transfers and returns
// the number of calls run. Only needed when Opts.Asynchronous is set;
// otherwise the service goroutine owns the queue and it returns 0.
func (d *Dev) RunPending() int {
	if d.stop != nil {
		return 0
	}
	return d.sched.Run()
}

// Completed returns the number of pixel transfers that finished.
func (d *Dev) Completed() uint32 {
	return d.completed.Load()
}

// Dropped returns the number of finished transfers whose bookkeeping could
// not be deferred because the queue was full.
func (d *Dev) Dropped() uint32 {
	return d.dropped.Load()
}

// Transmitted returns the number of pixel bytes accounted by the deferred
// bookkeeping.
func (d *Dev) Transmitted() uint64 {
	return d.transmitted.Load()
}

// State returns the step of the power-on sequence the display reached.
func (d *Dev) State() State {
	return d.state
}

// Size implements Display.
func (d *Dev) Size() (x, y int16) {
	return int16(d.opts.Width), int16(d.opts.Height)
}

// Bounds returns the panel rectangle.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.opts.Width, d.opts.Height)
}

// Rotation returns the configured rotation.
func (d *Dev) Rotation() drivers.Rotation {
	switch d.opts.Rotation {
	case 90:
		return drivers.Rotation90
	case 180:
		return drivers.Rotation180
	case 270:
		return drivers.Rotation270
	}
	return drivers.Rotation0
}

// Buffers returns the draw buffers; the second one is nil in single buffer
// mode.
func (d *Dev) Buffers() (buf1, buf2 []byte) {
	return d.bus.buf1, d.bus.buf2
}

// CPUFrequency returns the rate of the cycle counter used by Stats.
func (d *Dev) CPUFrequency() physic.Frequency {
	return d.host.CPUFrequency()
}

// PowerDown switches off the power and backlight lines. Init must be called
// again to use the display.
func (d *Dev) PowerDown() error {
	if d.opts.Power != NoPin {
		if err := d.host.Out(d.opts.Power, !d.opts.PowerOn); err != nil {
			return fmt.Errorf("gc9a01: power down: %w: %w", ErrTransport, err)
		}
	}
	if d.opts.Backlight != NoPin {
		if err := d.host.Out(d.opts.Backlight, !d.opts.BacklightOn); err != nil {
			return fmt.Errorf("gc9a01: backlight off: %w: %w", ErrTransport, err)
		}
	}
	d.state = Unpowered
	return nil
}

// Halt detaches the display from the compositor and the SPI bus and frees the
// draw buffers.
//
// It waits a bounded time for an outstanding pixel transfer. It is safe to
// call more than once.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	if d.registered {
		d.comp.Remove()
		d.registered = false
	}
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
		runtime.SetFinalizer(d, nil)
	}
	return d.bus.close()
}

func (d *Dev) String() string {
	return fmt.Sprintf("GC9A01{%dx%d, %s}", d.opts.Width, d.opts.Height, d.state)
}

var _ conn.Resource = &Dev{}
var _ Display = &Dev{}
