// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import "fmt"

// Flush sends the pixels of area a to the panel.
//
// It returns as soon as the pixel transfer is queued. The compositor is told
// through FlushReady, from interrupt context, when pixels can be reused.
// pixels must be DMA-capable memory, normally one of the draw buffers.
func (d *Dev) Flush(a Area, pixels []byte) error {
	if d.halted {
		return fmt.Errorf("gc9a01: flush %s: %w", a, ErrHalted)
	}
	if !a.In(d.opts.Width, d.opts.Height) {
		return fmt.Errorf("gc9a01: flush %s outside of %dx%d: %w", a, d.opts.Width, d.opts.Height, ErrArea)
	}
	n := a.Pixels() * bytesPerPixel
	if n > len(pixels) {
		return fmt.Errorf("gc9a01: flush %s needs %d bytes, got %d: %w", a, n, len(pixels), ErrSize)
	}

	// The previous pixel transfer must be done before the window changes.
	if err := d.bus.collect(Forever); err != nil {
		return err
	}
	start := d.host.CycleCount()

	eh := flushHandler{b: &d.bus}
	eh.sendCommand(columnAddressSet)
	eh.sendWords(uint16(a.X1), uint16(a.X2))
	eh.sendCommand(rowAddressSet)
	eh.sendWords(uint16(a.Y1), uint16(a.Y2))
	eh.sendCommand(memoryWrite)
	if eh.err != nil {
		return eh.err
	}

	issue := d.host.CycleCount()
	d.mon.addSetup(issue - start)
	d.done.Buffer = d.bus.bufferIndex(pixels)
	if err := d.bus.sendDataDMA(pixels[:n], &d.done); err != nil {
		return err
	}
	d.dmaStart = issue
	d.dmaPending = true
	return nil
}

// collected runs in task context once the result of a queued transfer was
// collected, after its completion ran.
func (d *Dev) collected(t *Transaction) {
	if t == nil || t.User != &d.done || !d.dmaPending {
		return
	}
	d.mon.addDMA(d.done.End.Load() - d.dmaStart)
	d.dmaPending = false
}

// flushDone runs in interrupt context once the pixel transfer finished. It
// must neither allocate nor block.
func (d *Dev) flushDone(t *Transaction) {
	d.comp.FlushReady()
	t.User.End.Store(d.host.CycleCount())
	d.completed.Add(1)
	if !d.sched.Schedule(d.accountFn, uint32(t.Length/8)) {
		d.dropped.Add(1)
	}
}

// account runs in task context for each finished pixel transfer.
func (d *Dev) account(n uint32) {
	d.transmitted.Add(uint64(n))
}

// flushHandler sends the address window; the first error sticks.
type flushHandler struct {
	b   *bus
	err error
}

func (eh *flushHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.b.sendCommand(cmd)
}

func (eh *flushHandler) sendWords(first, second uint16) {
	if eh.err != nil {
		return
	}
	eh.err = eh.b.sendWords(first, second)
}
