// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// scratchLen is the size of the buffer used for commands and small data
// writes. Anything larger must go through the DMA path.
const scratchLen = 16

// queueSize is the depth of the device's transaction queue.
const queueSize = 2

// drainTimeout bounds how long Halt waits for each outstanding transfer.
const drainTimeout = 100 * time.Millisecond

// bus owns the SPI bus and device, the draw buffers and the single
// transaction descriptor.
type bus struct {
	host    Host
	spiHost int
	dc      Pin
	ownsBus bool
	dev     Device

	buf1, buf2 []byte
	scratch    []byte

	// trans is reused by every transfer. queued counts transfers handed to
	// the DMA engine whose result was not collected yet; trans may only be
	// rewritten when it is zero.
	trans  Transaction
	queued int

	// collected is called in task context with each queued transfer whose
	// result was collected.
	collected func(*Transaction)
}

// allocBuffers allocates the draw buffers. The second buffer is optional:
// without it the framework waits for each flush before rendering again.
func (b *bus) allocBuffers(size int, double bool) error {
	b.buf1 = b.host.Alloc(size)
	if double {
		b.buf2 = b.host.Alloc(size)
	}
	switch {
	case b.buf1 != nil && b.buf2 != nil:
		log.Printf("gc9a01: double buffer, %d bytes each", size)
	case b.buf1 != nil:
		log.Printf("gc9a01: single buffer, %d bytes", size)
	default:
		if b.buf2 != nil {
			b.host.Free(b.buf2)
			b.buf2 = nil
		}
		return fmt.Errorf("gc9a01: allocating %d bytes for the display buffer: %w", size, ErrResourceExhausted)
	}
	return nil
}

// open initializes the bus when its pins are given and attaches the display.
func (b *bus) open(o *Opts, maxTransfer int) error {
	if o.MISO != NoPin && o.MOSI != NoPin && o.CLK != NoPin {
		if err := b.host.ConfigureInput(o.MISO, gpio.PullUp); err != nil {
			return fmt.Errorf("gc9a01: configure MISO: %w: %w", ErrTransport, err)
		}
		for _, p := range []Pin{o.MOSI, o.CLK} {
			if err := b.host.ConfigureOutput(p); err != nil {
				return fmt.Errorf("gc9a01: configure pin %d: %w: %w", p, ErrTransport, err)
			}
		}
		cfg := BusConfig{
			MISO:            o.MISO,
			MOSI:            o.MOSI,
			CLK:             o.CLK,
			QuadWP:          NoPin,
			QuadHD:          NoPin,
			MaxTransferSize: maxTransfer,
		}
		if err := b.host.InitBus(b.spiHost, &cfg); err != nil {
			return fmt.Errorf("gc9a01: failed initializing SPI bus: %w: %w", ErrTransport, err)
		}
		b.ownsBus = true
	}

	if b.scratch = b.host.Alloc(scratchLen); b.scratch == nil {
		return fmt.Errorf("gc9a01: allocating transfer buffer: %w", ErrResourceExhausted)
	}

	dev, err := b.host.AddDevice(b.spiHost, &DeviceConfig{
		Freq:         o.Freq,
		Mode:         o.Mode,
		CS:           o.CS,
		QueueSize:    queueSize,
		HalfDuplex:   o.HalfDuplex,
		NoDummy:      true,
		DutyCyclePos: 128,
		Pre:          DispatchPre,
		Post:         DispatchPost,
	})
	if err != nil {
		return fmt.Errorf("gc9a01: failed adding SPI device: %w: %w", ErrTransport, err)
	}
	b.dev = dev
	return nil
}

// sendCommand sends a command byte with DC low.
func (b *bus) sendCommand(cmd byte) error {
	if err := b.begin(gpio.Low); err != nil {
		return err
	}
	b.scratch[0] = cmd
	return b.transmit(b.scratch[:1])
}

// sendData sends up to scratchLen bytes with DC high and waits for the
// transfer to finish.
func (b *bus) sendData(data []byte) error {
	if len(data) > scratchLen {
		return fmt.Errorf("gc9a01: %d bytes of data, at most %d can be sent without DMA: %w", len(data), scratchLen, ErrSize)
	}
	if err := b.begin(gpio.High); err != nil {
		return err
	}
	n := copy(b.scratch, data)
	return b.transmit(b.scratch[:n])
}

// sendWords sends two 16 bit big endian values with DC high.
func (b *bus) sendWords(first, second uint16) error {
	if err := b.begin(gpio.High); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b.scratch[0:], first)
	binary.BigEndian.PutUint16(b.scratch[2:], second)
	return b.transmit(b.scratch[:4])
}

// sendDataDMA queues data with DC high and returns immediately. c is handed
// to the interrupt handlers once the transfer is done.
func (b *bus) sendDataDMA(data []byte, c *Completion) error {
	if err := b.begin(gpio.High); err != nil {
		return err
	}
	b.trans = Transaction{Length: len(data) * 8, Tx: data, User: c}
	if err := b.dev.Queue(&b.trans, Forever); err != nil {
		return fmt.Errorf("gc9a01: queue %d bytes: %w: %w", len(data), ErrTransport, err)
	}
	b.queued++
	return nil
}

// begin collects outstanding transfers, so the bus is idle, then drives DC.
func (b *bus) begin(l gpio.Level) error {
	if b.dev == nil {
		return fmt.Errorf("gc9a01: %w", ErrHalted)
	}
	if err := b.collect(Forever); err != nil {
		return err
	}
	if err := b.host.Out(b.dc, l); err != nil {
		return fmt.Errorf("gc9a01: set DC %s: %w: %w", l, ErrTransport, err)
	}
	return nil
}

func (b *bus) transmit(p []byte) error {
	b.trans = Transaction{Length: len(p) * 8, Tx: p}
	if err := b.dev.Transmit(&b.trans); err != nil {
		return fmt.Errorf("gc9a01: transmit %d bytes: %w: %w", len(p), ErrTransport, err)
	}
	return nil
}

// collect waits for the results of all queued transfers.
func (b *bus) collect(timeout time.Duration) error {
	for b.queued > 0 {
		t, err := b.dev.Result(timeout)
		if err != nil {
			return fmt.Errorf("gc9a01: waiting for DMA: %w: %w", ErrTransport, err)
		}
		b.queued--
		if b.collected != nil {
			b.collected(t)
		}
	}
	return nil
}

// bufferIndex returns which draw buffer p starts at, -1 if neither.
func (b *bus) bufferIndex(p []byte) int {
	if len(p) == 0 {
		return -1
	}
	for i, buf := range [...][]byte{b.buf1, b.buf2} {
		if len(buf) != 0 && &buf[0] == &p[0] {
			return i
		}
	}
	return -1
}

// close releases everything in reverse order. It does not allocate and is
// safe to call more than once.
func (b *bus) close() error {
	var err error
	if b.dev != nil {
		for b.queued > 0 {
			t, e := b.dev.Result(drainTimeout)
			if e != nil {
				break
			}
			b.queued--
			if b.collected != nil {
				b.collected(t)
			}
		}
		for {
			if _, e := b.dev.Result(0); e != nil {
				break
			}
		}
		b.queued = 0
		err = b.dev.Remove()
		b.dev = nil
	}
	if b.ownsBus {
		if e := b.host.FreeBus(b.spiHost); err == nil {
			err = e
		}
		b.ownsBus = false
	}
	if b.buf1 != nil {
		b.host.Free(b.buf1)
		b.buf1 = nil
	}
	if b.buf2 != nil {
		b.host.Free(b.buf2)
		b.buf2 = nil
	}
	if b.scratch != nil {
		b.host.Free(b.scratch)
		b.scratch = nil
	}
	return err
}
