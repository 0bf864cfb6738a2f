// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spiqueue turns a blocking SPI connection into a gc9a01.Device with
// a transaction queue serviced by a worker goroutine.
//
// The worker plays the role of the DMA engine: it calls the device's Pre and
// Post hooks around each transfer, from its own goroutine.
package spiqueue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
	"periph.io/x/conn/v3"
)

// Conn is a write capable SPI connection. periph's conn.Conn and TinyGo's
// drivers.SPI both satisfy it.
type Conn interface {
	Tx(w, r []byte) error
}

// ErrRemoved is returned once the device was removed.
var ErrRemoved = errors.New("spiqueue: device removed")

type result struct {
	t   *gc9a01.Transaction
	err error
}

// Dev is a queued SPI device.
type Dev struct {
	c     Conn
	maxTx int
	pre   func(*gc9a01.Transaction)
	post  func(*gc9a01.Transaction)

	txMu sync.Mutex // serializes transfers between Transmit and the worker

	// mu guards removed and the closing of queue. Queue holds it for reading
	// while sending on queue.
	mu      sync.RWMutex
	removed bool

	queue chan *gc9a01.Transaction
	// results has room for everything that can be queued or in the worker's
	// hands, so the worker never blocks on it.
	results chan result
	done    chan struct{}
}

// New returns a device sending on c. cfg.QueueSize bounds the number of
// transactions queued and not yet collected with Result.
//
// If c implements conn.Limits, transfers are split to honor MaxTxSize.
func New(c Conn, cfg *gc9a01.DeviceConfig) *Dev {
	n := cfg.QueueSize
	if n < 1 {
		n = 1
	}
	d := &Dev{
		c:       c,
		pre:     cfg.Pre,
		post:    cfg.Post,
		queue:   make(chan *gc9a01.Transaction, n),
		results: make(chan result, 2*n+1),
		done:    make(chan struct{}),
	}
	if l, ok := c.(conn.Limits); ok {
		d.maxTx = l.MaxTxSize()
	}
	go d.run()
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("spiqueue{%v}", d.c)
}

// Transmit implements gc9a01.Device.
func (d *Dev) Transmit(t *gc9a01.Transaction) error {
	d.mu.RLock()
	removed := d.removed
	d.mu.RUnlock()
	if removed {
		return ErrRemoved
	}
	d.txMu.Lock()
	defer d.txMu.Unlock()
	return d.send(t)
}

// Queue implements gc9a01.Device.
//
// It does not wait for the transfer in progress; with a timeout of 0 it
// returns immediately.
func (d *Dev) Queue(t *gc9a01.Transaction, timeout time.Duration) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.removed {
		return ErrRemoved
	}
	switch {
	case timeout == gc9a01.Forever:
		d.queue <- t
		return nil
	case timeout <= 0:
		select {
		case d.queue <- t:
			return nil
		default:
		}
	default:
		tm := time.NewTimer(timeout)
		defer tm.Stop()
		select {
		case d.queue <- t:
			return nil
		case <-tm.C:
		}
	}
	return fmt.Errorf("spiqueue: queue full: %w", gc9a01.ErrTimeout)
}

// Result implements gc9a01.Device.
func (d *Dev) Result(timeout time.Duration) (*gc9a01.Transaction, error) {
	var r result
	switch {
	case timeout == gc9a01.Forever:
		r = <-d.results
	case timeout <= 0:
		select {
		case r = <-d.results:
		default:
			return nil, gc9a01.ErrTimeout
		}
	default:
		tm := time.NewTimer(timeout)
		defer tm.Stop()
		select {
		case r = <-d.results:
		case <-tm.C:
			return nil, gc9a01.ErrTimeout
		}
	}
	return r.t, r.err
}

// Remove implements gc9a01.Device. Transactions already queued are sent
// before it returns; their results can still be collected. A concurrent
// Queue either completes first or fails with ErrRemoved.
func (d *Dev) Remove() error {
	d.mu.Lock()
	if d.removed {
		d.mu.Unlock()
		return nil
	}
	d.removed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
	return nil
}

func (d *Dev) run() {
	defer close(d.done)
	for t := range d.queue {
		d.txMu.Lock()
		err := d.send(t)
		d.txMu.Unlock()
		d.results <- result{t: t, err: err}
	}
}

// send runs the hooks around the transfer. d.txMu must be held.
func (d *Dev) send(t *gc9a01.Transaction) error {
	if d.pre != nil {
		d.pre(t)
	}
	w := t.Tx[:t.Length/8]
	var err error
	for len(w) != 0 && err == nil {
		n := len(w)
		if d.maxTx > 0 && n > d.maxTx {
			n = d.maxTx
		}
		err = d.c.Tx(w[:n], nil)
		w = w[n:]
	}
	if d.post != nil {
		d.post(t)
	}
	if err != nil {
		return fmt.Errorf("spiqueue: %w", err)
	}
	return nil
}

var _ gc9a01.Device = &Dev{}
