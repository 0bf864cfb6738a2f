// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Stats is the average cost of a refresh since the last read.
type Stats struct {
	// Time is the average time the framework spent per refresh.
	Time time.Duration
	// SetupCycles is the average number of CPU cycles spent in Flush before
	// the pixel transfer was queued.
	SetupCycles uint64
	// DMACycles is the average number of CPU cycles between queuing the pixel
	// transfer and its completion.
	DMACycles uint64
	// Pixels is the average number of pixels per refresh.
	Pixels int
}

// SetupTime converts SetupCycles to a duration at CPU frequency f.
func (s *Stats) SetupTime(f physic.Frequency) time.Duration {
	return cyclesToDuration(s.SetupCycles, f)
}

// DMATime converts DMACycles to a duration at CPU frequency f.
func (s *Stats) DMATime(f physic.Frequency) time.Duration {
	return cyclesToDuration(s.DMACycles, f)
}

func (s *Stats) String() string {
	return fmt.Sprintf("%s/refresh, %d px, %d setup cycles, %d DMA cycles", s.Time, s.Pixels, s.SetupCycles, s.DMACycles)
}

func cyclesToDuration(c uint64, f physic.Frequency) time.Duration {
	hz := uint64(f / physic.Hertz)
	if hz == 0 {
		return 0
	}
	return time.Duration(c * uint64(time.Second) / hz)
}

// Monitor accumulates refresh statistics.
//
// It is not safe for concurrent use: only the rendering context writes to
// it.
type Monitor struct {
	time        time.Duration
	px          int
	count       int
	setupCycles uint64
	dmaCycles   uint64
}

// RecordFrame accumulates one refresh of px pixels that took elapsed.
func (m *Monitor) RecordFrame(elapsed time.Duration, px int) {
	m.time += elapsed
	m.px += px
	m.count++
}

func (m *Monitor) addSetup(c uint32) {
	m.setupCycles += uint64(c)
}

func (m *Monitor) addDMA(c uint32) {
	m.dmaCycles += uint64(c)
}

// ReadAndReset returns the averages since the last call and clears the
// counters. It returns false when no refresh was recorded.
func (m *Monitor) ReadAndReset() (Stats, bool) {
	if m.count == 0 {
		return Stats{}, false
	}
	n := m.count
	s := Stats{
		Time:        m.time / time.Duration(n),
		SetupCycles: m.setupCycles / uint64(n),
		DMACycles:   m.dmaCycles / uint64(n),
		Pixels:      m.px / n,
	}
	*m = Monitor{}
	return s, true
}
