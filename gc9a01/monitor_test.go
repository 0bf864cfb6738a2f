// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/physic"
)

func TestMonitorNoData(t *testing.T) {
	var m Monitor
	if s, ok := m.ReadAndReset(); ok {
		t.Errorf("ReadAndReset() = %+v, want no data", s)
	}
	m.addSetup(100)
	if _, ok := m.ReadAndReset(); ok {
		t.Error("ReadAndReset() returned data without a recorded frame")
	}
}

func TestMonitorReadAndReset(t *testing.T) {
	var m Monitor
	m.RecordFrame(10*time.Millisecond, 100)
	m.RecordFrame(20*time.Millisecond, 200)
	m.RecordFrame(31*time.Millisecond, 301)
	m.addSetup(1000)
	m.addSetup(2001)
	m.addDMA(5)

	got, ok := m.ReadAndReset()
	if !ok {
		t.Fatal("ReadAndReset() returned no data")
	}
	want := Stats{
		Time:        61 * time.Millisecond / 3,
		SetupCycles: 1000,
		DMACycles:   1,
		Pixels:      200,
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ReadAndReset() difference (-got +want):\n%s", diff)
	}
	if s, ok := m.ReadAndReset(); ok {
		t.Errorf("second ReadAndReset() = %+v, want no data", s)
	}
}

func TestStatsDurations(t *testing.T) {
	s := Stats{SetupCycles: 240000, DMACycles: 2400000}
	f := 240 * physic.MegaHertz
	if got := s.SetupTime(f); got != time.Millisecond {
		t.Errorf("SetupTime() = %s, want 1ms", got)
	}
	if got := s.DMATime(f); got != 10*time.Millisecond {
		t.Errorf("DMATime() = %s, want 10ms", got)
	}
	if got := s.DMATime(0); got != 0 {
		t.Errorf("DMATime(0) = %s, want 0", got)
	}
}
