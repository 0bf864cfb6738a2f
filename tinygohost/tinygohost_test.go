// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tinygohost

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// trace records bus and pin activity in order.
type trace struct {
	mu     sync.Mutex
	events []string
}

func (t *trace) add(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, s)
}

func (t *trace) get() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

type bus struct{ t *trace }

func (b bus) Tx(w, r []byte) error {
	b.t.add(fmt.Sprintf("tx %d", len(w)))
	return nil
}

func (b bus) Transfer(w byte) (byte, error) {
	b.t.add(fmt.Sprintf("transfer %#x", w))
	return 0, nil
}

type line struct {
	t    *trace
	name string
}

func (l line) Set(high bool) {
	l.t.add(fmt.Sprintf("%s %s", l.name, gpio.Level(high)))
}

type comp struct{}

func (comp) InitBuffers(buf1, buf2 []byte, pixels int) {}
func (comp) Register(d gc9a01.Display) error           { return nil }
func (comp) Remove()                                   {}
func (comp) FlushReady()                               {}

func newHost(tr *trace, memory int) *Host {
	return New(&Opts{
		Bus: bus{tr},
		Pins: map[gc9a01.Pin]Pin{
			13: line{tr, "cs"},
			12: line{tr, "dc"},
			4:  line{tr, "rst"},
		},
		Memory: memory,
	})
}

func TestFlush(t *testing.T) {
	tr := &trace{}
	h := newHost(tr, 0)
	o := gc9a01.DefaultOpts
	o.Power = gc9a01.NoPin
	o.Backlight = gc9a01.NoPin
	o.Initialize = false
	o.Asynchronous = true
	d, err := gc9a01.New(h, comp{}, &o)
	if err != nil {
		t.Fatal(err)
	}
	tr.events = nil
	buf1, _ := d.Buffers()
	if err := d.Flush(gc9a01.Area{X2: 1, Y2: 1}, buf1); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"dc Low", "cs Low", "tx 1", "cs High",
		"dc High", "cs Low", "tx 4", "cs High",
		"dc Low", "cs Low", "tx 1", "cs High",
		"dc High", "cs Low", "tx 4", "cs High",
		"dc Low", "cs Low", "tx 1", "cs High",
		"dc High", "cs Low", "tx 8", "cs High",
	}
	if diff := cmp.Diff(tr.get(), want); diff != "" {
		t.Errorf("Flush() difference (-got +want):\n%s", diff)
	}
}

func TestInit(t *testing.T) {
	tr := &trace{}
	h := newHost(tr, 0)
	o := gc9a01.DefaultOpts
	o.Power = gc9a01.NoPin
	o.Backlight = gc9a01.NoPin
	o.Initialize = false
	o.Asynchronous = true
	d, err := gc9a01.New(h, comp{}, &o)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	wait := func(context.Context, time.Duration) error { return nil }
	if err := d.InitWith(context.Background(), wait); err != nil {
		t.Fatal(err)
	}
	if d.State() != gc9a01.Ready {
		t.Errorf("State() = %s", d.State())
	}
}

func TestAllocBudget(t *testing.T) {
	h := newHost(&trace{}, 28800*2+16)
	o := gc9a01.DefaultOpts
	o.Initialize = false
	o.Asynchronous = true
	d, err := gc9a01.New(h, comp{}, &o)
	if err != nil {
		t.Fatal(err)
	}
	if _, buf2 := d.Buffers(); buf2 == nil {
		t.Error("expected two buffers")
	}
	if h.Alloc(1) != nil {
		t.Error("Alloc() beyond the budget succeeded")
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if h.used != 0 {
		t.Errorf("%d bytes still allocated", h.used)
	}

	h = newHost(&trace{}, 100)
	if _, err := gc9a01.New(h, comp{}, &o); !errors.Is(err, gc9a01.ErrResourceExhausted) {
		t.Errorf("New() = %v, want ErrResourceExhausted", err)
	}
}

func TestMissingPin(t *testing.T) {
	h := newHost(&trace{}, 0)
	if err := h.Out(99, gpio.High); err == nil {
		t.Error("Out() on a missing pin succeeded")
	}
	if _, err := h.AddDevice(1, &gc9a01.DeviceConfig{CS: 98}); err == nil {
		t.Error("AddDevice() with a missing CS pin succeeded")
	}
}

func TestCycles(t *testing.T) {
	n := uint32(0)
	h := New(&Opts{Cycles: func() uint32 { n += 240; return n }, CPU: 240 * physic.MegaHertz})
	if h.CycleCount() != 240 || h.CPUFrequency() != 240*physic.MegaHertz {
		t.Error("custom cycle counter not used")
	}
}
