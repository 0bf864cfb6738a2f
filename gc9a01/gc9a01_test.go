// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// tx is a transfer seen by fakeHost.
type tx struct {
	dc     gpio.Level
	data   []byte
	queued bool
}

// fakeHost completes queued transfers synchronously: Queue runs the pre and
// post hooks before returning. With lazy set, the post hook only runs when
// the result is collected, as if the transfer was still in flight until then.
type fakeHost struct {
	lazy    bool
	budget  int // bytes Alloc can hand out; < 0 is unlimited
	allocs  int
	frees   int
	buses   []int
	freed   []int
	levels  map[Pin]gpio.Level
	txs     []tx
	results []*Transaction
	cycles  uint32
	removed int
	failOut Pin
	cfg     DeviceConfig
}

func newFakeHost() *fakeHost {
	return &fakeHost{budget: -1, levels: map[Pin]gpio.Level{}, failOut: NoPin}
}

func (f *fakeHost) InitBus(host int, cfg *BusConfig) error {
	f.buses = append(f.buses, host)
	return nil
}

func (f *fakeHost) FreeBus(host int) error {
	f.freed = append(f.freed, host)
	return nil
}

func (f *fakeHost) AddDevice(host int, cfg *DeviceConfig) (Device, error) {
	f.cfg = *cfg
	return (*fakeDevice)(f), nil
}

func (f *fakeHost) ConfigureOutput(p Pin) error {
	return nil
}

func (f *fakeHost) ConfigureInput(p Pin, pull gpio.Pull) error {
	return nil
}

func (f *fakeHost) Out(p Pin, l gpio.Level) error {
	if p == f.failOut {
		return errors.New("stuck")
	}
	f.levels[p] = l
	return nil
}

func (f *fakeHost) Alloc(size int) []byte {
	if f.budget >= 0 {
		if size > f.budget {
			return nil
		}
		f.budget -= size
	}
	f.allocs++
	return make([]byte, size)
}

func (f *fakeHost) Free(b []byte) {
	f.frees++
}

func (f *fakeHost) CycleCount() uint32 {
	f.cycles += 10
	return f.cycles
}

func (f *fakeHost) CPUFrequency() physic.Frequency {
	return 240 * physic.MegaHertz
}

type fakeDevice fakeHost

func (d *fakeDevice) record(t *Transaction, queued bool) {
	f := (*fakeHost)(d)
	f.txs = append(f.txs, tx{dc: f.levels[f.dcPin()], data: append([]byte(nil), t.Tx[:t.Length/8]...), queued: queued})
}

func (d *fakeDevice) Transmit(t *Transaction) error {
	d.record(t, false)
	return nil
}

func (d *fakeDevice) Queue(t *Transaction, timeout time.Duration) error {
	if len(d.results) == d.cfg.QueueSize {
		return errors.New("queue full")
	}
	d.record(t, true)
	d.cfg.Pre(t)
	if !d.lazy {
		d.cfg.Post(t)
	}
	d.results = append(d.results, t)
	return nil
}

func (d *fakeDevice) Result(timeout time.Duration) (*Transaction, error) {
	if len(d.results) == 0 {
		return nil, ErrTimeout
	}
	t := d.results[0]
	d.results = d.results[1:]
	if d.lazy {
		d.cfg.Post(t)
	}
	return t, nil
}

func (d *fakeDevice) Remove() error {
	d.removed++
	return nil
}

func (f *fakeHost) dcPin() Pin {
	return DefaultOpts.DC
}

// fakeComp is a compositor that only counts.
type fakeComp struct {
	buf1, buf2 []byte
	pixels     int
	display    Display
	ready      int
	removed    int
}

func (c *fakeComp) InitBuffers(buf1, buf2 []byte, pixels int) {
	c.buf1, c.buf2, c.pixels = buf1, buf2, pixels
}

func (c *fakeComp) Register(d Display) error {
	c.display = d
	return nil
}

func (c *fakeComp) Remove() {
	c.removed++
}

func (c *fakeComp) FlushReady() {
	c.ready++
}

func noWait(context.Context, time.Duration) error {
	return nil
}

func testOpts() *Opts {
	o := DefaultOpts
	o.Asynchronous = true
	o.Initialize = false
	return &o
}

func TestNewBuffers(t *testing.T) {
	for _, tc := range []struct {
		name   string
		double bool
		budget int
		want   int
	}{
		{name: "double", double: true, budget: -1, want: 2},
		{name: "single", double: false, budget: -1, want: 1},
		{name: "fallback to single", double: true, budget: 28800 + scratchLen, want: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newFakeHost()
			h.budget = tc.budget
			c := &fakeComp{}
			o := testOpts()
			o.DoubleBuffer = tc.double
			d, err := New(h, c, o)
			if err != nil {
				t.Fatal(err)
			}
			defer d.Halt()

			buf1, buf2 := d.Buffers()
			if len(buf1) != 28800 {
				t.Errorf("len(buf1) = %d, want 28800", len(buf1))
			}
			got := 1
			if buf2 != nil {
				got = 2
				if len(buf2) != len(buf1) {
					t.Errorf("len(buf2) = %d, want %d", len(buf2), len(buf1))
				}
				if &buf1[0] == &buf2[0] {
					t.Error("buffers overlap")
				}
			}
			if got != tc.want {
				t.Errorf("got %d buffers, want %d", got, tc.want)
			}
			if c.pixels != 28800/2 {
				t.Errorf("InitBuffers(pixels=%d), want %d", c.pixels, 28800/2)
			}
		})
	}
}

func TestNewErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		opts   func(o *Opts)
		budget int
		want   error
	}{
		{name: "no memory", opts: func(o *Opts) {}, budget: 100, want: ErrResourceExhausted},
		{name: "rotation", opts: func(o *Opts) { o.Rotation = 45 }, budget: -1, want: ErrConfig},
		{name: "factor", opts: func(o *Opts) { o.Factor = 0 }, budget: -1, want: ErrConfig},
		{name: "size", opts: func(o *Opts) { o.Width = 0 }, budget: -1, want: ErrConfig},
		{name: "no DC", opts: func(o *Opts) { o.DC = NoPin }, budget: -1, want: ErrConfig},
		{name: "frequency", opts: func(o *Opts) { o.Freq = 0 }, budget: -1, want: ErrConfig},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newFakeHost()
			h.budget = tc.budget
			o := testOpts()
			tc.opts(o)
			if _, err := New(h, &fakeComp{}, o); !errors.Is(err, tc.want) {
				t.Fatalf("New() = %v, want %v", err, tc.want)
			}
			if h.allocs != h.frees {
				t.Errorf("%d allocations, %d frees", h.allocs, h.frees)
			}
		})
	}
}

func TestNewSharedBus(t *testing.T) {
	h := newFakeHost()
	o := testOpts()
	o.MISO = NoPin
	d, err := New(h, &fakeComp{}, o)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if len(h.buses) != 0 || len(h.freed) != 0 {
		t.Errorf("bus initialized %v, freed %v; want untouched", h.buses, h.freed)
	}
}

func TestDeviceConfig(t *testing.T) {
	h := newFakeHost()
	d, err := New(h, &fakeComp{}, testOpts())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	if h.cfg.QueueSize != queueSize || !h.cfg.NoDummy || !h.cfg.HalfDuplex || h.cfg.CS != 13 || h.cfg.Freq != 60*physic.MegaHertz {
		t.Errorf("unexpected device config %+v", h.cfg)
	}
	if h.cfg.Pre == nil || h.cfg.Post == nil {
		t.Error("interrupt hooks not installed")
	}
}

func TestInit(t *testing.T) {
	h := newFakeHost()
	c := &fakeComp{}
	d, err := New(h, c, testOpts())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	if d.State() != Unpowered {
		t.Errorf("State() = %s before Init", d.State())
	}
	if err := d.InitWith(context.Background(), noWait); err != nil {
		t.Fatal(err)
	}
	if d.State() != Ready {
		t.Errorf("State() = %s, want Ready", d.State())
	}
	if c.display != Display(d) {
		t.Error("display not registered")
	}

	var got []record
	for _, x := range h.txs {
		if x.dc == gpio.Low {
			got = append(got, record{cmd: x.data[0]})
			continue
		}
		cur := &got[len(got)-1]
		cur.data = append(cur.data, x.data...)
	}
	if diff := cmp.Diff(got, records(initCommands(&d.opts)), cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
		t.Errorf("Init() difference (-got +want):\n%s", diff)
	}
	if h.levels[15] != gpio.Low || h.levels[14] != gpio.Low || h.levels[4] != gpio.High {
		t.Errorf("pin levels %v", h.levels)
	}
}

func TestInitCancel(t *testing.T) {
	for _, tc := range []struct {
		name string
		// cancelAt is the wait during which the context is cancelled.
		cancelAt int
		want     State
	}{
		{"before start", 0, Unpowered},
		{"power settle", 1, Unpowered},
		{"reset high", 3, InReset},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newFakeHost()
			c := &fakeComp{}
			d, err := New(h, c, testOpts())
			if err != nil {
				t.Fatal(err)
			}
			defer d.Halt()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tc.cancelAt == 0 {
				cancel()
			}
			n := 0
			wait := func(ctx context.Context, _ time.Duration) error {
				n++
				if n == tc.cancelAt {
					cancel()
					return Yield(ctx, time.Hour)
				}
				return Yield(ctx, time.Millisecond)
			}
			if err := d.InitWith(ctx, wait); !errors.Is(err, context.Canceled) {
				t.Fatalf("InitWith() = %v, want context.Canceled", err)
			}
			if d.State() != tc.want {
				t.Errorf("State() = %s, want %s", d.State(), tc.want)
			}
			if c.display != nil {
				t.Error("display registered")
			}
		})
	}
}

func TestInitTransportError(t *testing.T) {
	h := newFakeHost()
	h.failOut = 4
	c := &fakeComp{}
	d, err := New(h, c, testOpts())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	if err := d.InitWith(context.Background(), noWait); !errors.Is(err, ErrTransport) {
		t.Fatalf("InitWith() = %v, want ErrTransport", err)
	}
	if d.State() != InReset {
		t.Errorf("State() = %s, want InReset", d.State())
	}
	if len(h.txs) != 0 {
		t.Errorf("%d transactions after failed reset", len(h.txs))
	}
	if c.display != nil {
		t.Error("display registered after failure")
	}
}

func TestPowerDown(t *testing.T) {
	h := newFakeHost()
	d, err := New(h, &fakeComp{}, testOpts())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	if err := d.PowerDown(); err != nil {
		t.Fatal(err)
	}
	if h.levels[14] != gpio.High || h.levels[15] != gpio.High {
		t.Errorf("pin levels %v, want power and backlight high", h.levels)
	}
}

func TestHaltIdempotent(t *testing.T) {
	h := newFakeHost()
	c := &fakeComp{}
	d, err := New(h, c, testOpts())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.InitWith(context.Background(), noWait); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := d.Halt(); err != nil {
			t.Fatalf("Halt() #%d = %v", i, err)
		}
	}
	if h.frees != h.allocs || h.frees != 3 {
		t.Errorf("%d allocations, %d frees; want 3", h.allocs, h.frees)
	}
	if h.removed != 1 || len(h.freed) != 1 || c.removed != 1 {
		t.Errorf("device removed %d, bus freed %v, compositor removed %d; want once each", h.removed, h.freed, c.removed)
	}
	if err := d.Flush(Area{X2: 1, Y2: 1}, make([]byte, 8)); !errors.Is(err, ErrHalted) {
		t.Errorf("Flush() after Halt = %v, want ErrHalted", err)
	}
}

func TestHaltDrains(t *testing.T) {
	h := newFakeHost()
	d, err := New(h, &fakeComp{}, testOpts())
	if err != nil {
		t.Fatal(err)
	}
	buf1, _ := d.Buffers()
	if err := d.Flush(Area{X2: 9, Y2: 9}, buf1); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if len(h.results) != 0 {
		t.Errorf("%d results left after Halt", len(h.results))
	}
}

func TestHaltSynchronous(t *testing.T) {
	h := newFakeHost()
	o := testOpts()
	o.Asynchronous = false
	d, err := New(h, &fakeComp{}, o)
	if err != nil {
		t.Fatal(err)
	}
	if d.stop == nil {
		t.Fatal("service goroutine not started")
	}
	buf1, _ := d.Buffers()
	if err := d.Flush(Area{X2: 9, Y2: 9}, buf1); err != nil {
		t.Fatal(err)
	}
	if n := d.RunPending(); n != 0 {
		t.Errorf("RunPending() = %d while the service goroutine runs", n)
	}
	for deadline := time.Now().Add(time.Second); d.Transmitted() != 200; {
		if time.Now().After(deadline) {
			t.Fatalf("Transmitted() = %d, want 200", d.Transmitted())
		}
		time.Sleep(time.Millisecond)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if d.stop != nil {
		t.Error("service goroutine not stopped")
	}
}

func TestAccessors(t *testing.T) {
	o := testOpts()
	o.Rotation = 270
	d, err := New(newFakeHost(), &fakeComp{}, o)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	if x, y := d.Size(); x != 240 || y != 240 {
		t.Errorf("Size() = %d, %d", x, y)
	}
	if got := d.Bounds().Dx(); got != 240 {
		t.Errorf("Bounds().Dx() = %d", got)
	}
	if got := d.Rotation(); got != drivers.Rotation270 {
		t.Errorf("Rotation() = %d", got)
	}
	if got, want := d.String(), "GC9A01{240x240, Unpowered}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := fmt.Sprint(d.CPUFrequency()); got != "240MHz" {
		t.Errorf("CPUFrequency() = %s", got)
	}
}
