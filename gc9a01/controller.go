// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// State is the step of the power-on sequence the driver is in.
type State uint8

// Power-on states, in order.
const (
	Unpowered State = iota
	Powered
	InReset
	PostReset
	Configuring
	Ready
)

func (s State) String() string {
	switch s {
	case Unpowered:
		return "Unpowered"
	case Powered:
		return "Powered"
	case InReset:
		return "InReset"
	case PostReset:
		return "PostReset"
	case Configuring:
		return "Configuring"
	case Ready:
		return "Ready"
	}
	return "State(?)"
}

// settleDelay is the time given to the power and reset lines.
const settleDelay = 100 * time.Millisecond

// WaitFunc suspends the power-on sequence for d.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep blocks the calling goroutine for d.
func Sleep(_ context.Context, d time.Duration) error {
	time.Sleep(d)
	return nil
}

// Yield parks the calling goroutine for d, returning early with the context
// error when ctx is done.
func Yield(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type controller interface {
	enter(State)
	configureOutput(Pin)
	out(Pin, gpio.Level)
	sendCommand(byte)
	sendData([]byte)
	wait(time.Duration)
	register()
}

// initDisplay walks the controller from Unpowered to Ready. Errors are
// tracked by ctrl; once one occurred the remaining steps do nothing.
func initDisplay(ctrl controller, o *Opts, cmds []initCmd) {
	for _, p := range []Pin{o.DC, o.RST, o.Backlight, o.Power} {
		if p != NoPin {
			ctrl.configureOutput(p)
		}
	}

	if o.Power != NoPin {
		ctrl.out(o.Power, o.PowerOn)
		ctrl.wait(settleDelay)
	}
	ctrl.enter(Powered)

	if o.RST != NoPin {
		ctrl.enter(InReset)
		ctrl.out(o.RST, gpio.Low)
		ctrl.wait(settleDelay)
		ctrl.out(o.RST, gpio.High)
		ctrl.wait(settleDelay)
	}
	ctrl.enter(PostReset)

	ctrl.enter(Configuring)
	for _, c := range cmds {
		ctrl.sendCommand(c.cmd)
		if len(c.data) != 0 {
			ctrl.sendData(c.data)
		}
		if c.delay > 0 {
			ctrl.wait(c.delay)
		}
	}

	if o.Backlight != NoPin {
		ctrl.out(o.Backlight, o.BacklightOn)
	}
	ctrl.register()
	ctrl.enter(Ready)
}
