// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is the controller used on real hosts. The first error sticks
// and turns every later step into a no-op.
type errorHandler struct {
	d       *Dev
	ctx     context.Context
	suspend WaitFunc
	err     error
}

func (eh *errorHandler) enter(s State) {
	if eh.err != nil {
		return
	}
	eh.d.state = s
}

func (eh *errorHandler) configureOutput(p Pin) {
	if eh.err != nil {
		return
	}
	if err := eh.d.host.ConfigureOutput(p); err != nil {
		eh.err = fmt.Errorf("gc9a01: configure pin %d: %w: %w", p, ErrTransport, err)
	}
}

func (eh *errorHandler) out(p Pin, l gpio.Level) {
	if eh.err != nil {
		return
	}
	if err := eh.d.host.Out(p, l); err != nil {
		eh.err = fmt.Errorf("gc9a01: set pin %d %s: %w: %w", p, l, ErrTransport, err)
	}
}

func (eh *errorHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.bus.sendCommand(cmd)
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.bus.sendData(data)
}

func (eh *errorHandler) wait(d time.Duration) {
	if eh.err != nil {
		return
	}
	eh.err = eh.suspend(eh.ctx, d)
}

func (eh *errorHandler) register() {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.register()
}
