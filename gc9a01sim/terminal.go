// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01sim

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options of a Terminal.
type TerminalOpts struct {
	// Step is the number of panel pixels per character cell, 8 when zero.
	Step    int
	Palette *ansi256.Palette
	// W defaults to stdout.
	W io.Writer
}

// Terminal draws a downscaled panel on a terminal using ANSI color codes.
type Terminal struct {
	w       io.Writer
	step    int
	palette ansi256.Palette

	buf bytes.Buffer
}

// NewTerminal returns a Terminal.
func NewTerminal(opts *TerminalOpts) *Terminal {
	var o TerminalOpts
	if opts != nil {
		o = *opts
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	t := &Terminal{w: o.W, step: o.Step, palette: *p}
	if t.w == nil {
		t.w = colorable.NewColorableStdout()
	}
	if t.step <= 0 {
		t.step = 8
	}
	return t
}

func (t *Terminal) String() string {
	return fmt.Sprintf("Terminal{1:%d}", t.step)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

// Draw renders img from the top left corner of the terminal.
func (t *Terminal) Draw(img image.Image) error {
	// This code is designed to minimize the amount of memory allocated per call.
	t.buf.Reset()
	_, _ = t.buf.WriteString("\033[H\033[0m")
	r := img.Bounds()
	for y := r.Min.Y + t.step/2; y < r.Max.Y; y += t.step {
		for x := r.Min.X + t.step/2; x < r.Max.X; x += t.step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			_, _ = io.WriteString(&t.buf, t.palette.Block(c))
		}
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}
