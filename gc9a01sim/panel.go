// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01sim

import (
	"image"
	"image/color"
	"sync"
)

// Controller commands understood by Panel.
const (
	cmdSleepOut     byte = 0x11
	cmdInvertOff    byte = 0x20
	cmdInvertOn     byte = 0x21
	cmdDisplayOff   byte = 0x28
	cmdDisplayOn    byte = 0x29
	cmdColumnSet    byte = 0x2A
	cmdRowSet       byte = 0x2B
	cmdMemoryWrite  byte = 0x2C
	cmdAccessCtl    byte = 0x36
	cmdPixelFormat  byte = 0x3A
	cmdWriteMore    byte = 0x3C
)

// Panel emulates the display memory of a GC9A01 driven in RGB565.
//
// It implements image.Image; At decodes the memory as it would show on the
// glass, ignoring rotation. The glass is an IPS panel that shows colors
// correctly only while display inversion is on.
type Panel struct {
	w, h int

	mu        sync.Mutex
	fb        []byte
	cmd       byte
	args      []byte
	x1, x2    int
	y1, y2    int
	x, y      int
	half      int // first byte of a pixel split across transfers, or -1
	writing   bool
	awake     bool
	on        bool
	inverted  bool
	madctl    byte
	format    byte
	commands  int
	pixelsOut int
}

// NewPanel returns a blank w x h panel.
func NewPanel(w, h int) *Panel {
	return &Panel{
		w:    w,
		h:    h,
		fb:   make([]byte, w*h*2),
		x2:   w - 1,
		y2:   h - 1,
		half: -1,
	}
}

// Command feeds a byte sent with DC low.
func (p *Panel) Command(b byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands++
	p.cmd = b
	p.args = p.args[:0]
	p.writing = false
	p.half = -1
	switch b {
	case cmdSleepOut:
		p.awake = true
	case cmdInvertOff:
		p.inverted = false
	case cmdInvertOn:
		p.inverted = true
	case cmdDisplayOff:
		p.on = false
	case cmdDisplayOn:
		p.on = true
	case cmdMemoryWrite:
		p.x, p.y = p.x1, p.y1
		p.writing = true
	case cmdWriteMore:
		p.writing = true
	}
}

// Data feeds bytes sent with DC high.
func (p *Panel) Data(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writing {
		p.pixels(b)
		return
	}
	p.args = append(p.args, b...)
	switch p.cmd {
	case cmdColumnSet:
		if len(p.args) >= 4 {
			p.x1, p.x2 = word(p.args[0:]), word(p.args[2:])
		}
	case cmdRowSet:
		if len(p.args) >= 4 {
			p.y1, p.y2 = word(p.args[0:]), word(p.args[2:])
		}
	case cmdAccessCtl:
		p.madctl = p.args[0]
	case cmdPixelFormat:
		p.format = p.args[0]
	}
}

func word(b []byte) int {
	return int(b[0])<<8 | int(b[1])
}

// pixels writes into the window, wrapping at its right edge. p.mu is held.
func (p *Panel) pixels(b []byte) {
	for _, v := range b {
		if p.half < 0 {
			p.half = int(v)
			continue
		}
		hi := byte(p.half)
		p.half = -1
		if p.x < p.w && p.y < p.h && p.x <= p.x2 && p.y <= p.y2 {
			i := 2 * (p.y*p.w + p.x)
			p.fb[i], p.fb[i+1] = hi, v
			p.pixelsOut++
		}
		if p.x++; p.x > p.x2 {
			p.x = p.x1
			if p.y++; p.y > p.y2 {
				p.y = p.y1
			}
		}
	}
}

// State is a summary of the controller registers.
type State struct {
	Awake, On, Inverted bool
	MADCTL, Format      byte
	Window              image.Rectangle
	Commands            int
	Pixels              int
}

// State returns the controller registers.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Awake:    p.awake,
		On:       p.on,
		Inverted: p.inverted,
		MADCTL:   p.madctl,
		Format:   p.format,
		Window:   image.Rect(p.x1, p.y1, p.x2+1, p.y2+1),
		Commands: p.commands,
		Pixels:   p.pixelsOut,
	}
}

// ColorModel implements image.Image.
func (p *Panel) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (p *Panel) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.w, p.h)
}

// At implements image.Image.
func (p *Panel) At(x, y int) color.Color {
	if !image.Pt(x, y).In(p.Bounds()) {
		return color.RGBA{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.at(x, y)
}

func (p *Panel) at(x, y int) color.RGBA {
	i := 2 * (y*p.w + x)
	v := uint16(p.fb[i])<<8 | uint16(p.fb[i+1])
	if !p.inverted {
		v = ^v
	}
	r := byte(v>>11) << 3
	g := byte(v>>5&0x3F) << 2
	b := byte(v&0x1F) << 3
	return color.RGBA{r | r>>5, g | g>>6, b | b>>5, 0xFF}
}

// Snapshot returns a copy of the panel content.
func (p *Panel) Snapshot() *image.RGBA {
	img := image.NewRGBA(p.Bounds())
	p.mu.Lock()
	defer p.mu.Unlock()
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			img.SetRGBA(x, y, p.at(x, y))
		}
	}
	return img
}
