// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stripe is a minimal compositor for the gc9a01 driver.
//
// It converts an image.Image to RGB565 in horizontal bands the height of
// one draw buffer and flushes each band while rendering the next one into
// the other buffer.
package stripe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/aykevl/tinygl/pixel"
	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
)

// ErrNoDisplay is returned when drawing before a display registered.
var ErrNoDisplay = errors.New("stripe: no display registered")

// Renderer implements gc9a01.Compositor.
type Renderer struct {
	// done receives one token per FlushReady. Its capacity is the number of
	// buffers so the send never blocks.
	done chan struct{}

	mu       sync.Mutex
	bufs     [][]byte
	pixels   int
	disp     gc9a01.Display
	next     int
	inflight int
	frames   int
}

// New returns a Renderer ready to be passed to gc9a01.New.
func New() *Renderer {
	return &Renderer{done: make(chan struct{}, 2)}
}

func (r *Renderer) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("stripe{%d buffers, %d px}", len(r.bufs), r.pixels)
}

// InitBuffers implements gc9a01.Compositor.
func (r *Renderer) InitBuffers(buf1, buf2 []byte, pixels int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bufs = r.bufs[:0]
	if buf1 != nil {
		r.bufs = append(r.bufs, buf1)
	}
	if buf2 != nil {
		r.bufs = append(r.bufs, buf2)
	}
	r.pixels = pixels
	r.next = 0
	r.inflight = 0
}

// Register implements gc9a01.Compositor.
func (r *Renderer) Register(d gc9a01.Display) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bufs) == 0 {
		return errors.New("stripe: no draw buffer")
	}
	if x, _ := d.Size(); int(x) > r.pixels {
		return fmt.Errorf("stripe: a %d px buffer cannot hold a %d px row", r.pixels, x)
	}
	r.disp = d
	return nil
}

// Remove implements gc9a01.Compositor.
func (r *Renderer) Remove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disp = nil
}

// FlushReady implements gc9a01.Compositor.
//
// It is safe to call from any goroutine, including while Draw is running.
func (r *Renderer) FlushReady() {
	select {
	case r.done <- struct{}{}:
	default:
	}
}

// Frames returns the number of images drawn.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Draw sends the whole of img to the display, img.Bounds().Min mapping to
// the top left pixel. Pixels not covered by img are black.
func (r *Renderer) Draw(ctx context.Context, img image.Image) error {
	r.mu.Lock()
	d := r.disp
	r.mu.Unlock()
	if d == nil {
		return ErrNoDisplay
	}
	w, h := d.Size()
	return r.DrawRect(ctx, image.Rect(0, 0, int(w), int(h)), img, img.Bounds().Min)
}

// DrawRect sends the part of img starting at sp to rect on the display.
//
// It returns once the last band was handed to the display, which may still
// be sending it. Use Wait to know when all the buffers are free.
func (r *Renderer) DrawRect(ctx context.Context, rect image.Rectangle, img image.Image, sp image.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disp == nil {
		return ErrNoDisplay
	}
	w, h := r.disp.Size()
	rect = rect.Intersect(image.Rect(0, 0, int(w), int(h)))
	if rect.Empty() {
		return nil
	}
	start := time.Now()
	rows := r.pixels / rect.Dx()
	for y := rect.Min.Y; y < rect.Max.Y; y += rows {
		band := rect
		band.Min.Y = y
		if band.Max.Y > y+rows {
			band.Max.Y = y + rows
		}
		buf, err := r.acquire(ctx)
		if err != nil {
			return err
		}
		n := convert(buf, img, band, sp.Add(band.Min.Sub(rect.Min)))
		if err := r.disp.Flush(gc9a01.AreaOf(band), buf[:n]); err != nil {
			r.release()
			return err
		}
	}
	r.frames++
	r.disp.Monitor(time.Since(start), rect.Dx()*rect.Dy())
	return nil
}

// Wait returns once every flushed buffer was released by the display.
func (r *Renderer) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.inflight > 0 {
		if err := r.reap(ctx); err != nil {
			return err
		}
	}
	return nil
}

// acquire returns the next draw buffer, waiting for the display to release
// it if needed. r.mu is held.
func (r *Renderer) acquire(ctx context.Context) ([]byte, error) {
	if r.inflight == len(r.bufs) {
		if err := r.reap(ctx); err != nil {
			return nil, err
		}
	}
	buf := r.bufs[r.next]
	r.next = (r.next + 1) % len(r.bufs)
	r.inflight++
	return buf, nil
}

// release gives back the buffer returned by the last acquire.
func (r *Renderer) release() {
	r.next = (r.next + len(r.bufs) - 1) % len(r.bufs)
	r.inflight--
}

// reap waits for one FlushReady.
func (r *Renderer) reap(ctx context.Context) error {
	select {
	case <-r.done:
		r.inflight--
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// convert writes the pixels of img at sp into buf as big endian RGB565,
// band.Dx() by band.Dy(). It returns the number of bytes written.
func convert(buf []byte, img image.Image, band image.Rectangle, sp image.Point) int {
	b := img.Bounds()
	i := 0
	for y := 0; y < band.Dy(); y++ {
		for x := 0; x < band.Dx(); x++ {
			p := image.Pt(sp.X+x, sp.Y+y)
			var c color.RGBA
			if p.In(b) {
				c = rgba(img, p)
			}
			v := pixel.NewColor[pixel.RGB565BE](c.R, c.G, c.B)
			binary.LittleEndian.PutUint16(buf[i:], uint16(v))
			i += 2
		}
	}
	return i
}

func rgba(img image.Image, p image.Point) color.RGBA {
	if src, ok := img.(*image.RGBA); ok {
		return src.RGBAAt(p.X, p.Y)
	}
	return color.RGBAModel.Convert(img.At(p.X, p.Y)).(color.RGBA)
}

var _ gc9a01.Compositor = &Renderer{}
