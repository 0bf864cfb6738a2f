// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// gc9a01demo animates a test card on a GC9A01 round display.
//
// With -sim the display is emulated and drawn on the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01sim"
	"github.com/minyiky/lvgl-esp32-gc9a01/periphhost"
	"github.com/minyiky/lvgl-esp32-gc9a01/stripe"
	"periph.io/x/conn/v3/physic"
)

var (
	sim       = flag.Bool("sim", false, "emulate the display on the terminal")
	port      = flag.String("spi", "", "SPI port to use, first available when empty")
	freq      = flag.Int("freq", 60, "SPI clock in MHz")
	rotation  = flag.Int("rotation", 0, "rotation in degrees")
	bgr       = flag.Bool("bgr", false, "panel uses BGR color order")
	invert    = flag.Bool("invert", false, "invert the display once more")
	single    = flag.Bool("single", false, "use a single draw buffer")
	factor    = flag.Int("factor", 4, "draw buffer is the screen size divided by this")
	fps       = flag.Int("fps", 10, "frames per second")
	frames    = flag.Int("frames", 0, "stop after that many frames, 0 runs until interrupted")
	dc        = flag.Int("dc", int(gc9a01.DefaultOpts.DC), "DC GPIO")
	rst       = flag.Int("rst", int(gc9a01.DefaultOpts.RST), "reset GPIO, -1 if not wired")
	power     = flag.Int("power", int(gc9a01.DefaultOpts.Power), "power GPIO, -1 if not wired")
	backlight = flag.Int("backlight", int(gc9a01.DefaultOpts.Backlight), "backlight GPIO, -1 if not wired")
)

func main() {
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %q\n", flag.Args())
		os.Exit(2)
	}
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "gc9a01demo: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	o := gc9a01.DefaultOpts
	o.Freq = physic.Frequency(*freq) * physic.MegaHertz
	o.Rotation = *rotation
	o.Invert = *invert
	o.Factor = *factor
	o.DoubleBuffer = !*single
	o.DC = gc9a01.Pin(*dc)
	o.RST = gc9a01.Pin(*rst)
	o.Power = gc9a01.Pin(*power)
	o.Backlight = gc9a01.Pin(*backlight)
	if *bgr {
		o.ColorMode = gc9a01.ColorBGR
	}

	var h gc9a01.Host
	var panel *gc9a01sim.Panel
	var term *gc9a01sim.Terminal
	if *sim {
		so := gc9a01sim.DefaultOpts
		so.DC = o.DC
		so.Async = true
		so.Record = false
		s := gc9a01sim.New(&so)
		h = s
		panel = s.Panel()
		term = gc9a01sim.NewTerminal(nil)
		defer term.Halt()
	} else {
		// The kernel owns the spidev pins and drives chip select.
		o.MISO, o.MOSI, o.CLK = gc9a01.NoPin, gc9a01.NoPin, gc9a01.NoPin
		o.CS = gc9a01.NoPin
		p, err := periphhost.Open(&periphhost.Opts{PortName: *port})
		if err != nil {
			return err
		}
		h = p
	}

	r := stripe.New()
	d, err := gc9a01.New(h, r, &o)
	if err != nil {
		return err
	}
	defer d.Halt()
	log.Printf("%s on %s, %s", d, h, r)

	t := time.NewTicker(time.Second / time.Duration(*fps))
	defer t.Stop()
	stats := time.NewTicker(time.Second)
	defer stats.Stop()
	w, hh := d.Size()
	for n := 0; *frames == 0 || n < *frames; n++ {
		img, err := stripe.TestCard(int(w), int(hh), "GC9A01", float64(n)*2*math.Pi/float64(4**fps))
		if err != nil {
			return err
		}
		overlay(img, fmt.Sprintf("#%d", n))
		if err := r.Draw(ctx, img); err != nil {
			return err
		}
		if term != nil {
			if err := r.Wait(ctx); err != nil {
				return err
			}
			if err := term.Draw(panel); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-stats.C:
			report(d)
		case <-t.C:
		}
	}
	return r.Wait(ctx)
}

// overlay writes a frame counter near the bottom of img when it can be
// drawn on.
func overlay(img image.Image, s string) {
	dst, ok := img.(draw.Image)
	if !ok {
		return
	}
	b := dst.Bounds()
	stripe.Label(dst, image.Pt(b.Min.X+b.Dx()/2-len(s)*7/2, b.Max.Y-30), s, color.White)
}

func report(d *gc9a01.Dev) {
	s, ok := d.Stat()
	if !ok {
		return
	}
	f := d.CPUFrequency()
	log.Printf("%s setup %s dma %s, %d transfers done, %d dropped, %d bytes",
		&s, s.SetupTime(f), s.DMATime(f), d.Completed(), d.Dropped(), d.Transmitted())
}
