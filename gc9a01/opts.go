// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Pin is a platform GPIO number.
type Pin int

// NoPin marks a line that is not wired.
const NoPin Pin = -1

// ColorMode selects the RGB/BGR bit of the memory access control register.
type ColorMode byte

// Possible color orders.
const (
	ColorRGB ColorMode = 0x08
	ColorBGR ColorMode = 0x00
)

// bytesPerPixel is the size of one RGB565 pixel.
const bytesPerPixel = 2

// rotations maps a rotation in degrees to the MADCTL scan direction bits.
var rotations = map[int]byte{
	0:   0x10,
	90:  0x20,
	180: 0x40,
	270: 0x80,
}

// Opts is the configuration of the display and the bus it hangs off.
//
// It is read once by New and never modified afterwards.
type Opts struct {
	// SPI bus lines. If any of them is NoPin the bus is assumed to be already
	// initialized by someone else and is left alone.
	MISO Pin
	MOSI Pin
	CLK  Pin

	// Device lines. RST, Power and Backlight are optional.
	CS        Pin
	DC        Pin
	RST       Pin
	Power     Pin
	Backlight Pin

	// Levels that switch power and backlight on. Most breakout boards drive
	// both through a PNP transistor, so the default is gpio.Low.
	PowerOn     gpio.Level
	BacklightOn gpio.Level

	// SPIHost selects the platform's SPI controller.
	SPIHost int
	// Freq is the SPI clock. The GC9A01 is rated for 100MHz but many modules
	// do not accept more than 60MHz.
	Freq physic.Frequency
	// Mode is the SPI mode. The controller samples on the rising edge.
	Mode spi.Mode
	// HalfDuplex disables the MISO phase of every transaction.
	HalfDuplex bool

	// Panel size in pixels.
	Width  int
	Height int
	// Rotation in degrees, one of 0, 90, 180 or 270. It sets the scan
	// direction bits of the memory access control register: 0x10, 0x20, 0x40
	// or 0x80, combined with ColorMode. The default therefore sends 0x18.
	// Drivers that hardcode 0x48 in that register match Rotation 180; code
	// ported from them needs it to keep the same orientation.
	Rotation  int
	ColorMode ColorMode
	// Invert appends the display inversion command to the init sequence.
	Invert bool

	// Factor divides the full frame size to get the size of each draw
	// buffer. 4 means a buffer holds a quarter of the screen.
	Factor int
	// DoubleBuffer allocates a second buffer so the framework can render
	// while the first one is being sent.
	DoubleBuffer bool

	// Asynchronous leaves scheduling of deferred bookkeeping to the caller,
	// who must then call Dev.RunPending. When false the driver runs its own
	// service goroutine and registers a finalizer that tears it down.
	Asynchronous bool
	// Initialize runs Init from New. When false the caller runs Init or
	// InitContext.
	Initialize bool
}

// DefaultOpts matches the common ESP32 wiring of the round 1.28" module.
var DefaultOpts = Opts{
	MISO:         5,
	MOSI:         18,
	CLK:          19,
	CS:           13,
	DC:           12,
	RST:          4,
	Power:        14,
	Backlight:    15,
	PowerOn:      gpio.Low,
	BacklightOn:  gpio.Low,
	SPIHost:      1,
	Freq:         60 * physic.MegaHertz,
	Mode:         spi.Mode0,
	HalfDuplex:   true,
	Width:        240,
	Height:       240,
	Rotation:     0,
	ColorMode:    ColorRGB,
	Factor:       4,
	DoubleBuffer: true,
	Initialize:   true,
}

// validate checks the configuration values that would otherwise only fail on
// the hardware.
func (o *Opts) validate() error {
	if _, ok := rotations[o.Rotation]; !ok {
		return fmt.Errorf("gc9a01: rotation must be 0, 90, 180 or 270, got %d: %w", o.Rotation, ErrConfig)
	}
	if o.Width <= 0 || o.Height <= 0 || o.Width > 0xFFFF || o.Height > 0xFFFF {
		return fmt.Errorf("gc9a01: invalid size %dx%d: %w", o.Width, o.Height, ErrConfig)
	}
	if o.Factor < 1 {
		return fmt.Errorf("gc9a01: buffer factor must be at least 1, got %d: %w", o.Factor, ErrConfig)
	}
	if o.Freq <= 0 {
		return fmt.Errorf("gc9a01: invalid SPI clock %s: %w", o.Freq, ErrConfig)
	}
	if o.DC == NoPin {
		return fmt.Errorf("gc9a01: the DC line is required: %w", ErrConfig)
	}
	if o.ColorMode != ColorRGB && o.ColorMode != ColorBGR {
		return fmt.Errorf("gc9a01: invalid color mode %#x: %w", byte(o.ColorMode), ErrConfig)
	}
	return nil
}

// madctl returns the memory access control value for the configured
// rotation and color order.
func (o *Opts) madctl() byte {
	return rotations[o.Rotation] | byte(o.ColorMode)
}

// bufferSize returns the size in bytes of each draw buffer.
func (o *Opts) bufferSize() int {
	return o.Width * o.Height * bytesPerPixel / o.Factor
}
