// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stripe

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Bars are the colors of the test card, left to right.
var Bars = []color.RGBA{
	{0xFF, 0xFF, 0xFF, 0xFF},
	{0xFF, 0xFF, 0x00, 0xFF},
	{0x00, 0xFF, 0xFF, 0xFF},
	{0x00, 0xFF, 0x00, 0xFF},
	{0xFF, 0x00, 0xFF, 0xFF},
	{0xFF, 0x00, 0x00, 0xFF},
	{0x00, 0x00, 0xFF, 0xFF},
	{0x00, 0x00, 0x00, 0xFF},
}

var regular = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// TestCard returns a w x h image of vertical color bars with a ring that
// touches the edge of a round panel, and label centered on top.
//
// angle, in radians, places a dot on the ring so successive frames show
// motion.
func TestCard(w, h int, label string, angle float64) (image.Image, error) {
	f, err := regular()
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	bw := float64(w) / float64(len(Bars))
	for i, c := range Bars {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*bw, 0, bw+1, float64(h))
		dc.Fill()
	}

	cx, cy := float64(w)/2, float64(h)/2
	radius := math.Min(cx, cy) - 6
	dc.SetRGB(0.5, 0.5, 0.5)
	dc.SetLineWidth(4)
	dc.DrawCircle(cx, cy, radius)
	dc.Stroke()
	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(cx+radius*math.Cos(angle), cy+radius*math.Sin(angle), 6)
	dc.Fill()

	if label != "" {
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: float64(h) / 10}))
		tw, th := dc.MeasureString(label)
		dc.SetRGBA(0, 0, 0, 0.75)
		dc.DrawRoundedRectangle(cx-tw/2-8, cy-th/2-8, tw+16, th+16, 8)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(label, cx, cy, 0.5, 0.5)
	}
	return dc.Image(), nil
}

// Label draws text in a small fixed font with its baseline at pt.
func Label(dst draw.Image, pt image.Point, text string, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(text)
}
