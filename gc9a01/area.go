// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01

import (
	"fmt"
	"image"
)

// Area is a rectangle in panel coordinates. Unlike image.Rectangle both
// corners are inclusive, as in the controller's address window.
type Area struct {
	X1, Y1, X2, Y2 int
}

// AreaOf converts r to an Area.
func AreaOf(r image.Rectangle) Area {
	return Area{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X - 1, Y2: r.Max.Y - 1}
}

// Rect converts a to an image.Rectangle.
func (a Area) Rect() image.Rectangle {
	return image.Rect(a.X1, a.Y1, a.X2+1, a.Y2+1)
}

// Pixels returns the number of pixels in a.
func (a Area) Pixels() int {
	return (a.X2 - a.X1 + 1) * (a.Y2 - a.Y1 + 1)
}

// In reports whether a is a valid area of a w x h panel.
func (a Area) In(w, h int) bool {
	return 0 <= a.X1 && a.X1 <= a.X2 && a.X2 < w &&
		0 <= a.Y1 && a.Y1 <= a.Y2 && a.Y2 < h
}

func (a Area) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", a.X1, a.Y1, a.X2, a.Y2)
}
