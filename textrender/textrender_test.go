// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textrender

import (
	"testing"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/raster"
)

func countDark(im *raster.Image) int {
	n := 0
	for y := 0; y < im.Height(); y++ {
		for x := 0; x < im.Width(); x++ {
			c := im.At(x, y)
			if c.R < 128 && c.G < 128 && c.B < 128 {
				n++
			}
		}
	}
	return n
}

func TestDrawLeftAlignedPaintsDarkPixels(t *testing.T) {
	im := raster.NewRGBA(64, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 64; x++ {
			im.Set(x, y, colormodel.RGBA{255, 255, 255, 255})
		}
	}
	Draw("Hi", im, 2, 10, Style{Font: Mono6x6, Alignment: Left, Color: colormodel.RGBA{A: 255}})
	if countDark(im) == 0 {
		t.Error("Draw did not paint any dark pixels")
	}
}

func TestDrawAlignmentShiftsStartingPosition(t *testing.T) {
	left := raster.NewRGBA(64, 16)
	right := raster.NewRGBA(64, 16)
	for _, im := range []*raster.Image{left, right} {
		for y := 0; y < 16; y++ {
			for x := 0; x < 64; x++ {
				im.Set(x, y, colormodel.RGBA{255, 255, 255, 255})
			}
		}
	}
	Draw("ABC", left, 32, 10, Style{Font: Mono6x6, Alignment: Left, Color: colormodel.RGBA{A: 255}})
	Draw("ABC", right, 32, 10, Style{Font: Mono6x6, Alignment: Right, Color: colormodel.RGBA{A: 255}})

	leftmostDark := func(im *raster.Image) int {
		for x := 0; x < im.Width(); x++ {
			for y := 0; y < im.Height(); y++ {
				c := im.At(x, y)
				if c.R < 128 {
					return x
				}
			}
		}
		return -1
	}
	lx := leftmostDark(left)
	rx := leftmostDark(right)
	if lx < 0 || rx < 0 {
		t.Fatal("expected dark pixels in both images")
	}
	if rx >= lx {
		t.Errorf("right-aligned text started at x=%d, want less than left-aligned start x=%d", rx, lx)
	}
}
