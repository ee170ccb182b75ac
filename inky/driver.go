// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"context"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/inkyerr"
	"github.com/inkylab/inkyserver/raster"
)

// Driver is the contract every concrete Inky panel implementation
// satisfies: configure the next frame's pixels and border, then push the
// frame to the panel (or, for the simulated driver, to a file) and block
// until the hardware handshake completes.
type Driver interface {
	// Info returns the panel's detected or configured DisplayInfo.
	Info() DisplayInfo

	// SetImage scales src to the panel with aspect-preserving Fill,
	// quantizes it against the panel's color map using settings and stages
	// it as the next frame. It does not touch the hardware.
	SetImage(src *raster.Image, settings dither.Settings) error

	// SetBorder selects the border ink painted around the next Show. Names
	// absent from the panel's palette fall back to White.
	SetBorder(c colormodel.ColorName)

	// Show pushes the staged frame to the panel and blocks until the busy
	// handshake reports the refresh is complete, or ctx is done.
	Show(ctx context.Context) error

	// Close releases any bus or pin resources the driver holds.
	Close() error
}

// stageFrame runs the shared SetImage pipeline: expand an Indexed source
// back to RGBA, scale to the panel's dimensions (aspect-preserving Fill,
// kernel chosen by enlarge/reduce), then dither down to the panel's palette.
// The result is always panel-sized and palette-matched.
func stageFrame(info DisplayInfo, src *raster.Image, settings dither.Settings) (*raster.Image, error) {
	if src == nil || src.Width() == 0 || src.Height() == 0 {
		return nil, inkyerr.Invalid("inky.SetImage", "source image must not be empty")
	}
	work := src
	if work.Format() == raster.Indexed {
		work = work.ToRGBA()
	}
	if work.Width() != info.Width || work.Height() != info.Height {
		work = work.Scale(info.Width, info.Height, raster.ScaleSettings{
			ScaleMode:       raster.Fill,
			Interpolation:   raster.Auto,
			BackgroundColor: colormodel.RGBA{R: 255, G: 255, B: 255, A: 255},
		})
	}
	return work.ToIndexed(info.ColorMap(), settings)
}

// generatePackedPlane packs img's pixels into one bit each, set iff the
// pixel's palette index equals color, reusing packed's storage when it is
// large enough. Whole groups of 8 pixels pack MSB-first; when width*height
// is not a multiple of 8 the final partial byte packs its remaining pixels
// LSB-first instead, a quirk of the panels' established wire format that
// is preserved for compatibility.
func generatePackedPlane(img *raster.Image, packed []byte, color uint8) []byte {
	n := img.Width() * img.Height()
	whole := n / 8
	size := whole
	if n%8 != 0 {
		size++
	}
	if cap(packed) < size {
		packed = make([]byte, size)
	}
	packed = packed[:size]

	data := img.Data()
	for i := 0; i < whole; i++ {
		var b byte
		for bit := 0; bit < 8; bit++ {
			if data[i*8+bit] == color {
				b |= 1 << (7 - uint(bit))
			}
		}
		packed[i] = b
	}
	if tail := n % 8; tail > 0 {
		var b byte
		for bit := 0; bit < tail; bit++ {
			if data[whole*8+bit] == color {
				b |= 1 << uint(bit)
			}
		}
		packed[whole] = b
	}
	return packed
}
