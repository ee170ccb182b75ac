// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dither quantizes a continuous-tone raster.Image down to a panel's
// indexed color map, either by Floyd-Steinberg error diffusion in CIE
// L*a*b* space or by ordered ("pattern") dithering against a fixed
// gray-value-keyed lookup table.
package dither

import (
	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/inkyerr"
	"github.com/inkylab/inkyserver/raster"
)

// Mode selects which dithering algorithm Apply uses.
type Mode int

const (
	// Diffusion applies Floyd-Steinberg error diffusion.
	Diffusion Mode = iota
	// Pattern applies ordered dithering against a gray-value-keyed LUT.
	Pattern
)

// Settings configures a dithering pass.
type Settings struct {
	Mode Mode
	// Accuracy scales how much of the diffused error is carried forward
	// under Diffusion. It is clamped to [0,1]; 1.0 is full classical
	// Floyd-Steinberg, lower values trade dither fidelity for a visually
	// cleaner (flatter) result.
	Accuracy float64
}

// DefaultSettings matches the Inky driver core's SetImage default.
func DefaultSettings() Settings {
	return Settings{Mode: Diffusion, Accuracy: 0.75}
}

// Quantize implements raster.Quantizer, letting a Settings value be passed
// directly to raster.Image.ToIndexed.
func (s Settings) Quantize(src *raster.Image, colorMap colormodel.IndexedColorMap) (*raster.Image, error) {
	return Apply(src, colorMap, s)
}

// Apply quantizes src against colorMap using the algorithm settings
// describes, returning a new Indexed raster.Image the same size as src. It
// fails with InvalidArgument -- leaving no destination to touch -- if src is
// not an RGBA image or colorMap has no entries.
func Apply(src *raster.Image, colorMap colormodel.IndexedColorMap, settings Settings) (*raster.Image, error) {
	const op = "dither.Apply"
	if src.Format() != raster.RGBA {
		return nil, inkyerr.Invalid(op, "source image must be RGBA")
	}
	if len(colorMap.Colors) == 0 {
		return nil, inkyerr.Invalid(op, "color map must not be empty")
	}
	switch settings.Mode {
	case Pattern:
		return applyPattern(src, colorMap), nil
	default:
		return applyDiffusion(src, colorMap, settings.Accuracy), nil
	}
}

// isBlackWhite reports whether colorMap is a plain two-entry Black/White
// palette, the condition under which diffusion dithering preprocesses source
// pixels through their gray value rather than their full color. (Pattern
// dithering always keys on the gray value and does not consult it.)
func isBlackWhite(colorMap colormodel.IndexedColorMap) bool {
	if len(colorMap.Colors) != 2 {
		return false
	}
	_, hasBlack := colorMap.ByName(colormodel.Black)
	_, hasWhite := colorMap.ByName(colormodel.White)
	return hasBlack && hasWhite
}

// applyPattern implements ordered dithering: every pixel's gray value
// selects a row of the 17x16 dispersed-dot LUT (patternLUT), and the pixel's
// position within its 4x4 tile selects the column. The LUT always yields
// Black or White, regardless of what colorMap actually contains -- pattern
// dithering ignores any non-BW palette by design.
func applyPattern(src *raster.Image, colorMap colormodel.IndexedColorMap) *raster.Image {
	dst := raster.NewIndexed(src.Width(), src.Height(), colorMap)
	black, hasBlack := colorMap.ByName(colormodel.Black)
	white, hasWhite := colorMap.ByName(colormodel.White)
	if !hasBlack {
		black = colormodel.IndexedColor{Name: colormodel.Black, Index: 1, RGBA: colormodel.RGBA{A: 255}}
	}
	if !hasWhite {
		white = colormodel.IndexedColor{Name: colormodel.White, Index: 0, RGBA: colormodel.RGBA{R: 255, G: 255, B: 255, A: 255}}
	}
	for y := 0; y < src.Height(); y++ {
		for x := 0; x < src.Width(); x++ {
			g := src.At(x, y).GreyValue()
			if patternWhite(g, x, y) {
				dst.SetIndex(x, y, white.Index)
			} else {
				dst.SetIndex(x, y, black.Index)
			}
		}
	}
	return dst
}

// applyDiffusion implements Floyd-Steinberg error diffusion in Lab space
// with the classical kernel weights (7/16 east, 3/16 south-west, 5/16
// south, 1/16 south-east), scaling the carried-forward error by accuracy.
// Against a BW target, every source pixel is first collapsed to its gray
// triple {g,g,g,255} before conversion to Lab, so diffusion reasons about
// luminance alone rather than letting hue noise perturb which side of the
// Black/White threshold a pixel lands on.
func applyDiffusion(src *raster.Image, colorMap colormodel.IndexedColorMap, accuracy float64) *raster.Image {
	if accuracy <= 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}

	w, h := src.Width(), src.Height()
	dst := raster.NewIndexed(w, h, colorMap)
	bw := isBlackWhite(colorMap)

	// work holds each pixel's Lab value plus whatever error upstream pixels
	// have already diffused into it.
	work := make([]colormodel.Lab, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := src.At(x, y)
			if bw {
				g := px.GreyValue()
				px = colormodel.RGBA{R: g, G: g, B: g, A: 255}
			}
			work[y*w+x] = px.ToLab()
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			chosen, residual := colorMap.ToIndexedColor(work[y*w+x])
			dst.SetIndex(x, y, chosen.Index)
			diffuse(work, w, h, x, y, residual.Scale(accuracy))
		}
	}
	return dst
}

// diffuse spreads a quantization residual across the classical
// Floyd-Steinberg neighborhood: east 7/16, south-west 3/16, south 5/16,
// south-east 1/16. Neighbours outside the grid drop their share.
func diffuse(work []colormodel.Lab, w, h, x, y int, e colormodel.Lab) {
	add := func(nx, ny int, weight float64) {
		if nx < 0 || nx >= w || ny < 0 || ny >= h {
			return
		}
		i := ny*w + nx
		work[i] = work[i].Add(e.Scale(weight))
	}
	add(x+1, y, 7.0/16.0)
	add(x-1, y+1, 3.0/16.0)
	add(x, y+1, 5.0/16.0)
	add(x+1, y+1, 1.0/16.0)
}
