// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package raster

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/geom"
)

// ScaleMode selects how Scale reconciles a source image's aspect ratio with
// a differently-shaped destination.
type ScaleMode int

const (
	// Stretch changes the source aspect ratio to exactly match the
	// destination, filling every destination pixel.
	Stretch ScaleMode = iota
	// Fit scales the source to fit entirely inside the destination,
	// preserving aspect ratio and letterboxing with BackgroundColor.
	Fit
	// Fill scales the source large enough to cover the destination,
	// preserving aspect ratio and cropping any overhang.
	Fill
)

// InterpolationMode selects the resampling kernel Scale uses.
type InterpolationMode int

const (
	// Auto picks Bilinear when enlarging and Gaussian when reducing,
	// comparing destination width against source width.
	Auto InterpolationMode = iota
	Nearest
	Average
	Bilinear
	Bicubic
	Mitchell
	Cardinal
	BSpline
	Lanczos
	Lanczos2
	Lanczos3
	Lanczos4
	Lanczos5
	Catmull
	Gaussian
)

// ScaleSettings configures Scale and Crop.
type ScaleSettings struct {
	ScaleMode     ScaleMode
	Interpolation InterpolationMode
	// BackgroundColor fills any destination pixel Stretch/Fit/Fill or Crop
	// leaves uncovered by the source.
	BackgroundColor colormodel.RGBA
}

// DefaultScaleSettings stretches with an automatic kernel over a white
// background.
func DefaultScaleSettings() ScaleSettings {
	return ScaleSettings{ScaleMode: Stretch, Interpolation: Auto, BackgroundColor: colormodel.RGBA{255, 255, 255, 255}}
}

func resolveInterpolator(mode InterpolationMode, upscaling bool) draw.Interpolator {
	if mode == Auto {
		if upscaling {
			mode = Bilinear
		} else {
			mode = Gaussian
		}
	}
	switch mode {
	case Nearest:
		return draw.NearestNeighbor
	case Bilinear:
		return draw.BiLinear
	case Catmull:
		return draw.CatmullRom
	case Average:
		return &draw.Kernel{Support: 0.5, At: func(t float64) float64 {
			if t < 0 {
				t = -t
			}
			if t <= 0.5 {
				return 1
			}
			return 0
		}}
	case Bicubic:
		return mitchellKernel(1.0/3.0, 1.0/3.0)
	case Mitchell:
		return mitchellKernel(1.0/3.0, 1.0/3.0)
	case Cardinal:
		return mitchellKernel(0, 0.5)
	case BSpline:
		return mitchellKernel(1, 0)
	case Lanczos, Lanczos3:
		return lanczosKernel(3)
	case Lanczos2:
		return lanczosKernel(2)
	case Lanczos4:
		return lanczosKernel(4)
	case Lanczos5:
		return lanczosKernel(5)
	case Gaussian:
		return &draw.Kernel{Support: 2, At: func(t float64) float64 {
			const sigma = 0.8
			return math.Exp(-(t * t) / (2 * sigma * sigma))
		}}
	default:
		return draw.BiLinear
	}
}

// mitchellKernel builds the Mitchell-Netravali family of cubic filters.
// (B, C) = (1/3, 1/3) is Mitchell's own recommendation and the usual
// "bicubic" default; (0, 1/2) is the Catmull-Rom cardinal spline; (1, 0) is
// the cubic B-spline.
func mitchellKernel(b, c float64) *draw.Kernel {
	return &draw.Kernel{Support: 2, At: func(t float64) float64 {
		if t < 0 {
			t = -t
		}
		if t < 1 {
			return ((12-9*b-6*c)*t*t*t + (-18+12*b+6*c)*t*t + (6 - 2*b)) / 6
		}
		if t < 2 {
			return ((-b-6*c)*t*t*t + (6*b+30*c)*t*t + (-12*b-48*c)*t + (8*b + 24*c)) / 6
		}
		return 0
	}}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

// lanczosKernel builds a windowed-sinc filter with the given number of lobes.
func lanczosKernel(a float64) *draw.Kernel {
	return &draw.Kernel{Support: a, At: func(t float64) float64 {
		if t < 0 {
			t = -t
		}
		if t >= a {
			return 0
		}
		return sinc(t) * sinc(t/a)
	}}
}

// Scale resizes im to width x height according to settings, returning a new
// image in the same Format as im.
func (im *Image) Scale(width, height int, settings ScaleSettings) *Image {
	dst := blankLike(im, width, height, settings.BackgroundColor)
	srcRect := im.Bounds()
	dstRect := placementRect(im.width, im.height, width, height, settings.ScaleMode)

	interp := resolveInterpolator(settings.Interpolation, dstRect.Dx() >= im.width)
	interp.Scale(dst.AsStdImage(), dstRect, im.AsStdImage(), srcRect, draw.Over, nil)
	return dst
}

// placementRect computes where, within a width x height destination, the
// scaled source should land under the given ScaleMode.
func placementRect(srcW, srcH, dstW, dstH int, mode ScaleMode) image.Rectangle {
	if mode == Stretch || srcW == 0 || srcH == 0 {
		return image.Rect(0, 0, dstW, dstH)
	}
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(dstW) / float64(dstH)

	var w, h int
	switch {
	case mode == Fit && srcAspect > dstAspect, mode == Fill && srcAspect < dstAspect:
		w = dstW
		h = int(float64(dstW) / srcAspect)
	default:
		h = dstH
		w = int(float64(dstH) * srcAspect)
	}
	x0 := (dstW - w) / 2
	y0 := (dstH - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// Crop extracts a width x height region starting at (x, y). The region may
// extend outside im's bounds; uncovered pixels are filled with
// settings.BackgroundColor.
func (im *Image) Crop(x, y, width, height int, settings ScaleSettings) *Image {
	dst := blankLike(im, width, height, settings.BackgroundColor)
	srcBox := im.BoundsBox()
	cropBox := geom.Rect(x, y, x+width, y+height)
	overlap := srcBox.Intersect(cropBox)
	if overlap.Empty() {
		return dst
	}
	// Source and destination share a format and palette, so each overlapping
	// row is a straight byte copy regardless of bytes-per-pixel. This also
	// keeps raw palette indices intact where two entries share an RGBA value.
	bpp := im.BytesPerPixel()
	rowLen := overlap.Width * bpp
	for sy := overlap.Y; sy < overlap.Bottom(); sy++ {
		srcOff := im.offset(overlap.X, sy)
		dstOff := dst.offset(overlap.X-x, sy-y)
		copy(dst.data[dstOff:dstOff+rowLen], im.data[srcOff:srcOff+rowLen])
	}
	return dst
}

func blankLike(im *Image, width, height int, background colormodel.RGBA) *Image {
	if im.format == Indexed {
		dst := NewIndexed(width, height, im.colorMap)
		if idx := im.colorMap.Nearest(background).Index; idx != 0 {
			for i := range dst.data {
				dst.data[i] = idx
			}
		}
		return dst
	}
	dst := NewRGBA(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dst.Set(x, y, background)
		}
	}
	return dst
}
