// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package raster implements the Image buffer model the Inky driver core
// scales, crops, dithers and blits against: a continuous-tone RGBA image or
// a quantized indexed-color image backed by a flat byte slice, the same
// packing discipline ssd1306's image1bit.Image uses for its own bit-packed
// buffer.
package raster

import (
	"image"
	"image/color"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/geom"
	"github.com/inkylab/inkyserver/inkyerr"
)

// Format identifies how an Image's byte buffer is laid out.
type Format int

const (
	// RGBA stores four bytes per pixel: R, G, B, A.
	RGBA Format = iota
	// Indexed stores one byte per pixel: an index into the Image's ColorMap.
	Indexed
)

// Image is a 2D pixel buffer in either RGBA or Indexed format. The zero
// value is an empty, zero-sized RGBA image.
type Image struct {
	width, height int
	format        Format
	data          []byte
	colorMap      colormodel.IndexedColorMap
}

// NewRGBA allocates a width x height RGBA image, all pixels transparent black.
func NewRGBA(width, height int) *Image {
	return &Image{width: width, height: height, format: RGBA, data: make([]byte, width*height*4)}
}

// NewIndexed allocates a width x height Indexed image using colorMap, all
// pixels initialized to index 0.
func NewIndexed(width, height int, colorMap colormodel.IndexedColorMap) *Image {
	return &Image{width: width, height: height, format: Indexed, data: make([]byte, width*height), colorMap: colorMap}
}

// Data returns the image's raw backing buffer.
func (im *Image) Data() []byte { return im.data }

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.width }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.height }

// Format returns whether the image is stored as RGBA or Indexed.
func (im *Image) Format() Format { return im.format }

// ColorMap returns the palette backing an Indexed image. It is the zero
// value for an RGBA image.
func (im *Image) ColorMap() colormodel.IndexedColorMap { return im.colorMap }

// BoundsBox returns the image's pixel-grid bounding box.
func (im *Image) BoundsBox() geom.BoundingBox {
	return geom.BoundingBox{Width: im.width, Height: im.height}
}

// BytesPerPixel returns 4 for RGBA images and 1 for Indexed images.
func (im *Image) BytesPerPixel() int {
	if im.format == Indexed {
		return 1
	}
	return 4
}

func (im *Image) offset(x, y int) int {
	return (y*im.width + x) * im.BytesPerPixel()
}

// At returns the RGBA value of the pixel at (x, y). For an Indexed image
// this looks the stored index up in the ColorMap.
func (im *Image) At(x, y int) colormodel.RGBA {
	if x < 0 || x >= im.width || y < 0 || y >= im.height {
		return colormodel.RGBA{}
	}
	off := im.offset(x, y)
	if im.format == Indexed {
		idx := im.data[off]
		if c, ok := im.colorMap.ByIndex(idx); ok {
			return c.RGBA
		}
		return colormodel.RGBA{}
	}
	return colormodel.RGBA{R: im.data[off], G: im.data[off+1], B: im.data[off+2], A: im.data[off+3]}
}

// IndexAt returns the raw palette index at (x, y). It panics if the image is
// not Indexed.
func (im *Image) IndexAt(x, y int) uint8 {
	if im.format != Indexed {
		panic("raster: IndexAt called on a non-Indexed image")
	}
	return im.data[im.offset(x, y)]
}

// Set writes an RGBA value at (x, y). For an Indexed image, c is quantized to
// the nearest palette entry first.
func (im *Image) Set(x, y int, c colormodel.RGBA) {
	if x < 0 || x >= im.width || y < 0 || y >= im.height {
		return
	}
	off := im.offset(x, y)
	if im.format == Indexed {
		im.data[off] = im.colorMap.Nearest(c).Index
		return
	}
	im.data[off], im.data[off+1], im.data[off+2], im.data[off+3] = c.R, c.G, c.B, c.A
}

// SetIndex writes a raw palette index at (x, y). It panics if the image is
// not Indexed.
func (im *Image) SetIndex(x, y int, idx uint8) {
	if im.format != Indexed {
		panic("raster: SetIndex called on a non-Indexed image")
	}
	im.data[im.offset(x, y)] = idx
}

// ColorModel implements image.Image so an *Image can be handed to
// golang.org/x/image/draw and the standard library's image/draw and
// image/png packages.
func (im *Image) ColorModel() color.Model {
	return color.ModelFunc(func(c color.Color) color.Color {
		r, g, b, a := c.RGBA()
		return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	})
}

// Bounds implements image.Image.
func (im *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.width, im.height)
}

// stdAt implements image.Image.At. It is named to avoid colliding with the
// colormodel.RGBA-returning At above; image.Image is satisfied through the
// stdImage wrapper returned by AsStdImage.
func (im *Image) stdAt(x, y int) color.Color {
	c := im.At(x, y)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// stdImage adapts *Image to the standard image.Image and draw.Image
// interfaces without overloading At/Set's colormodel-typed signatures.
type stdImage struct{ im *Image }

func (s stdImage) ColorModel() color.Model      { return s.im.ColorModel() }
func (s stdImage) Bounds() image.Rectangle      { return s.im.Bounds() }
func (s stdImage) At(x, y int) color.Color      { return s.im.stdAt(x, y) }
func (s stdImage) Set(x, y int, c color.Color)  { r, g, b, a := c.RGBA(); s.im.Set(x, y, colormodel.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}) }

// AsStdImage returns a view of im that satisfies image.Image and
// draw.Image, for interop with golang.org/x/image/draw and image/png.
func (im *Image) AsStdImage() *stdImageView {
	return &stdImageView{stdImage{im}}
}

type stdImageView struct{ stdImage }

// Quantizer reduces a continuous-tone source image to a target palette. The
// dither package's Settings type implements this so raster never needs to
// import dither (which itself depends on raster's Image type).
type Quantizer interface {
	Quantize(src *Image, colorMap colormodel.IndexedColorMap) (*Image, error)
}

// ToIndexed quantizes im against colorMap using q, returning a new Indexed
// image the same size as im. im itself is left untouched. It fails with
// InvalidArgument -- without touching im -- if im is not RGBA, colorMap has
// no entries, or q itself rejects the pair.
func (im *Image) ToIndexed(colorMap colormodel.IndexedColorMap, q Quantizer) (*Image, error) {
	const op = "raster.Image.ToIndexed"
	if im.format != RGBA {
		return nil, inkyerr.Invalid(op, "image must be RGBA")
	}
	if len(colorMap.Colors) == 0 {
		return nil, inkyerr.Invalid(op, "color map must not be empty")
	}
	return q.Quantize(im, colorMap)
}

// ToRGBA returns a new RGBA image with the same pixel values as im. For an
// already-RGBA im this is a plain copy; for an Indexed im each pixel is
// looked up in the palette.
func (im *Image) ToRGBA() *Image {
	dst := NewRGBA(im.width, im.height)
	for y := 0; y < im.height; y++ {
		for x := 0; x < im.width; x++ {
			dst.Set(x, y, im.At(x, y))
		}
	}
	return dst
}

// FromModuleGrid builds a binary Indexed image from a pre-computed boolean
// module grid (true = dark module), surrounded by a quietZone-module border
// of light modules on every side. It is the seam this module exposes in
// place of a QR-code encoder: callers that already have a grid of modules
// (from a QR library, a barcode library, or a test fixture) can rasterize it
// without this package knowing anything about QR codes.
func FromModuleGrid(modules [][]bool, quietZone int) (*Image, error) {
	if len(modules) == 0 {
		return nil, inkyerr.Invalid("raster.FromModuleGrid", "modules must not be empty")
	}
	if quietZone < 0 {
		return nil, inkyerr.Invalid("raster.FromModuleGrid", "quietZone must not be negative")
	}
	size := len(modules)
	for _, row := range modules {
		if len(row) != size {
			return nil, inkyerr.Invalid("raster.FromModuleGrid", "modules must be square")
		}
	}
	total := size + quietZone*2
	im := NewIndexed(total, total, colormodel.BlackWhite())
	for y := 0; y < total; y++ {
		for x := 0; x < total; x++ {
			im.SetIndex(x, y, 0)
		}
	}
	for y, row := range modules {
		for x, dark := range row {
			if dark {
				im.SetIndex(x+quietZone, y+quietZone, 1)
			}
		}
	}
	return im, nil
}
