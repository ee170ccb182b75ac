// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package textrender draws short runs of text onto a raster.Image using a
// packed glyph-grid bitmap font (glyphs addressed by (G%16, G/16) into a
// single 16x16-cell sheet) rather than a general-purpose font.Face
// renderer. The sheet
// itself is built once per Font size from basicfont.Face7x13 -- the only
// glyph asset available -- and then binarized into the package's own
// two-color Indexed format; Draw only ever blits from that sheet, it never
// calls into golang.org/x/image/font again.
package textrender

import (
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/geom"
	"github.com/inkylab/inkyserver/raster"
)

// Font selects a glyph cell size. Every size shares the same underlying
// glyph shapes (basicfont.Face7x13), scaled to the cell's dimensions and
// rebinarized; only cell spacing differs between sizes.
type Font int

const (
	Mono4x6 Font = iota
	Mono6x6
	Mono8x12
)

func (f Font) cellSize() (w, h int) {
	switch f {
	case Mono4x6:
		return 4, 6
	case Mono8x12:
		return 8, 12
	default:
		return 6, 6
	}
}

// Alignment controls how a string is positioned relative to (x, y).
type Alignment int

const (
	Left Alignment = iota
	Center
	Right
)

// Style configures a Draw call.
type Style struct {
	Font      Font
	Alignment Alignment
	Color     colormodel.RGBA
}

// DefaultStyle is left-aligned black text in the medium monospace cell.
func DefaultStyle() Style {
	return Style{Font: Mono6x6, Alignment: Left, Color: colormodel.RGBA{A: 255}}
}

const (
	glyphGridSize = 16
	firstGlyph    = ' '
	lastGlyph     = '~'
	fallbackGlyph = '?'
)

// fontColorMap binarizes a rendered glyph sheet into two indices: 0 for
// background, 1 for ink. Glyph strokes are rendered in white on a black
// sheet background, so index 1 ("non-zero") marks an ink pixel.
var fontColorMap = colormodel.IndexedColorMap{Colors: []colormodel.IndexedColor{
	{Name: colormodel.Black, Index: 0, RGBA: colormodel.RGBA{A: 255}},
	{Name: colormodel.White, Index: 1, RGBA: colormodel.RGBA{R: 255, G: 255, B: 255, A: 255}},
}}

// glyphSheet is one Font size's preloaded 16x16 glyph grid.
type glyphSheet struct {
	img    *raster.Image // Indexed, fontColorMap
	cw, ch int
}

var (
	sheetsOnce sync.Once
	sheets     map[Font]*glyphSheet
)

// buildBaseSheet renders every printable ASCII glyph of basicfont.Face7x13
// into its (G%16, G/16) cell of a 7x13-celled sheet, white ink on a black
// background.
func buildBaseSheet() *raster.Image {
	face := basicfont.Face7x13
	const cw, ch = 7, 13
	sheet := raster.NewRGBA(cw*glyphGridSize, ch*glyphGridSize)
	for y := 0; y < sheet.Height(); y++ {
		for x := 0; x < sheet.Width(); x++ {
			sheet.Set(x, y, colormodel.RGBA{A: 255})
		}
	}
	drawer := &font.Drawer{Dst: sheet.AsStdImage(), Src: image.White, Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	for g := firstGlyph; g <= lastGlyph; g++ {
		col, row := g%glyphGridSize, g/glyphGridSize
		drawer.Dot = fixed.P(int(col)*cw, int(row)*ch+ascent)
		drawer.DrawString(string(rune(g)))
	}
	return sheet
}

// buildSheets scales the base 7x13 sheet to every Font size and binarizes
// each against fontColorMap with ditherAccuracy=0, turning the scaled
// grayscale edges into a crisp two-color bitmap.
func buildSheets() map[Font]*glyphSheet {
	base := buildBaseSheet()
	out := make(map[Font]*glyphSheet, 3)
	for _, f := range []Font{Mono4x6, Mono6x6, Mono8x12} {
		cw, ch := f.cellSize()
		scaled := base.Scale(cw*glyphGridSize, ch*glyphGridSize, raster.ScaleSettings{
			ScaleMode:     raster.Stretch,
			Interpolation: raster.Nearest,
		})
		binarized, err := dither.Apply(scaled, fontColorMap, dither.Settings{Mode: dither.Diffusion, Accuracy: 0})
		if err != nil {
			panic("textrender: binarizing built-in glyph sheet: " + err.Error())
		}
		out[f] = &glyphSheet{img: binarized, cw: cw, ch: ch}
	}
	return out
}

func sheetFor(f Font) *glyphSheet {
	sheetsOnce.Do(func() { sheets = buildSheets() })
	return sheets[f]
}

// Draw renders str onto dest with its first glyph's cell anchored at (x, y),
// adjusting the starting pen position for style.Alignment, then blitting
// each character's glyph cell from its preloaded sheet one non-zero pixel
// at a time.
func Draw(str string, dest *raster.Image, x, y int, style Style) {
	sheet := sheetFor(style.Font)
	cw, ch := sheet.cw, sheet.ch

	switch style.Alignment {
	case Center:
		x -= len(str) * cw / 2
	case Right:
		x -= len(str) * cw
	}

	destBox := geom.BoundingBox{Width: dest.Width(), Height: dest.Height()}
	for i := 0; i < len(str); i++ {
		g := int(str[i])
		if g < firstGlyph || g > lastGlyph {
			g = fallbackGlyph
		}
		col, row := g%glyphGridSize, g/glyphGridSize
		cell := geom.Rect(col*cw, row*ch, col*cw+cw, row*ch+ch)

		penX, penY := x+i*cw, y
		// Clip the glyph's cell against the destination, expressed in the
		// sheet's own coordinate space by shifting the destination box by
		// -pen instead of shifting the cell by +pen.
		shiftedDest := geom.BoundingBox{X: destBox.X - penX, Y: destBox.Y - penY, Width: destBox.Width, Height: destBox.Height}
		clipped := cell.Intersect(shiftedDest)
		if clipped.Empty() {
			continue
		}
		for sy := clipped.Y; sy < clipped.Bottom(); sy++ {
			for sx := clipped.X; sx < clipped.Right(); sx++ {
				if sheet.img.IndexAt(sx, sy) != 0 {
					dest.Set(sx+penX, sy+penY, style.Color)
				}
			}
		}
	}
}
