// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package colormodel

import (
	"fmt"

	"github.com/inkylab/inkyserver/inkyerr"
)

// ColorName identifies a palette entry by name. Within a map built by
// NewIndexedColorMap, names and indices are unique; only RGBA values may be
// shared between entries.
type ColorName int

// The set of named colors the Inky family of panels can report in a
// DisplayInfo's palette.
const (
	White ColorName = iota
	Black
	Red
	Yellow
	Green
	Blue
	Orange
	Clean
)

var colorNames = [...]string{"white", "black", "red", "yellow", "green", "blue", "orange", "clean"}

func (c ColorName) String() string {
	if int(c) < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("ColorName(%d)", int(c))
	}
	return colorNames[c]
}

// Set implements flag.Value so a ColorName can be bound directly to a CLI flag.
func (c *ColorName) Set(s string) error {
	for i, n := range colorNames {
		if n == s {
			*c = ColorName(i)
			return nil
		}
	}
	return fmt.Errorf("colormodel: unknown color name %q", s)
}

// IndexedColor is one entry of a device's palette: the name a caller refers
// to it by, the wire-level index the panel expects for it, and the RGBA
// value used to preview or dither against it.
type IndexedColor struct {
	Name  ColorName
	Index uint8
	RGBA  RGBA
}

// InvalidIndex is the reserved "not found" palette index. NewIndexedColorMap
// caps maps at 254 entries so no valid entry can ever claim it.
const InvalidIndex uint8 = 255

// IndexedColorMap is the fixed, ordered palette a display variant exposes.
// Maps built through NewIndexedColorMap carry a Lab value per entry,
// computed once at construction, so per-pixel nearest-color searches never
// re-convert the palette.
type IndexedColorMap struct {
	Colors []IndexedColor

	labs []Lab
}

// NewIndexedColorMap builds an IndexedColorMap from colors, failing with
// InvalidArgument if more than 254 entries are given or if two entries share
// an Index or a Name. RGBA values are never required to be unique: a
// panel's accent plane may report as either red or yellow at the same wire
// Index and RGBA (see BlackWhiteYellow).
func NewIndexedColorMap(colors []IndexedColor) (IndexedColorMap, error) {
	const op = "colormodel.NewIndexedColorMap"
	if len(colors) > 254 {
		return IndexedColorMap{}, inkyerr.Invalid(op, "more than 254 color mappings given")
	}
	seenIndex := make(map[uint8]bool, len(colors))
	seenName := make(map[ColorName]bool, len(colors))
	for _, c := range colors {
		if seenIndex[c.Index] {
			return IndexedColorMap{}, inkyerr.Invalid(op, fmt.Sprintf("duplicate index %d", c.Index))
		}
		seenIndex[c.Index] = true
		if seenName[c.Name] {
			return IndexedColorMap{}, inkyerr.Invalid(op, fmt.Sprintf("duplicate name %s", c.Name))
		}
		seenName[c.Name] = true
	}
	labs := make([]Lab, len(colors))
	for i, c := range colors {
		labs[i] = c.RGBA.ToLab()
	}
	return IndexedColorMap{Colors: colors, labs: labs}, nil
}

func mustMap(colors []IndexedColor) IndexedColorMap {
	m, err := NewIndexedColorMap(colors)
	if err != nil {
		panic(err)
	}
	return m
}

// labFor returns the i-th entry's Lab value, from the construction-time
// table when present. Maps built as bare struct literals (tests, the text
// renderer's two-entry binarization map) fall back to converting on demand.
func (m IndexedColorMap) labFor(i int) Lab {
	if i < len(m.labs) {
		return m.labs[i]
	}
	return m.Colors[i].RGBA.ToLab()
}

// ByIndex returns the first entry with the given wire index.
func (m IndexedColorMap) ByIndex(idx uint8) (IndexedColor, bool) {
	for _, c := range m.Colors {
		if c.Index == idx {
			return c, true
		}
	}
	return IndexedColor{}, false
}

// ByName returns the first entry with the given name.
func (m IndexedColorMap) ByName(name ColorName) (IndexedColor, bool) {
	for _, c := range m.Colors {
		if c.Name == name {
			return c, true
		}
	}
	return IndexedColor{}, false
}

// Nearest returns the palette entry whose RGBA value is closest to rgba in
// CIE L*a*b* space under DeltaE76. Used by both dithering modes to quantize
// a continuous-tone pixel down to the panel's palette.
func (m IndexedColorMap) Nearest(rgba RGBA) IndexedColor {
	c, _ := m.ToIndexedColor(rgba.ToLab())
	return c
}

// ToIndexedColor returns the palette entry with the minimum DeltaE76
// distance to lab, along with the residual lab - entry, the quantization
// error an error-diffusion dither carries forward to neighbouring pixels.
func (m IndexedColorMap) ToIndexedColor(lab Lab) (IndexedColor, Lab) {
	if len(m.Colors) == 0 {
		return IndexedColor{Index: InvalidIndex}, Lab{}
	}
	best := 0
	bestDist := lab.DeltaE76(m.labFor(0))
	for i := 1; i < len(m.Colors); i++ {
		if d := lab.DeltaE76(m.labFor(i)); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return m.Colors[best], lab.Sub(m.labFor(best))
}

// BlackWhite is the two-color palette shared by monochrome panels.
func BlackWhite() IndexedColorMap {
	return mustMap([]IndexedColor{
		{Name: White, Index: 0, RGBA: RGBA{255, 255, 255, 255}},
		{Name: Black, Index: 1, RGBA: RGBA{0, 0, 0, 255}},
	})
}

// BlackWhiteRed is the three-color palette used by *_SSD1683 red/black/white
// panels.
func BlackWhiteRed() IndexedColorMap {
	return mustMap([]IndexedColor{
		{Name: White, Index: 0, RGBA: RGBA{255, 255, 255, 255}},
		{Name: Black, Index: 1, RGBA: RGBA{0, 0, 0, 255}},
		{Name: Red, Index: 2, RGBA: RGBA{255, 0, 0, 255}},
	})
}

// BlackWhiteYellow is the three-color palette used by yellow/black/white
// panels. The yellow-accent plane shares wire index 2 and the {255,0,0} RGBA
// value with BlackWhiteRed's red entry: the panel's second plane is a single
// "accent" bit-plane whose physical ink is either red or yellow depending on
// the panel, not a fourth color, so the two palettes intentionally collide
// on Index and RGBA while differing on Name.
func BlackWhiteYellow() IndexedColorMap {
	return mustMap([]IndexedColor{
		{Name: White, Index: 0, RGBA: RGBA{255, 255, 255, 255}},
		{Name: Black, Index: 1, RGBA: RGBA{0, 0, 0, 255}},
		{Name: Yellow, Index: 2, RGBA: RGBA{255, 0, 0, 255}},
	})
}

// SevenColor is the full ACeP palette exposed by Impression-family panels.
func SevenColor() IndexedColorMap {
	return mustMap([]IndexedColor{
		{Name: Black, Index: 0, RGBA: RGBA{0, 0, 0, 255}},
		{Name: White, Index: 1, RGBA: RGBA{255, 255, 255, 255}},
		{Name: Green, Index: 2, RGBA: RGBA{0, 255, 0, 255}},
		{Name: Blue, Index: 3, RGBA: RGBA{0, 0, 255, 255}},
		{Name: Red, Index: 4, RGBA: RGBA{255, 0, 0, 255}},
		{Name: Yellow, Index: 5, RGBA: RGBA{255, 255, 0, 255}},
		{Name: Orange, Index: 6, RGBA: RGBA{255, 140, 0, 255}},
		{Name: Clean, Index: 7, RGBA: RGBA{255, 255, 255, 255}},
	})
}
