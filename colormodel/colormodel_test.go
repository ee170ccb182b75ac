// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package colormodel

import (
	"math"
	"testing"
)

func TestRGBAToHSVRoundTrip(t *testing.T) {
	cases := []RGBA{
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
		{255, 255, 255, 255},
		{0, 0, 0, 255},
		{12, 200, 90, 255},
	}
	for _, c := range cases {
		hsv := c.ToHSV()
		got := hsv.ToRGBA()
		if absDiff(got.R, c.R) > 1 || absDiff(got.G, c.G) > 1 || absDiff(got.B, c.B) > 1 {
			t.Errorf("RGBA(%v) -> HSV(%v) -> RGBA(%v), want close to original", c, hsv, got)
		}
	}
}

func TestDeltaE76Zero(t *testing.T) {
	c := RGBA{128, 64, 32, 255}
	lab := c.ToLab()
	if d := lab.DeltaE76(lab); d != 0 {
		t.Errorf("DeltaE76 of identical colors = %v, want 0", d)
	}
}

func TestDeltaE76BlackWhiteFarApart(t *testing.T) {
	black := RGBA{0, 0, 0, 255}.ToLab()
	white := RGBA{255, 255, 255, 255}.ToLab()
	d := black.DeltaE76(white)
	if d < 50 {
		t.Errorf("DeltaE76(black, white) = %v, want a large distance", d)
	}
}

func TestIndexedColorMapNearest(t *testing.T) {
	m := BlackWhiteRed()
	tests := []struct {
		in   RGBA
		want ColorName
	}{
		{RGBA{250, 250, 250, 255}, White},
		{RGBA{10, 10, 10, 255}, Black},
		{RGBA{230, 20, 10, 255}, Red},
	}
	for _, tc := range tests {
		got := m.Nearest(tc.in)
		if got.Name != tc.want {
			t.Errorf("Nearest(%v) = %v, want %v", tc.in, got.Name, tc.want)
		}
	}
}

func TestBlackWhiteYellowCollidesWithRed(t *testing.T) {
	y, ok := BlackWhiteYellow().ByName(Yellow)
	if !ok {
		t.Fatal("BlackWhiteYellow has no Yellow entry")
	}
	r, ok := BlackWhiteRed().ByName(Red)
	if !ok {
		t.Fatal("BlackWhiteRed has no Red entry")
	}
	if y.Index != r.Index || y.RGBA != r.RGBA {
		t.Errorf("expected BWY yellow and BWR red to share Index/RGBA, got %v and %v", y, r)
	}
}

func TestColorNameSet(t *testing.T) {
	var c ColorName
	if err := c.Set("red"); err != nil {
		t.Fatalf("Set(red) error: %v", err)
	}
	if c != Red {
		t.Errorf("Set(red) = %v, want Red", c)
	}
	if err := c.Set("not-a-color"); err == nil {
		t.Error("Set(not-a-color) expected an error")
	}
}

func TestGreyValueWeightsLumaNotFlatAverage(t *testing.T) {
	// Pure green and pure red average to the same flat RGB mean (85) but
	// differ sharply in perceived luma: green reads much brighter.
	red := RGBA{255, 0, 0, 255}.GreyValue()
	green := RGBA{0, 255, 0, 255}.GreyValue()
	if green <= red {
		t.Errorf("GreyValue(green)=%d should be well above GreyValue(red)=%d under luma weighting", green, red)
	}
	if g := (RGBA{255, 255, 255, 255}).GreyValue(); g != 255 {
		t.Errorf("GreyValue(white) = %d, want 255", g)
	}
	if g := (RGBA{0, 0, 0, 255}).GreyValue(); g != 0 {
		t.Errorf("GreyValue(black) = %d, want 0", g)
	}
}

func TestNewIndexedColorMapRejectsDuplicateIndex(t *testing.T) {
	_, err := NewIndexedColorMap([]IndexedColor{
		{Name: Black, Index: 0, RGBA: RGBA{A: 255}},
		{Name: White, Index: 0, RGBA: RGBA{R: 255, G: 255, B: 255, A: 255}},
	})
	if err == nil {
		t.Error("expected an error for a duplicate Index")
	}
}

func TestNewIndexedColorMapRejectsDuplicateName(t *testing.T) {
	_, err := NewIndexedColorMap([]IndexedColor{
		{Name: Black, Index: 0, RGBA: RGBA{A: 255}},
		{Name: Black, Index: 1, RGBA: RGBA{R: 255, G: 255, B: 255, A: 255}},
	})
	if err == nil {
		t.Error("expected an error for a duplicate Name")
	}
}

func TestNewIndexedColorMapAllowsSharedRGBA(t *testing.T) {
	// BlackWhiteYellow and BlackWhiteRed intentionally share Index/RGBA on
	// their accent entry; NewIndexedColorMap must not reject that shape.
	_, err := NewIndexedColorMap([]IndexedColor{
		{Name: Black, Index: 0, RGBA: RGBA{A: 255}},
		{Name: White, Index: 1, RGBA: RGBA{R: 255, G: 255, B: 255, A: 255}},
		{Name: Yellow, Index: 2, RGBA: RGBA{R: 255, A: 255}},
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewIndexedColorMapRejectsTooManyEntries(t *testing.T) {
	colors := make([]IndexedColor, 255)
	for i := range colors {
		colors[i] = IndexedColor{Name: ColorName(i), Index: uint8(i % 256)}
	}
	if _, err := NewIndexedColorMap(colors); err == nil {
		t.Error("expected an error for more than 254 entries")
	}
}

func TestDeltaE76Symmetric(t *testing.T) {
	a := RGBA{128, 64, 32, 255}.ToLab()
	b := RGBA{20, 180, 220, 255}.ToLab()
	if d1, d2 := a.DeltaE76(b), b.DeltaE76(a); d1 != d2 {
		t.Errorf("DeltaE76 not symmetric: %v vs %v", d1, d2)
	}
	if a.DeltaE76(b) < 0 {
		t.Error("DeltaE76 must be non-negative")
	}
}

func TestLabArithmetic(t *testing.T) {
	a := Lab{L: 50, A: 10, B: -10}
	b := Lab{L: 25, A: -5, B: 5}
	if got := a.Add(b); got != (Lab{L: 75, A: 5, B: -5}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Sub(b); got != (Lab{L: 25, A: 15, B: -15}) {
		t.Errorf("Sub = %+v", got)
	}
	if got := a.Mul(b); got != (Lab{L: 1250, A: -50, B: -50}) {
		t.Errorf("Mul = %+v", got)
	}
	if got := a.Scale(0.5); got != (Lab{L: 25, A: 5, B: -5}) {
		t.Errorf("Scale = %+v", got)
	}
}

func TestToIndexedColorResidualIsZeroOnPaletteColors(t *testing.T) {
	m := BlackWhiteRed()
	for _, c := range m.Colors {
		entry, residual := m.ToIndexedColor(c.RGBA.ToLab())
		if entry.Index != c.Index {
			t.Errorf("ToIndexedColor(%v) = index %d, want %d", c.Name, entry.Index, c.Index)
		}
		if residual.DeltaE76(Lab{}) > 1e-9 {
			t.Errorf("residual for exact palette color %v = %+v, want zero", c.Name, residual)
		}
	}
}

func TestToIndexedColorOnEmptyMapReturnsInvalidIndex(t *testing.T) {
	var m IndexedColorMap
	entry, _ := m.ToIndexedColor(Lab{})
	if entry.Index != InvalidIndex {
		t.Errorf("empty map lookup index = %d, want InvalidIndex (%d)", entry.Index, InvalidIndex)
	}
}

// TestPaletteRoundTrips checks map.ToIndexedColor(map entry's RGBA) == the
// entry's own index for every palette. SevenColor's Clean entry is excluded:
// it intentionally shares White's RGBA value, so the nearest-color search
// cannot tell them apart by color alone.
func TestPaletteRoundTrips(t *testing.T) {
	palettes := map[string]IndexedColorMap{
		"bw":    BlackWhite(),
		"bwr":   BlackWhiteRed(),
		"bwy":   BlackWhiteYellow(),
		"seven": SevenColor(),
	}
	for name, m := range palettes {
		for _, c := range m.Colors {
			if c.Name == Clean {
				continue
			}
			got := m.Nearest(c.RGBA)
			if got.Index != c.Index {
				t.Errorf("%s: Nearest(%v's RGBA) = index %d, want %d", name, c.Name, got.Index, c.Index)
			}
		}
	}
}

func absDiff(a, b uint8) int {
	return int(math.Abs(float64(int(a) - int(b))))
}
