// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"testing"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/raster"
)

func TestGeneratePackedPlaneWholeAndTailBytes(t *testing.T) {
	img := raster.NewIndexed(10, 1, colormodel.BlackWhite())
	for i, idx := range []uint8{1, 1, 0, 0, 1, 0, 1, 0, 1, 1} {
		img.SetIndex(i, 0, idx)
	}
	got := generatePackedPlane(img, nil, 1)
	if len(got) != 2 {
		t.Fatalf("packed length = %d, want 2", len(got))
	}
	// The first 8 pixels pack MSB-first; the 2-pixel tail packs LSB-first.
	if got[0] != 0b11001010 {
		t.Errorf("whole byte = %08b, want 11001010", got[0])
	}
	if got[1] != 0b00000011 {
		t.Errorf("tail byte = %08b, want 00000011", got[1])
	}
}

func TestGeneratePackedPlaneRoundTrips(t *testing.T) {
	img := raster.NewIndexed(13, 3, colormodel.BlackWhiteRed())
	for y := 0; y < 3; y++ {
		for x := 0; x < 13; x++ {
			img.SetIndex(x, y, uint8((x+y*5)%3))
		}
	}
	const color = 2
	packed := generatePackedPlane(img, nil, color)

	n := 13 * 3
	whole := n / 8
	for i := 0; i < n; i++ {
		var bit byte
		if i < whole*8 {
			bit = packed[i/8] >> (7 - uint(i%8)) & 1
		} else {
			bit = packed[whole] >> uint(i-whole*8) & 1
		}
		want := byte(0)
		if img.IndexAt(i%13, i/13) == color {
			want = 1
		}
		if bit != want {
			t.Fatalf("bit %d = %d, want %d", i, bit, want)
		}
	}
}

func TestGeneratePackedPlaneReusesScratch(t *testing.T) {
	img := raster.NewIndexed(16, 2, colormodel.BlackWhite())
	scratch := make([]byte, 4)
	got := generatePackedPlane(img, scratch, 0)
	if len(got) != 4 {
		t.Fatalf("packed length = %d, want 4", len(got))
	}
	if &got[0] != &scratch[0] {
		t.Error("expected the provided scratch buffer to be reused")
	}
}

func TestStageFrameScalesToPanelSize(t *testing.T) {
	info := DisplayInfo{Width: 40, Height: 30, Capability: BlackWhiteRed, Variant: VariantRedWHATSSD1683}
	src := raster.NewRGBA(400, 400)
	frame, err := stageFrame(info, src, dither.DefaultSettings())
	if err != nil {
		t.Fatalf("stageFrame error: %v", err)
	}
	if frame.Width() != info.Width || frame.Height() != info.Height {
		t.Errorf("frame size = %dx%d, want %dx%d", frame.Width(), frame.Height(), info.Width, info.Height)
	}
	if frame.Format() != raster.Indexed {
		t.Error("staged frame should be Indexed")
	}
}

func TestStageFrameAcceptsIndexedSource(t *testing.T) {
	info := DisplayInfo{Width: 8, Height: 8, Capability: BlackWhite, Variant: VariantBlackWHATSSD1683}
	src := raster.NewIndexed(8, 8, colormodel.BlackWhite())
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetIndex(x, y, uint8((x+y)%2))
		}
	}
	frame, err := stageFrame(info, src, dither.Settings{Mode: dither.Diffusion, Accuracy: 1})
	if err != nil {
		t.Fatalf("stageFrame error: %v", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if frame.IndexAt(x, y) != src.IndexAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed across an identity restage", x, y)
			}
		}
	}
}

func TestStageFrameRejectsEmptySource(t *testing.T) {
	info := DisplayInfo{Width: 8, Height: 8, Capability: BlackWhite}
	if _, err := stageFrame(info, raster.NewRGBA(0, 0), dither.DefaultSettings()); err == nil {
		t.Error("expected an error for an empty source image")
	}
}
