// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dither

// patternLUT is the 17x16 dispersed-dot lookup table pattern dithering keys
// on a pixel's gray value: 17 fill levels (one per 16-gray-value band) times
// the 16 positions of a 4x4 swatch, 272 entries total. Entry value 1 means
// "leave White at this position for this fill level", 0 means "lay down
// Black", so the all-zero first row renders the darkest band solid black and
// the all-one last row renders the brightest band solid white.
var patternLUT = [17 * 16]byte{
	// 0x00
	0, 0, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 0,
	// 0x10
	0, 0, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 0,
	1, 0, 0, 0,
	// 0x20
	0, 0, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 0,
	1, 0, 0, 0,
	// 0x30
	0, 0, 0, 0,
	1, 0, 1, 0,
	0, 0, 0, 0,
	1, 0, 0, 0,
	// 0x40
	0, 0, 0, 0,
	1, 0, 1, 0,
	0, 0, 0, 0,
	1, 0, 1, 0,
	// 0x50
	0, 0, 0, 0,
	1, 0, 1, 0,
	0, 1, 0, 0,
	1, 0, 1, 0,
	// 0x60
	0, 0, 0, 1,
	1, 0, 1, 0,
	0, 1, 0, 0,
	1, 0, 1, 0,
	// 0x70
	0, 0, 0, 1,
	1, 0, 1, 0,
	0, 1, 0, 1,
	1, 0, 1, 0,
	// 0x80
	0, 1, 0, 1,
	1, 0, 1, 0,
	0, 1, 0, 1,
	1, 0, 1, 0,
	// 0x90
	0, 1, 0, 1,
	1, 0, 1, 0,
	0, 1, 0, 1,
	1, 1, 1, 0,
	// 0xA0
	0, 1, 0, 1,
	1, 0, 1, 1,
	0, 1, 0, 1,
	1, 1, 1, 0,
	// 0xB0
	0, 1, 0, 1,
	1, 0, 1, 1,
	0, 1, 0, 1,
	1, 1, 1, 1,
	// 0xC0
	0, 1, 0, 1,
	1, 1, 1, 1,
	0, 1, 0, 1,
	1, 1, 1, 1,
	// 0xD0
	0, 1, 0, 1,
	1, 1, 1, 1,
	1, 1, 0, 1,
	1, 1, 1, 1,
	// 0xE0
	0, 1, 1, 1,
	1, 1, 1, 1,
	1, 1, 0, 1,
	1, 1, 1, 1,
	// 0xF0
	0, 1, 1, 1,
	1, 1, 1, 1,
	1, 1, 1, 1,
	1, 1, 1, 1,
	// 0x100
	1, 1, 1, 1,
	1, 1, 1, 1,
	1, 1, 1, 1,
	1, 1, 1, 1,
}

// patternWhite reports whether pattern dithering leaves White (true) or lays
// down Black (false) at (x, y) for the given gray value, using the lut_row =
// (g+8)&0x1F0, index = lut_row + (y%4)*4 + (x%4) arithmetic of the
// 17-level/16-position LUT.
func patternWhite(g uint8, x, y int) bool {
	lutRow := (int(g) + 8) & 0x1F0
	return patternLUT[lutRow+(y%4)*4+(x%4)] != 0
}
