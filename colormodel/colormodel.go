// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package colormodel implements the RGBA/HSV/XYZ/Lab color conversions and
// the indexed-color palette model the Inky driver core dithers and
// quantizes against.
package colormodel

import "math"

// RGBA is a straightforward 8-bit-per-channel color, matching image/color's
// layout but kept as a value type so conversions don't allocate.
type RGBA struct {
	R, G, B, A uint8
}

// HSV is hue/saturation/value with hue in [0,360) and saturation/value/alpha
// in [0,1].
type HSV struct {
	H, S, V, A float64
}

// XYZ is the CIE 1931 tristimulus space, scaled so that the D65 white point
// is (95.047, 100.0, 108.883).
type XYZ struct {
	X, Y, Z float64
}

// Lab is CIE L*a*b*, computed relative to the D65 white point.
type Lab struct {
	L, A, B float64
}

const (
	whiteX = 95.047
	whiteY = 100.0
	whiteZ = 108.883
)

// ToHSV converts c to HSV.
func (c RGBA) ToHSV() HSV {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v := max
	var s float64
	if max > 0 {
		s = delta / max
	}
	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case max == g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return HSV{H: h, S: s, V: v, A: float64(c.A) / 255}
}

// ToRGBA converts hsv back to an RGBA value.
func (hsv HSV) ToRGBA() RGBA {
	h := hsv.H
	s := clamp01(hsv.S)
	v := clamp01(hsv.V)

	cc := v * s
	x := cc * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - cc

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = cc, x, 0
	case h < 120:
		r, g, b = x, cc, 0
	case h < 180:
		r, g, b = 0, cc, x
	case h < 240:
		r, g, b = 0, x, cc
	case h < 300:
		r, g, b = x, 0, cc
	default:
		r, g, b = cc, 0, x
	}
	return RGBA{
		R: to8(r + m),
		G: to8(g + m),
		B: to8(b + m),
		A: to8(clamp01(hsv.A)),
	}
}

// GreyValue returns the luma-weighted gray value 0.299*R + 0.587*G +
// 0.114*B, rounded to the nearest u8. Pattern dither keys its LUT lookup on
// this value, so it must match human luminance perception rather than a
// flat RGB average.
func (c RGBA) GreyValue() uint8 {
	g := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	return uint8(g + 0.5)
}

// BrightestChannel returns the largest of the RGB channels.
func (c RGBA) BrightestChannel() uint8 {
	m := c.R
	if c.G > m {
		m = c.G
	}
	if c.B > m {
		m = c.B
	}
	return m
}

// ToXYZ converts c through linearized sRGB into CIE XYZ.
func (c RGBA) ToXYZ() XYZ {
	r := srgbToLinear(float64(c.R) / 255)
	g := srgbToLinear(float64(c.G) / 255)
	b := srgbToLinear(float64(c.B) / 255)

	return XYZ{
		X: (r*0.4124 + g*0.3576 + b*0.1805) * 100,
		Y: (r*0.2126 + g*0.7152 + b*0.0722) * 100,
		Z: (r*0.0193 + g*0.1192 + b*0.9505) * 100,
	}
}

// ToLab converts xyz to CIE L*a*b* relative to the D65 white point.
func (xyz XYZ) ToLab() Lab {
	fx := labF(xyz.X / whiteX)
	fy := labF(xyz.Y / whiteY)
	fz := labF(xyz.Z / whiteZ)

	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// ToLab is a convenience wrapper around ToXYZ().ToLab().
func (c RGBA) ToLab() Lab {
	return c.ToXYZ().ToLab()
}

// Add returns the component-wise sum l + o.
func (l Lab) Add(o Lab) Lab {
	return Lab{L: l.L + o.L, A: l.A + o.A, B: l.B + o.B}
}

// Sub returns the component-wise difference l - o.
func (l Lab) Sub(o Lab) Lab {
	return Lab{L: l.L - o.L, A: l.A - o.A, B: l.B - o.B}
}

// Mul returns the component-wise product of l and o.
func (l Lab) Mul(o Lab) Lab {
	return Lab{L: l.L * o.L, A: l.A * o.A, B: l.B * o.B}
}

// Scale returns l with every component multiplied by s.
func (l Lab) Scale(s float64) Lab {
	return Lab{L: l.L * s, A: l.A * s, B: l.B * s}
}

// DeltaE76 is the simple Euclidean CIE76 color difference between two Lab
// colors. It is not perceptually uniform but is cheap enough to evaluate per
// pixel during dithering and nearest-color search.
func (l Lab) DeltaE76(o Lab) float64 {
	dl := l.L - o.L
	da := l.A - o.A
	db := l.B - o.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 {
	v = clamp01(v)*255 + 0.5
	return uint8(v)
}
