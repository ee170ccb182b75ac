// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package inky implements the Inky driver core: an SPI/GPIO/I2C-backed
// Driver interface with concrete implementations for the SSD1683-family
// red/black/white and yellow/black/white panels, the UC8159/AC073TC1A
// 7-color Impression panels, and an in-memory simulated panel that writes a
// PNG file instead of talking to hardware.
package inky

import "github.com/inkylab/inkyserver/colormodel"

// ColorCapability identifies which ink colors a physical panel supports
// beyond plain black and white.
type ColorCapability int

const (
	// BlackWhite is a strictly monochrome panel.
	BlackWhite ColorCapability = iota
	// BlackWhiteRed is a black/white panel with a red accent plane.
	BlackWhiteRed
	// BlackWhiteYellow is a black/white panel with a yellow accent plane.
	BlackWhiteYellow
	// SevenColor is a full-color ACeP (UC8159/AC073TC1A) panel.
	SevenColor
)

// ColorMap returns the IndexedColorMap the panel's ColorCapability implies.
func (c ColorCapability) ColorMap() colormodel.IndexedColorMap {
	switch c {
	case BlackWhiteRed:
		return colormodel.BlackWhiteRed()
	case BlackWhiteYellow:
		return colormodel.BlackWhiteYellow()
	case SevenColor:
		return colormodel.SevenColor()
	default:
		return colormodel.BlackWhite()
	}
}

// DisplayVariant identifies a specific Pimoroni Inky product, matching the
// EEPROM's display-type byte.
type DisplayVariant int

const (
	VariantUnknown DisplayVariant = iota
	VariantRedPHATHighTemp
	VariantYellowWHAT
	VariantBlackWHAT
	VariantBlackPHAT
	VariantYellowPHAT
	VariantRedWHAT
	VariantRedWHATHighTemp
	VariantRedWHAT2
	variantReserved9
	VariantBlackPHATSSD1608
	VariantRedPHATSSD1608
	VariantYellowPHATSSD1608
	variantReserved13
	VariantSevenColourUC8159
	VariantSevenColourUC8159640x400a
	VariantSevenColourUC8159640x400b
	VariantBlackWHATSSD1683
	VariantRedWHATSSD1683
	VariantYellowWHATSSD1683
	VariantSevenColourAC073TC1A
)

var displayVariantNames = [...]string{
	"",
	"Red pHAT (High-Temp)",
	"Yellow wHAT",
	"Black wHAT",
	"Black pHAT",
	"Yellow pHAT",
	"Red wHAT",
	"Red wHAT (High-Temp)",
	"Red wHAT",
	"",
	"Black pHAT (SSD1608)",
	"Red pHAT (SSD1608)",
	"Yellow pHAT (SSD1608)",
	"",
	"7-Colour (UC8159)",
	"7-Colour 640x400 (UC8159)",
	"7-Colour 640x400 (UC8159)",
	"Black wHAT (SSD1683)",
	"Red wHAT (SSD1683)",
	"Yellow wHAT (SSD1683)",
	"7-Colour 800x480 (AC073TC1A)",
}

func (v DisplayVariant) String() string {
	if int(v) < 0 || int(v) >= len(displayVariantNames) || displayVariantNames[v] == "" {
		return "Unknown"
	}
	return displayVariantNames[v]
}

// ControllerFamily identifies which command protocol a panel's controller
// chip speaks.
type ControllerFamily int

const (
	ControllerSSD1683 ControllerFamily = iota
	ControllerUC8159
	ControllerAC073TC1A
)

// Controller returns the controller family behind a given DisplayVariant.
func (v DisplayVariant) Controller() ControllerFamily {
	switch v {
	case VariantSevenColourUC8159, VariantSevenColourUC8159640x400a, VariantSevenColourUC8159640x400b:
		return ControllerUC8159
	case VariantSevenColourAC073TC1A:
		return ControllerAC073TC1A
	default:
		return ControllerSSD1683
	}
}

// Capability returns the ColorCapability a given DisplayVariant implies.
func (v DisplayVariant) Capability() ColorCapability {
	switch v {
	case VariantRedPHATHighTemp, VariantRedWHAT, VariantRedWHATHighTemp, VariantRedWHAT2,
		VariantRedPHATSSD1608, VariantRedWHATSSD1683:
		return BlackWhiteRed
	case VariantYellowWHAT, VariantYellowPHAT, VariantYellowPHATSSD1608, VariantYellowWHATSSD1683:
		return BlackWhiteYellow
	case VariantSevenColourUC8159, VariantSevenColourUC8159640x400a, VariantSevenColourUC8159640x400b,
		VariantSevenColourAC073TC1A:
		return SevenColor
	default:
		return BlackWhite
	}
}

// DisplayInfo describes a concrete, detected panel: its pixel dimensions,
// its ink capability, which controller drives it, and the board revision
// information recorded in its EEPROM.
type DisplayInfo struct {
	Width, Height int
	Capability    ColorCapability
	Variant       DisplayVariant
	PCBVariant    int
	// WriteTime is the EEPROM's free-form manufacture-time string, capped to
	// 21 bytes by the EEPROM layout itself.
	WriteTime string
}

// ColorMap returns info.Capability.ColorMap().
func (info DisplayInfo) ColorMap() colormodel.IndexedColorMap {
	return info.Capability.ColorMap()
}
