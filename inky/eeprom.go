// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"encoding/binary"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/inkylab/inkyserver/i2cbus"
	"github.com/inkylab/inkyserver/inkyerr"
)

// eepromAddr is the fixed I2C slave address of the EEPROM Pimoroni solders
// onto every Inky board.
const eepromAddr = 0x50

// eepromReadDelay gives the EEPROM time to latch the sub-address before the
// read-back transfer.
const eepromReadDelay = 8 * time.Millisecond

// capabilityFromWire decodes the EEPROM's color-capability byte. Zero and
// the gaps in the numbering are unassigned.
func capabilityFromWire(b byte) (ColorCapability, bool) {
	switch b {
	case 1:
		return BlackWhite, true
	case 2:
		return BlackWhiteRed, true
	case 3:
		return BlackWhiteYellow, true
	case 5:
		return SevenColor, true
	default:
		return BlackWhite, false
	}
}

// DetectDisplayInfo reads the 29-byte EEPROM layout Pimoroni's inky library
// defines (little-endian u16 width, u16 height, u8 color, u8 pcbVariant,
// u8 displayVariant, then a length-prefixed write-time string) and decodes
// it into a DisplayInfo.
func DetectDisplayInfo(bus i2c.Bus) (DisplayInfo, error) {
	dev := i2cbus.Open(bus, eepromAddr)
	data := make([]byte, 29)
	if err := dev.ReadAt(0x00, data, eepromReadDelay); err != nil {
		return DisplayInfo{}, inkyerr.Wrap("inky.DetectDisplayInfo", inkyerr.Io, err)
	}

	width := int(binary.LittleEndian.Uint16(data[0:]))
	height := int(binary.LittleEndian.Uint16(data[2:]))
	pcbVariant := int(data[5])
	variant := DisplayVariant(data[6])

	if variant <= VariantUnknown || int(variant) >= len(displayVariantNames) || displayVariantNames[variant] == "" {
		return DisplayInfo{}, inkyerr.New("inky.DetectDisplayInfo", inkyerr.Unsupported, "unrecognized display variant byte in EEPROM")
	}

	// Prefer the EEPROM's own color byte; a blank or unassigned value falls
	// back to what the display variant implies.
	capability, ok := capabilityFromWire(data[4])
	if !ok {
		capability = variant.Capability()
	}

	// The write-time length byte is not validated by the panel; cap it to
	// the 21 bytes the layout actually reserves.
	writeTimeLen := int(data[7])
	if writeTimeLen > 21 {
		writeTimeLen = 21
	}
	writeTime := string(data[8 : 8+writeTimeLen])

	return DisplayInfo{
		Width:      width,
		Height:     height,
		Capability: capability,
		Variant:    variant,
		PCBVariant: pcbVariant,
		WriteTime:  writeTime,
	}, nil
}
