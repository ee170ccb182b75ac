// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/raster"
	"github.com/inkylab/inkyserver/spibus"
)

func redWHATInfo() DisplayInfo {
	return DisplayInfo{Width: 400, Height: 300, Capability: BlackWhiteRed, Variant: VariantRedWHATSSD1683, PCBVariant: 12}
}

// busyPin returns a pin already reading low, the idle level of the
// SSD1683's active-low BUSY line, so the driver's level-poll handshake
// completes immediately.
func busyPin() *gpiotest.Pin {
	return &gpiotest.Pin{N: "busy"}
}

func safeAt(b []byte, i int) int {
	if i < 0 || i >= len(b) {
		return -1
	}
	return int(b[i])
}

func TestSSD1683ShowSendsDriverControlFirstAndMasterActivateLast(t *testing.T) {
	rec := &spitest.Record{}
	conn, err := rec.Connect(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	bus := spibus.Open(conn)
	dc := &gpiotest.Pin{N: "dc"}
	rst := &gpiotest.Pin{N: "rst"}
	busy := busyPin()

	info := redWHATInfo()
	d := newSSD1683Driver(info, bus, dc, rst, busy, zerolog.Nop(), nil)

	img := raster.NewRGBA(info.Width, info.Height)
	if err := d.SetImage(img, dither.DefaultSettings()); err != nil {
		t.Fatalf("SetImage error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Show(ctx); err != nil {
		t.Fatalf("Show error: %v", err)
	}

	if len(rec.Ops) == 0 {
		t.Fatal("expected at least one SPI transaction")
	}
	// Collect every single-byte write, in order -- the command bytes
	// sendCommand writes with DC held low, plus any one-byte parameter
	// writes; multi-byte data writes are skipped.
	var commands []byte
	for _, op := range rec.Ops {
		if len(op.W) == 1 {
			commands = append(commands, op.W[0])
		}
	}
	// reset() sends SW_RESET (0x12) before update() begins; DRIVER_CONTROL
	// is update()'s own first command, so it must immediately follow.
	swResetAt := -1
	for i, c := range commands {
		if c == ssd1683SWReset {
			swResetAt = i
			break
		}
	}
	if swResetAt == -1 || swResetAt+1 >= len(commands) || commands[swResetAt+1] != ssd1683DriverControl {
		t.Errorf("command byte after SW_RESET = %#x, want DRIVER_CONTROL (%#x)", safeAt(commands, swResetAt+1), ssd1683DriverControl)
	}
	if last := commands[len(commands)-1]; last != ssd1683MasterActiv {
		t.Errorf("last command byte = %#x, want MASTER_ACTIVATE (%#x)", last, ssd1683MasterActiv)
	}
	for _, c := range commands {
		if c == 0x22 {
			t.Error("sent legacy activate command 0x22, this driver activates with MASTER_ACTIVATE (0x20)")
		}
		if c == 0x10 {
			t.Error("sent a deep-sleep command, this driver's refresh sequence has no deep-sleep step")
		}
	}
}

func TestSSD1683BorderByteTracksSetBorder(t *testing.T) {
	rec := &spitest.Record{}
	conn, err := rec.Connect(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	bus := spibus.Open(conn)
	dc := &gpiotest.Pin{N: "dc"}
	rst := &gpiotest.Pin{N: "rst"}
	busy := busyPin()

	info := redWHATInfo()
	d := newSSD1683Driver(info, bus, dc, rst, busy, zerolog.Nop(), nil)
	d.SetBorder(colormodel.Red)

	img := raster.NewRGBA(info.Width, info.Height)
	if err := d.SetImage(img, dither.DefaultSettings()); err != nil {
		t.Fatalf("SetImage error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Show(ctx); err != nil {
		t.Fatalf("Show error: %v", err)
	}

	found := false
	for i, op := range rec.Ops {
		if len(op.W) == 1 && op.W[0] == 0x3c && i+1 < len(rec.Ops) {
			if data := rec.Ops[i+1].W; len(data) == 1 && data[0] == ssd1683BorderByte[colormodel.Red] {
				found = true
			}
		}
	}
	if !found {
		t.Error("never wrote the red border byte after the border command")
	}
}

func TestSSD1683ShowFailsWithoutSetImage(t *testing.T) {
	rec := &spitest.Record{}
	conn, err := rec.Connect(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	bus := spibus.Open(conn)
	dc := &gpiotest.Pin{N: "dc"}
	rst := &gpiotest.Pin{N: "rst"}
	busy := busyPin()

	d := newSSD1683Driver(redWHATInfo(), bus, dc, rst, busy, zerolog.Nop(), nil)
	if err := d.Show(context.Background()); err == nil {
		t.Error("expected Show to fail when SetImage was never called")
	}
}
