// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/inkyerr"
	"github.com/inkylab/inkyserver/raster"
	"github.com/inkylab/inkyserver/spibus"
)

const (
	cs0Pin     = "GPIO8"
	csEnabled  = gpio.Low
	csDisabled = gpio.High
)

// SSD1683 command bytes, per the controller's documented register set.
const (
	ssd1683DriverControl = 0x01
	ssd1683DataMode      = 0x11
	ssd1683SWReset       = 0x12
	ssd1683MasterActiv   = 0x20
	ssd1683WriteRAM      = 0x24
	ssd1683WriteAltRAM   = 0x26
	ssd1683WriteVCOM     = 0x2C
	ssd1683WriteDummy    = 0x3A
	ssd1683WriteGateline = 0x3B
	ssd1683WriteBorder   = 0x3C
	ssd1683SetRAMXPos    = 0x44
	ssd1683SetRAMYPos    = 0x45
	ssd1683SetRAMXCount  = 0x4E
	ssd1683SetRAMYCount  = 0x4F
)

var ssd1683BorderByte = map[colormodel.ColorName]byte{
	colormodel.Black:  0b00000000,
	colormodel.Red:    0b00000110,
	colormodel.Yellow: 0b00001111,
	colormodel.White:  0b00000001,
}

// ssd1683Driver drives the red/black/white and yellow/black/white panels
// that speak the SSD1683 (and compatible SSD1608) command set: reset
// handshake, driver control, RAM window setup, border, RAM writes, busy
// wait, master activate.
//
// The panel's LUT-select command (0x32) is intentionally omitted: the
// waveform table bytes it expects are proprietary per-panel calibration
// data, and the controller falls back to its built-in default LUT when
// 0x32 is not sent.
type ssd1683Driver struct {
	info DisplayInfo

	bus  *spibus.Device
	dc   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn
	// cs is optional manual chip-select, mirroring the Pimoroni driver's own
	// setCSPin: toggled by hand so it stays compatible with boards
	// configured for dtoverlay=spi0-0cs.
	cs gpio.PinOut

	border colormodel.ColorName
	frame  *raster.Image // staged Indexed frame, set by SetImage

	// Packed-plane scratch, reused across frames so Show never reallocates.
	whitePlane []byte
	colorPlane []byte

	log     zerolog.Logger
	metrics *driverMetrics
}

func newSSD1683Driver(info DisplayInfo, bus *spibus.Device, dc, rst gpio.PinOut, busy gpio.PinIn, log zerolog.Logger, metrics *driverMetrics) *ssd1683Driver {
	cs := gpioreg.ByName(cs0Pin)
	if cs != nil && cs.Out(csDisabled) != nil {
		cs = nil
	}
	return &ssd1683Driver{
		info:    info,
		bus:     bus,
		dc:      dc,
		rst:     rst,
		busy:    busy,
		cs:      cs,
		border:  colormodel.White,
		log:     log,
		metrics: metrics,
	}
}

func (d *ssd1683Driver) Info() DisplayInfo { return d.info }

// SetBorder changes the border color shown on the next Show. Names absent
// from the panel's palette fall back to White.
func (d *ssd1683Driver) SetBorder(c colormodel.ColorName) {
	if _, ok := d.info.ColorMap().ByName(c); !ok {
		c = colormodel.White
	}
	d.border = c
}

func (d *ssd1683Driver) SetImage(src *raster.Image, settings dither.Settings) error {
	frame, err := stageFrame(d.info, src, settings)
	if err != nil {
		return err
	}
	d.frame = frame
	return nil
}

func (d *ssd1683Driver) Show(ctx context.Context) error {
	if d.frame == nil {
		return inkyerr.State("inky.Show", "SetImage must be called before Show")
	}
	start := time.Now()

	cmap := d.info.ColorMap()
	white, _ := cmap.ByName(colormodel.White)
	d.whitePlane = generatePackedPlane(d.frame, d.whitePlane, white.Index)
	if d.info.Capability == BlackWhiteRed || d.info.Capability == BlackWhiteYellow {
		accentName := colormodel.Red
		if d.info.Capability == BlackWhiteYellow {
			accentName = colormodel.Yellow
		}
		accent, _ := cmap.ByName(accentName)
		d.colorPlane = generatePackedPlane(d.frame, d.colorPlane, accent.Index)
	}

	if err := d.reset(ctx); err != nil {
		d.metrics.observeFailure()
		return err
	}
	if err := d.update(ctx, d.whitePlane, d.colorPlane); err != nil {
		d.metrics.observeFailure()
		return err
	}

	elapsed := time.Since(start)
	d.metrics.observeRefresh(elapsed)
	d.log.Info().Dur("elapsed", elapsed).Str("variant", d.info.Variant.String()).Msg("inky refresh complete")
	return nil
}

func (d *ssd1683Driver) Close() error {
	return d.busy.In(gpio.PullNoChange, gpio.NoEdge)
}

// update implements the SSD1683 frame protocol steps 2-14: driver control
// through RAM writes, a busy wait, then MASTER_ACTIVATE.
func (d *ssd1683Driver) update(ctx context.Context, white, accent []byte) error {
	h := d.info.Height
	w := d.info.Width

	if err := d.sendCommand(ssd1683DriverControl, []byte{byte((h - 1) & 0xFF), byte((h - 1) >> 8), 0x00}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683WriteDummy, []byte{0x1B}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683WriteGateline, []byte{0x0B}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683DataMode, []byte{0x03}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683SetRAMXPos, []byte{0x00, byte(w/8 - 1)}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683SetRAMYPos, []byte{0x00, 0x00, byte((h - 1) & 0xFF), byte((h - 1) >> 8)}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683WriteVCOM, []byte{0x70}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683WriteBorder, []byte{ssd1683BorderByte[d.border]}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683SetRAMXCount, []byte{0x00}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683SetRAMYCount, []byte{0x00, 0x00}); err != nil {
		return err
	}
	if err := d.sendCommand(ssd1683WriteRAM, white); err != nil {
		return err
	}
	if d.info.Capability == BlackWhiteRed || d.info.Capability == BlackWhiteYellow {
		if err := d.sendCommand(ssd1683WriteAltRAM, accent); err != nil {
			return err
		}
	}

	if !d.waitBusy(ctx, 40*time.Second) {
		return inkyerr.New("inky.update", inkyerr.TimedOut, "panel did not report refresh complete")
	}

	return d.sendCommand(ssd1683MasterActiv, nil)
}

// reset implements frame protocol step 1: a RESET pulse followed by
// SW_RESET and a BUSY-low handshake.
func (d *ssd1683Driver) reset(ctx context.Context) error {
	if err := d.rst.Out(gpio.Low); err != nil {
		return inkyerr.Wrap("inky.reset", inkyerr.Io, err)
	}
	sleepCtx(ctx, 500*time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return inkyerr.Wrap("inky.reset", inkyerr.Io, err)
	}
	sleepCtx(ctx, 500*time.Millisecond)

	if err := d.busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return inkyerr.Wrap("inky.reset", inkyerr.Io, err)
	}
	if err := d.sendCommand(ssd1683SWReset, nil); err != nil {
		return inkyerr.Wrap("inky.reset", inkyerr.Io, err)
	}
	sleepCtx(ctx, 1*time.Second)
	if !d.waitBusy(ctx, 5*time.Second) {
		return inkyerr.New("inky.reset", inkyerr.TimedOut, "busy line did not fall after soft reset")
	}
	return nil
}

// waitBusy polls the BUSY line until it reads low (idle) or the timeout or
// ctx expires, the level-poll handshake of the original driver.
func (d *ssd1683Driver) waitBusy(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for d.busy.Read() != gpio.Low {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return false
		}
		sleepCtx(ctx, 10*time.Millisecond)
	}
	return true
}

func (d *ssd1683Driver) setCSPin(level gpio.Level) error {
	if d.cs == nil {
		return nil
	}
	return d.cs.Out(level)
}

func (d *ssd1683Driver) sendCommand(command byte, data []byte) error {
	if err := d.setCSPin(csEnabled); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	if err := d.bus.WriteChunked([]byte{command}); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	if err := d.setCSPin(csDisabled); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	if data == nil {
		return nil
	}
	return d.sendData(data)
}

func (d *ssd1683Driver) sendData(data []byte) error {
	if err := d.setCSPin(csEnabled); err != nil {
		return inkyerr.Wrap("inky.sendData", inkyerr.Io, err)
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return inkyerr.Wrap("inky.sendData", inkyerr.Io, err)
	}
	if err := d.bus.WriteChunked(data); err != nil {
		return inkyerr.Wrap("inky.sendData", inkyerr.Io, err)
	}
	return d.setCSPin(csDisabled)
}

func sleepCtx(ctx context.Context, dur time.Duration) {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
