// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/inkyerr"
	"github.com/inkylab/inkyserver/raster"
	"github.com/inkylab/inkyserver/spibus"
)

const (
	uc8159PSR   = 0x00
	uc8159PWR   = 0x01
	uc8159POF   = 0x02
	uc8159PFS   = 0x03
	uc8159PON   = 0x04
	uc8159PLL   = 0x30
	uc8159TSE   = 0x41
	uc8159CDI   = 0x50
	uc8159TCON  = 0x60
	uc8159TRES  = 0x61
	uc8159DAM   = 0x65
	uc8159PWS   = 0xE3
	uc8159DTM1  = 0x10
	uc8159DSP   = 0x11
	uc8159DRF   = 0x12

	ac073TC1PSR   = 0x00
	ac073TC1PWR   = 0x01
	ac073TC1POF   = 0x02
	ac073TC1POFS  = 0x03
	ac073TC1PON   = 0x04
	ac073TC1BTST1 = 0x05
	ac073TC1BTST2 = 0x06
	ac073TC1BTST3 = 0x08
	ac073TC1DTM   = 0x10
	ac073TC1DRF   = 0x12
	ac073TC1IPC   = 0x13
	ac073TC1PLL   = 0x30
	ac073TC1TSE   = 0x41
	ac073TC1CDI   = 0x50
	ac073TC1TCON  = 0x60
	ac073TC1TRES  = 0x61
	ac073TC1VDCS  = 0x82
	ac073TC1TVDCS = 0x84
	ac073TC1AGID  = 0x86
	ac073TC1CMDH  = 0xAA
	ac073TC1CCSET = 0xE0
	ac073TC1PWS   = 0xE3
	ac073TC1TSSET = 0xE6
)

// acepDriver drives the 7-color ACeP Impression panels, both the UC8159
// controller family (5.7" and 640x400 variants) and the AC073TC1A
// controller used by the 7.3" panel, following each controller's
// documented power-on, data-transmit and refresh sequences.
type acepDriver struct {
	info DisplayInfo

	bus  *spibus.Device
	dc   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn

	borderIndex byte
	res         byte // resolution select bits for PSR, UC8159 family only.

	frame *raster.Image

	log     zerolog.Logger
	metrics *driverMetrics
}

func newACePDriver(info DisplayInfo, bus *spibus.Device, dc, rst gpio.PinOut, busy gpio.PinIn, log zerolog.Logger, metrics *driverMetrics) *acepDriver {
	res := byte(0b11)
	if info.Variant == VariantSevenColourUC8159640x400a || info.Variant == VariantSevenColourUC8159640x400b {
		res = 0b10
	}
	d := &acepDriver{
		info:    info,
		bus:     bus,
		dc:      dc,
		rst:     rst,
		busy:    busy,
		res:     res,
		log:     log,
		metrics: metrics,
	}
	d.SetBorder(colormodel.White)
	return d
}

func (d *acepDriver) Info() DisplayInfo { return d.info }

// SetBorder changes the border ink shown on the next Show. The name is
// resolved to its wire index in the panel's SevenColor palette; names the
// palette does not carry fall back to White.
func (d *acepDriver) SetBorder(c colormodel.ColorName) {
	cmap := d.info.ColorMap()
	entry, ok := cmap.ByName(c)
	if !ok {
		entry, _ = cmap.ByName(colormodel.White)
	}
	d.borderIndex = entry.Index
}

func (d *acepDriver) SetImage(src *raster.Image, settings dither.Settings) error {
	frame, err := stageFrame(d.info, src, settings)
	if err != nil {
		return err
	}
	d.frame = frame
	return nil
}

func (d *acepDriver) Show(ctx context.Context) error {
	if d.frame == nil {
		return inkyerr.State("inky.Show", "SetImage must be called before Show")
	}
	start := time.Now()

	packed := d.packNibbles(d.frame)

	var err error
	if d.info.Variant == VariantSevenColourAC073TC1A {
		err = d.updateAC(ctx, packed)
	} else {
		err = d.updateUC(ctx, packed)
	}
	if err != nil {
		d.metrics.observeFailure()
		return err
	}

	elapsed := time.Since(start)
	d.metrics.observeRefresh(elapsed)
	d.log.Info().Dur("elapsed", elapsed).Str("variant", d.info.Variant.String()).Msg("inky refresh complete")
	return nil
}

func (d *acepDriver) Close() error {
	return d.busy.In(gpio.PullNoChange, gpio.NoEdge)
}

// packNibbles packs the staged frame's palette indices two to a byte, high
// nibble first, the DTM pixel format both controllers share.
func (d *acepDriver) packNibbles(frame *raster.Image) []byte {
	w, h := frame.Width(), frame.Height()
	n := w * h
	out := make([]byte, n/2)
	for i := 0; i < n; i += 2 {
		x0, y0 := i%w, i/w
		x1, y1 := (i+1)%w, (i+1)/w
		hi := frame.IndexAt(x0, y0)
		lo := frame.IndexAt(x1, y1)
		out[i/2] = (hi<<4)&0xF0 | lo&0x0F
	}
	return out
}

func (d *acepDriver) cycleReset(ctx context.Context) error {
	if err := d.rst.Out(gpio.Low); err != nil {
		return inkyerr.Wrap("inky.cycleReset", inkyerr.Io, err)
	}
	sleepCtx(ctx, 100*time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return inkyerr.Wrap("inky.cycleReset", inkyerr.Io, err)
	}
	return nil
}

func (d *acepDriver) resetUC(ctx context.Context) error {
	if err := d.cycleReset(ctx); err != nil {
		return err
	}
	d.wait(ctx, 1*time.Second)

	tres := make([]byte, 4)
	binary.LittleEndian.PutUint16(tres[0:], uint16(d.info.Width))
	binary.LittleEndian.PutUint16(tres[2:], uint16(d.info.Height))
	if err := d.sendCommand(uc8159TRES, tres); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159PSR, []byte{d.res<<6 | 0b101111, 0x08}); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159PWR, []byte{(0x06 << 3) | (0x01 << 2) | (0x01 << 1) | 0x01, 0x00, 0x23, 0x23}); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159PLL, []byte{0x3C}); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159TSE, []byte{0x00}); err != nil {
		return err
	}
	cdi := make([]byte, 2)
	binary.LittleEndian.PutUint16(cdi[0:], uint16(d.borderIndex)<<5|0x17)
	if err := d.sendCommand(uc8159CDI, cdi); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159TCON, []byte{0x22}); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159DAM, []byte{0x00}); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159PWS, []byte{0xAA}); err != nil {
		return err
	}
	return d.sendCommand(uc8159PFS, []byte{0x00})
}

func (d *acepDriver) resetAC(ctx context.Context) error {
	if err := d.cycleReset(ctx); err != nil {
		return err
	}
	sleepCtx(ctx, 100*time.Millisecond)
	if err := d.cycleReset(ctx); err != nil {
		return err
	}
	d.wait(ctx, 1*time.Second)

	cmds := []struct {
		cmd  byte
		data []byte
	}{
		{ac073TC1CMDH, []byte{0x49, 0x55, 0x20, 0x08, 0x09, 0x18}},
		{ac073TC1PWR, []byte{0x3F, 0x00, 0x32, 0x2A, 0x0E, 0x2A}},
		{ac073TC1PSR, []byte{0x5F, 0x69}},
		{ac073TC1POFS, []byte{0x00, 0x54, 0x00, 0x44}},
		{ac073TC1BTST1, []byte{0x40, 0x1F, 0x1F, 0x2C}},
		{ac073TC1BTST2, []byte{0x6F, 0x1F, 0x16, 0x25}},
		{ac073TC1BTST3, []byte{0x6F, 0x1F, 0x1F, 0x22}},
		{ac073TC1IPC, []byte{0x00, 0x04}},
		{ac073TC1PLL, []byte{0x02}},
		{ac073TC1TSE, []byte{0x00}},
		{ac073TC1CDI, []byte{0x3F}},
		{ac073TC1TCON, []byte{0x02, 0x00}},
		{ac073TC1TRES, []byte{0x03, 0x20, 0x01, 0xE0}},
		{ac073TC1VDCS, []byte{0x1E}},
		{ac073TC1TVDCS, []byte{0x00}},
		{ac073TC1AGID, []byte{0x00}},
		{ac073TC1PWS, []byte{0x2F}},
		{ac073TC1CCSET, []byte{0x00}},
		{ac073TC1TSSET, []byte{0x00}},
	}
	for _, c := range cmds {
		if err := d.sendCommand(c.cmd, c.data); err != nil {
			return err
		}
	}
	return nil
}

func (d *acepDriver) updateUC(ctx context.Context, pix []byte) error {
	if err := d.resetUC(ctx); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159DTM1, pix); err != nil {
		return err
	}
	if err := d.sendCommand(uc8159PON, nil); err != nil {
		return err
	}
	d.wait(ctx, 200*time.Millisecond)
	if err := d.sendCommand(uc8159DRF, nil); err != nil {
		return err
	}
	if !d.wait(ctx, 32*time.Second) {
		return inkyerr.New("inky.updateUC", inkyerr.TimedOut, "panel did not report refresh complete")
	}
	if err := d.sendCommand(uc8159POF, nil); err != nil {
		return err
	}
	d.wait(ctx, 200*time.Millisecond)
	return nil
}

// deepClean rewrites every Clean (index 7) nibble to White (index 1): the
// AC073TC1A controller treats index 7 as a transparent ink rather than
// opaque white, so a frame built from SevenColor's palette would otherwise
// leave Clean pixels showing whatever was on the panel before.
func deepClean(pix []byte) []byte {
	out := make([]byte, len(pix))
	for i, b := range pix {
		out[i] = b
		if b&0x0F == 7 {
			out[i] = (b & 0xF0) + 1
		}
		if b&0xF0 == 0x70 {
			out[i] = (out[i] & 0x0F) + 0x10
		}
	}
	return out
}

func (d *acepDriver) updateAC(ctx context.Context, pix []byte) error {
	if err := d.resetAC(ctx); err != nil {
		return err
	}
	if err := d.sendCommand(ac073TC1DTM, deepClean(pix)); err != nil {
		return err
	}
	if err := d.sendCommand(ac073TC1PON, nil); err != nil {
		return err
	}
	d.wait(ctx, 400*time.Millisecond)
	if err := d.sendCommand(ac073TC1DRF, []byte{0x00}); err != nil {
		return err
	}
	if !d.wait(ctx, 45*time.Second) {
		return inkyerr.New("inky.updateAC", inkyerr.TimedOut, "panel did not report refresh complete")
	}
	if err := d.sendCommand(ac073TC1POF, []byte{0x00}); err != nil {
		return err
	}
	d.wait(ctx, 400*time.Millisecond)
	return nil
}

// wait polls the busy/wait line until it reads high (these controllers hold
// it low while working) or the timeout or ctx expires.
func (d *acepDriver) wait(ctx context.Context, timeout time.Duration) bool {
	if err := d.busy.In(gpio.PullDown, gpio.NoEdge); err != nil {
		d.log.Warn().Err(err).Msg("failed to configure busy pin")
		return false
	}
	deadline := time.Now().Add(timeout)
	for d.busy.Read() != gpio.High {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return false
		}
		sleepCtx(ctx, 10*time.Millisecond)
	}
	return true
}

func (d *acepDriver) sendCommand(command byte, data []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	if err := d.bus.WriteChunked([]byte{command}); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	if data == nil {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	if err := d.bus.WriteChunked(data); err != nil {
		return inkyerr.Wrap("inky.sendCommand", inkyerr.Io, err)
	}
	return nil
}
