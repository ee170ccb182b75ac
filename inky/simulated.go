// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/inkyerr"
	"github.com/inkylab/inkyserver/raster"
)

// SimulatedDriver implements Driver without touching any hardware: Show
// writes the staged frame to a PNG file instead of pushing it over SPI. It
// exists for development and for the test harness, so a caller can exercise
// the same SetImage/Show contract every concrete panel driver does without
// wiring up real buses and pins.
type SimulatedDriver struct {
	info   DisplayInfo
	path   string
	border colormodel.ColorName
	log    zerolog.Logger

	frame *raster.Image
}

// NewSimulated returns a simulated driver standing in for the default
// 400x300 red/black/white wHAT panel, writing each refresh to
// Inky_<unix_ms>.png in the working directory.
func NewSimulated(log zerolog.Logger) *SimulatedDriver {
	info := DisplayInfo{
		Width:      400,
		Height:     300,
		Capability: BlackWhiteRed,
		Variant:    VariantRedWHATSSD1683,
	}
	return NewSimulatedDriver(info, "", log)
}

// NewSimulatedDriver returns a Driver that renders refreshes to path as a
// PNG file, overwriting it on every Show. An empty path writes a fresh
// Inky_<unix_ms>.png per refresh instead.
func NewSimulatedDriver(info DisplayInfo, path string, log zerolog.Logger) *SimulatedDriver {
	return &SimulatedDriver{info: info, path: path, border: colormodel.White, log: log}
}

func (d *SimulatedDriver) Info() DisplayInfo { return d.info }

// SetBorder records the border ink. The simulated output renders only the
// frame itself, so the value is informational.
func (d *SimulatedDriver) SetBorder(c colormodel.ColorName) { d.border = c }

func (d *SimulatedDriver) SetImage(src *raster.Image, settings dither.Settings) error {
	indexed, err := stageFrame(d.info, src, settings)
	if err != nil {
		return err
	}
	d.frame = indexed.ToRGBA()
	return nil
}

func (d *SimulatedDriver) Show(ctx context.Context) error {
	if d.frame == nil {
		return inkyerr.State("inky.Show", "SetImage must be called before Show")
	}
	start := time.Now()

	path := d.path
	if path == "" {
		path = fmt.Sprintf("Inky_%d.png", time.Now().UnixMilli())
	}
	f, err := os.Create(path)
	if err != nil {
		return inkyerr.Wrap("inky.Show", inkyerr.Io, err)
	}
	defer f.Close()

	if err := png.Encode(f, d.frame.AsStdImage()); err != nil {
		return inkyerr.Wrap("inky.Show", inkyerr.Encode, err)
	}

	d.log.Info().Str("path", path).Dur("elapsed", time.Since(start)).Msg("simulated refresh complete")
	return nil
}

func (d *SimulatedDriver) Close() error { return nil }
