// Copyright 2019 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command inkyctl is the thin composition root the inky package itself
// needs no knowledge of: it opens the SPI/GPIO/I2C buses, decodes an input
// image, quantizes it against the detected panel's palette and pushes it
// to the hardware.
package main

import (
	"context"
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/inkylab/inkyserver/colormodel"
	"github.com/inkylab/inkyserver/dither"
	"github.com/inkylab/inkyserver/inky"
	"github.com/inkylab/inkyserver/inkyerr"
	"github.com/inkylab/inkyserver/raster"
)

func main() {
	os.Exit(run())
}

func run() int {
	imagePath := flag.String("image", "", "path to the image file to display")
	simulate := flag.Bool("simulate", false, "render to an Inky_<ms>.png file instead of driving hardware")
	spiName := flag.String("spi", "", "SPI port name, empty for the first registered port")
	i2cName := flag.String("i2c", "", "I2C bus name used for EEPROM auto-detection, empty for the first registered bus")
	dcPin := flag.String("dc", "22", "data/command GPIO pin name")
	resetPin := flag.String("reset", "27", "reset GPIO pin name")
	busyPin := flag.String("busy", "17", "busy GPIO pin name")
	borderName := flag.String("border", "", "border color name override (black, white, red, yellow); empty keeps the panel default")
	timeout := flag.Duration("timeout", 45*time.Second, "maximum time to wait for the panel's busy handshake")
	verbose := flag.Bool("verbose", false, "log debug-level detail")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	if *imagePath == "" {
		log.Error().Msg("missing required -image flag")
		return 2
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		log.Error().Err(err).Str("path", *imagePath).Msg("failed to open image")
		return 1
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		log.Error().Err(err).Str("path", *imagePath).Msg("failed to decode image")
		return 1
	}

	var driver inky.Driver
	if *simulate {
		driver = inky.NewSimulated(log)
	} else {
		if _, err := host.Init(); err != nil {
			log.Error().Err(err).Msg("host.Init failed")
			return 1
		}
		port, err := spireg.Open(*spiName)
		if err != nil {
			log.Error().Err(err).Str("spi", *spiName).Msg("failed to open SPI port")
			return 1
		}
		defer port.Close()

		dc := gpioreg.ByName(*dcPin)
		rst := gpioreg.ByName(*resetPin)
		busy := gpioreg.ByName(*busyPin)
		if dc == nil || rst == nil || busy == nil {
			log.Error().Str("dc", *dcPin).Str("reset", *resetPin).Str("busy", *busyPin).Msg("failed to resolve one or more GPIO pins")
			return 1
		}

		info, err := detectDisplay(*i2cName, log)
		if err != nil {
			log.Error().Err(err).Msg("failed to detect display over I2C")
			return 1
		}
		log.Info().Int("width", info.Width).Int("height", info.Height).Str("variant", info.Variant.String()).Msg("detected display")

		driver, err = inky.Create(info, port, dc, rst, busy, inky.Options{Logger: log})
		if err != nil {
			log.Error().Err(err).Msg("failed to create driver")
			return 1
		}
	}
	defer driver.Close()

	if *borderName != "" {
		var name colormodel.ColorName
		if err := name.Set(*borderName); err != nil {
			log.Error().Err(err).Str("border", *borderName).Msg("invalid border color")
			return 2
		}
		driver.SetBorder(name)
	}

	frame := rasterFromStdImage(src)
	if err := driver.SetImage(frame, dither.DefaultSettings()); err != nil {
		log.Error().Err(err).Msg("SetImage failed")
		return exitCodeFor(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	start := time.Now()
	if err := driver.Show(ctx); err != nil {
		log.Error().Err(err).Msg("Show failed")
		return exitCodeFor(err)
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("refresh complete")
	return 0
}

// detectDisplay opens an I2C bus and reads the panel's EEPROM. Any failure
// to open the bus or decode its contents is fatal: inky.Create always
// needs a DisplayInfo, and only -simulate carries a built-in identity.
func detectDisplay(name string, log zerolog.Logger) (inky.DisplayInfo, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return inky.DisplayInfo{}, inkyerr.Wrap("inkyctl.detectDisplay", inkyerr.Io, err)
	}
	defer bus.Close()
	log.Debug().Str("i2c", name).Msg("reading EEPROM")
	return inky.DetectDisplayInfo(bus)
}

// rasterFromStdImage copies a decoded standard-library image into a
// continuous-tone raster.Image, the seam between the PNG/JPEG codecs and
// this module's own pixel pipeline.
func rasterFromStdImage(src image.Image) *raster.Image {
	b := src.Bounds()
	dst := raster.NewRGBA(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			dst.Set(x-b.Min.X, y-b.Min.Y, colormodel.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)})
		}
	}
	return dst
}

func exitCodeFor(err error) int {
	switch {
	case inkyerr.Is(err, inkyerr.Unsupported):
		return 3
	case inkyerr.Is(err, inkyerr.TimedOut):
		return 4
	default:
		return 1
	}
}
