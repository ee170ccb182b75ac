// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package inky

import (
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkylab/inkyserver/inkyerr"
	"github.com/inkylab/inkyserver/spibus"
)

const (
	ssd1683Speed = 10 * physic.MegaHertz
	uc8159Speed  = 3000 * physic.KiloHertz
	ac073Speed   = 5000 * physic.KiloHertz
)

// Options configures Create.
type Options struct {
	// Registerer receives the driver's Prometheus metrics. Leave nil to
	// disable metric collection entirely.
	Registerer prometheus.Registerer
	// Logger receives structured refresh/error events. The zero value
	// (zerolog.Logger{}) discards everything.
	Logger zerolog.Logger
}

// Create connects to the already-open port at the speed the display's
// controller family expects, and returns the concrete Driver implementation
// for info.Variant's controller.
func Create(info DisplayInfo, port spi.Port, dc, rst gpio.PinOut, busy gpio.PinIn, opts Options) (Driver, error) {
	speed := ssd1683Speed
	switch info.Variant.Controller() {
	case ControllerUC8159:
		speed = uc8159Speed
	case ControllerAC073TC1A:
		speed = ac073Speed
	}

	c, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, inkyerr.Wrap("inky.Create", inkyerr.Io, err)
	}
	bus := spibus.Open(c)

	metrics := newDriverMetrics(opts.Registerer, info.Variant.String())

	switch info.Variant.Controller() {
	case ControllerUC8159, ControllerAC073TC1A:
		return newACePDriver(info, bus, dc, rst, busy, opts.Logger, metrics), nil
	default:
		return newSSD1683Driver(info, bus, dc, rst, busy, opts.Logger, metrics), nil
	}
}
