// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cbus layers the sub-address read/write contract the Inky driver
// core needs (reading the panel's EEPROM, in particular) on top of
// periph.io/x/conn/v3's i2c.Bus.
package i2cbus

import (
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/inkylab/inkyserver/inkyerr"
)

// Device is a single I2C slave address on a shared bus.
type Device struct {
	bus  i2c.Bus
	addr uint16
}

// Open binds a Device to addr on bus. It performs no I/O.
func Open(bus i2c.Bus, addr uint16) *Device {
	return &Device{bus: bus, addr: addr}
}

// ReadAt reads len(buf) bytes starting at sub-address reg, the pattern the
// Inky EEPROM (and most simple I2C peripherals) use: write the sub-address
// byte, give the device delay to prepare, then read back its contents. A
// zero delay collapses the exchange into one write-then-read transaction.
func (d *Device) ReadAt(reg uint8, buf []byte, delay time.Duration) error {
	const op = "i2cbus.ReadAt"
	if delay <= 0 {
		if err := d.bus.Tx(d.addr, []byte{reg}, buf); err != nil {
			return inkyerr.Wrap(op, inkyerr.Io, err)
		}
		return nil
	}
	if err := d.bus.Tx(d.addr, []byte{reg}, nil); err != nil {
		return inkyerr.Wrap(op, inkyerr.Io, err)
	}
	time.Sleep(delay)
	if err := d.bus.Tx(d.addr, nil, buf); err != nil {
		return inkyerr.Wrap(op, inkyerr.Io, err)
	}
	return nil
}

// Write sends data with no read-back expected.
func (d *Device) Write(data []byte) error {
	if err := d.bus.Tx(d.addr, data, nil); err != nil {
		return inkyerr.Wrap("i2cbus.Write", inkyerr.Io, err)
	}
	return nil
}

// Addr returns the device's slave address.
func (d *Device) Addr() uint16 { return d.addr }
