// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spibus layers chunked-write semantics on top of
// periph.io/x/conn/v3's spi.Conn: some SPI drivers cap a single
// transaction's length (exposed through the conn.Limits interface), so
// large framebuffer writes must be split.
package spibus

import (
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"

	"github.com/inkylab/inkyserver/inkyerr"
)

// defaultMaxTxSize matches the original hardware's SPIDevice default and is
// used when conn does not implement conn.Limits.
const defaultMaxTxSize = 4096

// Device wraps an open spi.Conn with a resolved maximum transaction size.
type Device struct {
	conn      spi.Conn
	maxTxSize int
}

// Open wraps conn, resolving its maximum transaction size through
// conn.Limits if the connection implements it.
func Open(c spi.Conn) *Device {
	maxTxSize := defaultMaxTxSize
	if limiter, ok := c.(conn.Limits); ok {
		if n := limiter.MaxTxSize(); n > 0 {
			maxTxSize = n
		}
	}
	return &Device{conn: c, maxTxSize: maxTxSize}
}

// WriteChunked writes data to the bus, splitting it into MaxTxSize pieces.
func (d *Device) WriteChunked(data []byte) error {
	for len(data) > 0 {
		n := d.maxTxSize
		if n > len(data) {
			n = len(data)
		}
		if err := d.conn.Tx(data[:n], nil); err != nil {
			return inkyerr.Wrap("spibus.WriteChunked", inkyerr.Io, err)
		}
		data = data[n:]
	}
	return nil
}

// MaxTxSize returns the resolved per-transaction byte limit.
func (d *Device) MaxTxSize() int { return d.maxTxSize }
