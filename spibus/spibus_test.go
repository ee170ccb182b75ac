// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spibus

import (
	"testing"

	"periph.io/x/conn/v3/spi/spitest"
)

func TestWriteChunkedSplitsAtMaxTxSize(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}
	rec := &spitest.Record{}
	conn, err := rec.Connect(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	dev := &Device{conn: conn, maxTxSize: 4}
	if err := dev.WriteChunked(data); err != nil {
		t.Fatalf("WriteChunked error: %v", err)
	}
	if len(rec.Ops) != 3 {
		t.Fatalf("got %d chunks, want 3 (4+4+2 bytes)", len(rec.Ops))
	}
	for i, wantLen := range []int{4, 4, 2} {
		if len(rec.Ops[i].W) != wantLen {
			t.Errorf("chunk %d length = %d, want %d", i, len(rec.Ops[i].W), wantLen)
		}
	}
}

func TestOpenDefaultsMaxTxSizeWithoutLimits(t *testing.T) {
	rec := &spitest.Record{}
	conn, err := rec.Connect(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	dev := Open(conn)
	if dev.MaxTxSize() != defaultMaxTxSize {
		t.Errorf("MaxTxSize() = %d, want default %d", dev.MaxTxSize(), defaultMaxTxSize)
	}
}
