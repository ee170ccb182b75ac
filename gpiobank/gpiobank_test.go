// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpiobank

import (
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/inkylab/inkyserver/inkyerr"
)

func TestSubscribeInvokesHandlerOnEdge(t *testing.T) {
	pin := &gpiotest.Pin{N: "busy", EdgesChan: make(chan gpio.Level, 1)}

	bank := New(2 * time.Millisecond)
	defer bank.Close()

	var mu sync.Mutex
	fired := false
	_, err := bank.Subscribe(pin, gpio.PullDown, gpio.RisingEdge, func(gpio.PinIn, gpio.Level, time.Time) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	pin.EdgesChan <- gpio.High

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		mu.Lock()
		f := fired
		mu.Unlock()
		if f {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Error("handler was not invoked within the deadline")
}

func TestUnsubscribeStopsHandler(t *testing.T) {
	pin := &gpiotest.Pin{N: "busy", EdgesChan: make(chan gpio.Level, 1)}
	bank := New(2 * time.Millisecond)
	defer bank.Close()

	token, err := bank.Subscribe(pin, gpio.PullDown, gpio.RisingEdge, func(gpio.PinIn, gpio.Level, time.Time) {
		t.Error("handler should not fire after Unsubscribe")
	})
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	bank.Unsubscribe(token)
	pin.EdgesChan <- gpio.High
	time.Sleep(20 * time.Millisecond)
}

func TestReadFailsBeforeSetupLine(t *testing.T) {
	p := &gpiotest.Pin{N: "busy"}
	bank := New(2 * time.Millisecond)
	defer bank.Close()

	if _, err := bank.Read(p); !inkyerr.Is(err, inkyerr.InvalidState) {
		t.Fatalf("Read before SetupLine: got %v, want InvalidState", err)
	}
}

func TestWriteFailsOnInputLine(t *testing.T) {
	p := &gpiotest.Pin{N: "dc"}
	bank := New(2 * time.Millisecond)
	defer bank.Close()

	if err := bank.SetupLine(p, Input, gpio.PullDown); err != nil {
		t.Fatalf("SetupLine error: %v", err)
	}
	if err := bank.Write(p, true); !inkyerr.Is(err, inkyerr.InvalidState) {
		t.Fatalf("Write on Input line: got %v, want InvalidState", err)
	}
}

func TestReadFailsOnOutputLine(t *testing.T) {
	p := &gpiotest.Pin{N: "rst"}
	bank := New(2 * time.Millisecond)
	defer bank.Close()

	if err := bank.SetupLine(p, Output, gpio.Float); err != nil {
		t.Fatalf("SetupLine error: %v", err)
	}
	if _, err := bank.Read(p); !inkyerr.Is(err, inkyerr.InvalidState) {
		t.Fatalf("Read on Output line: got %v, want InvalidState", err)
	}
}

func TestSetupLineIsIdempotent(t *testing.T) {
	p := &gpiotest.Pin{N: "dc"}
	bank := New(2 * time.Millisecond)
	defer bank.Close()

	if err := bank.SetupLine(p, Output, gpio.Float); err != nil {
		t.Fatalf("first SetupLine error: %v", err)
	}
	if err := bank.SetupLine(p, Output, gpio.Float); err != nil {
		t.Fatalf("second SetupLine error: %v", err)
	}
	if err := bank.Write(p, true); err != nil {
		t.Fatalf("Write after reconfiguration: %v", err)
	}
}

func TestReleaseLineInvalidatesReadWrite(t *testing.T) {
	p := &gpiotest.Pin{N: "rst"}
	bank := New(2 * time.Millisecond)
	defer bank.Close()

	if err := bank.SetupLine(p, Output, gpio.Float); err != nil {
		t.Fatalf("SetupLine error: %v", err)
	}
	if err := bank.ReleaseLine(p); err != nil {
		t.Fatalf("ReleaseLine error: %v", err)
	}
	if err := bank.Write(p, true); !inkyerr.Is(err, inkyerr.InvalidState) {
		t.Fatalf("Write after ReleaseLine: got %v, want InvalidState", err)
	}
	if err := bank.SetupLine(p, Output, gpio.Float); !inkyerr.Is(err, inkyerr.InvalidState) {
		t.Fatalf("SetupLine after ReleaseLine: got %v, want InvalidState", err)
	}
}
