// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpiobank implements the pin bank: a per-line state machine
// (Unconfigured -> Configured(mode,bias) -> ... -> Released) layered over a
// single background goroutine that watches subscribed gpio.PinIO lines for
// edges and invokes each line's handler as they fire. One mutex guards the
// line map and the subscription set; the event goroutine is the only place
// handlers ever run.
package gpiobank

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"

	"github.com/inkylab/inkyserver/inkyerr"
)

// Handler is invoked on the bank's background goroutine whenever its line
// observes the edge it subscribed for, with the line's level just after the
// edge and the time the event loop observed it. Handlers must be quick and
// must not call Subscribe, Unsubscribe, SetupLine or ReleaseLine on the same
// Bank; doing so deadlocks against the bank's mutex.
type Handler func(line gpio.PinIn, level gpio.Level, at time.Time)

// LineMode is a line's data direction.
type LineMode int

const (
	Input LineMode = iota
	Output
)

// lifecycle tracks a line's position in the Unconfigured -> Configured ->
// Released state machine.
type lifecycle int

const (
	unconfigured lifecycle = iota
	configured
	released
)

type managedLine struct {
	state lifecycle
	mode  LineMode
	bias  gpio.Pull
}

type subscription struct {
	line    gpio.PinIn
	edge    gpio.Edge
	pull    gpio.Pull
	handler Handler
}

// Bank owns a set of managed GPIO lines, their subscriptions, and the single
// goroutine that polls subscribed lines for edges.
type Bank struct {
	mu    sync.Mutex
	lines map[pin.Pin]*managedLine
	subs  map[int]*subscription
	next  int

	shutdown chan struct{}
	wake     chan struct{}
	done     chan struct{}

	pollInterval time.Duration
}

// New starts a Bank with the given poll interval between WaitForEdge checks
// across all subscribed lines.
func New(pollInterval time.Duration) *Bank {
	if pollInterval <= 0 {
		pollInterval = 16 * time.Millisecond
	}
	b := &Bank{
		lines:        make(map[pin.Pin]*managedLine),
		subs:         make(map[int]*subscription),
		shutdown:     make(chan struct{}),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: pollInterval,
	}
	go b.loop()
	return b
}

// SetupLine configures line for mode with the given bias, driving it via
// periph's In/Out as appropriate. It is idempotent in (mode, bias):
// re-calling on an already-Configured line reconfigures it atomically.
// Calling it on a Released line fails with InvalidState -- a line's
// lifecycle only moves forward.
func (b *Bank) SetupLine(line gpio.PinIO, mode LineMode, bias gpio.Pull) error {
	const op = "gpiobank.SetupLine"
	b.mu.Lock()
	defer b.mu.Unlock()

	key := pin.Pin(line)
	if ln, ok := b.lines[key]; ok && ln.state == released {
		return inkyerr.State(op, "line was released")
	}

	switch mode {
	case Output:
		if err := line.Out(gpio.Low); err != nil {
			return inkyerr.Wrap(op, inkyerr.Io, err)
		}
	default:
		if err := line.In(bias, gpio.NoEdge); err != nil {
			return inkyerr.Wrap(op, inkyerr.Io, err)
		}
	}

	b.lines[key] = &managedLine{state: configured, mode: mode, bias: bias}
	return nil
}

// ReleaseLine invalidates all subsequent Read, Write and Subscribe calls
// against line, and cancels any standing subscription on it.
func (b *Bank) ReleaseLine(line gpio.PinIO) error {
	const op = "gpiobank.ReleaseLine"
	b.mu.Lock()
	defer b.mu.Unlock()

	key := pin.Pin(line)
	ln, ok := b.lines[key]
	if !ok {
		return inkyerr.State(op, "line was never configured")
	}
	ln.state = released
	for token, s := range b.subs {
		if pin.Pin(s.line) == key {
			delete(b.subs, token)
		}
	}
	return nil
}

// Read returns the current logical level of line. It fails with
// InvalidState if line has not been configured via SetupLine, has been
// released, or is configured as Output.
func (b *Bank) Read(line gpio.PinIO) (gpio.Level, error) {
	const op = "gpiobank.Read"
	b.mu.Lock()
	defer b.mu.Unlock()

	ln, ok := b.lines[pin.Pin(line)]
	if !ok || ln.state != configured {
		return gpio.Low, inkyerr.State(op, "line is not configured")
	}
	if ln.mode != Input {
		return gpio.Low, inkyerr.State(op, "line is configured as Output")
	}
	return line.Read(), nil
}

// Write drives line high when high is true and low otherwise. It fails with InvalidState if
// line has not been configured via SetupLine, has been released, or is
// configured as Input.
func (b *Bank) Write(line gpio.PinIO, high bool) error {
	const op = "gpiobank.Write"
	b.mu.Lock()
	defer b.mu.Unlock()

	ln, ok := b.lines[pin.Pin(line)]
	if !ok || ln.state != configured {
		return inkyerr.State(op, "line is not configured")
	}
	if ln.mode != Output {
		return inkyerr.State(op, "line is configured as Input")
	}
	level := gpio.Low
	if high {
		level = gpio.High
	}
	if err := line.Out(level); err != nil {
		return inkyerr.Wrap(op, inkyerr.Io, err)
	}
	return nil
}

// Subscribe configures line as an Input with the given pull and begins
// invoking handler on the bank's goroutine every time line observes edge.
// The returned token is passed to Unsubscribe. It fails with InvalidState
// if line has already been released.
func (b *Bank) Subscribe(line gpio.PinIn, pull gpio.Pull, edge gpio.Edge, handler Handler) (int, error) {
	const op = "gpiobank.Subscribe"
	key := pin.Pin(line)
	b.mu.Lock()
	if ln, ok := b.lines[key]; ok && ln.state == released {
		b.mu.Unlock()
		return 0, inkyerr.State(op, "line was released")
	}
	b.mu.Unlock()

	if err := line.In(pull, edge); err != nil {
		return 0, inkyerr.Wrap(op, inkyerr.Io, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[key] = &managedLine{state: configured, mode: Input, bias: pull}
	token := b.next
	b.next++
	b.subs[token] = &subscription{line: line, edge: edge, pull: pull, handler: handler}
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return token, nil
}

// Unsubscribe stops invoking the handler registered under token.
func (b *Bank) Unsubscribe(token int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, token)
}

// Close stops the background goroutine and waits for it to exit. It does
// not release or reconfigure any subscribed or configured line.
func (b *Bank) Close() error {
	close(b.shutdown)
	<-b.done
	return nil
}

func (b *Bank) loop() {
	defer close(b.done)
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.shutdown:
			return
		case <-b.wake:
		case <-ticker.C:
		}
		b.pollOnce()
	}
}

func (b *Bank) pollOnce() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		if s.line.WaitForEdge(0) {
			s.handler(s.line, s.line.Read(), time.Now())
		}
	}
}
