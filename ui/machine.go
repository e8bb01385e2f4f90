// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ui is the reader's state machine: a start screen, a paged book
// and an image slideshow, navigated with three buttons.
//
// Each Tick runs the action of the current state, consults the pending
// button event where the state waits for one, and moves to the next state.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-eink"
	"github.com/ZaparooProject/go-eink/book"
	"github.com/ZaparooProject/go-eink/button"
	"github.com/ZaparooProject/go-eink/internal/log"
)

var (
	// ErrPoweredOff is returned by Tick once the power-off sequence ran.
	ErrPoweredOff = errors.New("powered off")
	// ErrUnknownEvent is returned when the pending event is not a known press.
	ErrUnknownEvent = errors.New("unknown button event")
)

// Panel is the subset of *eink.Display the screens are drawn with.
type Panel interface {
	Wake(ctx context.Context) error
	Clear(ctx context.Context) error
	Refresh(ctx context.Context) error
	Sleep(ctx context.Context) error
	SetFontSize(ctx context.Context, size eink.FontSize) error
	DrawText(ctx context.Context, x, y uint16, text string) error
	DrawCircle(ctx context.Context, x, y, r uint16) error
	DisplayImage(ctx context.Context, x, y uint16, name string) error
}

// EventSource hands out the pending button event and clears it.
type EventSource interface {
	Take() button.Event
}

// PositionStore persists the reading position.
type PositionStore interface {
	Load() (int, error)
	Save(pos int) error
}

// Config holds the state machine options
type Config struct {
	// Tick is the pause between two steps of Run
	Tick time.Duration
	// DemoTicks is how many ticks each demo image stays on screen
	DemoTicks int
	// Images are shown in order by the demo
	Images []string
	// ShutdownImage is drawn before powering off; empty skips the image
	ShutdownImage string
	// PowerOff is called after the shutdown image is drawn
	PowerOff func(ctx context.Context) error
}

// DefaultConfig returns the default state machine configuration. Images
// must still be provided.
func DefaultConfig() *Config {
	return &Config{
		Tick:      250 * time.Millisecond,
		DemoTicks: 40,
	}
}

// Machine is the reader's UI state machine. It is driven from a single
// goroutine; only the EventSource is shared with the button watcher.
type Machine struct {
	panel       Panel
	events      EventSource
	book        *book.Book
	positions   PositionStore
	config      *Config
	state       State
	demoIndex   int
	demoCounter int
}

// New creates a machine in the StartDraw state.
func New(panel Panel, events EventSource, bk *book.Book, positions PositionStore, cfg *Config) (*Machine, error) {
	switch {
	case panel == nil:
		return nil, errors.New("ui: nil panel")
	case events == nil:
		return nil, errors.New("ui: nil event source")
	case bk == nil:
		return nil, errors.New("ui: nil book")
	case positions == nil:
		return nil, errors.New("ui: nil position store")
	case cfg == nil:
		return nil, errors.New("ui: nil config")
	case len(cfg.Images) == 0:
		return nil, errors.New("ui: no demo images")
	case cfg.DemoTicks < 2:
		return nil, fmt.Errorf("ui: demo ticks must be at least 2, got %d", cfg.DemoTicks)
	}

	return &Machine{
		panel:     panel,
		events:    events,
		book:      bk,
		positions: positions,
		config:    cfg,
		state:     StartDraw,
	}, nil
}

// State returns the current state
func (m *Machine) State() State { return m.state }

// DemoImage returns the index of the demo image currently shown
func (m *Machine) DemoImage() int { return m.demoIndex }

// DemoCounter returns the number of ticks spent on the current demo image
func (m *Machine) DemoCounter() int { return m.demoCounter }

// Run calls Tick, then pauses for the Tick interval, until ctx is cancelled,
// in which case it returns nil, or until Tick fails. The pause always
// follows the tick, however long the tick's screen update took.
func (m *Machine) Run(ctx context.Context) error {
	timer := time.NewTimer(m.config.Tick)
	defer timer.Stop()

	for {
		if err := m.Tick(ctx); err != nil {
			return err
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(m.config.Tick)

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil
		}
	}
}

// Tick performs one step of the state machine.
func (m *Machine) Tick(ctx context.Context) error {
	from := m.state

	switch m.state {
	case StartDraw:
		m.render(ctx, "start", m.startScreen())
		m.state = StartWait

	case StartWait:
		ev, err := m.take()
		if err != nil {
			return err
		}
		switch ev {
		case button.ShortPress(button.Back):
			m.state = BookDraw
		case button.ShortPress(button.Forward):
			m.state = Demo
		case button.LongPress(button.Go):
			return m.powerOff(ctx)
		}

	case BookDraw:
		m.render(ctx, "page", m.pageScreen(m.loadPosition()))
		m.state = BookWait

	case BookWait:
		ev, err := m.take()
		if err != nil {
			return err
		}
		switch ev {
		case button.ShortPress(button.Back):
			m.state = BookPrev
		case button.ShortPress(button.Forward):
			m.state = BookNext
		case button.LongPress(button.Go):
			m.goToStart()
		}

	case BookPrev:
		m.savePosition(m.book.Prev(m.loadPosition()))
		m.state = BookDraw

	case BookNext:
		m.savePosition(m.book.Next(m.loadPosition()))
		m.state = BookDraw

	case Demo:
		m.demoCounter++
		switch m.demoCounter {
		case 1:
			m.render(ctx, "demo", m.imageScreen(m.config.Images[m.demoIndex]))
		case m.config.DemoTicks:
			m.demoCounter = 0
			m.demoIndex = (m.demoIndex + 1) % len(m.config.Images)
		}

		ev, err := m.take()
		if err != nil {
			return err
		}
		if ev == button.LongPress(button.Go) {
			m.goToStart()
		}

	default:
		return fmt.Errorf("ui: invalid state %s", m.state)
	}

	if m.state != from {
		log.Debug("ui transition", "from", from, "to", m.state)
	}
	return nil
}

// take consumes the pending event.
func (m *Machine) take() (button.Event, error) {
	ev := m.events.Take()
	if !ev.Valid() {
		return ev, fmt.Errorf("%w: %v", ErrUnknownEvent, ev)
	}
	if !ev.IsNothing() {
		log.Debug("ui event", "state", m.state, "event", ev)
	}
	return ev, nil
}

func (m *Machine) goToStart() {
	m.demoIndex = 0
	m.demoCounter = 0
	m.state = StartDraw
}

func (m *Machine) powerOff(ctx context.Context) error {
	log.Info("powering off")
	if m.config.ShutdownImage != "" {
		m.render(ctx, "shutdown", m.imageScreen(m.config.ShutdownImage))
	}
	if m.config.PowerOff != nil {
		if err := m.config.PowerOff(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrPoweredOff, err)
		}
	}
	return ErrPoweredOff
}

// loadPosition returns the stored position mapped onto a page start. An
// unreadable store reads as the first page.
func (m *Machine) loadPosition() int {
	pos, err := m.positions.Load()
	if err != nil {
		log.Error("load reading position", err)
		pos = 0
	}
	return m.book.Clamp(pos)
}

func (m *Machine) savePosition(pos int) {
	if err := m.positions.Save(pos); err != nil {
		log.Error("save reading position", err, "position", pos)
	}
}

// render runs every drawing step. Failures are logged and drawing carries
// on; only cancellation stops it.
func (m *Machine) render(ctx context.Context, scene string, steps []step) {
	for _, s := range steps {
		if ctx.Err() != nil {
			return
		}
		if err := s(ctx); err != nil {
			if eink.IsFatal(err) {
				log.Error("display unavailable", err, "scene", scene)
				continue
			}
			log.Debug("display step failed", "scene", scene, "err", err)
		}
	}
}
