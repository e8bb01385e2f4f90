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

package button

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-eink/internal/log"
	"github.com/ZaparooProject/go-eink/internal/syncutil"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
)

// Config holds the watcher timings.
type Config struct {
	// SampleInterval is the pause between two level readings
	SampleInterval time.Duration
	// Debounce is how long a line stays disarmed after an edge
	Debounce time.Duration
	// EdgePoll bounds a single wait for an edge so cancellation is noticed
	EdgePoll time.Duration
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() *Config {
	return &Config{
		SampleInterval: DefaultSampleInterval,
		Debounce:       1500 * time.Millisecond,
		EdgePoll:       500 * time.Millisecond,
	}
}

// Metrics counts watcher activity since Start.
type Metrics struct {
	Edges   int64 // falling edges seen
	Presses int64 // events published
}

// Watcher runs one goroutine per button line. Each goroutine waits for a
// falling edge, classifies the press, publishes it into the Slot and keeps
// the line disarmed for the debounce delay.
type Watcher struct {
	pins    map[Line]gpio.PinIn
	slot    *Slot
	config  *Config
	cancel  context.CancelFunc
	group   *errgroup.Group
	edges   atomic.Int64
	presses atomic.Int64
	mu      syncutil.Mutex
	running bool
}

// NewWatcher creates a watcher publishing into slot. A nil cfg selects
// DefaultConfig.
func NewWatcher(slot *Slot, pins map[Line]gpio.PinIn, cfg *Config) (*Watcher, error) {
	if slot == nil {
		return nil, errors.New("button: nil slot")
	}
	if len(pins) == 0 {
		return nil, errors.New("button: no pins")
	}
	for line, pin := range pins {
		if line < Back || line > Go {
			return nil, fmt.Errorf("button: unknown line %d", int(line))
		}
		if pin == nil {
			return nil, fmt.Errorf("button: nil pin for %s", line)
		}
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Watcher{pins: pins, slot: slot, config: cfg}, nil
}

// Start arms every line for falling edges and launches the watch
// goroutines. Calling Start on a running watcher does nothing.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	for line, pin := range w.pins {
		if err := arm(pin); err != nil {
			return fmt.Errorf("arm %s on %s: %w", line, pin, err)
		}
	}

	wctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(wctx)
	for line, pin := range w.pins {
		group.Go(func() error {
			return w.watch(gctx, line, pin)
		})
	}

	w.cancel = cancel
	w.group = group
	w.running = true
	w.edges.Store(0)
	w.presses.Store(0)
	log.Debug("button watcher started", "lines", len(w.pins))
	return nil
}

// Stop cancels the watch goroutines, halts the input pins and waits for
// the goroutines to exit. It returns the first re-arm failure, if any.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel, group := w.cancel, w.group
	w.running = false
	w.mu.Unlock()

	cancel()
	for line, pin := range w.pins {
		if err := pin.Halt(); err != nil {
			log.Debug("halt button pin failed", "line", line, "err", err)
		}
	}
	return group.Wait()
}

// Metrics returns activity counters
func (w *Watcher) Metrics() Metrics {
	return Metrics{
		Edges:   w.edges.Load(),
		Presses: w.presses.Load(),
	}
}

func arm(pin gpio.PinIn) error {
	return pin.In(gpio.PullUp, gpio.FallingEdge)
}

func (w *Watcher) watch(ctx context.Context, line Line, pin gpio.PinIn) error {
	sampler := Sampler{Interval: w.config.SampleInterval}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !pin.WaitForEdge(w.config.EdgePoll) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		edgeAt := time.Now()
		w.edges.Add(1)

		press := sampler.Sample(ctx, pin)
		if press == Nothing {
			return nil
		}
		ev := Event{Press: press, Line: line}
		w.slot.Publish(ev)
		w.presses.Add(1)
		log.Debug("button event", "event", ev)

		if wait := w.config.Debounce - time.Since(edgeAt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil
			}
		}

		// Re-arming discards edges that bounced in during the debounce.
		if err := arm(pin); err != nil {
			return fmt.Errorf("re-arm %s: %w", line, err)
		}
	}
}
