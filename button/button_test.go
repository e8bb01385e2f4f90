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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

const (
	lo = gpio.Low
	hi = gpio.High
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		levels []gpio.Level
		want   Press
	}{
		{name: "held for all samples", levels: []gpio.Level{lo, lo, lo, lo, lo, lo, lo, lo, lo, lo}, want: Long},
		{name: "released immediately", levels: []gpio.Level{hi, hi}, want: Short},
		{name: "released late", levels: []gpio.Level{lo, lo, lo, lo, lo, lo, lo, lo, hi, hi}, want: Short},
		{name: "single bounce", levels: []gpio.Level{lo, hi, lo, lo, lo, lo, lo, lo, lo, lo}, want: Long},
		{name: "two separated highs", levels: []gpio.Level{hi, lo, lo, hi}, want: Short},
		{name: "empty", levels: nil, want: Long},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.levels))
		})
	}
}

// scriptedPin replays a fixed level sequence, then stays at the last level.
type scriptedPin struct {
	gpiotest.Pin
	levels []gpio.Level
	reads  int
}

func (p *scriptedPin) Read() gpio.Level {
	i := p.reads
	p.reads++
	if i >= len(p.levels) {
		return p.levels[len(p.levels)-1]
	}
	return p.levels[i]
}

func TestSampler_EarlyExit(t *testing.T) {
	t.Parallel()
	pin := &scriptedPin{levels: []gpio.Level{lo, hi, hi, lo}}

	press := Sampler{Interval: time.Millisecond}.Sample(context.Background(), pin)
	assert.Equal(t, Short, press)
	assert.Equal(t, 3, pin.reads, "sampling stops once the press is decided")
}

func TestSampler_Long(t *testing.T) {
	t.Parallel()
	pin := &scriptedPin{levels: []gpio.Level{lo}}

	press := Sampler{Interval: time.Millisecond}.Sample(context.Background(), pin)
	assert.Equal(t, Long, press)
	assert.Equal(t, MaxSamples, pin.reads)
}

func TestSampler_Cancelled(t *testing.T) {
	t.Parallel()
	pin := &scriptedPin{levels: []gpio.Level{lo}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	press := Sampler{Interval: time.Hour}.Sample(ctx, pin)
	assert.Equal(t, Nothing, press)
	assert.Equal(t, 1, pin.reads)
}

func TestSlot(t *testing.T) {
	t.Parallel()
	var slot Slot

	assert.Equal(t, None, slot.Take())

	slot.Publish(ShortPress(Back))
	slot.Publish(LongPress(Go))
	assert.Equal(t, LongPress(Go), slot.Peek(), "last write wins")
	assert.Equal(t, LongPress(Go), slot.Take())
	assert.Equal(t, None, slot.Take(), "take clears the slot")
}

func TestEvent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Nothing", None.String())
	assert.Equal(t, "S(Forward)", ShortPress(Forward).String())
	assert.Equal(t, "L(Go)", LongPress(Go).String())
	assert.True(t, None.IsNothing())
	assert.True(t, ShortPress(Back).Valid())
	assert.False(t, Event{Press: Short, Line: Line(7)}.Valid())
	assert.False(t, Event{Press: Press(9), Line: Back}.Valid())
	assert.Equal(t, "Line(7)", Line(7).String())
}

func newTestPin(name string) *gpiotest.Pin {
	return &gpiotest.Pin{N: name, EdgesChan: make(chan gpio.Level, 4)}
}

func TestNewWatcher_Errors(t *testing.T) {
	t.Parallel()
	pin := newTestPin("GPIO24")

	_, err := NewWatcher(nil, map[Line]gpio.PinIn{Back: pin}, nil)
	require.Error(t, err)
	_, err = NewWatcher(&Slot{}, nil, nil)
	require.Error(t, err)
	_, err = NewWatcher(&Slot{}, map[Line]gpio.PinIn{Line(5): pin}, nil)
	require.Error(t, err)
	_, err = NewWatcher(&Slot{}, map[Line]gpio.PinIn{Back: nil}, nil)
	require.Error(t, err)
}

func TestWatcher_StartArmsPins(t *testing.T) {
	t.Parallel()
	back := newTestPin("GPIO24")
	slot := &Slot{}
	w, err := NewWatcher(slot, map[Line]gpio.PinIn{Back: back}, &Config{
		SampleInterval: time.Millisecond, Debounce: 10 * time.Millisecond, EdgePoll: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()), "second start is a no-op")
	assert.Equal(t, gpio.PullUp, back.Pull())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_StartFailsWithoutEdgeSupport(t *testing.T) {
	t.Parallel()
	pin := &gpiotest.Pin{N: "GPIO25"}
	w, err := NewWatcher(&Slot{}, map[Line]gpio.PinIn{Forward: pin}, nil)
	require.NoError(t, err)

	require.Error(t, w.Start(context.Background()))
}

func TestWatcher_PublishesPresses(t *testing.T) {
	t.Parallel()
	back := newTestPin("GPIO24")
	fwd := newTestPin("GPIO25")
	goPin := newTestPin("GPIO27")
	slot := &Slot{}

	w, err := NewWatcher(slot, map[Line]gpio.PinIn{Back: back, Forward: fwd, Go: goPin}, &Config{
		SampleInterval: time.Millisecond, Debounce: 20 * time.Millisecond, EdgePoll: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { require.NoError(t, w.Stop()) }()

	// The edge leaves the line high: released before the first sample.
	fwd.EdgesChan <- gpio.High
	require.Eventually(t, func() bool { return slot.Peek() == ShortPress(Forward) },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, ShortPress(Forward), slot.Take())

	// The edge leaves the line low: still held after every sample.
	goPin.EdgesChan <- gpio.Low
	require.Eventually(t, func() bool { return slot.Peek() == LongPress(Go) },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, LongPress(Go), slot.Take())

	m := w.Metrics()
	assert.Equal(t, int64(2), m.Edges)
	assert.Equal(t, int64(2), m.Presses)
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()
	back := newTestPin("GPIO24")
	slot := &Slot{}
	debounce := 300 * time.Millisecond

	w, err := NewWatcher(slot, map[Line]gpio.PinIn{Back: back}, &Config{
		SampleInterval: time.Millisecond, Debounce: debounce, EdgePoll: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { require.NoError(t, w.Stop()) }()

	back.EdgesChan <- gpio.High
	require.Eventually(t, func() bool { return w.Metrics().Presses == 1 }, time.Second, 5*time.Millisecond)

	// Bounce arrives while the line is disarmed.
	back.EdgesChan <- gpio.High
	time.Sleep(debounce + 100*time.Millisecond)
	assert.Equal(t, int64(1), w.Metrics().Presses, "edges during the debounce are dropped")

	back.EdgesChan <- gpio.High
	require.Eventually(t, func() bool { return w.Metrics().Presses == 2 }, time.Second, 5*time.Millisecond)
}
