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

package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/go-eink"
	"github.com/ZaparooProject/go-eink/book"
	"github.com/ZaparooProject/go-eink/button"
	"github.com/ZaparooProject/go-eink/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	loadErr error
	saveErr error
	saves   []int
	pos     int
}

func (s *memStore) Load() (int, error) {
	if s.loadErr != nil {
		return 0, s.loadErr
	}
	return s.pos, nil
}

func (s *memStore) Save(pos int) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.pos = pos
	s.saves = append(s.saves, pos)
	return nil
}

type fixture struct {
	machine *Machine
	mock    *eink.MockTransport
	slot    *button.Slot
	store   *memStore
	config  *Config
}

func numberedBook(n int) *book.Book {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return book.New(lines)
}

func newFixture(t *testing.T, lines int, mutate ...func(*Config)) *fixture {
	t.Helper()

	mock := eink.NewMockTransport()
	display, err := eink.New(mock, eink.WithDisplayConfig(&eink.DisplayConfig{}))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Tick = time.Millisecond
	cfg.Images = []string{"MAIS.BMP", "KID.BMP", "FIN23.BMP"}
	for _, fn := range mutate {
		fn(cfg)
	}

	f := &fixture{mock: mock, slot: &button.Slot{}, store: &memStore{}, config: cfg}
	f.machine, err = New(display, f.slot, numberedBook(lines), f.store, cfg)
	require.NoError(t, err)
	return f
}

// drawnImages returns the file names sent with DisplayImage, in order.
func (f *fixture) drawnImages(t *testing.T) []string {
	t.Helper()
	var names []string
	for _, frm := range f.mock.SentFrames() {
		cmd, err := frame.Command(frm)
		require.NoError(t, err)
		if eink.Command(cmd) != eink.CmdDisplayImage {
			continue
		}
		params, err := frame.Params(frm)
		require.NoError(t, err)
		names = append(names, string(params[4:len(params)-1]))
	}
	return names
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	mock := eink.NewMockTransport()
	display, err := eink.New(mock)
	require.NoError(t, err)
	bk := numberedBook(20)
	good := &Config{Tick: time.Millisecond, DemoTicks: 40, Images: []string{"A.BMP"}}

	_, err = New(nil, &button.Slot{}, bk, &memStore{}, good)
	require.Error(t, err)
	_, err = New(display, nil, bk, &memStore{}, good)
	require.Error(t, err)
	_, err = New(display, &button.Slot{}, nil, &memStore{}, good)
	require.Error(t, err)
	_, err = New(display, &button.Slot{}, bk, nil, good)
	require.Error(t, err)
	_, err = New(display, &button.Slot{}, bk, &memStore{}, nil)
	require.Error(t, err)
	_, err = New(display, &button.Slot{}, bk, &memStore{}, &Config{DemoTicks: 40})
	require.Error(t, err)
	_, err = New(display, &button.Slot{}, bk, &memStore{}, &Config{DemoTicks: 1, Images: []string{"A.BMP"}})
	require.Error(t, err)

	m, err := New(display, &button.Slot{}, bk, &memStore{}, good)
	require.NoError(t, err)
	assert.Equal(t, StartDraw, m.State())
}

func TestMachine_StartScreen(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20)

	require.NoError(t, f.machine.Tick(context.Background()))
	assert.Equal(t, StartWait, f.machine.State())

	assert.Equal(t, []eink.Command{
		eink.CmdClear,
		eink.CmdSetFontSize,
		eink.CmdDrawText, eink.CmdDrawText,
		eink.CmdDrawCircle, eink.CmdDrawCircle, eink.CmdDrawCircle,
		eink.CmdSetFontSize,
		eink.CmdDrawText, eink.CmdDrawText, eink.CmdDrawText,
		eink.CmdRefresh,
		eink.CmdSleep,
	}, f.mock.SentCommands())
	assert.Equal(t, 1, f.mock.FlushCount(), "wake flushes the input")
}

func TestMachine_Transitions(t *testing.T) {
	t.Parallel()

	sBack := button.ShortPress(button.Back)
	sFwd := button.ShortPress(button.Forward)
	sGo := button.ShortPress(button.Go)
	lBack := button.LongPress(button.Back)
	lFwd := button.LongPress(button.Forward)
	lGo := button.LongPress(button.Go)

	tests := []struct {
		event    button.Event
		from     State
		want     State
		consumed bool
	}{
		{from: StartDraw, event: sBack, want: StartWait},
		{from: StartWait, event: button.None, want: StartWait, consumed: true},
		{from: StartWait, event: sBack, want: BookDraw, consumed: true},
		{from: StartWait, event: sFwd, want: Demo, consumed: true},
		{from: StartWait, event: sGo, want: StartWait, consumed: true},
		{from: StartWait, event: lBack, want: StartWait, consumed: true},
		{from: StartWait, event: lFwd, want: StartWait, consumed: true},
		{from: BookDraw, event: sFwd, want: BookWait},
		{from: BookWait, event: button.None, want: BookWait, consumed: true},
		{from: BookWait, event: sBack, want: BookPrev, consumed: true},
		{from: BookWait, event: sFwd, want: BookNext, consumed: true},
		{from: BookWait, event: lGo, want: StartDraw, consumed: true},
		{from: BookWait, event: sGo, want: BookWait, consumed: true},
		{from: BookWait, event: lBack, want: BookWait, consumed: true},
		{from: BookPrev, event: sFwd, want: BookDraw},
		{from: BookNext, event: sBack, want: BookDraw},
		{from: Demo, event: button.None, want: Demo, consumed: true},
		{from: Demo, event: lGo, want: StartDraw, consumed: true},
		{from: Demo, event: sBack, want: Demo, consumed: true},
		{from: Demo, event: sGo, want: Demo, consumed: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.from, tt.event), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, 100)
			f.machine.state = tt.from
			f.slot.Publish(tt.event)

			require.NoError(t, f.machine.Tick(context.Background()))
			assert.Equal(t, tt.want, f.machine.State())
			if tt.consumed {
				assert.Equal(t, button.None, f.slot.Peek())
			} else {
				assert.Equal(t, tt.event, f.slot.Peek(), "drawing states leave the event pending")
			}
		})
	}
}

func TestMachine_PowerOff(t *testing.T) {
	t.Parallel()
	calls := 0
	f := newFixture(t, 20, func(c *Config) {
		c.ShutdownImage = "LIVRES.BMP"
		c.PowerOff = func(context.Context) error {
			calls++
			return nil
		}
	})
	f.machine.state = StartWait
	f.slot.Publish(button.LongPress(button.Go))

	err := f.machine.Tick(context.Background())
	require.ErrorIs(t, err, ErrPoweredOff)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"LIVRES.BMP"}, f.drawnImages(t))

	cmds := f.mock.SentCommands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, eink.CmdSleep, cmds[len(cmds)-1], "panel sleeps before power off")
}

func TestMachine_PowerOffHookFailure(t *testing.T) {
	t.Parallel()
	hookErr := errors.New("shutdown: permission denied")
	f := newFixture(t, 20, func(c *Config) {
		c.PowerOff = func(context.Context) error { return hookErr }
	})
	f.machine.state = StartWait
	f.slot.Publish(button.LongPress(button.Go))

	err := f.machine.Tick(context.Background())
	require.ErrorIs(t, err, ErrPoweredOff)
	require.ErrorIs(t, err, hookErr)
	assert.Empty(t, f.drawnImages(t), "no shutdown image configured")
}

func TestMachine_UnknownEvent(t *testing.T) {
	t.Parallel()
	bogus := button.Event{Press: button.Press(7), Line: button.Go}

	for _, state := range []State{StartWait, BookWait, Demo} {
		f := newFixture(t, 20)
		f.machine.state = state
		f.slot.Publish(bogus)

		err := f.machine.Tick(context.Background())
		require.ErrorIs(t, err, ErrUnknownEvent, state.String())
	}

	f := newFixture(t, 20)
	f.machine.state = BookDraw
	f.slot.Publish(bogus)
	require.NoError(t, f.machine.Tick(context.Background()), "events are only checked when consumed")
}

func TestMachine_BookShortContent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20)
	ctx := context.Background()

	require.NoError(t, f.machine.Tick(ctx))
	f.slot.Publish(button.ShortPress(button.Back))
	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, BookDraw, f.machine.State())

	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, BookWait, f.machine.State())
	assert.Equal(t, 3+2+14, f.mock.GetCallCount(eink.CmdDrawText), "start screen labels plus one full page")

	f.slot.Publish(button.ShortPress(button.Forward))
	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, BookNext, f.machine.State())
	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, BookDraw, f.machine.State())
	assert.Equal(t, []int{0}, f.store.saves, "no full page follows, position stays")

	require.NoError(t, f.machine.Tick(ctx))
	f.slot.Publish(button.ShortPress(button.Back))
	require.NoError(t, f.machine.Tick(ctx))
	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, []int{0, 0}, f.store.saves)
}

func TestMachine_BookPaging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state State
		lines int
		start int
		want  int
	}{
		{name: "next", state: BookNext, lines: 100, start: 0, want: 14},
		{name: "prev clamps", state: BookPrev, lines: 100, start: 5, want: 0},
		{name: "prev", state: BookPrev, lines: 100, start: 42, want: 28},
		{name: "next at last full page", state: BookNext, lines: 42, start: 28, want: 28},
		{name: "stale position", state: BookNext, lines: 30, start: 700, want: 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tt.lines)
			f.store.pos = tt.start
			f.machine.state = tt.state

			require.NoError(t, f.machine.Tick(context.Background()))
			assert.Equal(t, BookDraw, f.machine.State())
			assert.Equal(t, []int{tt.want}, f.store.saves)
		})
	}
}

func TestMachine_PositionStoreFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)
	f.store.loadErr = errors.New("corrupt")
	f.machine.state = BookDraw

	require.NoError(t, f.machine.Tick(context.Background()))
	assert.Equal(t, BookWait, f.machine.State())
	assert.Equal(t, book.PageLines, f.mock.GetCallCount(eink.CmdDrawText), "unreadable position shows the first page")

	f.store.loadErr = nil
	f.store.saveErr = errors.New("read-only filesystem")
	f.machine.state = BookNext
	require.NoError(t, f.machine.Tick(context.Background()))
	assert.Equal(t, BookDraw, f.machine.State())
}

func TestMachine_Demo(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20)
	f.machine.state = Demo
	ctx := context.Background()

	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, 1, f.machine.DemoCounter())
	assert.Equal(t, []string{"MAIS.BMP"}, f.drawnImages(t))

	for i := 2; i < 40; i++ {
		require.NoError(t, f.machine.Tick(ctx))
	}
	assert.Equal(t, 39, f.machine.DemoCounter())
	assert.Equal(t, 0, f.machine.DemoImage())

	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, 0, f.machine.DemoCounter(), "tick 40 resets the counter")
	assert.Equal(t, 1, f.machine.DemoImage(), "and advances the image")
	assert.Len(t, f.drawnImages(t), 1, "the next image is drawn on the following tick")

	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, []string{"MAIS.BMP", "KID.BMP"}, f.drawnImages(t))

	f.slot.Publish(button.LongPress(button.Go))
	require.NoError(t, f.machine.Tick(ctx))
	assert.Equal(t, StartDraw, f.machine.State())
	assert.Zero(t, f.machine.DemoCounter())
	assert.Zero(t, f.machine.DemoImage())
}

func TestMachine_DemoWraps(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, func(c *Config) { c.DemoTicks = 2 })
	f.machine.state = Demo
	ctx := context.Background()

	for range 6 {
		require.NoError(t, f.machine.Tick(ctx))
	}
	assert.Equal(t, 0, f.machine.DemoImage())
	assert.Equal(t, []string{"MAIS.BMP", "KID.BMP", "FIN23.BMP"}, f.drawnImages(t))
}

func TestMachine_DisplayFailuresDoNotStopTheLoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20)
	f.mock.SetResponse(eink.CmdClear, []byte("NO"))
	f.mock.SetResponse(eink.CmdRefresh, []byte{})

	require.NoError(t, f.machine.Tick(context.Background()))
	assert.Equal(t, StartWait, f.machine.State())
	assert.Equal(t, 1, f.mock.GetCallCount(eink.CmdSleep), "remaining steps still run")

	require.NoError(t, f.mock.Close())
	f.machine.state = BookDraw
	require.NoError(t, f.machine.Tick(context.Background()))
	assert.Equal(t, BookWait, f.machine.State())
}

func TestMachine_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, f.machine.Run(ctx))
	assert.Equal(t, StartWait, f.machine.State())
}

func TestMachine_RunReturnsPowerOff(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20)
	f.slot.Publish(button.LongPress(button.Go))

	err := f.machine.Run(context.Background())
	require.ErrorIs(t, err, ErrPoweredOff)
}

// stampedTransport records when each frame reaches the transport.
type stampedTransport struct {
	*eink.MockTransport
	mu     sync.Mutex
	cmds   []eink.Command
	stamps []time.Time
}

func (s *stampedTransport) stamp(frm []byte) {
	cmd, _ := frame.Command(frm)
	s.mu.Lock()
	s.cmds = append(s.cmds, eink.Command(cmd))
	s.stamps = append(s.stamps, time.Now())
	s.mu.Unlock()
}

func (s *stampedTransport) Transact(ctx context.Context, frm []byte) ([]byte, error) {
	s.stamp(frm)
	return s.MockTransport.Transact(ctx, frm)
}

func (s *stampedTransport) Write(frm []byte) error {
	s.stamp(frm)
	return s.MockTransport.Write(frm)
}

func TestMachine_RunPausesAfterSlowTick(t *testing.T) {
	t.Parallel()

	const tick = 40 * time.Millisecond
	transport := &stampedTransport{MockTransport: eink.NewMockTransport()}
	transport.SetDelay(10 * time.Millisecond)
	display, err := eink.New(transport, eink.WithDisplayConfig(&eink.DisplayConfig{}))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Tick = tick
	cfg.Images = []string{"MAIS.BMP"}
	slot := &button.Slot{}
	slot.Publish(button.ShortPress(button.Back))
	machine, err := New(display, slot, numberedBook(20), &memStore{}, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	require.NoError(t, machine.Run(ctx))

	transport.mu.Lock()
	defer transport.mu.Unlock()
	sleep := -1
	for i, cmd := range transport.cmds {
		if cmd == eink.CmdSleep {
			sleep = i
			break
		}
	}
	require.GreaterOrEqual(t, sleep, 0, "start screen drawn")
	require.Greater(t, len(transport.cmds), sleep+1, "page drawn")
	assert.Equal(t, eink.CmdClear, transport.cmds[sleep+1])

	// StartDraw, pause, StartWait takes S(Back), pause, BookDraw.
	gap := transport.stamps[sleep+1].Sub(transport.stamps[sleep])
	assert.GreaterOrEqual(t, gap, 2*tick)
}

func TestState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "BookNext", BookNext.String())
	assert.Equal(t, "State(42)", State(42).String())
}
