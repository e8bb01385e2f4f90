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

// Package eink drives a serial-attached e-ink display controller.
//
// A Display owns one Transport and exposes the controller's commands as
// typed methods. Requests are framed by internal/frame; replies are raw
// bytes whose meaning depends on the command (an "OK" acknowledgement, an
// ASCII status digit, or an opaque blob).
package eink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/go-eink/internal/frame"
	"periph.io/x/conn/v3/gpio"
)

// DisplayConfig contains timing options for the Display
type DisplayConfig struct {
	// WakePulse is how long the wake pin is held high
	WakePulse time.Duration
	// BaudSettle is how long to wait after asking the controller to change
	// baud rate before reconfiguring the local port
	BaudSettle time.Duration
}

// DefaultDisplayConfig returns default display configuration
func DefaultDisplayConfig() *DisplayConfig {
	return &DisplayConfig{
		WakePulse:  200 * time.Millisecond,
		BaudSettle: 1 * time.Second,
	}
}

// Option configures a Display
type Option func(*Display) error

// WithWakePin sets the output pin strobed by Wake
func WithWakePin(pin gpio.PinOut) Option {
	return func(d *Display) error {
		if pin == nil {
			return fmt.Errorf("%w: nil wake pin", ErrInvalidParameter)
		}
		d.wake = pin
		return nil
	}
}

// WithDisplayConfig replaces the default timing configuration
func WithDisplayConfig(cfg *DisplayConfig) Option {
	return func(d *Display) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil display config", ErrInvalidParameter)
		}
		d.config = cfg
		return nil
	}
}

// Display represents one e-ink display controller.
//
// Thread Safety: Display is NOT thread-safe. The controller has no request
// identifiers, so replies can only be matched to requests when transactions
// are strictly sequential.
type Display struct {
	transport Transport
	wake      gpio.PinOut
	config    *DisplayConfig
}

// New creates a Display on top of transport
func New(transport Transport, opts ...Option) (*Display, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	d := &Display{
		transport: transport,
		config:    DefaultDisplayConfig(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Transport returns the underlying transport
func (d *Display) Transport() Transport {
	return d.transport
}

// Close closes the underlying transport
func (d *Display) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// exec validates params against the command schema, encodes the frame and
// either transacts or writes it depending on the command's reply kind.
func (d *Display) exec(ctx context.Context, cmd Command, params ...[]byte) ([]byte, error) {
	spec, err := checkParams(cmd, params)
	if err != nil {
		return nil, err
	}

	frm, err := frame.Encode(byte(cmd), params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}

	if spec.reply == ReplyNone {
		Debugf("%s (write only)", cmd)
		if err := d.transport.Write(frm); err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		return nil, nil
	}

	reply, err := d.transport.Transact(ctx, frm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	Debugf("%s -> %q", cmd, reply)
	return reply, nil
}

// ack runs a boolean command: success iff the reply is exactly "OK".
func (d *Display) ack(ctx context.Context, cmd Command, params ...[]byte) error {
	reply, err := d.exec(ctx, cmd, params...)
	if err != nil {
		return err
	}
	if len(reply) == 0 {
		return fmt.Errorf("%s: %w", cmd, ErrNoReply)
	}
	if !bytes.Equal(reply, frame.Ack) {
		return &NackError{Command: cmd, Reply: reply}
	}
	return nil
}

// status runs an enumerated command and returns its single status byte.
func (d *Display) status(ctx context.Context, cmd Command) (byte, error) {
	reply, err := d.exec(ctx, cmd)
	if err != nil {
		return 0, err
	}
	if len(reply) == 0 {
		return 0, fmt.Errorf("%s: %w", cmd, ErrNoReply)
	}
	if len(reply) != 1 {
		return 0, &ProtocolError{Command: cmd, Reply: reply}
	}
	return reply[0], nil
}

// raw runs a query whose reply is passed through uninterpreted.
func (d *Display) raw(ctx context.Context, cmd Command) ([]byte, error) {
	reply, err := d.exec(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if len(reply) == 0 {
		return nil, fmt.Errorf("%s: %w", cmd, ErrNoReply)
	}
	return reply, nil
}

// Send runs any boolean command by opcode. Parameters are checked against
// the command schema before anything is written.
func (d *Display) Send(ctx context.Context, cmd Command, params ...[]byte) error {
	kind, ok := cmd.Reply()
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, byte(cmd))
	}
	if kind != ReplyAck {
		return fmt.Errorf("%w: %s is not an acknowledged command", ErrInvalidParameter, cmd)
	}
	return d.ack(ctx, cmd, params...)
}

// Wake strobes the wake pin and discards whatever the controller printed
// while it came up.
func (d *Display) Wake(ctx context.Context) error {
	if d.wake != nil {
		if err := d.wake.Out(gpio.High); err != nil {
			return fmt.Errorf("wake pin high: %w", err)
		}
		sleepErr := sleepCtx(ctx, d.config.WakePulse)
		if err := d.wake.Out(gpio.Low); err != nil {
			return fmt.Errorf("wake pin low: %w", err)
		}
		if sleepErr != nil {
			return sleepErr
		}
	}

	if err := d.transport.Flush(); err != nil {
		return fmt.Errorf("flush after wake: %w", err)
	}
	return nil
}

// Flush discards stale input bytes.
func (d *Display) Flush() error {
	if err := d.transport.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Handshake checks that the controller is alive.
func (d *Display) Handshake(ctx context.Context) error {
	return d.ack(ctx, CmdHandshake)
}

// SetBaudRate asks the controller to switch speed, waits for it to settle
// and then reconfigures the local port to match.
func (d *Display) SetBaudRate(ctx context.Context, baud int) error {
	if baud <= 0 || uint64(baud) > 0xFFFFFFFF {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidParameter, baud)
	}
	if _, err := d.exec(ctx, CmdSetBaudRate, frame.U32(uint32(baud))); err != nil {
		return err
	}
	if err := sleepCtx(ctx, d.config.BaudSettle); err != nil {
		return err
	}
	if err := d.transport.SetBaudRate(baud); err != nil {
		return fmt.Errorf("%s: %w", CmdSetBaudRate, err)
	}
	return nil
}

// GetBaudRate returns the controller's configured baud rate.
func (d *Display) GetBaudRate(ctx context.Context) (int, error) {
	reply, err := d.raw(ctx, CmdGetBaudRate)
	if err != nil {
		return 0, err
	}
	baud, err := strconv.Atoi(strings.TrimSpace(string(reply)))
	if err != nil || baud <= 0 {
		return 0, &ProtocolError{Command: CmdGetBaudRate, Reply: reply}
	}
	return baud, nil
}

// GetStorageArea reports where the controller loads fonts and images from.
func (d *Display) GetStorageArea(ctx context.Context) (StorageArea, error) {
	b, err := d.status(ctx, CmdGetStorageArea)
	if err != nil {
		return 0, err
	}
	switch b {
	case '0':
		return StorageNAND, nil
	case '1':
		return StorageSD, nil
	default:
		return 0, &ProtocolError{Command: CmdGetStorageArea, Reply: []byte{b}}
	}
}

// SetStorageArea selects where the controller loads fonts and images from.
func (d *Display) SetStorageArea(ctx context.Context, area StorageArea) error {
	if area != StorageNAND && area != StorageSD {
		return fmt.Errorf("%w: storage area %d", ErrInvalidParameter, area)
	}
	return d.ack(ctx, CmdSetStorageArea, frame.U8(byte(area)))
}

// Sleep puts the controller into its low-power mode. The controller does
// not answer while going to sleep, so nothing is read back.
func (d *Display) Sleep(ctx context.Context) error {
	_, err := d.exec(ctx, CmdSleep)
	return err
}

// Refresh pushes the drawing buffer to the panel.
func (d *Display) Refresh(ctx context.Context) error {
	return d.ack(ctx, CmdRefresh)
}

// GetOrientation returns the current screen rotation.
func (d *Display) GetOrientation(ctx context.Context) (Orientation, error) {
	b, err := d.status(ctx, CmdGetOrientation)
	if err != nil {
		return 0, err
	}
	if b < '0' || b > '3' {
		return 0, &ProtocolError{Command: CmdGetOrientation, Reply: []byte{b}}
	}
	return Orientation(b - '0'), nil
}

// SetOrientation rotates the screen.
func (d *Display) SetOrientation(ctx context.Context, o Orientation) error {
	if o > Rotate270 {
		return fmt.Errorf("%w: orientation %d", ErrInvalidParameter, o)
	}
	return d.ack(ctx, CmdSetOrientation, frame.U8(byte(o)))
}

// SetColor sets foreground and background drawing colors.
func (d *Display) SetColor(ctx context.Context, fg, bg Color) error {
	return d.ack(ctx, CmdSetColor, frame.U8(byte(fg)), frame.U8(byte(bg)))
}

// GetColor returns the controller's color reply uninterpreted.
func (d *Display) GetColor(ctx context.Context) ([]byte, error) {
	return d.raw(ctx, CmdGetColor)
}

// GetEnglishFontSize returns the controller's reply uninterpreted.
func (d *Display) GetEnglishFontSize(ctx context.Context) ([]byte, error) {
	return d.raw(ctx, CmdGetEnglishFontSize)
}

// GetFontSize returns the controller's reply uninterpreted.
func (d *Display) GetFontSize(ctx context.Context) ([]byte, error) {
	return d.raw(ctx, CmdGetFontSize)
}

// SetEnglishFontSize selects the size of the English font.
func (d *Display) SetEnglishFontSize(ctx context.Context, size FontSize) error {
	return d.ack(ctx, CmdSetEnglishFontSize, frame.U8(byte(size)))
}

// SetFontSize selects the size of the default font.
func (d *Display) SetFontSize(ctx context.Context, size FontSize) error {
	return d.ack(ctx, CmdSetFontSize, frame.U8(byte(size)))
}

// DrawPoint draws a single pixel.
func (d *Display) DrawPoint(ctx context.Context, x, y uint16) error {
	return d.ack(ctx, CmdDrawPoint, frame.U16(x), frame.U16(y))
}

// DrawLine draws a line between two points.
func (d *Display) DrawLine(ctx context.Context, x1, y1, x2, y2 uint16) error {
	return d.ack(ctx, CmdDrawLine, frame.U16(x1), frame.U16(y1), frame.U16(x2), frame.U16(y2))
}

// FillRectangle draws a filled rectangle from two opposite corners.
func (d *Display) FillRectangle(ctx context.Context, x1, y1, x2, y2 uint16) error {
	return d.ack(ctx, CmdFillRectangle, frame.U16(x1), frame.U16(y1), frame.U16(x2), frame.U16(y2))
}

// DrawRectangle draws a rectangle outline from two opposite corners.
func (d *Display) DrawRectangle(ctx context.Context, x1, y1, x2, y2 uint16) error {
	return d.ack(ctx, CmdDrawRectangle, frame.U16(x1), frame.U16(y1), frame.U16(x2), frame.U16(y2))
}

// DrawCircle draws a circle outline.
func (d *Display) DrawCircle(ctx context.Context, x, y, r uint16) error {
	return d.ack(ctx, CmdDrawCircle, frame.U16(x), frame.U16(y), frame.U16(r))
}

// FillCircle draws a filled circle.
func (d *Display) FillCircle(ctx context.Context, x, y, r uint16) error {
	return d.ack(ctx, CmdFillCircle, frame.U16(x), frame.U16(y), frame.U16(r))
}

// DrawTriangle draws a triangle outline.
func (d *Display) DrawTriangle(ctx context.Context, x1, y1, x2, y2, x3, y3 uint16) error {
	return d.ack(ctx, CmdDrawTriangle,
		frame.U16(x1), frame.U16(y1), frame.U16(x2), frame.U16(y2), frame.U16(x3), frame.U16(y3))
}

// FillTriangle draws a filled triangle.
func (d *Display) FillTriangle(ctx context.Context, x1, y1, x2, y2, x3, y3 uint16) error {
	return d.ack(ctx, CmdFillTriangle,
		frame.U16(x1), frame.U16(y1), frame.U16(x2), frame.U16(y2), frame.U16(x3), frame.U16(y3))
}

// Clear blanks the drawing buffer.
func (d *Display) Clear(ctx context.Context) error {
	return d.ack(ctx, CmdClear)
}

// DrawText draws an ASCII string with its top-left corner at (x, y).
func (d *Display) DrawText(ctx context.Context, x, y uint16, text string) error {
	return d.ack(ctx, CmdDrawText, frame.U16(x), frame.U16(y), frame.CString(text))
}

// DisplayImage draws a bitmap stored on the selected storage area.
func (d *Display) DisplayImage(ctx context.Context, x, y uint16, name string) error {
	return d.ack(ctx, CmdDisplayImage, frame.U16(x), frame.U16(y), frame.CString(name))
}

// sleepCtx waits for dur or until ctx is done.
func sleepCtx(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	}
}

// IsNoReply reports whether err means the controller stayed silent.
func IsNoReply(err error) bool {
	return errors.Is(err, ErrNoReply)
}
