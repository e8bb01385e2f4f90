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

// Package uart implements the display controller transport over a serial
// port.
//
// The controller's replies carry no length or terminator, so the end of a
// reply is detected with a two-phase read timeout: a long wait for the first
// byte, to cover the controller's processing time, then short waits until a
// read returns nothing.
package uart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/go-eink"
	"github.com/ZaparooProject/go-eink/internal/syncutil"
	"go.bug.st/serial"
)

// Defaults used by New
const (
	DefaultBaudRate     = 115200
	DefaultLongTimeout  = 5 * time.Second
	DefaultShortTimeout = 200 * time.Millisecond

	// maxReplyLen bounds a reply from a controller that never stops talking
	maxReplyLen = 4096
)

// Config holds the serial settings and reply timeouts
type Config struct {
	BaudRate     int
	LongTimeout  time.Duration
	ShortTimeout time.Duration
}

// DefaultConfig returns the settings the controller ships with
func DefaultConfig() Config {
	return Config{
		BaudRate:     DefaultBaudRate,
		LongTimeout:  DefaultLongTimeout,
		ShortTimeout: DefaultShortTimeout,
	}
}

// Transport implements the eink.Transport interface for UART communication.
type Transport struct {
	port     serial.Port
	portName string
	config   Config
	mu       syncutil.Mutex
	closed   bool
}

// New opens portName at cfg.BaudRate, 8N1.
func New(portName string, cfg Config) (*Transport, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.LongTimeout <= 0 {
		cfg.LongTimeout = DefaultLongTimeout
	}
	if cfg.ShortTimeout <= 0 {
		cfg.ShortTimeout = DefaultShortTimeout
	}

	port, err := serial.Open(portName, serialMode(cfg.BaudRate))
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(cfg.ShortTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	eink.Debugf("opened %s at %d baud", portName, cfg.BaudRate)
	return &Transport{
		port:     port,
		portName: portName,
		config:   cfg,
	}, nil
}

func serialMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Transact writes frm and reads the controller's reply. A controller that
// stays silent for the whole long timeout yields an empty reply.
func (t *Transport) Transact(ctx context.Context, frm []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, eink.ErrTransportClosed
	}

	if err := t.writeFrame("transact", frm); err != nil {
		return nil, err
	}

	reply, err := t.readReply(ctx)
	eink.TraceRX(t.portName, reply)
	return reply, err
}

// Write sends frm without reading a reply.
func (t *Transport) Write(frm []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return eink.ErrTransportClosed
	}
	return t.writeFrame("write", frm)
}

// Flush discards unread input bytes.
func (t *Transport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return eink.ErrTransportClosed
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return &eink.TransportError{Op: "flush", Port: t.portName, Err: err}
	}
	eink.Debugf("%s input flushed", t.portName)
	return nil
}

// SetBaudRate reconfigures the local port speed.
func (t *Transport) SetBaudRate(baud int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return eink.ErrTransportClosed
	}
	if err := t.port.SetMode(serialMode(baud)); err != nil {
		return &eink.TransportError{Op: "set baud rate", Port: t.portName, Err: err}
	}
	t.config.BaudRate = baud
	eink.Debugf("%s now at %d baud", t.portName, baud)
	return nil
}

// BaudRate returns the current local port speed
func (t *Transport) BaudRate() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config.BaudRate
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.port == nil {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() eink.TransportType {
	return eink.TransportUART
}

// writeFrame writes the full frame and waits for it to leave the port.
// Must be called with mu held.
func (t *Transport) writeFrame(op string, frm []byte) error {
	eink.TraceTX(t.portName, frm)

	n, err := t.port.Write(frm)
	if err != nil {
		return &eink.TransportError{Op: op, Port: t.portName, Err: err}
	} else if n != len(frm) {
		return eink.NewTransportWriteError(op, t.portName)
	}

	return t.drainWithRetry(op)
}

// readReply implements the two-phase timeout. Must be called with mu held.
func (t *Transport) readReply(ctx context.Context) ([]byte, error) {
	if err := t.port.SetReadTimeout(t.config.LongTimeout); err != nil {
		return nil, &eink.TransportError{Op: "set long timeout", Port: t.portName, Err: err}
	}

	buf := make([]byte, 256)
	n, err := t.port.Read(buf)
	if err != nil {
		return nil, eink.NewTransportReadError("first reply byte", t.portName, err)
	}
	if n == 0 {
		return []byte{}, nil
	}

	reply := append(make([]byte, 0, n), buf[:n]...)

	if err := t.port.SetReadTimeout(t.config.ShortTimeout); err != nil {
		return reply, &eink.TransportError{Op: "set short timeout", Port: t.portName, Err: err}
	}

	for len(reply) < maxReplyLen {
		if ctx.Err() != nil {
			return reply, ctx.Err()
		}
		n, err = t.port.Read(buf)
		if err != nil {
			return reply, eink.NewTransportReadError("reply", t.portName, err)
		}
		if n == 0 {
			return reply, nil
		}
		reply = append(reply, buf[:n]...)
	}

	eink.Debugf("%s reply truncated at %d bytes", t.portName, maxReplyLen)
	return reply, nil
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry performs port drain with retry logic for interrupted system calls
func (t *Transport) drainWithRetry(operation string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := t.port.Drain()
		if err == nil {
			return nil
		}

		if isInterruptedSystemCall(err) && attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt))
			continue
		}

		return fmt.Errorf("UART %s drain failed: %w", operation, err)
	}

	return fmt.Errorf("UART %s drain failed after %d retries", operation, maxRetries)
}

// Ensure Transport implements eink.Transport
var _ eink.Transport = (*Transport)(nil)
