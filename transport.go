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

package eink

import (
	"context"
	"time"

	"github.com/ZaparooProject/go-eink/internal/frame"
	"github.com/ZaparooProject/go-eink/internal/syncutil"
)

// Transport is the duplex byte channel to the display controller.
//
// A Transport is owned by exactly one Display and is not reentrant: callers
// must not overlap transactions.
type Transport interface {
	// Transact writes a complete request frame and reads the reply. A
	// controller that never answers yields an empty reply and a nil error.
	Transact(ctx context.Context, frm []byte) ([]byte, error)

	// Write sends a frame without waiting for a reply
	Write(frm []byte) error

	// Flush discards any unread input bytes
	Flush() error

	// SetBaudRate reconfigures the local end of the channel
	SetBaudRate(baud int) error

	// Close closes the transport connection
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// MockTransport provides a mock implementation of Transport for testing.
// Replies are configured per command; unconfigured commands reply "OK".
type MockTransport struct {
	responses  map[Command][]byte
	errorMap   map[Command]error
	callCount  map[Command]int
	sent       [][]byte
	delay      time.Duration
	flushes    int
	baudRate   int
	mu         syncutil.Mutex
	closed     bool
	noDefaults bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[Command][]byte),
		errorMap:  make(map[Command]error),
		callCount: make(map[Command]int),
		baudRate:  115200,
	}
}

// Transact implements Transport
func (m *MockTransport) Transact(ctx context.Context, frm []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	cmd, err := m.record(frm)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, exists := m.errorMap[cmd]; exists {
		return nil, err
	}
	if response, exists := m.responses[cmd]; exists {
		return append([]byte(nil), response...), nil
	}
	if m.noDefaults {
		return []byte{}, nil
	}
	return append([]byte(nil), frame.Ack...), nil
}

// Write implements Transport
func (m *MockTransport) Write(frm []byte) error {
	cmd, err := m.record(frm)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, exists := m.errorMap[cmd]; exists {
		return err
	}
	return nil
}

func (m *MockTransport) record(frm []byte) (Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrTransportClosed
	}

	m.sent = append(m.sent, append([]byte(nil), frm...))
	b, err := frame.Command(frm)
	if err != nil {
		return 0, err
	}
	cmd := Command(b)
	m.callCount[cmd]++
	return cmd, nil
}

// Flush implements Transport
func (m *MockTransport) Flush() error {
	m.mu.Lock()
	m.flushes++
	m.mu.Unlock()
	return nil
}

// SetBaudRate implements Transport
func (m *MockTransport) SetBaudRate(baud int) error {
	m.mu.Lock()
	m.baudRate = baud
	m.mu.Unlock()
	return nil
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Type implements Transport
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Test helper methods

// SetResponse configures the reply for a specific command
func (m *MockTransport) SetResponse(cmd Command, response []byte) {
	m.mu.Lock()
	m.responses[cmd] = response
	m.mu.Unlock()
}

// SetError configures an error to be returned for a specific command
func (m *MockTransport) SetError(cmd Command, err error) {
	m.mu.Lock()
	m.errorMap[cmd] = err
	m.mu.Unlock()
}

// SetSilent makes unconfigured commands reply with nothing, as a controller
// that timed out would.
func (m *MockTransport) SetSilent(silent bool) {
	m.mu.Lock()
	m.noDefaults = silent
	m.mu.Unlock()
}

// SetDelay configures a delay to simulate controller processing time
func (m *MockTransport) SetDelay(delay time.Duration) {
	m.mu.Lock()
	m.delay = delay
	m.mu.Unlock()
}

// GetCallCount returns how many times a command was sent
func (m *MockTransport) GetCallCount(cmd Command) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[cmd]
}

// SentFrames returns copies of every frame sent, in order
func (m *MockTransport) SentFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	for i, f := range m.sent {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// SentCommands returns the opcode of every frame sent, in order
func (m *MockTransport) SentCommands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, 0, len(m.sent))
	for _, f := range m.sent {
		if b, err := frame.Command(f); err == nil {
			out = append(out, Command(b))
		}
	}
	return out
}

// FlushCount returns how many times Flush was called
func (m *MockTransport) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// BaudRate returns the last baud rate configured through SetBaudRate
func (m *MockTransport) BaudRate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baudRate
}

// Reset clears recorded traffic and reopens the transport
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.callCount = make(map[Command]int)
	m.sent = nil
	m.flushes = 0
	m.closed = false
	m.mu.Unlock()
}
