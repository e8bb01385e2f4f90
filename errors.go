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
	"errors"
	"fmt"
	"io"
	"syscall"
)

// Transport errors
var (
	ErrTransportWrite  = errors.New("transport write failed")
	ErrTransportRead   = errors.New("transport read failed")
	ErrTransportClosed = errors.New("transport is closed")
)

// Command errors
var (
	// ErrNoReply means the controller sent nothing before the long timeout.
	ErrNoReply = errors.New("no reply from controller")
	// ErrInvalidParameter is returned before anything is sent on the wire.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnknownCommand means the opcode has no entry in the command schema.
	ErrUnknownCommand = errors.New("unknown command")
)

// TransportError wraps transport-level errors with additional context
type TransportError struct {
	Err  error  // Underlying error
	Op   string // Operation that failed
	Port string // Port or device identifier
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportWriteError creates a short-write error for the given operation.
func NewTransportWriteError(op, port string) error {
	return &TransportError{Op: op, Port: port, Err: ErrTransportWrite}
}

// NewTransportReadError wraps a failed read for the given operation.
func NewTransportReadError(op, port string, err error) error {
	return &TransportError{Op: op, Port: port, Err: fmt.Errorf("%w: %w", ErrTransportRead, err)}
}

// ProtocolError reports a reply that matches none of the values defined for
// an enumerated-result command. Reply holds the bytes exactly as received.
type ProtocolError struct {
	Command Command
	Reply   []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected reply % X (%q)", e.Command, e.Reply, e.Reply)
}

// NackError reports a boolean command whose reply was not the literal "OK".
type NackError struct {
	Command Command
	Reply   []byte
}

func (e *NackError) Error() string {
	return fmt.Sprintf("%s: not acknowledged, reply % X (%q)", e.Command, e.Reply, e.Reply)
}

// IsProtocolError reports whether err carries an unexpected enumerated reply.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsNotAcknowledged reports whether a boolean command failed, either because
// nothing came back or because the reply was not "OK".
func IsNotAcknowledged(err error) bool {
	if errors.Is(err, ErrNoReply) {
		return true
	}
	var ne *NackError
	return errors.As(err, &ne)
}

// IsFatal returns true if the error indicates the serial device is gone and
// further transactions cannot succeed.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// isDeviceGoneError checks for OS-level errors indicating the UART vanished.
func isDeviceGoneError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}
	}
	return false
}
