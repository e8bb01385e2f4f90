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

// Package frame implements the request framing used by the display
// controller: header, big-endian length, command, parameters, footer and a
// trailing XOR checksum. Replies are not framed and are handled by callers.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrFrameTooLarge   = errors.New("frame exceeds maximum length")
	ErrFrameTooShort   = errors.New("frame too short")
	ErrBadHeader       = errors.New("bad frame header")
	ErrBadFooter       = errors.New("bad frame footer")
	ErrLengthMismatch  = errors.New("frame length field mismatch")
	ErrChecksumInvalid = errors.New("frame checksum mismatch")
)

// Encode builds a request frame for cmd. Parameters are appended in order
// and are never split or padded; integer values must already be serialized
// with U8, U16 or U32.
func Encode(cmd byte, params ...[]byte) ([]byte, error) {
	paramLen := 0
	for _, p := range params {
		paramLen += len(p)
	}

	frameLen := Overhead + paramLen
	if frameLen > MaxFrameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, frameLen)
	}

	frm := make([]byte, 0, frameLen)
	frm = append(frm, Header)
	frm = binary.BigEndian.AppendUint16(frm, uint16(frameLen))
	frm = append(frm, cmd)
	for _, p := range params {
		frm = append(frm, p...)
	}
	frm = binary.BigEndian.AppendUint32(frm, Footer)
	frm = append(frm, Checksum(frm))

	return frm, nil
}

// U8 serializes a single-byte selector.
func U8(v byte) []byte {
	return []byte{v}
}

// U16 serializes a 16-bit big-endian value (coordinates, radius).
func U16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// U32 serializes a 32-bit big-endian value (baud rate).
func U32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// CString serializes s followed by a NUL terminator.
func CString(s string) []byte {
	out := make([]byte, 0, len(s)+1)
	out = append(out, s...)
	return append(out, 0x00)
}

// Length decodes the length field of an encoded frame.
func Length(frm []byte) (int, error) {
	if len(frm) < offCommand {
		return 0, ErrFrameTooShort
	}
	return int(binary.BigEndian.Uint16(frm[offLength:offCommand])), nil
}

// Command returns the command byte of an encoded frame.
func Command(frm []byte) (byte, error) {
	if len(frm) < MinFrameLength {
		return 0, ErrFrameTooShort
	}
	return frm[offCommand], nil
}

// Params returns the parameter section of an encoded frame without copying.
func Params(frm []byte) ([]byte, error) {
	if err := Validate(frm); err != nil {
		return nil, err
	}
	return frm[offParams : len(frm)-5], nil
}

// Validate checks the structure of a complete frame: header, length field,
// footer and checksum. The host never validates replies; this is used by
// the controller simulator and by tests.
func Validate(frm []byte) error {
	if len(frm) < MinFrameLength {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(frm))
	}
	if frm[offHeader] != Header {
		return fmt.Errorf("%w: 0x%02X", ErrBadHeader, frm[offHeader])
	}

	n, err := Length(frm)
	if err != nil {
		return err
	}
	if n != len(frm) {
		return fmt.Errorf("%w: field %d, actual %d", ErrLengthMismatch, n, len(frm))
	}

	if footer := binary.BigEndian.Uint32(frm[len(frm)-5 : len(frm)-1]); footer != Footer {
		return fmt.Errorf("%w: 0x%08X", ErrBadFooter, footer)
	}

	last := len(frm) - 1
	if want := Checksum(frm[:last]); frm[last] != want {
		return fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksumInvalid, frm[last], want)
	}
	return nil
}
