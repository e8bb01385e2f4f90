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

package frame

// Frame markers
const (
	Header = 0xA5       // First byte of every request frame
	Footer = 0xCC33C33C // Big-endian 4-byte trailer before the checksum
)

// Frame size limits
const (
	// Overhead is header(1) + length(2) + command(1) + footer(4) + checksum(1)
	Overhead = 1 + 2 + 1 + 4 + 1
	// MinFrameLength is the size of a frame carrying no parameters
	MinFrameLength = Overhead
	// MaxFrameLength is bounded by the 16-bit length field
	MaxFrameLength = 0xFFFF
)

// Field offsets inside an encoded frame
const (
	offHeader  = 0
	offLength  = 1
	offCommand = 3
	offParams  = 4
)

// Ack is the literal acknowledgement the controller sends for most commands.
var Ack = []byte("OK")
