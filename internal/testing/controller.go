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

// Package testing provides test utilities including a wire-level simulator
// of the display controller.
//
// VirtualController implements io.ReadWriter: bytes written to it are parsed
// as request frames and the replies the controller would send become
// available to Read. Malformed frames are dropped silently, the way the real
// controller ignores them.
package testing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/ZaparooProject/go-eink/internal/frame"
	"github.com/ZaparooProject/go-eink/internal/syncutil"
)

// Opcodes understood by the simulator
const (
	CmdHandshake      = 0x00
	CmdSetBaudRate    = 0x01
	CmdGetBaudRate    = 0x02
	CmdGetStorageArea = 0x06
	CmdSetStorageArea = 0x07
	CmdSleep          = 0x08
	CmdRefresh        = 0x0A
	CmdGetOrientation = 0x0C
	CmdSetOrientation = 0x0D
	CmdSetColor       = 0x10
	CmdGetColor       = 0x11
	CmdGetFontSize    = 0x1D
	CmdSetFontSize    = 0x1F
	CmdClear          = 0x2E
	CmdDrawText       = 0x30
	CmdDisplayImage   = 0x70
)

// ControllerState is the observable state of the simulated controller
type ControllerState struct {
	Texts       []string
	Images      []string
	BaudRate    uint32
	Refreshes   int
	Storage     byte
	Orientation byte
	Foreground  byte
	Background  byte
	FontSize    byte
	Asleep      bool
}

// VirtualController simulates the display controller at the byte level.
type VirtualController struct {
	rxBuffer   bytes.Buffer
	txBuffer   bytes.Buffer
	overrides  map[byte][]byte
	received   [][]byte
	state      ControllerState
	mu         syncutil.Mutex
	silent     bool
	splitReply bool
}

// NewVirtualController creates a controller in its power-on state: NAND
// storage, no rotation, 115200 baud.
func NewVirtualController() *VirtualController {
	return &VirtualController{
		overrides: make(map[byte][]byte),
		state: ControllerState{
			BaudRate:   115200,
			Foreground: 0x00,
			Background: 0x03,
			FontSize:   0x01,
		},
	}
}

// Write implements io.Writer - receives data from the host.
func (v *VirtualController) Write(data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rxBuffer.Write(data)
	v.processReceivedData()
	return len(data), nil
}

// Read implements io.Reader - returns reply bytes to the host. When split
// replies are enabled each call returns at most one byte.
func (v *VirtualController) Read(buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.txBuffer.Len() == 0 {
		return 0, nil
	}
	if v.splitReply && len(buf) > 1 {
		buf = buf[:1]
	}

	n, err := v.txBuffer.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read from tx buffer: %w", err)
	}
	return n, nil
}

// Pending returns the number of reply bytes not yet read.
func (v *VirtualController) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.txBuffer.Len()
}

// DiscardPending drops unread reply bytes, like an input buffer reset.
func (v *VirtualController) DiscardPending() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.txBuffer.Reset()
}

// InjectNoise queues bytes the host has not asked for, such as the boot
// banner printed after a wake pulse.
func (v *VirtualController) InjectNoise(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.txBuffer.Write(data)
}

// SetSilent makes the controller swallow requests without replying.
func (v *VirtualController) SetSilent(silent bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.silent = silent
}

// SetSplitReplies makes Read hand out one byte at a time.
func (v *VirtualController) SetSplitReplies(split bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.splitReply = split
}

// SetReply overrides the reply for one opcode.
func (v *VirtualController) SetReply(cmd byte, reply []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overrides[cmd] = reply
}

// GetState returns a copy of the current controller state.
func (v *VirtualController) GetState() ControllerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.state
	st.Texts = append([]string(nil), v.state.Texts...)
	st.Images = append([]string(nil), v.state.Images...)
	return st
}

// Received returns every well-formed frame received so far.
func (v *VirtualController) Received() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.received))
	for i, f := range v.received {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// processReceivedData consumes complete frames from the receive buffer.
// Must be called with mu held.
func (v *VirtualController) processReceivedData() {
	for {
		data := v.rxBuffer.Bytes()

		start := bytes.IndexByte(data, frame.Header)
		if start < 0 {
			v.rxBuffer.Reset()
			return
		}
		if start > 0 {
			v.rxBuffer.Next(start)
			continue
		}
		if len(data) < 3 {
			return
		}

		n := int(binary.BigEndian.Uint16(data[1:3]))
		if n < frame.MinFrameLength {
			v.rxBuffer.Next(1)
			continue
		}
		if len(data) < n {
			return
		}

		frm := append([]byte(nil), data[:n]...)
		if err := frame.Validate(frm); err != nil {
			v.rxBuffer.Next(1)
			continue
		}
		v.rxBuffer.Next(n)
		v.received = append(v.received, frm)
		v.handleFrame(frm)
	}
}

// handleFrame applies one request and queues its reply. Must be called with
// mu held.
func (v *VirtualController) handleFrame(frm []byte) {
	cmd := frm[3]
	params := frm[4 : len(frm)-5]

	reply := v.apply(cmd, params)
	if override, ok := v.overrides[cmd]; ok {
		reply = override
	}
	if v.silent || reply == nil {
		return
	}
	v.txBuffer.Write(reply)
}

func (v *VirtualController) apply(cmd byte, params []byte) []byte {
	ok := append([]byte(nil), frame.Ack...)
	switch cmd {
	case CmdSleep:
		v.state.Asleep = true
		return nil
	case CmdSetBaudRate:
		if len(params) == 4 {
			v.state.BaudRate = binary.BigEndian.Uint32(params)
		}
		return nil
	case CmdGetBaudRate:
		return []byte(strconv.FormatUint(uint64(v.state.BaudRate), 10))
	case CmdGetStorageArea:
		return []byte{'0' + v.state.Storage}
	case CmdSetStorageArea:
		if len(params) != 1 || params[0] > 1 {
			return []byte("Error:22")
		}
		v.state.Storage = params[0]
	case CmdGetOrientation:
		return []byte{'0' + v.state.Orientation}
	case CmdSetOrientation:
		if len(params) != 1 || params[0] > 3 {
			return []byte("Error:22")
		}
		v.state.Orientation = params[0]
	case CmdSetColor:
		if len(params) == 2 {
			v.state.Foreground, v.state.Background = params[0], params[1]
		}
	case CmdGetColor:
		return []byte{'0' + v.state.Foreground, '0' + v.state.Background}
	case CmdGetFontSize:
		return []byte{'0' + v.state.FontSize}
	case CmdSetFontSize:
		if len(params) == 1 {
			v.state.FontSize = params[0]
		}
	case CmdClear:
		v.state.Texts = nil
		v.state.Images = nil
	case CmdRefresh:
		v.state.Refreshes++
	case CmdDrawText:
		if s, good := placedString(params); good {
			v.state.Texts = append(v.state.Texts, s)
		}
	case CmdDisplayImage:
		if s, good := placedString(params); good {
			v.state.Images = append(v.state.Images, s)
		}
	}
	v.state.Asleep = false
	return ok
}

// placedString extracts the NUL-terminated string after an (x, y) pair.
func placedString(params []byte) (string, bool) {
	if len(params) < 5 || params[len(params)-1] != 0x00 {
		return "", false
	}
	return string(params[4 : len(params)-1]), true
}
