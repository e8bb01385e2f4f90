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

import "fmt"

// Command is a display controller opcode.
type Command byte

// Controller command codes
const (
	CmdHandshake          Command = 0x00
	CmdSetBaudRate        Command = 0x01
	CmdGetBaudRate        Command = 0x02
	CmdGetStorageArea     Command = 0x06
	CmdSetStorageArea     Command = 0x07
	CmdSleep              Command = 0x08
	CmdRefresh            Command = 0x0A
	CmdGetOrientation     Command = 0x0C
	CmdSetOrientation     Command = 0x0D
	CmdImportFont         Command = 0x0E
	CmdImportImage        Command = 0x0F
	CmdSetColor           Command = 0x10
	CmdGetColor           Command = 0x11
	CmdGetEnglishFontSize Command = 0x1C
	CmdGetFontSize        Command = 0x1D
	CmdSetEnglishFontSize Command = 0x1E
	CmdSetFontSize        Command = 0x1F
	CmdDrawPoint          Command = 0x20
	CmdDrawLine           Command = 0x22
	CmdFillRectangle      Command = 0x24
	CmdDrawRectangle      Command = 0x25
	CmdDrawCircle         Command = 0x26
	CmdFillCircle         Command = 0x27
	CmdDrawTriangle       Command = 0x28
	CmdFillTriangle       Command = 0x29
	CmdClear              Command = 0x2E
	CmdDrawText           Command = 0x30
	CmdDisplayImage       Command = 0x70
)

// ParamWidth is the encoded size of one command parameter.
type ParamWidth int

const (
	// WidthString is a variable-length ASCII string with a NUL terminator
	WidthString ParamWidth = -1
	WidthU8     ParamWidth = 1
	WidthU16    ParamWidth = 2
	WidthU32    ParamWidth = 4
)

// ReplyKind describes how a command's reply is interpreted.
type ReplyKind int

const (
	// ReplyAck expects the literal "OK"
	ReplyAck ReplyKind = iota
	// ReplyStatus expects a single ASCII status byte mapped to an enum
	ReplyStatus
	// ReplyRaw passes the reply through uninterpreted
	ReplyRaw
	// ReplyNone is write-only; nothing is read back
	ReplyNone
)

// commandSpec is the fixed shape of one opcode.
type commandSpec struct {
	name   string
	params []ParamWidth
	reply  ReplyKind
}

var (
	point    = []ParamWidth{WidthU16, WidthU16}
	segment  = []ParamWidth{WidthU16, WidthU16, WidthU16, WidthU16}
	circle   = []ParamWidth{WidthU16, WidthU16, WidthU16}
	triangle = []ParamWidth{WidthU16, WidthU16, WidthU16, WidthU16, WidthU16, WidthU16}
	placed   = []ParamWidth{WidthU16, WidthU16, WidthString}
)

// commandSchema lists every opcode the controller understands. Import font
// and import image are accepted by the controller but carry no payload here.
var commandSchema = map[Command]commandSpec{
	CmdHandshake:          {name: "Handshake", reply: ReplyAck},
	CmdSetBaudRate:        {name: "SetBaudRate", params: []ParamWidth{WidthU32}, reply: ReplyNone},
	CmdGetBaudRate:        {name: "GetBaudRate", reply: ReplyRaw},
	CmdGetStorageArea:     {name: "GetStorageArea", reply: ReplyStatus},
	CmdSetStorageArea:     {name: "SetStorageArea", params: []ParamWidth{WidthU8}, reply: ReplyAck},
	CmdSleep:              {name: "Sleep", reply: ReplyNone},
	CmdRefresh:            {name: "Refresh", reply: ReplyAck},
	CmdGetOrientation:     {name: "GetOrientation", reply: ReplyStatus},
	CmdSetOrientation:     {name: "SetOrientation", params: []ParamWidth{WidthU8}, reply: ReplyAck},
	CmdImportFont:         {name: "ImportFont", reply: ReplyAck},
	CmdImportImage:        {name: "ImportImage", reply: ReplyAck},
	CmdSetColor:           {name: "SetColor", params: []ParamWidth{WidthU8, WidthU8}, reply: ReplyAck},
	CmdGetColor:           {name: "GetColor", reply: ReplyRaw},
	CmdGetEnglishFontSize: {name: "GetEnglishFontSize", reply: ReplyRaw},
	CmdGetFontSize:        {name: "GetFontSize", reply: ReplyRaw},
	CmdSetEnglishFontSize: {name: "SetEnglishFontSize", params: []ParamWidth{WidthU8}, reply: ReplyAck},
	CmdSetFontSize:        {name: "SetFontSize", params: []ParamWidth{WidthU8}, reply: ReplyAck},
	CmdDrawPoint:          {name: "DrawPoint", params: point, reply: ReplyAck},
	CmdDrawLine:           {name: "DrawLine", params: segment, reply: ReplyAck},
	CmdFillRectangle:      {name: "FillRectangle", params: segment, reply: ReplyAck},
	CmdDrawRectangle:      {name: "DrawRectangle", params: segment, reply: ReplyAck},
	CmdDrawCircle:         {name: "DrawCircle", params: circle, reply: ReplyAck},
	CmdFillCircle:         {name: "FillCircle", params: circle, reply: ReplyAck},
	CmdDrawTriangle:       {name: "DrawTriangle", params: triangle, reply: ReplyAck},
	CmdFillTriangle:       {name: "FillTriangle", params: triangle, reply: ReplyAck},
	CmdClear:              {name: "Clear", reply: ReplyAck},
	CmdDrawText:           {name: "DrawText", params: placed, reply: ReplyAck},
	CmdDisplayImage:       {name: "DisplayImage", params: placed, reply: ReplyAck},
}

func (c Command) String() string {
	if spec, ok := commandSchema[c]; ok {
		return spec.name
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// Reply returns how the reply to c is interpreted.
func (c Command) Reply() (ReplyKind, bool) {
	spec, ok := commandSchema[c]
	return spec.reply, ok
}

// checkParams validates params against the schema entry for cmd.
func checkParams(cmd Command, params [][]byte) (commandSpec, error) {
	spec, ok := commandSchema[cmd]
	if !ok {
		return commandSpec{}, fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, byte(cmd))
	}
	if len(params) != len(spec.params) {
		return spec, fmt.Errorf("%w: %s takes %d parameters, got %d",
			ErrInvalidParameter, spec.name, len(spec.params), len(params))
	}

	for i, width := range spec.params {
		p := params[i]
		if width == WidthString {
			if err := checkCString(p); err != nil {
				return spec, fmt.Errorf("%s parameter %d: %w", spec.name, i, err)
			}
			continue
		}
		if len(p) != int(width) {
			return spec, fmt.Errorf("%w: %s parameter %d is %d bytes, want %d",
				ErrInvalidParameter, spec.name, i, len(p), width)
		}
	}
	return spec, nil
}

// checkCString accepts printable 7-bit ASCII ending in exactly one NUL.
func checkCString(p []byte) error {
	if len(p) == 0 || p[len(p)-1] != 0x00 {
		return fmt.Errorf("%w: string is not NUL terminated", ErrInvalidParameter)
	}
	for _, b := range p[:len(p)-1] {
		if b < 0x20 || b > 0x7E {
			return fmt.Errorf("%w: non-ASCII byte 0x%02X in string", ErrInvalidParameter, b)
		}
	}
	return nil
}
