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

// Package button turns falling edges on the three navigation buttons into
// short and long press events.
//
// The buttons idle high through pull-ups and pull the line low while
// pressed. After an edge the line is sampled a few times: seeing it high
// twice means the button was already released (a short press), otherwise
// it is still held (a long press). Only the most recent event is kept.
package button

import "fmt"

// Line identifies one of the navigation buttons.
type Line int

const (
	Back Line = iota
	Forward
	Go
)

// Lines lists every button, in wiring order.
var Lines = []Line{Back, Forward, Go}

func (l Line) String() string {
	switch l {
	case Back:
		return "Back"
	case Forward:
		return "Forward"
	case Go:
		return "Go"
	default:
		return fmt.Sprintf("Line(%d)", int(l))
	}
}

// Press is the classification of a button activation.
type Press int

const (
	Nothing Press = iota
	Short
	Long
)

func (p Press) String() string {
	switch p {
	case Nothing:
		return "Nothing"
	case Short:
		return "Short"
	case Long:
		return "Long"
	default:
		return fmt.Sprintf("Press(%d)", int(p))
	}
}

// Event is a classified press on a line. The zero value means no event.
type Event struct {
	Press Press
	Line  Line
}

// None is the empty event.
var None = Event{}

// ShortPress returns a short press event on l.
func ShortPress(l Line) Event { return Event{Press: Short, Line: l} }

// LongPress returns a long press event on l.
func LongPress(l Line) Event { return Event{Press: Long, Line: l} }

// IsNothing reports whether e carries no press.
func (e Event) IsNothing() bool {
	return e.Press == Nothing
}

// Valid reports whether e is the empty event or a press on a known line.
func (e Event) Valid() bool {
	if e.Press == Nothing {
		return true
	}
	if e.Press != Short && e.Press != Long {
		return false
	}
	return e.Line >= Back && e.Line <= Go
}

func (e Event) String() string {
	switch e.Press {
	case Nothing:
		return "Nothing"
	case Short:
		return "S(" + e.Line.String() + ")"
	case Long:
		return "L(" + e.Line.String() + ")"
	default:
		return fmt.Sprintf("%s(%s)", e.Press, e.Line)
	}
}
