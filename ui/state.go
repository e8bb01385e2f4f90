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

import "fmt"

// State is the screen the reader is on, or the step it is taking.
type State int

const (
	StartDraw State = iota
	StartWait
	BookDraw
	BookWait
	BookPrev
	BookNext
	Demo
)

var stateNames = [...]string{
	StartDraw: "StartDraw",
	StartWait: "StartWait",
	BookDraw:  "BookDraw",
	BookWait:  "BookWait",
	BookPrev:  "BookPrev",
	BookNext:  "BookNext",
	Demo:      "Demo",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}
