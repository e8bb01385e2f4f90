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

// StorageArea selects where fonts and images are loaded from.
type StorageArea byte

const (
	StorageNAND StorageArea = 0x00
	StorageSD   StorageArea = 0x01
)

func (s StorageArea) String() string {
	switch s {
	case StorageNAND:
		return "NAND"
	case StorageSD:
		return "SD"
	default:
		return fmt.Sprintf("StorageArea(%d)", byte(s))
	}
}

// ParseStorageArea maps "NAND" or "SD" to a StorageArea.
func ParseStorageArea(s string) (StorageArea, error) {
	switch s {
	case "NAND", "nand":
		return StorageNAND, nil
	case "SD", "sd":
		return StorageSD, nil
	default:
		return 0, fmt.Errorf("%w: storage area must be NAND or SD, got %q", ErrInvalidParameter, s)
	}
}

// Orientation is the screen rotation.
type Orientation byte

const (
	Rotate0 Orientation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Degrees returns the rotation in degrees.
func (o Orientation) Degrees() int {
	return int(o) * 90
}

func (o Orientation) String() string {
	if o > Rotate270 {
		return fmt.Sprintf("Orientation(%d)", byte(o))
	}
	return fmt.Sprintf("%ddeg", o.Degrees())
}

// Color is one of the four gray levels of the panel.
type Color byte

const (
	Black     Color = 0x00
	DarkGray  Color = 0x01
	LightGray Color = 0x02
	White     Color = 0x03
)

// FontSize selects one of the controller's built-in font heights.
type FontSize byte

const (
	Font32 FontSize = 0x01
	Font48 FontSize = 0x02
	Font64 FontSize = 0x03
)
