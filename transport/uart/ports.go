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

package uart

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Path    string
	VIDPID  string
	Product string
	USB     bool
	// Likely is set for ports the controller is commonly wired to: the
	// board's own UART or a USB-serial adapter.
	Likely bool
}

// likelyPatterns match built-in single-board-computer UARTs and the usual
// USB-serial bridges.
var likelyPatterns = []string{
	"ttyama", "ttys0", "serial", "ttyusb", "ttyacm", "usbserial", "slab_usbtouart",
}

// ListPorts enumerates serial ports, likely candidates first.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		p := PortInfo{Path: d.Name, USB: d.IsUSB, Product: d.Product}
		if d.IsUSB {
			p.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
		}
		p.Likely = isLikelyPort(p)
		ports = append(ports, p)
	}
	sortPorts(ports)
	return ports, nil
}

func isLikelyPort(p PortInfo) bool {
	lower := strings.ToLower(p.Path)
	for _, pattern := range likelyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func sortPorts(ports []PortInfo) {
	sort.SliceStable(ports, func(i, j int) bool {
		if ports[i].Likely != ports[j].Likely {
			return ports[i].Likely
		}
		return ports[i].Path < ports[j].Path
	})
}
