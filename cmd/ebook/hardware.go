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

package main

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/ZaparooProject/go-eink/button"
	"github.com/ZaparooProject/go-eink/config"
	"github.com/ZaparooProject/go-eink/internal/log"
	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type hardwarePins struct {
	wake    gpio.PinOut
	buttons map[button.Line]gpio.PinIn
}

// openPins initializes the host drivers and resolves the configured BCM
// pins.
func openPins(cfg config.GPIOConfig) (*hardwarePins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialize GPIO host: %w", err)
	}

	wake, err := lookupPin(cfg.Wake)
	if err != nil {
		return nil, fmt.Errorf("wake pin: %w", err)
	}
	if err := wake.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("wake pin %s: %w", wake, err)
	}

	pins := &hardwarePins{wake: wake, buttons: make(map[button.Line]gpio.PinIn, 3)}
	for line, n := range map[button.Line]int{
		button.Back:    cfg.Back,
		button.Forward: cfg.Forward,
		button.Go:      cfg.Go,
	} {
		p, err := lookupPin(n)
		if err != nil {
			pins.halt()
			return nil, fmt.Errorf("%s button: %w", line, err)
		}
		pins.buttons[line] = p
	}
	return pins, nil
}

func lookupPin(bcm int) (gpio.PinIO, error) {
	name := config.PinName(bcm)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no GPIO named %s", name)
	}
	return p, nil
}

// halt releases every pin; the wake line is driven low first.
func (h *hardwarePins) halt() {
	if h.wake != nil {
		_ = h.wake.Out(gpio.Low)
		if err := h.wake.Halt(); err != nil {
			log.Debug("halt wake pin", "err", err)
		}
	}
	for line, p := range h.buttons {
		if err := p.Halt(); err != nil {
			log.Debug("halt button pin", "line", line, "err", err)
		}
	}
}

// newPowerOff returns the hook run after the shutdown image is drawn. It
// flushes filesystem buffers so the saved position survives, then runs
// argv. An empty argv only syncs.
func newPowerOff(argv []string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		unix.Sync()
		if len(argv) == 0 {
			return nil
		}
		log.Info("running power off command", "argv", argv)
		//nolint:gosec // the command comes from the local configuration file
		out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w (output %q)", argv[0], err, out)
		}
		return nil
	}
}
