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

package config

import (
	"errors"
	"fmt"

	"github.com/google/shlex"
)

// Validate checks a normalized configuration. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	pins := map[string]int{
		"wake":    cfg.GPIO.Wake,
		"back":    cfg.GPIO.Back,
		"forward": cfg.GPIO.Forward,
		"go":      cfg.GPIO.Go,
	}
	owner := make(map[int]string, len(pins))
	for _, name := range []string{"wake", "back", "forward", "go"} {
		n := pins[name]
		if n < 0 {
			return fmt.Errorf("gpio.%s: negative pin number %d", name, n)
		}
		if prev, taken := owner[n]; taken {
			return fmt.Errorf("gpio.%s: pin %d already used by gpio.%s", name, n, prev)
		}
		owner[n] = name
	}

	for i, img := range cfg.Images {
		if img == "" {
			return fmt.Errorf("images[%d]: empty name", i)
		}
		for j := 0; j < len(img); j++ {
			if img[j] < 0x20 || img[j] > 0x7E {
				return fmt.Errorf("images[%d]: %q must be printable ASCII", i, img)
			}
		}
	}
	if cfg.ShutdownImage < 0 {
		return fmt.Errorf("shutdown_image: negative index %d", cfg.ShutdownImage)
	}

	if _, err := cfg.ShutdownArgv(); err != nil {
		return err
	}
	return nil
}

// ShutdownArgv splits ShutdownCommand with shell quoting rules. An empty
// command yields a nil slice.
func (c *Config) ShutdownArgv() ([]string, error) {
	if c.ShutdownCommand == "" {
		return nil, nil
	}
	argv, err := shlex.Split(c.ShutdownCommand)
	if err != nil {
		return nil, fmt.Errorf("shutdown_command: %w", err)
	}
	return argv, nil
}

// ShutdownImageName returns the image drawn before powering off. An index
// past the end of the list selects the last image.
func (c *Config) ShutdownImageName() string {
	if len(c.Images) == 0 {
		return ""
	}
	i := c.ShutdownImage
	if i >= len(c.Images) {
		i = len(c.Images) - 1
	}
	return c.Images[i]
}
