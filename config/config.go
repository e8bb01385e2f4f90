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

// Package config loads the reader's YAML configuration. A missing file is
// created with defaults on first run so a fresh device boots straight into
// the start screen.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the executable looks when -config is not given.
const DefaultPath = "/etc/ebook/config.yaml"

// SerialConfig selects the controller's serial port.
type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
}

// GPIOConfig holds BCM pin numbers.
type GPIOConfig struct {
	Wake    int `yaml:"wake"`
	Back    int `yaml:"back"`
	Forward int `yaml:"forward"`
	Go      int `yaml:"go"`
}

// BookConfig locates the book text and the saved reading position.
type BookConfig struct {
	Path         string `yaml:"path"`
	PositionPath string `yaml:"position_path"`
	// Width is the number of characters per displayed line.
	Width int `yaml:"width"`
}

// TimingConfig collects every delay the reader uses.
type TimingConfig struct {
	// Tick is the pause between two UI steps.
	Tick time.Duration `yaml:"tick"`
	// WakePulse is how long the wake pin is held high.
	WakePulse time.Duration `yaml:"wake_pulse"`
	// BaudSettle is the wait after asking the controller for a new baud rate.
	BaudSettle time.Duration `yaml:"baud_settle"`
	// ReplyTimeout bounds the wait for the first reply byte.
	ReplyTimeout time.Duration `yaml:"reply_timeout"`
	// InterByteTimeout ends a reply once the line goes quiet.
	InterByteTimeout time.Duration `yaml:"inter_byte_timeout"`
	// ButtonSample is the interval between two button level samples.
	ButtonSample time.Duration `yaml:"button_sample"`
	// Debounce is how long a line stays disarmed after an edge.
	Debounce time.Duration `yaml:"debounce"`
	// DemoTicks is the number of ticks each demo image stays on screen.
	DemoTicks int `yaml:"demo_ticks"`
}

// Config is the top-level application configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	GPIO   GPIOConfig   `yaml:"gpio"`
	Book   BookConfig   `yaml:"book"`

	// Images are bitmap names on the controller's SD card, shown in order
	// by the demo.
	Images []string `yaml:"images"`
	// ShutdownImage is the index in Images drawn before powering off.
	ShutdownImage int `yaml:"shutdown_image"`
	// ShutdownCommand is run, shell-split, after the shutdown image is drawn.
	// Empty disables powering off.
	ShutdownCommand string `yaml:"shutdown_command"`

	Timing   TimingConfig `yaml:"timing"`
	LogLevel string       `yaml:"log_level"`
}

func defaultImages() []string {
	return []string{
		"MAIS.BMP", "KID.BMP", "FIN23.BMP", "L1984.BMP", "LABO.BMP",
		"LIVRES.BMP", "LOGOS.BMP", "MONTR.BMP", "PIC4.BMP", "TERRE.BMP",
	}
}

func defaultTiming() TimingConfig {
	return TimingConfig{
		Tick:             250 * time.Millisecond,
		WakePulse:        200 * time.Millisecond,
		BaudSettle:       time.Second,
		ReplyTimeout:     5 * time.Second,
		InterByteTimeout: 200 * time.Millisecond,
		ButtonSample:     100 * time.Millisecond,
		Debounce:         1500 * time.Millisecond,
		DemoTicks:        40,
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{Device: "/dev/serial0", BaudRate: 115200},
		GPIO:   GPIOConfig{Wake: 22, Back: 24, Forward: 25, Go: 27},
		Book: BookConfig{
			Path:         "/var/lib/ebook/book.txt",
			PositionPath: "/var/lib/ebook/position",
			Width:        60,
		},
		Images:          defaultImages(),
		ShutdownImage:   5,
		ShutdownCommand: "shutdown 0",
		Timing:          defaultTiming(),
		LogLevel:        "info",
	}
}

// Normalize replaces unusable zero or negative values (empty device, zero
// baud rate, zero durations) with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Serial.Device == "" {
		c.Serial.Device = def.Serial.Device
	}
	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Book.Path == "" {
		c.Book.Path = def.Book.Path
	}
	if c.Book.PositionPath == "" {
		c.Book.PositionPath = def.Book.PositionPath
	}
	if c.Book.Width <= 0 {
		c.Book.Width = def.Book.Width
	}
	if len(c.Images) == 0 {
		c.Images = def.Images
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	t := &c.Timing
	fill := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	fill(&t.Tick, def.Timing.Tick)
	fill(&t.WakePulse, def.Timing.WakePulse)
	fill(&t.BaudSettle, def.Timing.BaudSettle)
	fill(&t.ReplyTimeout, def.Timing.ReplyTimeout)
	fill(&t.InterByteTimeout, def.Timing.InterByteTimeout)
	fill(&t.ButtonSample, def.Timing.ButtonSample)
	fill(&t.Debounce, def.Timing.Debounce)
	if t.DemoTicks <= 0 {
		t.DemoTicks = def.Timing.DemoTicks
	}
}

// PinName maps a BCM number to the name periph registers it under.
func PinName(bcm int) string {
	return fmt.Sprintf("GPIO%d", bcm)
}

// Load reads the YAML file at path, normalizes and validates it. A missing
// file is created with defaults (parent directory included) and the
// defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, fmt.Errorf("write default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Keys absent from the file keep their default values; explicit zero
	// values (shutdown_command: "") are kept as written.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg atomically (temp file in the same directory, then
// rename) with 0644 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".ebook-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
