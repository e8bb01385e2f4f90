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

// Command ebook runs the e-ink book reader: a start screen, a paged book
// and an image slideshow driven by three buttons.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	eink "github.com/ZaparooProject/go-eink"
	"github.com/ZaparooProject/go-eink/book"
	"github.com/ZaparooProject/go-eink/button"
	"github.com/ZaparooProject/go-eink/config"
	"github.com/ZaparooProject/go-eink/internal/log"
	"github.com/ZaparooProject/go-eink/transport/uart"
	"github.com/ZaparooProject/go-eink/ui"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

type options struct {
	configPath    string
	sessionLogDir string
	debug         bool
	listPorts     bool
}

var (
	flagConfigPath    string
	flagSessionLogDir string
	flagDebug         bool
	flagListPorts     bool
)

func init() {
	flag.StringVar(&flagConfigPath, "config", config.DefaultPath, "Path to the YAML configuration (created on first run)")
	flag.StringVar(&flagSessionLogDir, "session-log", "", "Directory for a wire-level session log (disabled if empty)")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagListPorts, "list-ports", false, "List serial ports and exit")
}

func parseOptions() *options {
	return &options{
		configPath:    flagConfigPath,
		sessionLogDir: flagSessionLogDir,
		debug:         flagDebug,
		listPorts:     flagListPorts,
	}
}

func printPorts(w io.Writer) error {
	ports, err := uart.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(w, "No serial ports found")
		return nil
	}
	for _, p := range ports {
		mark := " "
		if p.Likely {
			mark = "*"
		}
		line := fmt.Sprintf("%s %s", mark, p.Path)
		if p.USB {
			line += fmt.Sprintf(" [USB %s] %s", p.VIDPID, p.Product)
		}
		_, _ = fmt.Fprintln(w, line)
	}
	return nil
}

func setupLogging(opts *options, cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if opts.debug {
		level = log.LevelDebug
		eink.SetDebugEnabled(true)
	}
	log.SetLevel(level)
	return nil
}

func run(ctx context.Context, opts *options) error {
	if opts.listPorts {
		return printPorts(os.Stdout)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := setupLogging(opts, cfg); err != nil {
		return err
	}

	if opts.sessionLogDir != "" {
		path, err := eink.InitSessionLog(opts.sessionLogDir)
		if err != nil {
			return fmt.Errorf("session log: %w", err)
		}
		defer func() { _ = eink.CloseSessionLog() }()
		log.Info("session log", "path", path)
	}

	bk, err := book.LoadFile(cfg.Book.Path, cfg.Book.Width)
	if err != nil {
		return err
	}
	log.Info("book loaded", "path", cfg.Book.Path, "lines", bk.Len())

	pins, err := openPins(cfg.GPIO)
	if err != nil {
		return err
	}
	defer pins.halt()

	transport, err := uart.New(cfg.Serial.Device, uart.Config{
		BaudRate:     cfg.Serial.BaudRate,
		LongTimeout:  cfg.Timing.ReplyTimeout,
		ShortTimeout: cfg.Timing.InterByteTimeout,
	})
	if err != nil {
		return err
	}

	display, err := eink.New(transport,
		eink.WithWakePin(pins.wake),
		eink.WithDisplayConfig(&eink.DisplayConfig{
			WakePulse:  cfg.Timing.WakePulse,
			BaudSettle: cfg.Timing.BaudSettle,
		}))
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() {
		if err := display.Close(); err != nil {
			log.Error("close display", err)
		}
	}()

	if err := configureStorage(ctx, display); err != nil {
		return err
	}

	argv, err := cfg.ShutdownArgv()
	if err != nil {
		return err
	}

	slot := &button.Slot{}
	watcher, err := button.NewWatcher(slot, pins.buttons, &button.Config{
		SampleInterval: cfg.Timing.ButtonSample,
		Debounce:       cfg.Timing.Debounce,
		EdgePoll:       button.DefaultConfig().EdgePoll,
	})
	if err != nil {
		return err
	}

	machine, err := ui.New(display, slot, bk, book.NewPositionStore(cfg.Book.PositionPath), &ui.Config{
		Tick:          cfg.Timing.Tick,
		DemoTicks:     cfg.Timing.DemoTicks,
		Images:        cfg.Images,
		ShutdownImage: cfg.ShutdownImageName(),
		PowerOff:      newPowerOff(argv),
	})
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	if err := watcher.Start(gctx); err != nil {
		return err
	}
	group.Go(func() error {
		<-gctx.Done()
		return watcher.Stop()
	})
	group.Go(func() error {
		if err := machine.Run(gctx); err != nil {
			return err
		}
		return ctx.Err()
	})

	log.Info("reader started", "device", cfg.Serial.Device)
	return group.Wait()
}

// configureStorage wakes the controller and points it at the SD card,
// where the demo images live. The reader cannot work without it.
func configureStorage(ctx context.Context, display *eink.Display) error {
	if err := display.Wake(ctx); err != nil {
		return fmt.Errorf("wake display: %w", err)
	}
	if err := display.SetStorageArea(ctx, eink.StorageSD); err != nil {
		return fmt.Errorf("couldn't set storage area: %w", err)
	}
	return nil
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	opts := parseOptions()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return exitCode(run(ctx, opts))
}

func exitCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, ui.ErrPoweredOff):
		//nolint:errorlint // a wrapped ErrPoweredOff carries the power-off command failure
		if err == ui.ErrPoweredOff {
			return 0
		}
		log.Error("power off command failed", err)
		return 1
	default:
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}
