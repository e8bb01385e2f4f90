//go:build deadlock

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

// Package syncutil holds the lock types shared by the transport, the button
// slot and the controller simulator. Building with -tags=deadlock swaps in
// github.com/sasha-s/go-deadlock so lock-order bugs between the button
// goroutines and the UI loop are reported instead of hanging the device.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DetectionEnabled reports whether lock-order checking is compiled in.
const DetectionEnabled = true

type Mutex struct {
	deadlock.Mutex
}

type RWMutex struct {
	deadlock.RWMutex
}

// SetLockTimeout sets how long a goroutine may wait for a lock before it is
// reported as deadlocked. Zero disables the timeout check.
func SetLockTimeout(d time.Duration) {
	deadlock.Opts.DeadlockTimeout = d
}
