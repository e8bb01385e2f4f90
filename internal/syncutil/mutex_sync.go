//go:build !deadlock

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
// slot and the controller simulator. The default build uses plain sync
// locks; build with -tags=deadlock for lock-order checking.
package syncutil

import (
	"sync"
	"time"
)

// DetectionEnabled reports whether lock-order checking is compiled in.
const DetectionEnabled = false

//nolint:gocritic // embedded to expose Lock/Unlock directly
type Mutex struct {
	sync.Mutex
}

//nolint:gocritic // embedded to expose RLock/RUnlock directly
type RWMutex struct {
	sync.RWMutex
}

// SetLockTimeout is a no-op without the deadlock build tag.
func SetLockTimeout(time.Duration) {}
