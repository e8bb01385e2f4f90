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

package button

import "github.com/ZaparooProject/go-eink/internal/syncutil"

// Slot holds the most recent event. Publishers overwrite it; the consumer
// takes it and leaves None behind.
type Slot struct {
	mu syncutil.Mutex
	ev Event
}

// Publish replaces the pending event.
func (s *Slot) Publish(ev Event) {
	s.mu.Lock()
	s.ev = ev
	s.mu.Unlock()
}

// Take returns the pending event and clears it.
func (s *Slot) Take() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.ev
	s.ev = None
	return ev
}

// Peek returns the pending event without clearing it.
func (s *Slot) Peek() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ev
}
