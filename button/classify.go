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

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	// MaxSamples is how many times a line is read before a press counts as
	// long.
	MaxSamples = 10
	// ReleaseSamples is how many high readings make a press short.
	ReleaseSamples = 2
	// DefaultSampleInterval is the pause between two readings.
	DefaultSampleInterval = 100 * time.Millisecond
)

// Classify decides the press from a sequence of line readings taken after
// a falling edge. The press is Short as soon as ReleaseSamples high levels
// have been seen and Long otherwise.
func Classify(levels []gpio.Level) Press {
	highs := 0
	for _, l := range levels {
		if l == gpio.High {
			highs++
		}
		if highs >= ReleaseSamples {
			return Short
		}
	}
	return Long
}

// Sampler reads a line until its press is decided.
type Sampler struct {
	Interval time.Duration
}

// Sample reads pin up to MaxSamples times, Interval apart, and stops early
// once the readings classify as Short. Cancelling ctx abandons the press
// and returns Nothing.
func (s Sampler) Sample(ctx context.Context, pin gpio.PinIn) Press {
	levels := make([]gpio.Level, 0, MaxSamples)
	for i := 0; i < MaxSamples; i++ {
		levels = append(levels, pin.Read())
		if Classify(levels) == Short {
			return Short
		}
		if i == MaxSamples-1 {
			break
		}

		timer := time.NewTimer(s.Interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Nothing
		}
	}
	return Long
}
