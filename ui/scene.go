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

package ui

import (
	"context"

	"github.com/ZaparooProject/go-eink"
)

// Text placement on the 800x600 panel.
const (
	pageMarginX  = 20
	pageMarginY  = 20
	pageLineStep = 40
)

type label struct {
	text string
	x, y uint16
}

type circle struct {
	x, y, r uint16
}

var (
	titleLabels = []label{
		{text: "Prototype de livre", x: 150, y: 50},
		{text: "electronique", x: 230, y: 120},
	}
	menuCircles = []circle{
		{x: 250, y: 300, r: 30},
		{x: 390, y: 375, r: 30},
		{x: 250, y: 450, r: 30},
	}
	// One label next to each circle: BACK, FORWARD, GO (held).
	menuLabels = []label{
		{text: "Livre", x: 300, y: 285},
		{text: "Demo images", x: 440, y: 360},
		{text: "Eteindre (Tenir)", x: 300, y: 435},
	}
)

type step func(ctx context.Context) error

func (m *Machine) startScreen() []step {
	p := m.panel
	steps := []step{
		p.Wake,
		p.Clear,
		func(ctx context.Context) error { return p.SetFontSize(ctx, eink.Font64) },
	}
	steps = append(steps, labels(p, titleLabels)...)
	for _, c := range menuCircles {
		steps = append(steps, func(ctx context.Context) error { return p.DrawCircle(ctx, c.x, c.y, c.r) })
	}
	steps = append(steps, func(ctx context.Context) error { return p.SetFontSize(ctx, eink.Font32) })
	steps = append(steps, labels(p, menuLabels)...)
	return append(steps, p.Refresh, p.Sleep)
}

func (m *Machine) pageScreen(pos int) []step {
	p := m.panel
	steps := []step{p.Wake, p.Clear}
	for i, line := range m.book.Page(pos) {
		y := uint16(pageMarginY + i*pageLineStep)
		steps = append(steps, func(ctx context.Context) error { return p.DrawText(ctx, pageMarginX, y, line) })
	}
	return append(steps, p.Refresh, p.Sleep)
}

func (m *Machine) imageScreen(name string) []step {
	p := m.panel
	return []step{
		p.Wake,
		p.Clear,
		func(ctx context.Context) error { return p.DisplayImage(ctx, 0, 0, name) },
		p.Refresh,
		p.Sleep,
	}
}

func labels(p Panel, ls []label) []step {
	steps := make([]step, 0, len(ls))
	for _, l := range ls {
		steps = append(steps, func(ctx context.Context) error { return p.DrawText(ctx, l.x, l.y, l.text) })
	}
	return steps
}
