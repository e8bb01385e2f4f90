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

// Package book turns a plain text file into fixed-width display lines and
// keeps track of the page being read.
package book

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultWidth is the number of characters that fit on one display line.
	DefaultWidth = 60
	// PageLines is the number of lines drawn per page.
	PageLines = 14
)

// ErrEmpty is returned when a book has no lines at all.
var ErrEmpty = errors.New("book has no lines")

// Book is a reflowed text ready to be paged through.
type Book struct {
	lines []string
}

// New wraps already reflowed lines.
func New(lines []string) *Book {
	return &Book{lines: lines}
}

// Load reads r line by line, collapses runs of whitespace to single
// spaces, folds the text to printable ASCII and cuts every line longer
// than width into width-sized chunks. Empty lines are kept and lines of
// any length are accepted.
func Load(r io.Reader, width int) (*Book, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid line width %d", width)
	}

	var lines []string
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read book: %w", err)
		}
		if raw == "" && err != nil {
			break
		}
		line := ToASCII(strings.Join(strings.Fields(raw), " "))
		lines = append(lines, Reflow(line, width)...)
		if err != nil {
			break
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmpty
	}
	return &Book{lines: lines}, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, width int) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f, width)
}

// Reflow splits line into chunks of at most width runes. A line shorter
// than width, including the empty line, is returned unchanged.
func Reflow(line string, width int) []string {
	if utf8.RuneCountInString(line) < width {
		return []string{line}
	}

	var chunks []string
	for line != "" {
		end, n := 0, 0
		for end < len(line) && n < width {
			_, size := utf8.DecodeRuneInString(line[end:])
			end += size
			n++
		}
		chunks = append(chunks, line[:end])
		line = line[end:]
	}
	return chunks
}

var punctuation = strings.NewReplacer(
	"œ", "oe", "Œ", "OE", "æ", "ae", "Æ", "AE", "ß", "ss",
	"«", "\"", "»", "\"", "“", "\"", "”", "\"", "„", "\"",
	"‘", "'", "’", "'", "‚", "'",
	"–", "-", "—", "-", "…", "...",
	"\u00a0", " ", "\u202f", " ",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ToASCII rewrites s so the controller's text command accepts it: accents
// are stripped, ligatures and typographic punctuation are spelled out and
// anything else outside printable ASCII becomes '?'.
func ToASCII(s string) string {
	s = punctuation.Replace(s)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	return strings.Map(func(r rune) rune {
		if r >= 0x20 && r <= 0x7E {
			return r
		}
		if r == '\t' {
			return ' '
		}
		return '?'
	}, s)
}

// Len returns the number of display lines.
func (b *Book) Len() int {
	return len(b.lines)
}

// Lines returns the display lines.
func (b *Book) Lines() []string {
	return b.lines
}

// Page returns the PageLines lines starting at pos. The last page may be
// short.
func (b *Book) Page(pos int) []string {
	pos = b.Clamp(pos)
	end := pos + PageLines
	if end > len(b.lines) {
		end = len(b.lines)
	}
	return b.lines[pos:end]
}

// Next returns the start of the following page. The position only moves
// when the following page is complete.
func (b *Book) Next(pos int) int {
	pos = b.Clamp(pos)
	if pos+2*PageLines <= len(b.lines) {
		return pos + PageLines
	}
	return pos
}

// Prev returns the start of the preceding page, never below zero.
func (b *Book) Prev(pos int) int {
	pos = b.Clamp(pos)
	if pos < PageLines {
		return 0
	}
	return pos - PageLines
}

// Clamp maps any stored position onto a valid page start: negative values
// become 0, values are rounded down to a page boundary and positions past
// the last full page are pulled back to it.
func (b *Book) Clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	pos -= pos % PageLines

	last := 0
	if len(b.lines) > PageLines {
		last = len(b.lines) - PageLines
		last -= last % PageLines
	}
	if pos > last {
		return last
	}
	return pos
}
