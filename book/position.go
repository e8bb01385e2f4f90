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

package book

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PositionStore persists the first line of the page being read as a
// decimal integer in a text file.
type PositionStore struct {
	path string
}

// NewPositionStore returns a store backed by path. The file is created on
// the first Save.
func NewPositionStore(path string) *PositionStore {
	return &PositionStore{path: path}
}

// Path returns the backing file path.
func (s *PositionStore) Path() string {
	return s.path
}

// Load reads the saved position. A missing or blank file reads as 0. Only
// the first whitespace separated field is parsed.
func (s *PositionStore) Load() (int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, nil
	}
	pos, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("parse position %q: %w", fields[0], err)
	}
	return pos, nil
}

// Save replaces the stored position. The new value is written to a temp
// file in the same directory and renamed over the old one, so a power cut
// leaves either the old or the new position.
func (s *PositionStore) Save(pos int) error {
	if pos < 0 {
		return fmt.Errorf("negative position %d", pos)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create position dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".position-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp position file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(strconv.Itoa(pos)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write position: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync position: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close position: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace position: %w", err)
	}
	return nil
}
