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


//nolint:paralleltest // Tests mutate package-level trace state
package eink

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureTrace redirects the session sink to a buffer for the test.
func captureTrace(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer

	trace.mu.Lock()
	origW, origDebug := trace.w, debugEnabled
	trace.w, debugEnabled = &buf, false
	trace.mu.Unlock()

	t.Cleanup(func() {
		trace.mu.Lock()
		trace.w, debugEnabled = origW, origDebug
		trace.mu.Unlock()
	})
	return &buf
}

func TestDebugf_Session(t *testing.T) {
	buf := captureTrace(t)

	Debugf("frame %d", 42)

	assert.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3} DEBUG: frame 42\n$`), buf.String())
}

func TestDebugf_NoSink(t *testing.T) {
	captureTrace(t)
	trace.mu.Lock()
	trace.w = nil
	trace.mu.Unlock()

	assert.NotPanics(t, func() { Debugf("dropped") })
}

func TestTrace_Frames(t *testing.T) {
	buf := captureTrace(t)

	TraceTX("/dev/serial0", []byte{0xA5, 0x00, 0x09})
	TraceRX("/dev/serial0", nil)
	TraceRX("/dev/serial0", []byte("OK"))

	out := buf.String()
	assert.Contains(t, out, "/dev/serial0 TX A5 00 09")
	assert.Contains(t, out, "/dev/serial0 RX <none>")
	assert.Contains(t, out, `/dev/serial0 RX 4F 4B ("OK")`)
}

func TestSetDebugEnabled(t *testing.T) {
	captureTrace(t)

	SetDebugEnabled(true)
	assert.True(t, DebugEnabled())
	SetDebugEnabled(false)
	assert.False(t, DebugEnabled())
}

func TestSessionLog_Lifecycle(t *testing.T) {
	t.Cleanup(func() { _ = CloseSessionLog() })

	path, err := InitSessionLog(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, path, SessionLogPath())
	assert.Regexp(t, `^eink_\d{8}_\d{6}\.log$`, filepath.Base(path))

	Debugf("frame sent")
	require.NoError(t, CloseSessionLog())
	assert.Empty(t, SessionLogPath())

	content, err := os.ReadFile(path) //nolint:gosec // path comes from InitSessionLog
	require.NoError(t, err)
	out := string(content)
	assert.Contains(t, out, "=== E-ink session ")
	assert.Contains(t, out, "pid=")
	assert.Contains(t, out, "DEBUG: frame sent")
	assert.Contains(t, out, "=== session ended ===")
}

func TestSessionLog_ReopenClosesPrevious(t *testing.T) {
	t.Cleanup(func() { _ = CloseSessionLog() })
	dir := t.TempDir()

	first, err := InitSessionLog(dir)
	require.NoError(t, err)
	second, err := InitSessionLog(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, second, SessionLogPath())

	content, err := os.ReadFile(first) //nolint:gosec // path comes from InitSessionLog
	require.NoError(t, err)
	assert.Contains(t, string(content), "=== session ended ===")
}

func TestSessionLog_BadDirectory(t *testing.T) {
	_, err := InitSessionLog(filepath.Join(t.TempDir(), "missing", "dir"))
	require.Error(t, err)
	assert.Empty(t, SessionLogPath())
}

func TestCloseSessionLog_NoSession(t *testing.T) {
	require.NoError(t, CloseSessionLog())
}
