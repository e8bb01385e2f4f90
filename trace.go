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


package eink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ZaparooProject/go-eink/internal/syncutil"
)

// Wire tracing goes to two sinks: the console when debug output is enabled
// (EINK_DEBUG or DEBUG in the environment, or SetDebugEnabled), and the
// session log file whenever one is open, regardless of the debug flag.

const traceStamp = "15:04:05.000"

type session struct {
	mu   syncutil.Mutex
	file *os.File
	path string
	w    io.Writer
}

var (
	trace        session
	debugEnabled = os.Getenv("EINK_DEBUG") != "" || os.Getenv("DEBUG") != ""
)

// SetDebugEnabled turns console tracing on or off.
func SetDebugEnabled(enabled bool) {
	trace.mu.Lock()
	debugEnabled = enabled
	trace.mu.Unlock()
}

// DebugEnabled reports whether console tracing is on.
func DebugEnabled() bool {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	return debugEnabled
}

// Debugf traces a formatted message.
func Debugf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	trace.mu.Lock()
	defer trace.mu.Unlock()
	if trace.w != nil {
		_, _ = fmt.Fprintf(trace.w, "%s DEBUG: %s\n", time.Now().Format(traceStamp), msg)
	}
	if debugEnabled {
		_, _ = fmt.Fprintf(os.Stderr, "DEBUG: %s\n", msg)
	}
}

// TraceTX records a frame written to the controller.
func TraceTX(port string, frm []byte) {
	Debugf("%s TX % X", port, frm)
}

// TraceRX records a reply read from the controller. An empty reply usually
// means the long timeout expired.
func TraceRX(port string, reply []byte) {
	if len(reply) == 0 {
		Debugf("%s RX <none>", port)
		return
	}
	Debugf("%s RX % X (%q)", port, reply, reply)
}

// InitSessionLog opens eink_<timestamp>.log in dir ("" is the working
// directory) and mirrors all tracing into it until CloseSessionLog. Any
// session already open is closed first.
func InitSessionLog(dir string) (string, error) {
	if err := CloseSessionLog(); err != nil {
		return "", err
	}

	name := filepath.Join(dir, "eink_"+time.Now().Format("20060102_150405")+".log")
	f, err := os.Create(name) //nolint:gosec // name is built from a configured directory
	if err != nil {
		return "", fmt.Errorf("create session log: %w", err)
	}

	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.file, trace.path, trace.w = f, name, f

	_, _ = fmt.Fprintf(f, "=== E-ink session %s ===\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(f, "pid=%d os=%s/%s go=%s\n", os.Getpid(), runtime.GOOS, runtime.GOARCH, runtime.Version())
	_, _ = fmt.Fprintf(f, "cmd=%s\n\n", strings.Join(os.Args, " "))
	return name, nil
}

// CloseSessionLog writes the trailer and closes the session log. It is a
// no-op when no session is open.
func CloseSessionLog() error {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	if trace.file == nil {
		return nil
	}

	_, _ = fmt.Fprintf(trace.w, "\n%s === session ended ===\n", time.Now().Format(traceStamp))
	err := trace.file.Close()
	trace.file, trace.path, trace.w = nil, "", nil
	if err != nil {
		return fmt.Errorf("close session log: %w", err)
	}
	return nil
}

// SessionLogPath returns the path of the open session log, or "".
func SessionLogPath() string {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	return trace.path
}
