/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an emergency copy of the live project.
package crash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/telemetry"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/version"
)

// ReportDirName is the folder under the data dir that receives crash files.
const ReportDirName = "crash"

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Snapshotter exposes the live project. *project.Model satisfies it.
type Snapshotter interface {
	Snapshot() domain.Project
}

// Recover captures a panic, logs it with its stack, writes a report file,
// saves the live project next to it and exits with code 2.
//
// Usage: defer crash.Recover(dataDir, model)
func Recover(dataDir string, src Snapshotter) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	stamp := time.Now().Format("20060102-150405")
	reportPath, err := writeReport(dataDir, stamp, r, stack)
	if err != nil {
		l.Error("crash report failed", slog.Any("err", err))
	}
	if src != nil {
		if path, err := saveEmergency(dataDir, stamp, src); err != nil {
			l.Error("emergency project save failed", slog.Any("err", err))
		} else {
			l.Info("emergency project save written", slog.String("path", path))
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func reportDir(dataDir string) string {
	if dataDir == "" {
		return os.TempDir()
	}
	dir := filepath.Join(dataDir, ReportDirName)
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

func writeReport(dataDir, stamp string, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(reportDir(dataDir), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Comic Station Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if dataDir != "" {
		_, _ = fmt.Fprintf(&buf, "DataDir: %s\n", dataDir)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	telemetry.UploadCrash(buf.Bytes())
	return path, writeSynced(path, buf.Bytes())
}

// saveEmergency writes the project outside the store so a broken backend cannot lose it.
func saveEmergency(dataDir, stamp string, src Snapshotter) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot panicked: %v", r)
		}
	}()
	data, err := json.MarshalIndent(src.Snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal project: %w", err)
	}
	path = filepath.Join(reportDir(dataDir), fmt.Sprintf("project-emergency-%s.json", stamp))
	return path, writeSynced(path, data)
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	_ = f.Sync()
	return f.Close()
}
