/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

type fixedSnapshot domain.Project

func (f fixedSnapshot) Snapshot() domain.Project { return domain.Project(f) }

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport("", "test", "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Comic Station Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

// TestRecover_SavesProject ensures Recover handles a panic, writes a report and
// the emergency project, and calls the injected exit function.
func TestRecover_SavesProject(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	p := domain.DefaultProject()
	p.Title = "LIVE"

	func() {
		defer Recover(dir, fixedSnapshot(p))
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	reports, _ := filepath.Glob(filepath.Join(dir, ReportDirName, "crash-*.log"))
	if len(reports) != 1 {
		t.Fatalf("want one crash report, got %v", reports)
	}
	saves, _ := filepath.Glob(filepath.Join(dir, ReportDirName, "project-emergency-*.json"))
	if len(saves) != 1 {
		t.Fatalf("want one emergency save, got %v", saves)
	}
	data, err := os.ReadFile(saves[0])
	if err != nil {
		t.Fatalf("read save: %v", err)
	}
	var got domain.Project
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode save: %v", err)
	}
	if got.Title != "LIVE" {
		t.Fatalf("saved title = %q", got.Title)
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(t.TempDir(), nil)
	}()
	if called {
		t.Fatalf("exit called without a panic")
	}
}
