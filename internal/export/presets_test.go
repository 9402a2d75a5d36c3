/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

func TestBatch_WebPreset(t *testing.T) {
	root := t.TempDir()
	written, err := Batch(sampleProject(t), nil, BatchOptions{Preset: PresetWeb, Root: root})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	checks := []string{
		filepath.Join(root, "exports", "web", "png", "page-1.png"),
		filepath.Join(root, "exports", "web", "png", "page-2.png"),
		filepath.Join(root, "exports", "web", "comic.cbz"),
	}
	if len(written) != len(checks) {
		t.Fatalf("written: %v", written)
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatch_DefaultIsJSONArchive(t *testing.T) {
	root := t.TempDir()
	refs := domain.Assets{domain.SlotNadia: "data:image/png;base64,AAAA"}
	if _, err := Batch(sampleProject(t), refs, BatchOptions{Root: root, Name: "snap"}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "exports", "archive", "snap.json")); err != nil {
		t.Fatalf("json missing: %v", err)
	}
}

func TestBatch_UnknownFormat(t *testing.T) {
	if _, err := Batch(sampleProject(t), nil, BatchOptions{Root: t.TempDir(), Formats: []string{"epub"}}); err == nil {
		t.Fatalf("expected error")
	}
}
