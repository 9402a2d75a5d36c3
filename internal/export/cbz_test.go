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
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCBZ(t *testing.T) {
	out, err := CBZ(sampleProject(t), filepath.Join(t.TempDir(), "exports", "issue"), PageOptions{})
	if err != nil {
		t.Fatalf("export cbz: %v", err)
	}
	if !strings.HasSuffix(out, ".cbz") {
		t.Fatalf("extension not enforced: %s", out)
	}
	rd, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = rd.Close() }()

	names := map[string]*zip.File{}
	for _, f := range rd.File {
		names[f.Name] = f
	}
	for _, want := range []string{"1.png", "2.png", "ComicInfo.xml"} {
		if names[want] == nil {
			t.Fatalf("%s not found in zip", want)
		}
	}

	r, err := names["ComicInfo.xml"].Open()
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	data, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"<Title>SCENE_START_LINK</Title>",
		"<PageCount>2</PageCount>",
		"<Characters>SEB, NADIA, EEVEE</Characters>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("manifest missing %q: %s", want, text)
		}
	}
}

func TestCBZSelectedPages(t *testing.T) {
	out, err := CBZ(sampleProject(t), filepath.Join(t.TempDir(), "one.cbz"), PageOptions{Pages: []int{1}})
	if err != nil {
		t.Fatalf("export cbz: %v", err)
	}
	rd, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = rd.Close() }()
	if len(rd.File) != 2 {
		t.Fatalf("want one page plus manifest, got %d entries", len(rd.File))
	}
}

func TestXMLEscape(t *testing.T) {
	if got := xmlEsc(`Q&A <"night">`); got != "Q&amp;A &lt;&quot;night&quot;&gt;" {
		t.Fatalf("got %s", got)
	}
}

func TestPDFCreatesFile(t *testing.T) {
	out, err := PDF(sampleProject(t), filepath.Join(t.TempDir(), "reader"), PageOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Fatalf("not a pdf")
	}
}

func TestPDFRejectsEmptySelection(t *testing.T) {
	p := sampleProject(t)
	p.Pages = nil
	if _, err := PDF(p, filepath.Join(t.TempDir(), "empty.pdf"), PageOptions{}); err == nil {
		t.Fatalf("expected error for a project without pages")
	}
}
