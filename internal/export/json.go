/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes project snapshots and reader-ready page files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/version"
)

// Document builds the JSON snapshot of a project and its stored images.
// The project is copied, so later edits do not leak into the document.
func Document(p domain.Project, refs domain.Assets, now time.Time) domain.ExportDocument {
	if refs == nil {
		refs = domain.Assets{}
	}
	return domain.ExportDocument{
		Project:    p.Clone(),
		References: refs.Clone(),
		Meta: domain.ExportMeta{
			ExportedAt: now.UTC().Format(time.RFC3339),
			Version:    version.String(),
		},
	}
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc domain.ExportDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// JSONFile writes the snapshot document to outPath, adding a .json extension when missing.
func JSONFile(p domain.Project, refs domain.Assets, outPath string) (string, error) {
	outPath = withExt(outPath, ".json")
	f, err := createFile(outPath)
	if err != nil {
		return "", err
	}
	if err := WriteJSON(f, Document(p, refs, time.Now())); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return outPath, nil
}

// FileName suggests a file name for a project export, e.g. "comic_station_export_1717171717.json".
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("comic_station_export_%d%s", now.Unix(), ext)
}

func withExt(path, ext string) string {
	if !strings.HasSuffix(strings.ToLower(path), ext) {
		return path + ext
	}
	return path
}

func createFile(outPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Base(outPath), err)
	}
	return f, nil
}

// pageIndexes returns the selected page indexes, or every page when none are given.
// Out-of-range indexes are dropped.
func pageIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, len(specific))
	for _, i := range specific {
		if i >= 0 && i < total {
			out = append(out, i)
		}
	}
	return out
}
