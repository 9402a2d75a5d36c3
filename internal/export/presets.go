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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb     PresetName = "web"
	PresetPrint   PresetName = "print"
	PresetArchive PresetName = "archive"
)

// Format names accepted by Batch.
const (
	FormatJSON = "json"
	FormatCBZ  = "cbz"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// BatchOptions controls batch export across multiple formats.
//
// A relative OutDir is resolved under <Root>/exports; an empty one becomes the
// preset name. Single-file formats are written as <Name>.<ext>, PNG pages go
// to a png/ subfolder.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // empty means preset defaults
	Pages   []int    // zero-based; applies to page formats only
	Root    string
	OutDir  string
	Name    string // base file name, default "comic"
	Page    PageOptions
}

// Batch runs exports according to the given preset and returns the written paths.
func Batch(p domain.Project, refs domain.Assets, opt BatchOptions) ([]string, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
		if baseOut == "" {
			baseOut = string(PresetArchive)
		}
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(opt.Root, "exports", baseOut)
	}
	name := opt.Name
	if name == "" {
		name = "comic"
	}
	pageOpt := opt.Page
	if len(opt.Pages) > 0 {
		pageOpt.Pages = opt.Pages
	}
	if pageOpt.Renderer == nil {
		pageOpt.Renderer = pageOpt.renderer()
	}

	var written []string
	for _, f := range formats {
		var (
			out string
			err error
		)
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatJSON:
			out, err = JSONFile(p, refs, filepath.Join(baseOut, name))
		case FormatCBZ:
			out, err = CBZ(p, filepath.Join(baseOut, name), pageOpt)
		case FormatPDF:
			out, err = PDF(p, filepath.Join(baseOut, name), pageOpt)
		case FormatPNG:
			var pages []string
			pages, err = PNGPages(p, filepath.Join(baseOut, "png"), pageOpt)
			written = append(written, pages...)
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		if err != nil {
			return written, fmt.Errorf("%s export: %w", f, err)
		}
		if out != "" {
			written = append(written, out)
		}
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{FormatPNG, FormatCBZ}
	case PresetPrint:
		return []string{FormatPDF, FormatPNG}
	default:
		return []string{FormatJSON}
	}
}
