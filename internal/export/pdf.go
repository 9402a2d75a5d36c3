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
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

// pxToPt maps rendered pixels to PDF points at 96 dpi.
const pxToPt = 72.0 / 96.0

// PDF writes the selected pages to a single multi-page PDF. Each page is the
// rendered reader page placed full-bleed on a page of the same proportions.
func PDF(p domain.Project, outPath string, opt PageOptions) (string, error) {
	outPath = withExt(outPath, ".pdf")
	r := opt.renderer()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 900, Ht: 900}})
	pdf.SetTitle(p.Title, true)
	if p.Author != "" {
		pdf.SetAuthor(p.Author, true)
	}
	pdf.SetCreator("Comic Station", false)
	pdf.SetAutoPageBreak(false, 0)

	for _, idx := range pageIndexes(len(p.Pages), opt.Pages) {
		img := r.RenderPage(p.Pages[idx])
		data, err := encodePNG(img)
		if err != nil {
			return "", err
		}
		w := float64(img.Bounds().Dx()) * pxToPt
		h := float64(img.Bounds().Dy()) * pxToPt
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})

		name := fmt.Sprintf("page-%d", idx+1)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}
	if pdf.PageCount() == 0 {
		return "", fmt.Errorf("no pages to export")
	}
	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("build pdf: %w", err)
	}

	f, err := createFile(outPath)
	if err != nil {
		return "", err
	}
	if err := pdf.Output(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close pdf: %w", err)
	}
	return outPath, nil
}
