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
	"bytes"
	"fmt"
	"os"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

// CBZ packages the selected pages as PNG images into a CBZ (ZIP) archive
// with a ComicInfo.xml manifest for reader compatibility.
func CBZ(p domain.Project, outPath string, opt PageOptions) (string, error) {
	outPath = withExt(outPath, ".cbz")
	zw, f, err := createZip(outPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	pages := pageIndexes(len(p.Pages), opt.Pages)
	pad := len(fmt.Sprint(len(pages)))
	r := opt.renderer()
	for i, idx := range pages {
		data, err := encodePNG(r.RenderPage(p.Pages[idx]))
		if err != nil {
			return "", err
		}
		name := fmt.Sprintf("%0*d.png", pad, i+1)
		if err := addZipFile(zw, name, data); err != nil {
			return "", fmt.Errorf("zip add image: %w", err)
		}
	}

	manifest, err := buildComicInfoXML(p, len(pages))
	if err != nil {
		return "", fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, "ComicInfo.xml", []byte(manifest)); err != nil {
		return "", fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close zip: %w", err)
	}
	return outPath, nil
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	f, err := createFile(outPath)
	if err != nil {
		return nil, nil, err
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func buildComicInfoXML(p domain.Project, pageCount int) (string, error) {
	buf := &bytes.Buffer{}
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(buf, format, args...)
	}
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<ComicInfo xmlns:xsi=\"http://www.w3.org/2001/XMLSchema-instance\">\n")
	wf("  <Series>%s</Series>\n", xmlEsc(p.Title))
	wf("  <Title>%s</Title>\n", xmlEsc(p.Title))
	wf("  <PageCount>%d</PageCount>\n", pageCount)
	if p.Author != "" {
		wf("  <Writer>%s</Writer>\n", xmlEsc(p.Author))
	}
	if p.GlobalContext != "" {
		wf("  <Summary>%s</Summary>\n", xmlEsc(p.GlobalContext))
	}
	if p.Style != "" {
		wf("  <Genre>%s</Genre>\n", xmlEsc(p.Style))
	}
	if len(p.Characters) > 0 {
		names := make([]byte, 0, 64)
		for i, c := range p.Characters {
			if i > 0 {
				names = append(names, ", "...)
			}
			names = append(names, c.Name...)
		}
		wf("  <Characters>%s</Characters>\n", xmlEsc(string(names)))
	}
	wf("  <ReadingDirection>LeftToRight</ReadingDirection>\n")
	wf("</ComicInfo>\n")
	if werr != nil {
		return "", fmt.Errorf("build xml: %w", werr)
	}
	return buf.String(), nil
}

func xmlEsc(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '"':
			out = append(out, "&quot;"...)
		case '\'':
			out = append(out, "&apos;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
