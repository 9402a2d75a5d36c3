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
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/render"
)

// PageOptions selects pages and the renderer used to rasterize them.
type PageOptions struct {
	Pages    []int // zero-based; empty means all pages
	Renderer *render.Renderer
}

func (o PageOptions) renderer() *render.Renderer {
	if o.Renderer != nil {
		return o.Renderer
	}
	return render.NewRenderer(nil, render.DefaultOptions())
}

func encodePNG(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// PNGPages writes one page-<n>.png per selected page into outDir and returns the written paths.
func PNGPages(p domain.Project, outDir string, opt PageOptions) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	r := opt.renderer()
	var written []string
	for _, idx := range pageIndexes(len(p.Pages), opt.Pages) {
		data, err := encodePNG(r.RenderPage(p.Pages[idx]))
		if err != nil {
			return written, err
		}
		out := filepath.Join(outDir, fmt.Sprintf("page-%d.png", idx+1))
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return written, fmt.Errorf("write png: %w", err)
		}
		written = append(written, out)
	}
	return written, nil
}
