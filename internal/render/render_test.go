/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/imagegen"
)

func solidPNG(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return imagegen.DataURL("image/png", buf.Bytes())
}

func TestDecoderCachesByContent(t *testing.T) {
	d := NewDecoder(0)
	url := solidPNG(t, 4, 4, color.RGBA{255, 0, 0, 255})

	a, err := d.Decode(url)
	require.NoError(t, err)
	b, err := d.Decode(url)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, d.Cached())

	_, err = d.Decode("data:image/png;base64,bm90IGFuIGltYWdl")
	assert.Error(t, err)
	assert.Equal(t, 1, d.Cached())
}

func TestLayoutGrid(t *testing.T) {
	r := NewRenderer(nil, Options{Width: 200, Columns: 2, Margin: 10, Gutter: 10, TitleHeight: 20, CellAspect: 1})
	bounds, cells := r.Layout(3)
	require.Len(t, cells, 3)
	assert.Equal(t, image.Rect(10, 30, 95, 115), cells[0])
	assert.Equal(t, image.Rect(105, 30, 190, 115), cells[1])
	assert.Equal(t, image.Rect(10, 125, 95, 210), cells[2])
	assert.Equal(t, image.Rect(0, 0, 200, 220), bounds)

	empty, none := r.Layout(0)
	assert.Empty(t, none)
	assert.Equal(t, 40, empty.Dy())
}

func TestRenderPageDrawsImagesAndPlaceholders(t *testing.T) {
	r := NewRenderer(nil, Options{Width: 200, Columns: 2, Margin: 10, Gutter: 10, TitleHeight: 20, CellAspect: 1})
	blue := color.RGBA{0, 0, 255, 255}
	pg := domain.Page{PageNumber: 1, Title: "INIT_SEQUENCE", Panels: []domain.Panel{
		{ID: "a", ImageURL: solidPNG(t, 8, 8, blue), Status: domain.StatusCompleted},
		{ID: "b", Status: domain.StatusIdle},
		{ID: "c", ImageURL: "garbage", Status: domain.StatusError},
	}}
	img := r.RenderPage(pg)
	_, cells := r.Layout(3)

	center := func(c image.Rectangle) color.RGBA {
		return img.RGBAAt(c.Min.X+c.Dx()/2, c.Min.Y+c.Dy()/4)
	}
	assert.Equal(t, blue, center(cells[0]))
	assert.Equal(t, placeholder, center(cells[1]))
	assert.Equal(t, errorTint, center(cells[2]))
	assert.Equal(t, ink, img.RGBAAt(cells[1].Min.X, cells[1].Min.Y))
}

func TestFitKeepsAspect(t *testing.T) {
	cell := image.Rect(0, 0, 100, 100)
	assert.Equal(t, image.Rect(0, 25, 100, 75), fit(image.Rect(0, 0, 40, 20), cell))
	assert.Equal(t, image.Rect(25, 0, 75, 100), fit(image.Rect(0, 0, 20, 40), cell))
}

func TestRenderProjectKeepsPageOrder(t *testing.T) {
	r := NewRenderer(nil, DefaultOptions())
	p := domain.DefaultProject()
	p.Pages = append(p.Pages, domain.Page{PageNumber: 2, Title: "NEXT"})
	pages := r.RenderProject(p)
	require.Len(t, pages, 2)
	assert.Equal(t, 1200, pages[0].Bounds().Dx())
}
