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
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
)

// Options controls page layout. Sizes are in pixels.
type Options struct {
	Width       int
	Columns     int
	Margin      int
	Gutter      int
	TitleHeight int
	// CellAspect is panel height divided by width.
	CellAspect float64
}

// DefaultOptions lays out two square panels per row on a 1200px wide page.
func DefaultOptions() Options {
	return Options{Width: 1200, Columns: 2, Margin: 32, Gutter: 16, TitleHeight: 48, CellAspect: 1}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Columns <= 0 {
		o.Columns = d.Columns
	}
	if o.Margin < 0 {
		o.Margin = d.Margin
	}
	if o.Gutter < 0 {
		o.Gutter = d.Gutter
	}
	if o.TitleHeight <= 0 {
		o.TitleHeight = d.TitleHeight
	}
	if o.CellAspect <= 0 {
		o.CellAspect = d.CellAspect
	}
	return o
}

var (
	paper       = color.RGBA{255, 255, 255, 255}
	ink         = color.RGBA{0, 0, 0, 255}
	placeholder = color.RGBA{226, 226, 226, 255}
	errorTint   = color.RGBA{250, 220, 220, 255}
)

// Renderer composes pages for reader mode and exports.
type Renderer struct {
	dec *Decoder
	opt Options
	log *slog.Logger
}

// NewRenderer returns a renderer. A nil decoder gets a fresh one.
func NewRenderer(dec *Decoder, opt Options) *Renderer {
	if dec == nil {
		dec = NewDecoder(0)
	}
	return &Renderer{dec: dec, opt: opt.normalized(), log: applog.WithComponent("render")}
}

// Layout returns the page bounds and the panel cells for n panels.
func (r *Renderer) Layout(n int) (image.Rectangle, []image.Rectangle) {
	o := r.opt
	cellW := (o.Width - 2*o.Margin - (o.Columns-1)*o.Gutter) / o.Columns
	if cellW < 1 {
		cellW = 1
	}
	cellH := int(float64(cellW) * o.CellAspect)
	rows := (n + o.Columns - 1) / o.Columns
	top := o.Margin + o.TitleHeight
	height := top + o.Margin
	if rows > 0 {
		height += rows*cellH + (rows-1)*o.Gutter
	}
	cells := make([]image.Rectangle, n)
	for i := range cells {
		col, row := i%o.Columns, i/o.Columns
		x := o.Margin + col*(cellW+o.Gutter)
		y := top + row*(cellH+o.Gutter)
		cells[i] = image.Rect(x, y, x+cellW, y+cellH)
	}
	return image.Rect(0, 0, o.Width, height), cells
}

// RenderPage draws the page title and its panels in order. Panels without a
// usable image become placeholders showing their number and status.
func (r *Renderer) RenderPage(pg domain.Page) *image.RGBA {
	bounds, cells := r.Layout(len(pg.Panels))
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, &image.Uniform{C: paper}, image.Point{}, draw.Src)

	title := fmt.Sprintf("PAGE %02d  %s", pg.PageNumber, strings.ToUpper(pg.Title))
	drawText(img, r.opt.Margin, r.opt.Margin+r.opt.TitleHeight/2, title)

	for i, pnl := range pg.Panels {
		cell := cells[i]
		if !r.drawPanelImage(img, cell, pnl) {
			fill := placeholder
			if pnl.Status == domain.StatusError {
				fill = errorTint
			}
			fillRect(img, cell, fill)
			label := fmt.Sprintf("PANEL %d", i+1)
			if pnl.Status != "" && pnl.Status != domain.StatusIdle {
				label += " " + strings.ToUpper(string(pnl.Status))
			}
			drawText(img, cell.Min.X+12, cell.Min.Y+cell.Dy()/2, label)
		}
		strokeRect(img, cell, ink)
	}
	return img
}

// RenderProject renders every page in order.
func (r *Renderer) RenderProject(p domain.Project) []*image.RGBA {
	out := make([]*image.RGBA, 0, len(p.Pages))
	for _, pg := range p.Pages {
		out = append(out, r.RenderPage(pg))
	}
	return out
}

func (r *Renderer) drawPanelImage(dst *image.RGBA, cell image.Rectangle, pnl domain.Panel) bool {
	if pnl.ImageURL == "" {
		return false
	}
	src, err := r.dec.Decode(pnl.ImageURL)
	if err != nil {
		r.log.Warn("panel image unreadable", slog.String("panel", pnl.ID), slog.Any("err", err))
		return false
	}
	fillRect(dst, cell, paper)
	draw.CatmullRom.Scale(dst, fit(src.Bounds(), cell), src, src.Bounds(), draw.Over, nil)
	return true
}

// fit scales src to the largest rectangle inside cell with the same aspect, centered.
func fit(src, cell image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 {
		return cell
	}
	w, h := cell.Dx(), cell.Dx()*sh/sw
	if h > cell.Dy() {
		h = cell.Dy()
		w = h * sw / sh
	}
	x := cell.Min.X + (cell.Dx()-w)/2
	y := cell.Min.Y + (cell.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func drawText(img *image.RGBA, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func strokeRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: col}, image.Point{}, draw.Src)
}
