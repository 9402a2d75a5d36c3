//go:build fyne && cgo

/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
//
// Ensure you have the Fyne dependencies installed and a working OS driver.
package ui

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func TestPageView_Defaults(t *testing.T) {
	pv := NewPageView()
	if pv.zoom != 0.5 {
		t.Fatalf("expected default zoom 0.5, got %v", pv.zoom)
	}
	sz := pv.PreferredSize()
	if sz.Width != 800 || sz.Height != 600 {
		t.Fatalf("unexpected PreferredSize: %v", sz)
	}
}

func TestPageView_LayoutCentersPage(t *testing.T) {
	pv := NewPageView()
	r, ok := pv.CreateRenderer().(*pageViewRenderer)
	if !ok {
		t.Fatalf("expected pageViewRenderer, got %T", pv.CreateRenderer())
	}
	pv.img = image.NewRGBA(image.Rect(0, 0, 1200, 1000))
	r.Layout(fyne.NewSize(1000, 800))

	sz := r.page.Size()
	if !almostEqual(sz.Width, 600, 0.5) || !almostEqual(sz.Height, 500, 0.5) {
		t.Fatalf("unexpected page size: %v", sz)
	}
	pos := r.page.Position()
	if !almostEqual(pos.X, 200, 0.5) || !almostEqual(pos.Y, 150, 0.5) {
		t.Fatalf("page not centered: %v", pos)
	}
}

func TestPageView_ZoomClamped(t *testing.T) {
	pv := NewPageView()
	for i := 0; i < 200; i++ {
		pv.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 10}})
	}
	if pv.zoom != 4.0 {
		t.Fatalf("zoom not clamped high: %v", pv.zoom)
	}
	for i := 0; i < 200; i++ {
		pv.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -10}})
	}
	if pv.zoom != 0.1 {
		t.Fatalf("zoom not clamped low: %v", pv.zoom)
	}
}

func TestPageLabel(t *testing.T) {
	got := pageLabel(domain.Page{PageNumber: 3, Title: "NEW_SEQUENCE", Panels: make([]domain.Panel, 2)})
	if got != "03  NEW_SEQUENCE  (2)" {
		t.Fatalf("got %q", got)
	}
}
