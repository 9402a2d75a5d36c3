/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui holds the presentation skins. Every skin drives the same Station
// capabilities; the terminal skin is always built, the desktop skin needs -tags fyne.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/assets"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/generation"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/library"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/project"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/render"
)

// Station bundles the capabilities a skin may use.
type Station struct {
	Model     *project.Model
	Generator *generation.Controller
	Assets    *assets.Manager
	Library   *library.Library
	Bus       *events.Bus
	Renderer  *render.Renderer
	DataDir   string
}

// Skin is one presentation of the station.
type Skin interface {
	Name() string
	Run(ctx context.Context, st *Station) error
}

// View selects editor or reader presentation.
type View string

const (
	ViewEditor View = "editor"
	ViewReader View = "reader"
)

// ParseView maps a config value to a view, defaulting to the editor.
func ParseView(s string) View {
	if strings.EqualFold(strings.TrimSpace(s), string(ViewReader)) {
		return ViewReader
	}
	return ViewEditor
}

// SkinByName returns the named skin. "desktop" resolves to the Fyne skin, which
// reports an error from Run in binaries built without it.
func SkinByName(name string, term *Terminal) (Skin, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "terminal", "tui":
		return term, nil
	case "desktop", "fyne", "gui":
		return Desktop{}, nil
	default:
		return nil, fmt.Errorf("unknown skin %q (use terminal or desktop)", name)
	}
}
