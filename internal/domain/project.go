/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DefaultPageTitle labels pages appended by the editor.
const DefaultPageTitle = "NEW_SEQUENCE"

// NewPanelID returns a project-wide unique panel id.
func NewPanelID() string { return "p-" + uuid.NewString() }

// NewPanel returns an empty idle panel.
func NewPanel() Panel {
	return Panel{ID: NewPanelID(), Status: StatusIdle}
}

// FindPanel locates a panel by id. ok is false when no page holds it.
func (p Project) FindPanel(id string) (pageIdx, panelIdx int, ok bool) {
	for i, pg := range p.Pages {
		for j, pnl := range pg.Panels {
			if pnl.ID == id {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// Panel returns a copy of the panel with the given id.
func (p Project) Panel(id string) (Panel, bool) {
	i, j, ok := p.FindPanel(id)
	if !ok {
		return Panel{}, false
	}
	return p.Pages[i].Panels[j], true
}

// PanelCount returns the number of panels across all pages.
func (p Project) PanelCount() int {
	n := 0
	for _, pg := range p.Pages {
		n += len(pg.Panels)
	}
	return n
}

// Clone returns a deep copy. Nil slices stay nil so stored documents round-trip unchanged.
func (p Project) Clone() Project {
	out := p
	if p.Characters != nil {
		out.Characters = append([]Character(nil), p.Characters...)
	}
	if p.Pages != nil {
		out.Pages = make([]Page, len(p.Pages))
		for i, pg := range p.Pages {
			out.Pages[i] = pg
			if pg.Panels != nil {
				out.Pages[i].Panels = append([]Panel(nil), pg.Panels...)
			}
		}
	}
	return out
}

// DefaultProject is the project a fresh installation starts with.
func DefaultProject() Project {
	return Project{
		ID:            "project-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Title:         "SCENE_START_LINK",
		Author:        "ANONYMOUS_STATION_USER",
		Style:         "Ultra High-End Professional Comic Art, Westfalia Van Aesthetic, Vibrant Pop Art colors, Clean Bold Lineart, Dynamic Composition, Studio Lighting, Primary colors with Neon Pink and Teal accents.",
		GlobalContext: "Theme: Mystery / Adventure / Cyber-Noir. Professional comic book textures. Neon Pink (#FF007F) and Turquoise (#38B2AC) accents.",
		Characters: []Character{
			{ID: "char-1", Name: "SEB", Personality: "Urbain, tech-savvy, calm driver, wearing a tech-jacket."},
			{ID: "char-2", Name: "NADIA", Personality: "Heroic leader, tactical observer, wearing futuristic gear."},
			{ID: "char-3", Name: "EEVEE", Personality: "Faithful Sheltie dog, wears a glowing neon collar, highly intelligent."},
		},
		Pages: []Page{
			{
				PageNumber: 1,
				Title:      "INIT_SEQUENCE",
				Panels: []Panel{
					{
						ID:          "p1-1",
						Description: "Le van Westfalia Mystery BD Machine roule sur une route futuriste sous un ciel de néons. Seb est au volant, concentré. Nadia regarde la carte holographique. Eevee est assise fièrement à l'arrière.",
						Status:      StatusIdle,
					},
				},
			},
		},
	}
}
