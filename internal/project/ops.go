/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package project holds the comic document and every structural edit on it.
//
// The functions in this file are pure: they take a project value and return a
// new one, copying only the slices on the path to the change. Unaffected
// pages and panels keep sharing their backing arrays with the input, so a
// reader holding the previous value never observes a write. Targets that do
// not exist make the operation a no-op that returns the input unchanged.
package project

import (
	"strconv"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

// PanelPatch is a field-level merge for a panel. Nil fields are left alone, so
// two racing patches on the same panel resolve last-write-wins per field.
type PanelPatch struct {
	Description *string
	ImageURL    *string
	Status      *domain.PanelStatus
}

// PagePatch merges into a page.
type PagePatch struct {
	Title *string
}

// MetaPatch merges into the project-level metadata.
type MetaPatch struct {
	Title         *string
	Author        *string
	Style         *string
	GlobalContext *string
}

// CharacterPatch merges into a character.
type CharacterPatch struct {
	Name        *string
	Personality *string
	Avatar      *string
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T { return &v }

func (pp PanelPatch) apply(pnl domain.Panel) domain.Panel {
	if pp.Description != nil {
		pnl.Description = *pp.Description
	}
	if pp.ImageURL != nil {
		pnl.ImageURL = *pp.ImageURL
	}
	if pp.Status != nil {
		pnl.Status = *pp.Status
	}
	return pnl
}

// AddPage appends a page holding one empty panel. Its number is the page count
// after the append and is never revised later.
func AddPage(p domain.Project) domain.Project {
	pages := make([]domain.Page, len(p.Pages), len(p.Pages)+1)
	copy(pages, p.Pages)
	p.Pages = append(pages, domain.Page{
		PageNumber: len(pages) + 1,
		Title:      domain.DefaultPageTitle,
		Panels:     []domain.Panel{domain.NewPanel()},
	})
	return p
}

// DeletePage removes the page at index. Confirmation is the caller's business.
func DeletePage(p domain.Project, index int) domain.Project {
	if index < 0 || index >= len(p.Pages) {
		return p
	}
	pages := make([]domain.Page, 0, len(p.Pages)-1)
	pages = append(pages, p.Pages[:index]...)
	p.Pages = append(pages, p.Pages[index+1:]...)
	return p
}

// AddPanel appends an idle empty panel to the page at pageIndex.
func AddPanel(p domain.Project, pageIndex int) domain.Project {
	p, _ = addPanel(p, pageIndex)
	return p
}

func addPanel(p domain.Project, pageIndex int) (domain.Project, string) {
	if pageIndex < 0 || pageIndex >= len(p.Pages) {
		return p, ""
	}
	pnl := domain.NewPanel()
	return withPage(p, pageIndex, func(pg domain.Page) domain.Page {
		panels := make([]domain.Panel, len(pg.Panels), len(pg.Panels)+1)
		copy(panels, pg.Panels)
		pg.Panels = append(panels, pnl)
		return pg
	}), pnl.ID
}

// DeletePanel removes the panel with id from whichever page holds it.
func DeletePanel(p domain.Project, id string) domain.Project {
	i, j, ok := p.FindPanel(id)
	if !ok {
		return p
	}
	return withPage(p, i, func(pg domain.Page) domain.Page {
		panels := make([]domain.Panel, 0, len(pg.Panels)-1)
		panels = append(panels, pg.Panels[:j]...)
		pg.Panels = append(panels, pg.Panels[j+1:]...)
		return pg
	})
}

// UpdatePanel merges patch into the panel with id.
func UpdatePanel(p domain.Project, id string, patch PanelPatch) domain.Project {
	i, j, ok := p.FindPanel(id)
	if !ok {
		return p
	}
	return withPage(p, i, func(pg domain.Page) domain.Page {
		panels := make([]domain.Panel, len(pg.Panels))
		copy(panels, pg.Panels)
		panels[j] = patch.apply(panels[j])
		pg.Panels = panels
		return pg
	})
}

// UpdatePage merges patch into the page at index.
func UpdatePage(p domain.Project, index int, patch PagePatch) domain.Project {
	if index < 0 || index >= len(p.Pages) {
		return p
	}
	return withPage(p, index, func(pg domain.Page) domain.Page {
		if patch.Title != nil {
			pg.Title = *patch.Title
		}
		return pg
	})
}

// UpdateMeta merges patch into the project metadata.
func UpdateMeta(p domain.Project, patch MetaPatch) domain.Project {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Author != nil {
		p.Author = *patch.Author
	}
	if patch.Style != nil {
		p.Style = *patch.Style
	}
	if patch.GlobalContext != nil {
		p.GlobalContext = *patch.GlobalContext
	}
	return p
}

// AddCharacter appends c, assigning an id when it has none. A character whose
// id is already taken is not added.
func AddCharacter(p domain.Project, c domain.Character) domain.Project {
	if c.ID == "" {
		c.ID = nextCharacterID(p)
	}
	for _, ex := range p.Characters {
		if ex.ID == c.ID {
			return p
		}
	}
	chars := make([]domain.Character, len(p.Characters), len(p.Characters)+1)
	copy(chars, p.Characters)
	p.Characters = append(chars, c)
	return p
}

// UpdateCharacter merges patch into the character with id.
func UpdateCharacter(p domain.Project, id string, patch CharacterPatch) domain.Project {
	for k, c := range p.Characters {
		if c.ID != id {
			continue
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Personality != nil {
			c.Personality = *patch.Personality
		}
		if patch.Avatar != nil {
			c.Avatar = *patch.Avatar
		}
		chars := make([]domain.Character, len(p.Characters))
		copy(chars, p.Characters)
		chars[k] = c
		p.Characters = chars
		return p
	}
	return p
}

func nextCharacterID(p domain.Project) string {
	taken := make(map[string]bool, len(p.Characters))
	for _, c := range p.Characters {
		taken[c.ID] = true
	}
	for n := len(p.Characters) + 1; ; n++ {
		id := "char-" + strconv.Itoa(n)
		if !taken[id] {
			return id
		}
	}
}

// withPage replaces page i with fn's result in a fresh pages slice.
func withPage(p domain.Project, i int, fn func(domain.Page) domain.Page) domain.Project {
	pages := make([]domain.Page, len(p.Pages))
	copy(pages, p.Pages)
	pages[i] = fn(pages[i])
	p.Pages = pages
	return p
}
