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

// This file defines the comic station data model: a project made of ordered pages,
// each holding an ordered sequence of panels, plus the characters and style metadata
// that feed image generation. Everything here serializes to the JSON documents kept
// by the persistent store, so field names follow the stored layout.

// PanelStatus is the generation lifecycle state of a panel.
type PanelStatus string

const (
	StatusIdle       PanelStatus = "idle"
	StatusGenerating PanelStatus = "generating"
	StatusCompleted  PanelStatus = "completed"
	StatusError      PanelStatus = "error"
)

// Valid reports whether s is one of the four known states.
func (s PanelStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusGenerating, StatusCompleted, StatusError:
		return true
	}
	return false
}

// CanStartGeneration reports whether a generation request may move a panel in
// this state to generating. An empty status is treated as idle.
func (s PanelStatus) CanStartGeneration() bool {
	switch s {
	case "", StatusIdle, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Character is a recurring cast member whose personality is fed to the image model.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Personality string `json:"personality"`
	Avatar      string `json:"avatar,omitempty"` // data URL
}

// Panel is one illustrated frame. ID is unique across the whole project.
type Panel struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	ImageURL    string      `json:"imageUrl,omitempty"` // self-contained data URL
	Status      PanelStatus `json:"status"`
}

// Page is an ordered sequence of panels. PageNumber is display metadata only;
// it is assigned at append time and never renumbered.
type Page struct {
	PageNumber int     `json:"pageNumber"`
	Title      string  `json:"title"`
	Panels     []Panel `json:"panels"`
}

// Project is the whole comic document.
type Project struct {
	ID            string      `json:"id,omitempty"`
	Title         string      `json:"title"`
	Author        string      `json:"author,omitempty"`
	Style         string      `json:"style"`
	GlobalContext string      `json:"globalContext"`
	Characters    []Character `json:"characters"`
	Pages         []Page      `json:"pages"`
	PublishedAt   string      `json:"publishedAt,omitempty"` // RFC3339, set on library snapshots only
}

// Library is the append-only list of published project snapshots, oldest first.
type Library []Project

// ExportMeta describes an export document.
type ExportMeta struct {
	ExportedAt string `json:"exportedAt"`
	Version    string `json:"version"`
}

// ExportDocument is the downloadable snapshot of a project and its reference images.
type ExportDocument struct {
	Project    Project    `json:"project"`
	References Assets     `json:"references"`
	Meta       ExportMeta `json:"meta"`
}
