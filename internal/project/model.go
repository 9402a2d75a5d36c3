/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package project

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/store"
)

var (
	ErrPanelNotFound     = errors.New("panel not found")
	ErrPageNotFound      = errors.New("page not found")
	ErrCharacterNotFound = errors.New("character not found")
)

// Model owns the live project. It is the single writer: every change goes
// through apply, which swaps in the new value, writes it through to the store
// and announces it on the bus. Reads return the current value and never block
// on a pending generation.
type Model struct {
	mu    sync.Mutex
	proj  domain.Project
	store store.Store
	bus   *events.Bus
	hist  *History
	log   *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithHistory replaces the default undo history.
func WithHistory(h *History) Option { return func(m *Model) { m.hist = h } }

// Open loads the project from s, falling back to the built-in default project.
// Panels persisted mid-generation are reset to idle since no request survives a restart.
func Open(ctx context.Context, s store.Store, bus *events.Bus, opts ...Option) *Model {
	p := store.Load(ctx, s, store.KeyProject, domain.DefaultProject())
	for i := range p.Pages {
		for j := range p.Pages[i].Panels {
			if p.Pages[i].Panels[j].Status == domain.StatusGenerating || p.Pages[i].Panels[j].Status == "" {
				p.Pages[i].Panels[j].Status = domain.StatusIdle
			}
		}
	}
	return New(p, s, bus, opts...)
}

// New wraps an existing project value.
func New(p domain.Project, s store.Store, bus *events.Bus, opts ...Option) *Model {
	m := &Model{proj: p, store: s, bus: bus, log: applog.WithComponent("project")}
	for _, o := range opts {
		o(m)
	}
	if m.hist == nil {
		m.hist = NewHistory(HistoryConfig{})
	}
	return m
}

// Snapshot returns a deep copy of the live project.
func (m *Model) Snapshot() domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proj.Clone()
}

// Panel returns the current value of one panel.
func (m *Model) Panel(id string) (domain.Panel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proj.Panel(id)
}

// Save writes the current project to the store.
func (m *Model) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return store.Save(ctx, m.store, store.KeyProject, m.proj)
}

// apply runs fn on the live project. label names the edit in the undo history;
// an empty label keeps the edit out of it. It reports whether anything changed.
func (m *Model) apply(ctx context.Context, label string, fn func(domain.Project) domain.Project) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.proj
	next := fn(before)
	if reflect.DeepEqual(before, next) {
		return false
	}
	if label != "" {
		m.hist.Record(label, before)
	}
	m.proj = next
	m.persistLocked(ctx)
	m.bus.Publish(events.Event{Type: events.ProjectChanged, Message: label})
	return true
}

// persistLocked writes through to the store. Failures are logged and absorbed:
// the in-memory project stays authoritative and the next change retries.
func (m *Model) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := store.Save(ctx, m.store, store.KeyProject, m.proj); err != nil {
		m.log.ErrorContext(ctx, "persist project failed", slog.Any("err", err))
	}
}

// AddPage appends a page and returns its index.
func (m *Model) AddPage(ctx context.Context) int {
	var idx int
	m.apply(ctx, "add page", func(p domain.Project) domain.Project {
		p = AddPage(p)
		idx = len(p.Pages) - 1
		return p
	})
	return idx
}

func (m *Model) DeletePage(ctx context.Context, index int) error {
	if !m.apply(ctx, "delete page", func(p domain.Project) domain.Project { return DeletePage(p, index) }) {
		return ErrPageNotFound
	}
	return nil
}

// AddPanel appends a panel to the page at pageIndex and returns its id.
func (m *Model) AddPanel(ctx context.Context, pageIndex int) (string, error) {
	var id string
	m.apply(ctx, "add panel", func(p domain.Project) domain.Project {
		p, id = addPanel(p, pageIndex)
		return p
	})
	if id == "" {
		return "", ErrPageNotFound
	}
	return id, nil
}

func (m *Model) DeletePanel(ctx context.Context, id string) error {
	if !m.apply(ctx, "delete panel", func(p domain.Project) domain.Project { return DeletePanel(p, id) }) {
		return ErrPanelNotFound
	}
	return nil
}

// UpdatePanel merges an author edit into a panel. Edits to the same panel in
// quick succession collapse into one undo step.
func (m *Model) UpdatePanel(ctx context.Context, id string, patch PanelPatch) error {
	return m.updatePanel(ctx, "edit panel "+id, id, patch)
}

// SetPanelState applies a generation outcome. It is not recorded in the undo
// history and does nothing but report ErrPanelNotFound when the panel is gone.
func (m *Model) SetPanelState(ctx context.Context, id string, patch PanelPatch) error {
	if err := m.updatePanel(ctx, "", id, patch); err != nil {
		return err
	}
	if patch.Status != nil {
		m.bus.Publish(events.Event{Type: events.PanelStatusChanged, PanelID: id, Status: *patch.Status})
	}
	return nil
}

func (m *Model) updatePanel(ctx context.Context, label, id string, patch PanelPatch) error {
	found := false
	m.apply(ctx, label, func(p domain.Project) domain.Project {
		_, _, found = p.FindPanel(id)
		return UpdatePanel(p, id, patch)
	})
	if !found {
		return ErrPanelNotFound
	}
	return nil
}

func (m *Model) UpdatePage(ctx context.Context, index int, patch PagePatch) error {
	found := false
	m.apply(ctx, "edit page", func(p domain.Project) domain.Project {
		found = index >= 0 && index < len(p.Pages)
		return UpdatePage(p, index, patch)
	})
	if !found {
		return ErrPageNotFound
	}
	return nil
}

func (m *Model) UpdateMeta(ctx context.Context, patch MetaPatch) {
	m.apply(ctx, "edit project", func(p domain.Project) domain.Project { return UpdateMeta(p, patch) })
}

// AddCharacter appends a character and returns its id.
func (m *Model) AddCharacter(ctx context.Context, c domain.Character) string {
	var id string
	m.apply(ctx, "add character", func(p domain.Project) domain.Project {
		p = AddCharacter(p, c)
		id = p.Characters[len(p.Characters)-1].ID
		return p
	})
	return id
}

func (m *Model) UpdateCharacter(ctx context.Context, id string, patch CharacterPatch) error {
	found := false
	m.apply(ctx, "edit character", func(p domain.Project) domain.Project {
		for _, c := range p.Characters {
			found = found || c.ID == id
		}
		return UpdateCharacter(p, id, patch)
	})
	if !found {
		return ErrCharacterNotFound
	}
	return nil
}

// Undo reverts the last recorded edit. Generation outcomes are not edits:
// status and image of panels present on both sides are kept from the live
// project, so undo never rolls a finished panel back or drops its image.
func (m *Model) Undo(ctx context.Context) (string, bool) {
	return m.travel(ctx, "undo", m.hist.Undo)
}

// Redo re-applies the last undone edit.
func (m *Model) Redo(ctx context.Context) (string, bool) {
	return m.travel(ctx, "redo", m.hist.Redo)
}

func (m *Model) travel(ctx context.Context, verb string, step func(domain.Project) (domain.Project, string, bool)) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, label, ok := step(m.proj)
	if !ok {
		return "", false
	}
	m.proj = reconcileGeneration(m.proj, target)
	m.persistLocked(ctx)
	m.bus.Publish(events.Event{Type: events.ProjectChanged, Message: verb + " " + label})
	return label, true
}

func reconcileGeneration(live, target domain.Project) domain.Project {
	out := target.Clone()
	for i := range out.Pages {
		for j := range out.Pages[i].Panels {
			pnl := &out.Pages[i].Panels[j]
			if cur, ok := live.Panel(pnl.ID); ok {
				pnl.Status = cur.Status
				pnl.ImageURL = cur.ImageURL
			} else if pnl.Status == domain.StatusGenerating {
				pnl.Status = domain.StatusIdle
			}
		}
	}
	return out
}

// History exposes the undo stack for diagnostics.
func (m *Model) History() *History { return m.hist }
