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
	"sync"
	"time"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

// HistoryConfig controls memory and depth caps and coalescing behavior.
type HistoryConfig struct {
	// MaxBytes is a soft cap on the estimated size of retained snapshots.
	// Panel images are data URLs, so a few generations dominate the estimate.
	MaxBytes int
	// MaxDepth limits the number of undo steps (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces edits with the same label made within the interval,
	// so typing into one description is a single undo step.
	MinInterval time.Duration
}

type entry struct {
	label string
	proj  domain.Project
	size  int
	ts    time.Time
}

// History is a bounded undo/redo stack of whole-project snapshots. Each entry
// holds the state before an edit. Snapshots share unchanged subtrees with the
// live project, so the size estimate overstates the real cost.
type History struct {
	cfg        HistoryConfig
	mu         sync.Mutex
	undo, redo []entry
	totalBytes int
	now        func() time.Time
}

func NewHistory(cfg HistoryConfig) *History {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 64 * 1024 * 1024
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 100
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 750 * time.Millisecond
	}
	return &History{cfg: cfg, now: time.Now}
}

// Record stores before as the state preceding an edit named label. Any new
// edit invalidates redo.
func (h *History) Record(label string, before domain.Project) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.dropRedoLocked()
	if n := len(h.undo); n > 0 {
		last := h.undo[n-1]
		if last.label == label && now.Sub(last.ts) < h.cfg.MinInterval {
			// keep the older state so one undo reverts the whole burst
			h.undo[n-1].ts = now
			return
		}
	}
	e := entry{label: label, proj: before, size: estimateSize(before), ts: now}
	h.undo = append(h.undo, e)
	h.totalBytes += e.size
	h.enforceCapsLocked()
}

// Undo swaps current for the most recent recorded state.
func (h *History) Undo(current domain.Project) (domain.Project, string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.undo)
	if n == 0 {
		return current, "", false
	}
	e := h.undo[n-1]
	h.undo = h.undo[:n-1]
	h.totalBytes -= e.size
	cur := entry{label: e.label, proj: current, size: estimateSize(current), ts: h.now()}
	h.redo = append(h.redo, cur)
	h.totalBytes += cur.size
	return e.proj, e.label, true
}

// Redo reverses the last Undo.
func (h *History) Redo(current domain.Project) (domain.Project, string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.redo)
	if n == 0 {
		return current, "", false
	}
	e := h.redo[n-1]
	h.redo = h.redo[:n-1]
	h.totalBytes -= e.size
	prev := entry{label: e.label, proj: current, size: estimateSize(current)}
	h.undo = append(h.undo, prev)
	h.totalBytes += prev.size
	h.enforceCapsLocked()
	return e.proj, e.label, true
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes, undoDepth, redoDepth int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalBytes, len(h.undo), len(h.redo)
}

func (h *History) dropRedoLocked() {
	for _, e := range h.redo {
		h.totalBytes -= e.size
	}
	h.redo = nil
}

func (h *History) enforceCapsLocked() {
	for len(h.undo) > 0 && ((h.cfg.MaxDepth > 0 && len(h.undo) > h.cfg.MaxDepth) || h.totalBytes > h.cfg.MaxBytes) {
		h.totalBytes -= h.undo[0].size
		h.undo = append([]entry(nil), h.undo[1:]...)
	}
}

func estimateSize(p domain.Project) int {
	n := len(p.Title) + len(p.Author) + len(p.Style) + len(p.GlobalContext)
	for _, c := range p.Characters {
		n += len(c.ID) + len(c.Name) + len(c.Personality) + len(c.Avatar)
	}
	for _, pg := range p.Pages {
		n += len(pg.Title) + 8
		for _, pnl := range pg.Panels {
			n += len(pnl.ID) + len(pnl.Description) + len(pnl.ImageURL) + len(pnl.Status)
		}
	}
	return n
}
