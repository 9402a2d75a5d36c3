/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package library keeps the published snapshots of a project. It is
// append-only: every publish adds an entry, and entries are never merged.
package library

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/store"
)

type Library struct {
	mu      sync.Mutex
	entries domain.Library
	store   store.Store
	bus     *events.Bus
	now     func() time.Time
	log     *slog.Logger
}

func Open(ctx context.Context, s store.Store, bus *events.Bus) *Library {
	return &Library{
		entries: store.Load(ctx, s, store.KeyLibrary, domain.Library{}),
		store:   s,
		bus:     bus,
		now:     time.Now,
		log:     applog.WithComponent("library"),
	}
}

// Publish appends a snapshot of p with a fresh id and the current time. The
// argument is copied, so the live project is never affected.
func (l *Library) Publish(ctx context.Context, p domain.Project) (domain.Project, error) {
	snap := p.Clone()
	snap.ID = uuid.NewString()
	snap.PublishedAt = l.now().UTC().Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()
	next := make(domain.Library, len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	next = append(next, snap)
	if err := store.Save(ctx, l.store, store.KeyLibrary, next); err != nil {
		return domain.Project{}, err
	}
	l.entries = next
	l.log.InfoContext(ctx, "published", slog.String("id", snap.ID), slog.String("title", snap.Title))
	l.bus.Publish(events.Event{Type: events.Published, Message: snap.ID})
	return snap.Clone(), nil
}

// Entries returns the snapshots oldest first.
func (l *Library) Entries() domain.Library {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(domain.Library, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

// Get returns the entry with id.
func (l *Library) Get(id string) (domain.Project, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return domain.Project{}, false
}
