/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package events carries notifications from the model and the generation
// controller to whichever presentation skin is attached.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

type Type string

const (
	ProjectChanged      Type = "project_changed"
	PanelStatusChanged  Type = "panel_status"
	GenerationSucceeded Type = "generation_succeeded"
	GenerationFailed    Type = "generation_failed"
	AssetsChanged       Type = "assets_changed"
	UploadRejected      Type = "upload_rejected"
	Published           Type = "published"
)

// Event is one notification. Message carries user-facing text, verbatim for failures.
type Event struct {
	Type    Type
	PanelID string
	Status  domain.PanelStatus
	Message string
	Time    time.Time
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   []*subscription
}

type subscription struct {
	ch    chan Event
	types map[Type]bool // nil means all
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe returns a channel receiving events of the given types (all when
// none are given) and a function that unsubscribes and closes the channel.
func (b *Bus) Subscribe(types ...Type) (<-chan Event, func()) {
	s := &subscription{ch: make(chan Event, 64)}
	if len(types) > 0 {
		s.types = make(map[Type]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, cur := range b.subs {
				if cur == s {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					break
				}
			}
			close(s.ch)
		})
	}
}

// Publish delivers e to every matching subscriber. A nil Bus is a no-op.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.types != nil && !s.types[e.Type] {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("event subscriber full, dropping event", slog.String("type", string(e.Type)), slog.String("panel", e.PanelID))
		}
	}
}
