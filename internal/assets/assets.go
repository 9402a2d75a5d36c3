/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package assets manages the branding and character reference image slots
// and turns uploaded files into self-contained data URLs.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	_ "golang.org/x/image/webp"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/imagegen"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/store"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes int64 = 2_500_000

var (
	ErrTooLarge    = errors.New("image exceeds the upload size limit")
	ErrNotImage    = errors.New("file is not a supported image")
	ErrUnknownSlot = errors.New("unknown image slot")
)

// ReadImage reads one image of at most max bytes and returns it as a data URL.
// PNG, JPEG, GIF and WebP are accepted.
func ReadImage(r io.Reader, max int64) (string, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(b)) > max {
		return "", fmt.Errorf("%w (%d bytes max)", ErrTooLarge, max)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(b)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return imagegen.DataURL(http.DetectContentType(b), b), nil
}

// ReadImageFile is ReadImage on a file path. The size is checked before reading.
func ReadImageFile(path string, max int64) (string, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil && st.Size() > max {
		return "", fmt.Errorf("%w (%d bytes max, file has %d)", ErrTooLarge, max, st.Size())
	}
	return ReadImage(f, max)
}

// Manager owns the Assets document.
type Manager struct {
	mu     sync.Mutex
	assets domain.Assets
	store  store.Store
	bus    *events.Bus
	max    int64
	log    *slog.Logger
}

// Open loads the assets document; a missing or unreadable one yields no images.
func Open(ctx context.Context, s store.Store, bus *events.Bus, maxBytes int64) *Manager {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	a := store.Load(ctx, s, store.KeyAssets, domain.Assets{})
	if a == nil {
		a = domain.Assets{}
	}
	return &Manager{assets: a, store: s, bus: bus, max: maxBytes, log: applog.WithComponent("assets")}
}

// MaxBytes is the configured upload limit.
func (m *Manager) MaxBytes() int64 { return m.max }

// All returns a copy of every filled slot.
func (m *Manager) All() domain.Assets {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assets.Clone()
}

// References returns the character reference slots.
func (m *Manager) References() domain.Assets {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assets.Filter(domain.KindReference)
}

// Branding returns the branding slots.
func (m *Manager) Branding() domain.Assets {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assets.Filter(domain.KindBranding)
}

// Upload stores the image read from r in slot. A rejected upload leaves every
// slot as it was and is announced on the bus.
func (m *Manager) Upload(ctx context.Context, slot domain.Slot, r io.Reader) error {
	if slot.Kind() == "" {
		return m.reject(slot, fmt.Errorf("%w %q", ErrUnknownSlot, slot))
	}
	img, err := ReadImage(r, m.max)
	if err != nil {
		return m.reject(slot, err)
	}
	return m.Set(ctx, slot, img)
}

// UploadFile is Upload from a path.
func (m *Manager) UploadFile(ctx context.Context, slot domain.Slot, path string) error {
	if slot.Kind() == "" {
		return m.reject(slot, fmt.Errorf("%w %q", ErrUnknownSlot, slot))
	}
	img, err := ReadImageFile(path, m.max)
	if err != nil {
		return m.reject(slot, err)
	}
	return m.Set(ctx, slot, img)
}

func (m *Manager) reject(slot domain.Slot, err error) error {
	m.log.Warn("upload rejected", slog.String("slot", string(slot)), slog.Any("err", err))
	m.bus.Publish(events.Event{Type: events.UploadRejected, Message: err.Error()})
	return err
}

// Set puts an already encoded image into slot. An empty image clears the slot.
func (m *Manager) Set(ctx context.Context, slot domain.Slot, dataURL string) error {
	if slot.Kind() == "" {
		return fmt.Errorf("%w %q", ErrUnknownSlot, slot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.assets.Clone()
	if dataURL == "" {
		delete(next, slot)
	} else {
		next[slot] = dataURL
	}
	if err := m.persistLocked(ctx, next); err != nil {
		return err
	}
	m.assets = next
	m.bus.Publish(events.Event{Type: events.AssetsChanged, Message: string(slot)})
	return nil
}

// Clear empties slot.
func (m *Manager) Clear(ctx context.Context, slot domain.Slot) error { return m.Set(ctx, slot, "") }

// persistLocked writes the document. An empty document is never written; the
// key is removed instead so absence keeps meaning "no images".
func (m *Manager) persistLocked(ctx context.Context, a domain.Assets) error {
	if m.store == nil {
		return nil
	}
	if len(a) == 0 {
		return m.store.Delete(ctx, store.KeyAssets)
	}
	return store.Save(ctx, m.store, store.KeyAssets, a)
}
