/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	sq, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{"file": fs, "sqlite": sq, "memory": NewMemStore()}
}

func sampleProject() domain.Project {
	p := domain.DefaultProject()
	p.Pages = append(p.Pages, domain.Page{
		PageNumber: 2,
		Title:      "Épilogue · 終わり",
		Panels: []domain.Panel{
			{ID: "p-a", Description: "Nadia sourit 😊 sous la pluie", Status: domain.StatusCompleted, ImageURL: "data:image/png;base64,iVBORw0KGgo="},
			{ID: "p-b", Status: domain.StatusError},
		},
	})
	return p
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleProject()
			require.NoError(t, Save(ctx, s, KeyProject, want))
			got := Load(ctx, s, KeyProject, domain.Project{Title: "default"})
			assert.Equal(t, want, got)
		})
	}
}

func TestEmptyListsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := domain.Project{Title: "blank", Characters: []domain.Character{}, Pages: []domain.Page{}}
			require.NoError(t, Save(ctx, s, KeyProject, want))
			assert.Equal(t, want, Load(ctx, s, KeyProject, domain.Project{}))
		})
	}
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	ctx := context.Background()
	def := domain.DefaultProject()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, def, Load(ctx, s, KeyProject, def))
		})
	}
}

func TestLoadCorruptReturnsDefault(t *testing.T) {
	ctx := context.Background()
	def := domain.Project{Title: "fallback"}
	payloads := map[string]string{
		"not json":        "{{{ definitely not json",
		"wrong shape":     `{"title": 42, "pages": "nope"}`,
		"missing pages":   `{"title": "x"}`,
		"bad status":      `{"title": "x", "pages": [{"panels": [{"id": "p", "status": "exploded"}]}]}`,
		"array not doc":   `[1, 2, 3]`,
		"empty panel ids": `{"title": "x", "pages": [{"panels": [{"id": ""}]}]}`,
	}
	for name, s := range backends(t) {
		for pname, payload := range payloads {
			t.Run(name+"/"+pname, func(t *testing.T) {
				require.NoError(t, s.Put(ctx, KeyProject, []byte(payload)))
				assert.Equal(t, def, Load(ctx, s, KeyProject, def))
			})
		}
	}
}

func TestAssetsSchema(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, Save(ctx, s, KeyAssets, domain.Assets{domain.SlotVan: "data:image/png;base64,AA=="}))
	got := Load(ctx, s, KeyAssets, domain.Assets{})
	assert.Equal(t, "data:image/png;base64,AA==", got[domain.SlotVan])

	require.NoError(t, s.Put(ctx, KeyAssets, []byte(`{"logo": "x"}`)))
	assert.Empty(t, Load(ctx, s, KeyAssets, domain.Assets{}))
}

func TestFileStoreRecoversFromBackup(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)

	first := domain.Project{Title: "first", Pages: []domain.Page{}}
	require.NoError(t, Save(ctx, s, KeyProject, first))
	require.NoError(t, Save(ctx, s, KeyProject, domain.Project{Title: "second", Pages: []domain.Page{}}))

	// the second save backed up the first version
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	require.NoError(t, err)
	require.Len(t, ents, 1)

	require.NoError(t, os.WriteFile(filepath.Join(root, "project.json"), []byte("garbage"), 0o644))
	got := Load(ctx, s, KeyProject, domain.Project{Title: "default"})
	assert.Equal(t, first, got)
}

func TestFileStorePrunesBackups(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)
	s.KeepBackups = 2
	s.BackupInterval = 0
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(ctx, KeyLibrary, []byte("[]")))
		time.Sleep(2 * time.Millisecond)
	}
	assert.Len(t, s.backups(KeyLibrary), 2)
}

func TestFileStoreThrottlesBackups(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }

	big := strings.Repeat("x", 64<<10)
	require.NoError(t, s.Put(ctx, KeyLibrary, []byte(`["before"]`)))
	for i := 0; i < 24; i++ {
		require.NoError(t, s.Put(ctx, KeyLibrary, []byte(fmt.Sprintf(`["%s%d"]`, big, i))))
		now = now.Add(100 * time.Millisecond)
	}
	all := s.backups(KeyLibrary)
	require.Len(t, all, 1, "a burst of writes keeps one recovery point")
	b, err := os.ReadFile(all[0])
	require.NoError(t, err)
	assert.Equal(t, `["before"]`, string(b))

	now = now.Add(DefaultBackupInterval)
	require.NoError(t, s.Put(ctx, KeyLibrary, []byte(`["after"]`)))
	assert.Len(t, s.backups(KeyLibrary), 2)
}

func TestInvalidKeyRejected(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Put(ctx, "../escape", []byte("{}")))
			_, err := s.Get(ctx, "UPPER")
			assert.Error(t, err)
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, KeyLibrary, []byte("[]")))
			require.NoError(t, s.Delete(ctx, KeyLibrary))
			_, err := s.Get(ctx, KeyLibrary)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.NoError(t, s.Delete(ctx, KeyLibrary))
		})
	}
}

func TestSQLiteMigratesAndReopens(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := OpenSQLite(dir)
	require.NoError(t, err)
	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)
	require.NoError(t, s.Put(ctx, KeyProject, []byte(`{"title":"kept","pages":[]}`)))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(dir)
	require.NoError(t, err)
	defer s2.Close()
	got := Load(ctx, s2, KeyProject, domain.Project{})
	assert.Equal(t, "kept", got.Title)
}

func TestOpenBackends(t *testing.T) {
	for _, b := range []string{"file", "sqlite", "memory"} {
		s, err := Open(b, t.TempDir())
		require.NoError(t, err, b)
		require.NoError(t, s.Close())
	}
	_, err := Open("redis", t.TempDir())
	assert.Error(t, err)
}
