/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/store"
)

func TestPublishIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()
	lib := Open(ctx, s, nil)
	live := domain.DefaultProject()
	before := live.Clone()

	a, err := lib.Publish(ctx, live)
	require.NoError(t, err)
	b, err := lib.Publish(ctx, live)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, a.PublishedAt)
	assert.Equal(t, before, live, "publishing must not touch the live project")

	entries := lib.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].ID)
	assert.Equal(t, b.ID, entries[1].ID)
	assert.Equal(t, live.Pages, entries[0].Pages)

	reloaded := Open(ctx, s, nil)
	assert.Equal(t, entries, reloaded.Entries())
	got, ok := reloaded.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, live.Title, got.Title)
}

func TestEntriesAreCopies(t *testing.T) {
	ctx := context.Background()
	lib := Open(ctx, store.NewMemStore(), nil)
	_, err := lib.Publish(ctx, domain.DefaultProject())
	require.NoError(t, err)

	e := lib.Entries()
	e[0].Pages[0].Panels[0].Description = "tampered"
	assert.NotEqual(t, "tampered", lib.Entries()[0].Pages[0].Panels[0].Description)
}

func TestCorruptLibraryStartsEmpty(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()
	require.NoError(t, s.Put(ctx, store.KeyLibrary, []byte(`{"not":"a list"}`)))
	assert.Empty(t, Open(ctx, s, nil).Entries())
}
