/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package store persists the application's JSON documents (project, assets,
// library) under independent keys. Backends are interchangeable: a directory
// of JSON files with backups, an embedded SQLite database, or memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Document keys. Each is saved independently; there is no multi-key transaction.
const (
	KeyProject = "project"
	KeyAssets  = "assets"
	KeyLibrary = "library"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Store is a byte-oriented key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}

// Open returns the store for backend ("file", "sqlite" or "memory") rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir)
	case "sqlite":
		return OpenSQLite(dir)
	case "memory":
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}
