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
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	BackupsDirName = "backups"

	// DefaultKeepBackups bounds the backups retained per key.
	DefaultKeepBackups = 20

	// DefaultBackupInterval is the minimum age of the newest backup before
	// another one is taken, so bursts of writes share one recovery point.
	DefaultBackupInterval = 30 * time.Second

	backupStamp = "20060102-150405.000000000"
)

// FileStore keeps one <key>.json file per key in Root. A Put copies the
// previous file into Root/backups with a timestamp when the newest backup is
// older than BackupInterval, then replaces the file through a synced temp file
// and rename. Reads that hit an unreadable or non-JSON file recover from the
// latest backup.
type FileStore struct {
	Root        string
	KeepBackups int
	// BackupInterval of zero backs up on every Put.
	BackupInterval time.Duration

	now func() time.Time
}

func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("store: root path is required")
	}
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create store dirs: %w", err)
	}
	return &FileStore{Root: root, KeepBackups: DefaultKeepBackups, BackupInterval: DefaultBackupInterval}, nil
}

func (s *FileStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *FileStore) path(key string) string { return filepath.Join(s.Root, key+".json") }

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(key))
	switch {
	case err == nil && looksLikeJSON(b):
		return b, nil
	case errors.Is(err, os.ErrNotExist):
		return nil, ErrNotFound
	}
	cause := err
	if cause == nil {
		cause = errors.New("payload is not JSON")
	}
	bb, berr := s.latestBackup(key)
	if berr != nil {
		if b != nil {
			// hand back the damaged payload; the decoder decides what to do with it
			return b, nil
		}
		return nil, fmt.Errorf("read %s: %w; backup attempt: %v", key, cause, berr)
	}
	return bb, nil
}

func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)
	bdir := filepath.Join(s.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(target); statErr == nil && s.backupDue(key) {
		stamp := s.clock().Format(backupStamp)
		if cerr := copyFile(target, filepath.Join(bdir, fmt.Sprintf("%s.json.%s.bak", key, stamp))); cerr != nil {
			return fmt.Errorf("backup current %s: %w", key, cerr)
		}
		s.pruneBackups(key)
	}

	temp := filepath.Join(s.Root, fmt.Sprintf(".%s.json.tmp-%d-%d", key, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, value); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp %s: %w", key, werr)
	}
	if rerr := os.Rename(temp, target); rerr != nil {
		// Windows refuses to rename over an existing file
		_ = os.Remove(target)
		if rerr = os.Rename(temp, target); rerr != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace %s: %w", key, rerr)
		}
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) backups(key string) []string {
	bdir := filepath.Join(s.Root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil
	}
	var out []string
	prefix := key + ".json."
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out
}

// backupDue reports whether the newest backup of key is older than BackupInterval.
func (s *FileStore) backupDue(key string) bool {
	if s.BackupInterval <= 0 {
		return true
	}
	all := s.backups(key)
	if len(all) == 0 {
		return true
	}
	name := filepath.Base(all[len(all)-1])
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, key+".json."), ".bak")
	last, err := time.ParseInLocation(backupStamp, stamp, time.Local)
	if err != nil {
		return true
	}
	return s.clock().Sub(last) >= s.BackupInterval
}

func (s *FileStore) pruneBackups(key string) {
	if s.KeepBackups <= 0 {
		return
	}
	all := s.backups(key)
	for len(all) > s.KeepBackups {
		_ = os.Remove(all[0])
		all = all[1:]
	}
}

// latestBackup returns the newest backup that still parses as JSON.
func (s *FileStore) latestBackup(key string) ([]byte, error) {
	all := s.backups(key)
	if len(all) == 0 {
		return nil, errors.New("no backups found")
	}
	for i := len(all) - 1; i >= 0; i-- {
		b, err := os.ReadFile(all[i])
		if err == nil && looksLikeJSON(b) {
			return b, nil
		}
	}
	return nil, errors.New("no readable backup")
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sf.Close()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
