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
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	KeyProject: "schemas/project.schema.json",
	KeyAssets:  "schemas/assets.schema.json",
	KeyLibrary: "schemas/library.schema.json",
}

var compiled = sync.OnceValues(func() (map[string]*gojsonschema.Schema, error) {
	out := make(map[string]*gojsonschema.Schema, len(schemaFiles))
	for key, name := range schemaFiles {
		b, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		out[key] = s
	}
	return out, nil
})

// Validate checks data against the schema registered for key. Keys without a
// schema only need to be well-formed JSON.
func Validate(key string, data []byte) error {
	if !json.Valid(data) {
		return errors.New("payload is not valid JSON")
	}
	schemas, err := compiled()
	if err != nil {
		return err
	}
	s, ok := schemas[key]
	if !ok {
		return nil
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return err
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema mismatch: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Load decodes the document stored under key. It never fails: a missing key,
// a read error, a schema mismatch or a decode error yields def, and anything
// other than a missing key is logged as a warning.
func Load[T any](ctx context.Context, s Store, key string, def T) T {
	l := applog.WithOperation(applog.WithComponent("store"), "load").With(slog.String("key", key))
	b, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		l.DebugContext(ctx, "nothing stored, using default")
		return def
	}
	if err != nil {
		l.WarnContext(ctx, "read failed, using default", slog.Any("err", err))
		return def
	}
	if err := Validate(key, b); err != nil {
		l.WarnContext(ctx, "stored document rejected, using default", slog.Any("err", err))
		return def
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		l.WarnContext(ctx, "decode failed, using default", slog.Any("err", err))
		return def
	}
	return v
}

// Save encodes v as indented JSON and writes it under key.
func Save[T any](ctx context.Context, s Store, key string, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	data = append(data, '\n')
	return s.Put(ctx, key, data)
}

func looksLikeJSON(b []byte) bool { return json.Valid(b) }
