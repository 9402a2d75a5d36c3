/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/assets"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/config"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/generation"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/imagegen"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/library"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/project"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/render"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/store"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/telemetry"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/ui"
)

// openStation wires the store, model, assets, library and generation controller.
// A missing API key is not an error here: the client reports it on first use.
func openStation(ctx context.Context, cfg config.AppConfig) (*ui.Station, func(), error) {
	l := applog.WithComponent("cli")
	s, err := store.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	bus := events.NewBus(applog.WithComponent("events"))
	model := project.Open(ctx, s, bus)
	am := assets.Open(ctx, s, bus, cfg.Upload.MaxBytes)
	lib := library.Open(ctx, s, bus)

	key, err := config.APIKey(cfg.Generation.Provider)
	if err != nil {
		l.Warn("keychain lookup failed", slog.String("provider", cfg.Generation.Provider), slog.Any("err", err))
	}
	client, err := imagegen.FromConfig(ctx, cfg.Generation, key)
	if err != nil {
		_ = s.Close()
		return nil, nil, fmt.Errorf("image client: %w", err)
	}
	gen := generation.New(model, client, am.References, bus, generation.Config{
		Policy:  generation.Policy(cfg.Generation.Policy),
		Timeout: cfg.Generation.Timeout(),
	})

	st := &ui.Station{
		Model:     model,
		Generator: gen,
		Assets:    am,
		Library:   lib,
		Bus:       bus,
		Renderer:  render.NewRenderer(render.NewDecoder(0), render.DefaultOptions()),
		DataDir:   cfg.Storage.DataDir,
	}
	tel := telemetry.Default()
	stopTel := tel.Observe(bus)
	closeFn := func() {
		gen.Wait()
		stopTel()
		tel.Flush(ctx)
		if err := s.Close(); err != nil {
			l.Warn("close store", slog.Any("err", err))
		}
	}
	l.Debug("station ready",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("data_dir", cfg.Storage.DataDir),
		slog.String("provider", cfg.Generation.Provider),
		slog.Bool("api_key", key != ""))
	return st, closeFn, nil
}
