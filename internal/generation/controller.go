/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package generation drives the per-panel render lifecycle:
// idle|completed|error -> generating -> completed|error.
//
// The controller owns no project state. It reads the panel through the model,
// marks it generating, calls the image client once and writes the outcome
// back by panel id. A result for a panel deleted in the meantime is dropped.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/imagegen"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/project"
)

// Mode selects between a fresh render and an image-conditioned edit.
type Mode string

const (
	ModeNew    Mode = "new"
	ModeRefine Mode = "refine"
)

// Policy bounds how many generations run at once.
type Policy string

const (
	// PolicySerial allows one generation in flight across the whole project.
	PolicySerial Policy = "serial"
	// PolicyPerPanel allows one generation in flight per panel.
	PolicyPerPanel Policy = "per_panel"
)

var (
	// ErrBusy rejects a request the concurrency policy does not admit. The
	// project is left untouched.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrTimeout marks a call that exceeded the configured deadline.
	ErrTimeout = errors.New("generation timed out")
)

// Panels is the part of the project model the controller writes through.
type Panels interface {
	Snapshot() domain.Project
	Panel(id string) (domain.Panel, bool)
	SetPanelState(ctx context.Context, id string, patch project.PanelPatch) error
}

// Config tunes the controller.
type Config struct {
	Policy  Policy
	Timeout time.Duration
	// PageConcurrency caps parallel renders in GeneratePage under PolicyPerPanel.
	PageConcurrency int
}

// Result describes a finished request.
type Result struct {
	PanelID  string
	ImageURL string
	// Discarded is set when the panel was deleted before the image arrived.
	Discarded bool
}

type Controller struct {
	model  Panels
	client imagegen.Client
	refs   func() domain.Assets
	bus    *events.Bus
	cfg    Config
	log    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	drafts   map[string]string
	wg       sync.WaitGroup
}

// New builds a controller. refs supplies character reference images and may be nil.
func New(model Panels, client imagegen.Client, refs func() domain.Assets, bus *events.Bus, cfg Config) *Controller {
	if cfg.Policy == "" {
		cfg.Policy = PolicySerial
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.PageConcurrency <= 0 {
		cfg.PageConcurrency = 3
	}
	return &Controller{
		model:    model,
		client:   client,
		refs:     refs,
		bus:      bus,
		cfg:      cfg,
		log:      applog.WithComponent("generation"),
		inFlight: make(map[string]struct{}),
		drafts:   make(map[string]string),
	}
}

// SetInstruction stores the pending refinement text for a panel.
func (c *Controller) SetInstruction(panelID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		delete(c.drafts, panelID)
		return
	}
	c.drafts[panelID] = text
}

// Instruction returns the pending refinement text for a panel.
func (c *Controller) Instruction(panelID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drafts[panelID]
}

// InFlight reports whether a generation for panelID is pending.
func (c *Controller) InFlight(panelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[panelID]
	return ok
}

// Busy reports whether any generation is pending.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight) > 0
}

// RequestGeneration renders one panel and blocks until the outcome is applied.
// For ModeRefine an empty instruction falls back to the stored draft, then to
// the panel description. Generation failures are returned and published
// verbatim; the panel is then in the error state with its image untouched.
func (c *Controller) RequestGeneration(ctx context.Context, panelID string, mode Mode, instruction string) (Result, error) {
	job, err := c.begin(ctx, panelID, mode, instruction)
	if err != nil {
		return Result{PanelID: panelID}, err
	}
	return c.run(ctx, job)
}

// Start is RequestGeneration without waiting: the panel is already marked
// generating when it returns, and the outcome arrives through the bus.
func (c *Controller) Start(ctx context.Context, panelID string, mode Mode, instruction string) error {
	job, err := c.begin(ctx, panelID, mode, instruction)
	if err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.run(context.WithoutCancel(ctx), job)
	}()
	return nil
}

// Wait blocks until every generation started with Start has finished.
func (c *Controller) Wait() { c.wg.Wait() }

type job struct {
	panelID string
	mode    Mode
	req     imagegen.Request
}

// begin admits the request, marks the panel generating and snapshots the inputs.
func (c *Controller) begin(ctx context.Context, panelID string, mode Mode, instruction string) (job, error) {
	if mode != ModeRefine {
		mode = ModeNew
	}
	pnl, ok := c.model.Panel(panelID)
	if !ok {
		return job{}, fmt.Errorf("generate %s: %w", panelID, project.ErrPanelNotFound)
	}
	if !pnl.Status.CanStartGeneration() {
		return job{}, ErrBusy
	}

	c.mu.Lock()
	_, same := c.inFlight[panelID]
	if same || (c.cfg.Policy == PolicySerial && len(c.inFlight) > 0) {
		c.mu.Unlock()
		return job{}, ErrBusy
	}
	c.inFlight[panelID] = struct{}{}
	if instruction == "" && mode == ModeRefine {
		instruction = c.drafts[panelID]
	}
	c.mu.Unlock()

	if err := c.model.SetPanelState(ctx, panelID, project.PanelPatch{Status: project.Ptr(domain.StatusGenerating)}); err != nil {
		c.release(panelID)
		return job{}, fmt.Errorf("generate %s: %w", panelID, err)
	}

	snap := c.model.Snapshot()
	pnl, _ = snap.Panel(panelID)
	return job{panelID: panelID, mode: mode, req: c.buildRequest(snap, pnl, mode, instruction)}, nil
}

func (c *Controller) release(panelID string) {
	c.mu.Lock()
	delete(c.inFlight, panelID)
	c.mu.Unlock()
}

func (c *Controller) buildRequest(p domain.Project, pnl domain.Panel, mode Mode, instruction string) imagegen.Request {
	req := imagegen.Request{Style: p.Style, Context: p.GlobalContext, Refinement: mode == ModeRefine}
	if mode == ModeRefine {
		req.Prompt = instruction
		if strings.TrimSpace(req.Prompt) == "" {
			req.Prompt = pnl.Description
		}
		if pnl.ImageURL != "" {
			req.References = append(req.References, reference(pnl.ImageURL))
		}
		return req
	}

	req.Prompt = pnl.Description
	var assets domain.Assets
	if c.refs != nil {
		assets = c.refs()
	}
	for _, ch := range p.Characters {
		req.Characters = append(req.Characters, imagegen.CharacterGuide{Name: ch.Name, Personality: ch.Personality})
		img := ch.Avatar
		if slot, ok := domain.ReferenceSlotFor(ch); ok && assets[slot] != "" {
			img = assets[slot]
		}
		if img != "" {
			req.References = append(req.References, reference(img))
		}
	}
	return req
}

func reference(dataURL string) imagegen.Reference {
	mt := "image/png"
	if m, _, err := imagegen.ParseDataURL(dataURL); err == nil {
		mt = m
	}
	return imagegen.Reference{Data: dataURL, MIMEType: mt}
}

// run performs the single suspension point and applies the outcome.
func (c *Controller) run(ctx context.Context, j job) (res Result, err error) {
	res.PanelID = j.panelID
	defer c.release(j.panelID)

	ctx = applog.ContextWith(ctx, slog.String("panel", j.panelID), slog.String("mode", string(j.mode)))
	l := applog.WithOperation(c.log, "generate")
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	img, genErr := c.client.Generate(callCtx, j.req)
	if genErr == nil && img == "" {
		genErr = imagegen.ErrNoImage
	}
	if genErr != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		genErr = fmt.Errorf("%w after %s: %w", ErrTimeout, c.cfg.Timeout, genErr)
	}
	cancel()

	// writes must land even if the caller gave up waiting
	applyCtx := context.WithoutCancel(ctx)

	if genErr != nil {
		l.WarnContext(ctx, "generation failed", slog.Any("err", genErr), slog.Duration("took", time.Since(start)))
		serr := c.model.SetPanelState(applyCtx, j.panelID, project.PanelPatch{Status: project.Ptr(domain.StatusError)})
		if errors.Is(serr, project.ErrPanelNotFound) {
			res.Discarded = true
		}
		c.bus.Publish(events.Event{Type: events.GenerationFailed, PanelID: j.panelID, Status: domain.StatusError, Message: genErr.Error()})
		return res, genErr
	}

	serr := c.model.SetPanelState(applyCtx, j.panelID, project.PanelPatch{
		Status:   project.Ptr(domain.StatusCompleted),
		ImageURL: project.Ptr(img),
	})
	if errors.Is(serr, project.ErrPanelNotFound) {
		l.InfoContext(ctx, "panel deleted while generating, result discarded")
		res.Discarded = true
		return res, nil
	}
	if serr != nil {
		return res, serr
	}
	if j.mode == ModeRefine {
		c.SetInstruction(j.panelID, "")
	}
	l.InfoContext(ctx, "generation completed", slog.Duration("took", time.Since(start)))
	res.ImageURL = img
	c.bus.Publish(events.Event{Type: events.GenerationSucceeded, PanelID: j.panelID, Status: domain.StatusCompleted})
	return res, nil
}

// ManualOverride sets a panel image supplied locally. It needs no network
// call, so it bypasses the concurrency guard and always completes the panel.
func (c *Controller) ManualOverride(ctx context.Context, panelID, dataURL string) error {
	if err := c.model.SetPanelState(ctx, panelID, project.PanelPatch{
		Status:   project.Ptr(domain.StatusCompleted),
		ImageURL: project.Ptr(dataURL),
	}); err != nil {
		return err
	}
	c.bus.Publish(events.Event{Type: events.GenerationSucceeded, PanelID: panelID, Status: domain.StatusCompleted, Message: "image uploaded"})
	return nil
}

// GeneratePage renders every idle or failed panel of a page that has a
// description. Under PolicySerial panels go one after the other; under
// PolicyPerPanel up to PageConcurrency run at once. One panel failing does
// not stop the others; all failures are joined into the returned error.
func (c *Controller) GeneratePage(ctx context.Context, pageIndex int) ([]Result, error) {
	snap := c.model.Snapshot()
	if pageIndex < 0 || pageIndex >= len(snap.Pages) {
		return nil, project.ErrPageNotFound
	}
	var ids []string
	for _, pnl := range snap.Pages[pageIndex].Panels {
		if (pnl.Status == domain.StatusIdle || pnl.Status == domain.StatusError || pnl.Status == "") && strings.TrimSpace(pnl.Description) != "" {
			ids = append(ids, pnl.ID)
		}
	}
	results := make([]Result, len(ids))
	errs := make([]error, len(ids))

	if c.cfg.Policy == PolicySerial {
		for i, id := range ids {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			results[i], errs[i] = c.RequestGeneration(ctx, id, ModeNew, "")
		}
		return results, errors.Join(errs...)
	}

	var g errgroup.Group
	g.SetLimit(c.cfg.PageConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i], errs[i] = c.RequestGeneration(ctx, id, ModeNew, "")
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}
