/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package generation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/imagegen"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/project"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/store"
)

const imgA = "data:image/png;base64,QUFB"
const imgB = "data:image/png;base64,QkJC"

// scripted is a generation client whose calls block until released.
type scripted struct {
	mu      sync.Mutex
	reqs    []imagegen.Request
	started chan struct{}
	release chan struct{}
	result  string
	err     error
	calls   atomic.Int32
}

func newScripted(result string, err error) *scripted {
	return &scripted{started: make(chan struct{}, 16), release: make(chan struct{}), result: result, err: err}
}

func (s *scripted) Generate(ctx context.Context, req imagegen.Request) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	s.started <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return s.result, s.err
}

func (s *scripted) lastRequest() imagegen.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

func instant(result string, err error) *scripted {
	s := newScripted(result, err)
	close(s.release)
	return s
}

func setup(t *testing.T, client imagegen.Client, cfg Config) (*project.Model, *Controller, *events.Bus) {
	t.Helper()
	bus := events.NewBus(nil)
	m := project.Open(context.Background(), store.NewMemStore(), bus)
	return m, New(m, client, nil, bus, cfg), bus
}

func TestStatusGoesThroughGenerating(t *testing.T) {
	client := newScripted(imgA, nil)
	m, c, bus := setup(t, client, Config{})
	statuses, unsub := bus.Subscribe(events.PanelStatusChanged)
	defer unsub()

	require.NoError(t, c.Start(context.Background(), "p1-1", ModeNew, ""))
	got, _ := m.Panel("p1-1")
	assert.Equal(t, domain.StatusGenerating, got.Status, "generating must be visible before the call returns")

	<-client.started
	close(client.release)
	c.Wait()

	got, _ = m.Panel("p1-1")
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, imgA, got.ImageURL)

	var seq []domain.PanelStatus
	for len(seq) < 2 {
		seq = append(seq, (<-statuses).Status)
	}
	assert.Equal(t, []domain.PanelStatus{domain.StatusGenerating, domain.StatusCompleted}, seq)
	assert.False(t, c.Busy())
}

func TestFailedRefinementKeepsImage(t *testing.T) {
	upstream := errors.New("quota exceeded for model")
	m, c, bus := setup(t, instant("", upstream), Config{})
	failures, unsub := bus.Subscribe(events.GenerationFailed)
	defer unsub()
	ctx := context.Background()

	require.NoError(t, c.ManualOverride(ctx, "p1-1", imgA))
	_, err := c.RequestGeneration(ctx, "p1-1", ModeRefine, "add rain")
	require.ErrorIs(t, err, upstream)

	got, _ := m.Panel("p1-1")
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, imgA, got.ImageURL)

	e := <-failures
	assert.Equal(t, "p1-1", e.PanelID)
	assert.Equal(t, err.Error(), e.Message)
	assert.Contains(t, e.Message, "quota exceeded for model")
}

func TestLateResultForDeletedPanelIsDropped(t *testing.T) {
	client := newScripted(imgA, nil)
	m, c, _ := setup(t, client, Config{})
	ctx := context.Background()

	type out struct {
		res Result
		err error
	}
	done := make(chan out, 1)
	go func() {
		r, err := c.RequestGeneration(ctx, "p1-1", ModeNew, "")
		done <- out{r, err}
	}()
	<-client.started
	require.NoError(t, m.DeletePanel(ctx, "p1-1"))
	close(client.release)

	o := <-done
	require.NoError(t, o.err)
	assert.True(t, o.res.Discarded)
	_, ok := m.Panel("p1-1")
	assert.False(t, ok, "deleted panel must not come back")
	assert.Zero(t, m.Snapshot().PanelCount())
	assert.False(t, c.InFlight("p1-1"))
}

func TestSerialPolicyRejectsSecondRequest(t *testing.T) {
	client := newScripted(imgA, nil)
	m, c, _ := setup(t, client, Config{Policy: PolicySerial})
	ctx := context.Background()
	other, err := m.AddPanel(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, c.Start(ctx, "p1-1", ModeNew, ""))
	<-client.started
	before := m.Snapshot()

	_, err = c.RequestGeneration(ctx, other, ModeNew, "")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.RequestGeneration(ctx, "p1-1", ModeNew, "")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, m.Snapshot(), "rejected requests must not touch the project")

	close(client.release)
	c.Wait()
	assert.EqualValues(t, 1, client.calls.Load())
}

func TestGeneratingPanelIsNotAdmitted(t *testing.T) {
	client := newScripted(imgA, nil)
	m, c, _ := setup(t, client, Config{Policy: PolicyPerPanel})
	ctx := context.Background()
	require.NoError(t, m.SetPanelState(ctx, "p1-1", project.PanelPatch{Status: project.Ptr(domain.StatusGenerating)}))

	_, err := c.RequestGeneration(ctx, "p1-1", ModeNew, "")
	assert.ErrorIs(t, err, ErrBusy)
	assert.EqualValues(t, 0, client.calls.Load())
}

func TestPerPanelPolicy(t *testing.T) {
	client := newScripted(imgA, nil)
	m, c, _ := setup(t, client, Config{Policy: PolicyPerPanel})
	ctx := context.Background()
	other, err := m.AddPanel(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, c.Start(ctx, "p1-1", ModeNew, ""))
	require.NoError(t, c.Start(ctx, other, ModeNew, ""))
	assert.ErrorIs(t, c.Start(ctx, "p1-1", ModeNew, ""), ErrBusy)

	<-client.started
	<-client.started
	close(client.release)
	c.Wait()
	for _, id := range []string{"p1-1", other} {
		got, _ := m.Panel(id)
		assert.Equal(t, domain.StatusCompleted, got.Status, id)
	}
}

func TestTimeoutMovesPanelToError(t *testing.T) {
	client := newScripted(imgA, nil) // never released
	m, c, _ := setup(t, client, Config{Timeout: 30 * time.Millisecond})

	_, err := c.RequestGeneration(context.Background(), "p1-1", ModeNew, "")
	require.ErrorIs(t, err, ErrTimeout)
	got, _ := m.Panel("p1-1")
	assert.Equal(t, domain.StatusError, got.Status)
	assert.False(t, c.Busy(), "marker must be cleared on failure")
}

func TestRefineUsesCurrentImageAndDraft(t *testing.T) {
	client := instant(imgB, nil)
	m, c, _ := setup(t, client, Config{})
	ctx := context.Background()
	require.NoError(t, c.ManualOverride(ctx, "p1-1", imgA))

	c.SetInstruction("p1-1", "make it night")
	_, err := c.RequestGeneration(ctx, "p1-1", ModeRefine, "")
	require.NoError(t, err)

	req := client.lastRequest()
	assert.True(t, req.Refinement)
	assert.Equal(t, "make it night", req.Prompt)
	require.Len(t, req.References, 1)
	assert.Equal(t, imgA, req.References[0].Data)
	assert.Equal(t, "image/png", req.References[0].MIMEType)
	assert.Empty(t, req.Characters)
	assert.Empty(t, c.Instruction("p1-1"), "draft is cleared on success")

	got, _ := m.Panel("p1-1")
	assert.Equal(t, imgB, got.ImageURL)
}

func TestNewRequestCarriesCharactersAndReferences(t *testing.T) {
	client := instant(imgA, nil)
	bus := events.NewBus(nil)
	m := project.Open(context.Background(), store.NewMemStore(), bus)
	refs := domain.Assets{domain.SlotNadia: imgB, domain.SlotVan: imgA}
	c := New(m, client, func() domain.Assets { return refs }, bus, Config{})

	_, err := c.RequestGeneration(context.Background(), "p1-1", ModeNew, "ignored for new renders")
	require.NoError(t, err)

	req := client.lastRequest()
	p := m.Snapshot()
	assert.False(t, req.Refinement)
	assert.Equal(t, p.Pages[0].Panels[0].Description, req.Prompt)
	assert.Equal(t, p.Style, req.Style)
	assert.Equal(t, p.GlobalContext, req.Context)
	assert.Len(t, req.Characters, 3)
	require.Len(t, req.References, 1, "only character slots with an image are sent")
	assert.Equal(t, imgB, req.References[0].Data)
}

func TestUnknownPanel(t *testing.T) {
	_, c, _ := setup(t, instant(imgA, nil), Config{})
	_, err := c.RequestGeneration(context.Background(), "ghost", ModeNew, "")
	assert.ErrorIs(t, err, project.ErrPanelNotFound)
	assert.ErrorIs(t, c.ManualOverride(context.Background(), "ghost", imgA), project.ErrPanelNotFound)
}

func TestEmptyImageIsAFailure(t *testing.T) {
	m, c, _ := setup(t, instant("", nil), Config{})
	_, err := c.RequestGeneration(context.Background(), "p1-1", ModeNew, "")
	assert.ErrorIs(t, err, imagegen.ErrNoImage)
	got, _ := m.Panel("p1-1")
	assert.Equal(t, domain.StatusError, got.Status)
}

func TestFailureThenRetry(t *testing.T) {
	fail := true
	client := imagegen.ClientFunc(func(context.Context, imagegen.Request) (string, error) {
		if fail {
			return "", imagegen.ErrMissingCredentials
		}
		return imgA, nil
	})
	m, c, _ := setup(t, client, Config{})
	ctx := context.Background()
	_, err := c.RequestGeneration(ctx, "p1-1", ModeNew, "")
	require.ErrorIs(t, err, imagegen.ErrMissingCredentials)

	fail = false
	_, err = c.RequestGeneration(ctx, "p1-1", ModeNew, "")
	require.NoError(t, err)
	got, _ := m.Panel("p1-1")
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestGeneratePage(t *testing.T) {
	for _, policy := range []Policy{PolicySerial, PolicyPerPanel} {
		t.Run(string(policy), func(t *testing.T) {
			var calls atomic.Int32
			client := imagegen.ClientFunc(func(_ context.Context, req imagegen.Request) (string, error) {
				calls.Add(1)
				if req.Prompt == "broken" {
					return "", errors.New("refused")
				}
				return imgA, nil
			})
			m, c, _ := setup(t, client, Config{Policy: policy})
			ctx := context.Background()
			a, _ := m.AddPanel(ctx, 0)
			b, _ := m.AddPanel(ctx, 0)
			empty, _ := m.AddPanel(ctx, 0)
			require.NoError(t, m.UpdatePanel(ctx, a, project.PanelPatch{Description: project.Ptr("ok")}))
			require.NoError(t, m.UpdatePanel(ctx, b, project.PanelPatch{Description: project.Ptr("broken")}))

			res, err := c.GeneratePage(ctx, 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "refused")
			assert.Len(t, res, 3)
			assert.EqualValues(t, 3, calls.Load())

			pa, _ := m.Panel(a)
			pb, _ := m.Panel(b)
			pe, _ := m.Panel(empty)
			assert.Equal(t, domain.StatusCompleted, pa.Status)
			assert.Equal(t, domain.StatusError, pb.Status)
			assert.Equal(t, domain.StatusIdle, pe.Status, "panels without a description are skipped")
		})
	}
	_, c, _ := setup(t, instant(imgA, nil), Config{})
	_, err := c.GeneratePage(context.Background(), 7)
	assert.ErrorIs(t, err, project.ErrPageNotFound)
}
