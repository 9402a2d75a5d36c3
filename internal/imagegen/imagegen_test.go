/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/config"
)

const pngPixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func TestComposePromptNew(t *testing.T) {
	got := ComposePrompt("", Request{
		Prompt:     "the van crosses a bridge",
		Style:      "pop art",
		Context:    "cyber noir",
		Characters: []CharacterGuide{{Name: "SEB", Personality: "calm driver"}},
	})
	assert.True(t, strings.HasPrefix(got, "SCENE DESCRIPTION: the van crosses a bridge."))
	assert.Contains(t, got, "- SEB: calm driver")
	assert.Contains(t, got, "Style Descriptor: pop art.")
	assert.Contains(t, got, "Universe Lore: cyber noir.")
	assert.NotContains(t, got, "MODIFICATION")
}

func TestComposePromptRefinement(t *testing.T) {
	got := ComposePrompt("Flat colors only.", Request{Prompt: "make it night", Style: "s", Context: "c", Refinement: true,
		Characters: []CharacterGuide{{Name: "SEB"}}})
	assert.True(t, strings.HasPrefix(got, "IMAGE MODIFICATION REQUEST"))
	assert.Contains(t, got, "INSTRUCTION: make it night.")
	assert.Contains(t, got, "EXACT SAME character models")
	assert.Contains(t, got, "Flat colors only.")
	assert.Contains(t, got, "Style Descriptor: s.")
	assert.NotContains(t, got, "CHARACTERS:")
}

func TestDataURLRoundTrip(t *testing.T) {
	u := DataURL("image/webp", []byte{1, 2, 3})
	mt, b, err := ParseDataURL(u)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mt)
	assert.Equal(t, []byte{1, 2, 3}, b)

	_, _, err = ParseDataURL("https://example.com/x.png")
	assert.Error(t, err)
	_, _, err = ParseDataURL("data:image/png,raw")
	assert.Error(t, err)
}

type fakeModels struct {
	resp     *genai.GenerateContentResponse
	err      error
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	model    string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, cfg
	return f.resp, f.err
}

func imageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: "here you go"}, {InlineData: &genai.Blob{Data: data, MIMEType: "image/png"}}}},
	}}}
}

func TestGeminiSendsInlineReferences(t *testing.T) {
	fm := &fakeModels{resp: imageResponse([]byte("img"))}
	g := &Gemini{models: fm, cfg: withGeminiDefaults(GeminiConfig{})}

	out, err := g.Generate(context.Background(), Request{
		Prompt: "p",
		References: []Reference{
			{Data: "data:image/png;base64," + pngPixel, MIMEType: "image/png"},
			{Data: "no-comma-here", MIMEType: "image/png"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, DataURL("image/png", []byte("img")), out)
	assert.Equal(t, DefaultGeminiModel, fm.model)
	require.Len(t, fm.contents, 1)
	parts := fm.contents[0].Parts
	require.Len(t, parts, 2, "reference without comma must be skipped")
	assert.Contains(t, parts[0].Text, "SCENE DESCRIPTION: p.")
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, "1:1", fm.config.ImageConfig.AspectRatio)
}

func TestGeminiFailureModes(t *testing.T) {
	ctx := context.Background()

	_, err := (&Gemini{cfg: withGeminiDefaults(GeminiConfig{})}).Generate(ctx, Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	g := &Gemini{models: &fakeModels{resp: &genai.GenerateContentResponse{}}}
	_, err = g.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrNoCandidates)

	g = &Gemini{models: &fakeModels{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: "I cannot draw that"}}},
	}}}}}
	_, err = g.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Contains(t, err.Error(), "I cannot draw that")

	g = &Gemini{models: &fakeModels{err: errors.New("connection reset")}}
	_, err = g.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNewGeminiWithoutKey(t *testing.T) {
	g, err := NewGemini(context.Background(), GeminiConfig{})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestOpenAIGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["prompt"], "SCENE DESCRIPTION: a cat.")
		_, _ = io.WriteString(w, `{"data":[{"b64_json":"`+pngPixel+`"}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/", APIKey: "k"})
	out, err := p.Generate(context.Background(), Request{Prompt: "a cat"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+pngPixel, out)
}

func TestOpenAIEditsWithReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/edits", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File["image[]"], 1)
		assert.Contains(t, r.FormValue("prompt"), "IMAGE MODIFICATION REQUEST")
		_, _ = io.WriteString(w, `{"data":[{"b64_json":"`+pngPixel+`"}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err := p.Generate(context.Background(), Request{
		Prompt: "add rain", Refinement: true,
		References: []Reference{{Data: "data:image/png;base64," + pngPixel, MIMEType: "image/png"}},
	})
	require.NoError(t, err)
}

func TestOpenAIFailureModes(t *testing.T) {
	ctx := context.Background()
	_, err := NewOpenAI(OpenAIConfig{BaseURL: "http://unused"}).Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err = NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"}).Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer empty.Close()
	_, err = NewOpenAI(OpenAIConfig{BaseURL: empty.URL, APIKey: "k"}).Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestRateLimitedSpacesCalls(t *testing.T) {
	calls := 0
	c := NewRateLimited(ClientFunc(func(context.Context, Request) (string, error) {
		calls++
		return "ok", nil
	}), 40*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Generate(context.Background(), Request{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Defaults().Generation
	c, err := FromConfig(context.Background(), cfg, "")
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	cfg.Provider = "dalle-9000"
	_, err = FromConfig(context.Background(), cfg, "")
	assert.Error(t, err)
}
