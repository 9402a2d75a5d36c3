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
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash-image"
	DefaultAspectRatio = "1:1"
)

// contentGenerator is the slice of the genai client the provider needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	AspectRatio string
	HouseStyle  string
}

// Gemini renders panels with a Gemini image model.
type Gemini struct {
	models contentGenerator
	cfg    GeminiConfig
	log    *slog.Logger
}

// NewGemini builds the provider. A missing API key is not an error here: the
// provider then fails every call with ErrMissingCredentials, which only
// affects the panel being generated.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	g := &Gemini{cfg: withGeminiDefaults(cfg), log: applog.WithComponent("imagegen").With(slog.String("provider", "gemini"))}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

func withGeminiDefaults(cfg GeminiConfig) GeminiConfig {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = DefaultAspectRatio
	}
	return cfg
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if g.models == nil {
		return "", ErrMissingCredentials
	}
	parts := []*genai.Part{{Text: ComposePrompt(g.cfg.HouseStyle, req)}}
	for _, ref := range req.References {
		data, mt, ok := referenceBytes(ref)
		if !ok {
			continue
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mt}})
	}
	l := applog.WithOperation(g.log, "generate")
	l.DebugContext(ctx, "calling model", slog.String("model", g.cfg.Model), slog.Int("references", len(parts)-1), slog.Bool("refine", req.Refinement))

	resp, err := g.models.GenerateContent(ctx,
		g.cfg.Model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        &genai.ImageConfig{AspectRatio: g.cfg.AspectRatio},
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return imageFromResponse(resp)
}

func imageFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", ErrNoCandidates
	}
	cand := resp.Candidates[0]
	var text []string
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return DataURL(p.InlineData.MIMEType, p.InlineData.Data), nil
			}
			if t := strings.TrimSpace(p.Text); t != "" {
				text = append(text, t)
			}
		}
	}
	if len(text) > 0 {
		// the model usually explains a refusal in text
		return "", fmt.Errorf("%w: %s", ErrNoImage, strings.Join(text, " "))
	}
	if cand.FinishReason != "" {
		return "", fmt.Errorf("%w (finish reason %s)", ErrNoImage, cand.FinishReason)
	}
	return "", ErrNoImage
}
