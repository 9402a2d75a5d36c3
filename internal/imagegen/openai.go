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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const DefaultOpenAIModel = "gpt-image-1"

// OpenAIConfig configures an OpenAI-compatible images endpoint.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Size       string
	HouseStyle string
	Timeout    time.Duration
}

// OpenAI renders panels through POST {base}/images/generations, or
// {base}/images/edits when the request carries reference images.
type OpenAI struct {
	client *http.Client
	cfg    OpenAIConfig
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Size == "" {
		cfg.Size = "1024x1024"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAI{client: &http.Client{Timeout: cfg.Timeout}, cfg: cfg}
}

// SizeForAspect maps an aspect ratio to an image size the endpoint accepts.
func SizeForAspect(aspect string) string {
	switch aspect {
	case "3:2", "16:9", "4:3":
		return "1536x1024"
	case "2:3", "9:16", "3:4":
		return "1024x1536"
	default:
		return "1024x1024"
	}
}

func (p *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return "", ErrMissingCredentials
	}
	prompt := ComposePrompt(p.cfg.HouseStyle, req)

	var (
		httpReq *http.Request
		err     error
	)
	if refs := p.decodeRefs(req.References); len(refs) > 0 {
		httpReq, err = p.editRequest(ctx, prompt, refs)
	} else {
		httpReq, err = p.generationRequest(ctx, prompt)
	}
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: image API returned status %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode image API response: %w", ErrTransport, err)
	}
	if len(result.Data) == 0 {
		return "", ErrNoCandidates
	}
	d := result.Data[0]
	switch {
	case d.B64JSON != "":
		return "data:image/png;base64," + d.B64JSON, nil
	case d.URL != "":
		return p.fetch(ctx, d.URL)
	}
	return "", ErrNoImage
}

func (p *OpenAI) generationRequest(ctx context.Context, prompt string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  p.cfg.Model,
		"prompt": prompt,
		"size":   p.cfg.Size,
		"n":      1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

type decodedRef struct {
	data []byte
	mime string
}

func (p *OpenAI) decodeRefs(refs []Reference) []decodedRef {
	var out []decodedRef
	for _, r := range refs {
		if b, mt, ok := referenceBytes(r); ok {
			out = append(out, decodedRef{data: b, mime: mt})
		}
	}
	return out
}

func (p *OpenAI) editRequest(ctx context.Context, prompt string, refs []decodedRef) (*http.Request, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("model", p.cfg.Model)
	_ = w.WriteField("prompt", prompt)
	_ = w.WriteField("size", p.cfg.Size)
	for i, r := range refs {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="ref-%d%s"`, i, extFor(r.mime)))
		h.Set("Content-Type", r.mime)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(r.data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/images/edits", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

// fetch downloads an image the endpoint returned by URL so the panel stays self-contained.
func (p *OpenAI) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: image download returned status %d", ErrTransport, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if len(b) == 0 {
		return "", ErrNoImage
	}
	return DataURL(http.DetectContentType(b), b), nil
}

func extFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
