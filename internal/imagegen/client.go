/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package imagegen renders one panel image per call through an external
// image model. Clients compose the final instruction from the panel prompt,
// the project style and context, a house style directive and, for
// refinements, the rule to keep the previous composition.
package imagegen

import (
	"context"
	"errors"
)

// Failure classes. Every client wraps one of these so callers can tell them
// apart with errors.Is while still showing the full message to the user.
var (
	ErrMissingCredentials = errors.New("image generation: missing API key")
	ErrNoCandidates       = errors.New("image generation: model returned no candidates")
	ErrNoImage            = errors.New("image generation: response contained no image")
	ErrTransport          = errors.New("image generation: request failed")
)

// Reference is an image that conditions the render. Data is a data URL.
type Reference struct {
	Data     string
	MIMEType string
}

// CharacterGuide describes a cast member in the prompt.
type CharacterGuide struct {
	Name        string
	Personality string
}

// Request is one generation call.
type Request struct {
	Prompt     string
	Style      string
	Context    string
	Characters []CharacterGuide
	References []Reference
	Refinement bool
}

// Client produces a self-contained image (a data URL) for a request.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Generate(ctx context.Context, req Request) (string, error) { return f(ctx, req) }
