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

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/config"
)

// FromConfig builds the configured provider wrapped in the rate limiter.
func FromConfig(ctx context.Context, cfg config.GenerationConfig, apiKey string) (Client, error) {
	var c Client
	switch cfg.Provider {
	case config.ProviderGemini, "":
		g, err := NewGemini(ctx, GeminiConfig{APIKey: apiKey, Model: cfg.Model, AspectRatio: cfg.AspectRatio, HouseStyle: cfg.HouseStyle})
		if err != nil {
			return nil, err
		}
		c = g
	case config.ProviderOpenAI:
		model := cfg.Model
		if model == config.Defaults().Generation.Model {
			model = DefaultOpenAIModel
		}
		c = NewOpenAI(OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     apiKey,
			Model:      model,
			Size:       SizeForAspect(cfg.AspectRatio),
			HouseStyle: cfg.HouseStyle,
			Timeout:    cfg.Timeout(),
		})
	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.Provider)
	}
	return NewRateLimited(c, cfg.RateInterval()), nil
}
