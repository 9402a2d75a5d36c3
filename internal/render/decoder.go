/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/webp"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/imagegen"
)

const (
	defaultCacheExpiration = 10 * time.Minute
	cacheCleanupInterval   = 20 * time.Minute
)

// Decoder turns panel data URLs into images. Decoded images are cached by
// content hash so re-rendering a page does not decode every panel again.
type Decoder struct {
	cache *cache.Cache
}

// NewDecoder returns a decoder whose entries expire after ttl (10 minutes when ttl <= 0).
func NewDecoder(ttl time.Duration) *Decoder {
	if ttl <= 0 {
		ttl = defaultCacheExpiration
	}
	return &Decoder{cache: cache.New(ttl, cacheCleanupInterval)}
}

// Decode parses and decodes a data URL.
func (d *Decoder) Decode(dataURL string) (image.Image, error) {
	sum := sha256.Sum256([]byte(dataURL))
	key := hex.EncodeToString(sum[:])
	if v, ok := d.cache.Get(key); ok {
		return v.(image.Image), nil
	}
	_, data, err := imagegen.ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode panel image: %w", err)
	}
	d.cache.Set(key, img, cache.DefaultExpiration)
	return img, nil
}

// Cached returns the number of decoded images currently held.
func (d *Decoder) Cached() int { return d.cache.ItemCount() }
