/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Env vars consulted before the keychain. CST_API_KEY applies to any provider.
const (
	EnvAPIKey       = "CST_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

const keyringService = "ComicStation"

// TokenStore abstracts the OS keychain so tests can swap it.
type TokenStore interface {
	Get(service, user string) (string, error)
	Set(service, user, secret string) error
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (osKeyring) Set(service, user, secret string) error   { return keyring.Set(service, user, secret) }
func (osKeyring) Delete(service, user string) error        { return keyring.Delete(service, user) }

var tokenStore TokenStore = osKeyring{}

// APIKey resolves the credential for provider: env first, then the keychain.
// An absent key yields "" and a nil error; callers decide when that matters.
func APIKey(provider string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v, nil
	}
	providerEnv := EnvGeminiAPIKey
	if provider == ProviderOpenAI {
		providerEnv = EnvOpenAIAPIKey
	}
	if v := strings.TrimSpace(os.Getenv(providerEnv)); v != "" {
		return v, nil
	}
	v, err := tokenStore.Get(keyringService, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetAPIKey stores the credential for provider in the keychain. An empty key removes it.
func SetAPIKey(provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		err := tokenStore.Delete(keyringService, provider)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return tokenStore.Set(keyringService, provider, key)
}
