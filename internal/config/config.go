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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
// API credentials never live here; see APIKey.
type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	General       GeneralConfig    `yaml:"general"`
	Storage       StorageConfig    `yaml:"storage"`
	Generation    GenerationConfig `yaml:"generation"`
	Upload        UploadConfig     `yaml:"upload"`
	Logging       LoggingConfig    `yaml:"logging"`
}

type GeneralConfig struct {
	Theme       string `yaml:"theme"`        // "system" | "light" | "dark"
	DefaultView string `yaml:"default_view"` // "editor" | "reader"
}

// StorageConfig selects the key/value backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "file" | "sqlite" | "memory"
	DataDir string `yaml:"data_dir"`
}

// GenerationConfig drives the image generation client and controller.
type GenerationConfig struct {
	Provider       string `yaml:"provider"` // "gemini" | "openai"
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"` // openai-compatible endpoints only
	TimeoutMs      int    `yaml:"timeout_ms"`
	RateIntervalMs int    `yaml:"rate_interval_ms"`
	AspectRatio    string `yaml:"aspect_ratio"`
	Policy         string `yaml:"policy"` // "serial" | "per_panel"
	HouseStyle     string `yaml:"house_style"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	PolicySerial   = "serial"
	PolicyPerPanel = "per_panel"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", DefaultView: "editor"},
		Storage:       StorageConfig{Backend: BackendFile},
		Generation: GenerationConfig{
			Provider:       ProviderGemini,
			Model:          "gemini-2.5-flash-image",
			BaseURL:        "https://api.openai.com/v1",
			TimeoutMs:      120000,
			RateIntervalMs: 1000,
			AspectRatio:    "1:1",
			Policy:         PolicySerial,
		},
		Upload:  UploadConfig{MaxBytes: 2_500_000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "CST_CONFIG"
	EnvStorageBackend = "CST_STORAGE_BACKEND"
	EnvDataDir        = "CST_DATA_DIR"
	EnvProvider       = "CST_PROVIDER"
	EnvModel          = "CST_MODEL"
	EnvBaseURL        = "CST_BASE_URL"
	EnvTimeoutMs      = "CST_TIMEOUT_MS"
	EnvPolicy         = "CST_POLICY"
	EnvUploadMax      = "CST_UPLOAD_MAX_BYTES"
	EnvLogLevel       = "CST_LOG_LEVEL"
	EnvLogFormat      = "CST_LOG_FORMAT"
	EnvLogSource      = "CST_LOG_SOURCE"
	EnvLogFile        = "CST_LOG_FILE"
)

// ConfigPath returns the per-user config file path. CST_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	base, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// userDir is the per-user application directory, also the default data dir.
func userDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ComicStation")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ComicStation")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "comicstation")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "comicstation")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported but the defaults plus env are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var fileErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			fileErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = filepath.Join(filepath.Dir(path), "data")
	}
	return cfg, fileErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	setStr(&dst.General.Theme, src.General.Theme)
	setStr(&dst.General.DefaultView, strings.ToLower(src.General.DefaultView))
	setStr(&dst.Storage.Backend, strings.ToLower(src.Storage.Backend))
	setStr(&dst.Storage.DataDir, src.Storage.DataDir)

	g := src.Generation
	setStr(&dst.Generation.Provider, strings.ToLower(g.Provider))
	setStr(&dst.Generation.Model, g.Model)
	setStr(&dst.Generation.BaseURL, g.BaseURL)
	setStr(&dst.Generation.AspectRatio, g.AspectRatio)
	setStr(&dst.Generation.Policy, strings.ToLower(g.Policy))
	setStr(&dst.Generation.HouseStyle, g.HouseStyle)
	if g.TimeoutMs > 0 {
		dst.Generation.TimeoutMs = g.TimeoutMs
	}
	if g.RateIntervalMs != 0 {
		dst.Generation.RateIntervalMs = g.RateIntervalMs
	}
	if src.Upload.MaxBytes > 0 {
		dst.Upload.MaxBytes = src.Upload.MaxBytes
	}

	setStr(&dst.Logging.Level, strings.ToLower(src.Logging.Level))
	setStr(&dst.Logging.Format, strings.ToLower(src.Logging.Format))
	dst.Logging.Source = src.Logging.Source
	setStr(&dst.Logging.File, src.Logging.File)
}

func setStr(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	setStr(&cfg.Storage.Backend, strings.ToLower(os.Getenv(EnvStorageBackend)))
	setStr(&cfg.Storage.DataDir, os.Getenv(EnvDataDir))
	setStr(&cfg.Generation.Provider, strings.ToLower(os.Getenv(EnvProvider)))
	setStr(&cfg.Generation.Model, os.Getenv(EnvModel))
	setStr(&cfg.Generation.BaseURL, os.Getenv(EnvBaseURL))
	setStr(&cfg.Generation.Policy, strings.ToLower(os.Getenv(EnvPolicy)))
	if v := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Generation.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvUploadMax)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Upload.MaxBytes = n
		}
	}
	setStr(&cfg.Logging.Level, strings.ToLower(os.Getenv(EnvLogLevel)))
	setStr(&cfg.Logging.Format, strings.ToLower(os.Getenv(EnvLogFormat)))
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	setStr(&cfg.Logging.File, os.Getenv(EnvLogFile))
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"storage.backend":       EnvStorageBackend,
		"storage.data_dir":      EnvDataDir,
		"generation.provider":   EnvProvider,
		"generation.model":      EnvModel,
		"generation.base_url":   EnvBaseURL,
		"generation.timeout_ms": EnvTimeoutMs,
		"generation.policy":     EnvPolicy,
		"upload.max_bytes":      EnvUploadMax,
		"logging.level":         EnvLogLevel,
		"logging.format":        EnvLogFormat,
		"logging.source":        EnvLogSource,
		"logging.file":          EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Timeout is the per-request generation deadline.
func (g GenerationConfig) Timeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return time.Duration(Defaults().Generation.TimeoutMs) * time.Millisecond
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// RateInterval is the minimum spacing between generation requests. Zero disables limiting.
func (g GenerationConfig) RateInterval() time.Duration {
	if g.RateIntervalMs <= 0 {
		return 0
	}
	return time.Duration(g.RateIntervalMs) * time.Millisecond
}

// Validate rejects enum values the rest of the application cannot act on.
func (c AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	switch c.Generation.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("generation.provider: unknown provider %q", c.Generation.Provider)
	}
	switch c.Generation.Policy {
	case PolicySerial, PolicyPerPanel:
	default:
		return fmt.Errorf("generation.policy: unknown policy %q", c.Generation.Policy)
	}
	return nil
}
