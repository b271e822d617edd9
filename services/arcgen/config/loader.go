// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/awnumar/memguard"
	"gopkg.in/yaml.v3"
)

var (
	// Global is the process-wide configuration singleton.
	Global ArcgenConfig
	once   sync.Once

	apiKeyMu     sync.Mutex
	apiKeyBuffer *memguard.LockedBuffer
)

// Load ensures the configuration is loaded into Global, creating a default
// file on first run. Individual fields may be overridden by environment
// variables (see applyEnvOverrides). Safe to call from multiple goroutines;
// the file is read at most once per process.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

func loadInternal() error {
	path := configPath()
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Printf("First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse the config file: %w", err)
	}
	applyEnvOverrides(&cfg)
	lockAPIKey(cfg.LLMAPIKey)
	cfg.LLMAPIKey = ""
	Global = cfg
	return nil
}

// Reload re-reads the config file at path and, if it parses successfully,
// replaces Global. Ordinary request handling never calls this directly.
func Reload(path string) (ArcgenConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ArcgenConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ArcgenConfig{}, fmt.Errorf("failed to parse the config file: %w", err)
	}
	applyEnvOverrides(&cfg)
	lockAPIKey(cfg.LLMAPIKey)
	cfg.LLMAPIKey = ""
	Global = cfg
	return cfg, nil
}

func configPath() string {
	if p := os.Getenv("ARCGEN_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".arcgen", "arcgen.yaml")
	}
	return filepath.Join(home, ".arcgen", "arcgen.yaml")
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets deployment environments override individual
// fields without editing the YAML file, matching the cmd/orchestrator
// entrypoint's env-var convention.
func applyEnvOverrides(cfg *ArcgenConfig) {
	overrideString("ARCGEN_OUTPUT_DIR", &cfg.OutputDir)
	overrideString("ARCGEN_LOG_LEVEL", &cfg.LogLevel)
	overrideString("ARCGEN_PROVIDER_DEFAULT", &cfg.ProviderDefault)
	overrideString("ARCGEN_RESOLVER_CACHE_PATH", &cfg.ResolverCachePath)
	overrideString("ARCGEN_INSTALLED_LIBRARY_VERSION", &cfg.InstalledLibraryVersion)
	overrideString("ARCGEN_REGISTRY_DIR", &cfg.RegistryDir)
	overrideString("ARCGEN_LLM_BACKEND", &cfg.LLMBackend)
	overrideString("ARCGEN_ARTIFACT_STORE_BACKEND", &cfg.ArtifactStoreBackend)
	overrideString("ARCGEN_ARTIFACT_STORE_BUCKET", &cfg.ArtifactStoreBucket)
	overrideString("ARCGEN_FEEDBACK_BACKEND", &cfg.FeedbackBackend)
	overrideString("ARCGEN_FEEDBACK_WEAVIATE_URL", &cfg.FeedbackWeaviateURL)
	overrideString("ARCGEN_FEEDBACK_STATS_BACKEND", &cfg.FeedbackStatsBackend)
	overrideString("ARCGEN_INFLUXDB_URL", &cfg.InfluxDBURL)
	overrideString("ARCGEN_INFLUXDB_ORG", &cfg.InfluxDBOrg)
	overrideString("ARCGEN_INFLUXDB_BUCKET", &cfg.InfluxDBBucket)
	overrideString("ARCGEN_OTEL_ENDPOINT", &cfg.OTelEndpoint)

	if key := os.Getenv("ARCGEN_LLM_API_KEY"); key != "" {
		cfg.LLMAPIKey = key
	}
	if key := os.Getenv("ARCGEN_INFLUXDB_TOKEN"); key != "" {
		cfg.InfluxDBToken = key
	}

	overrideInt("ARCGEN_PORT", &cfg.Port)
	overrideInt("ARCGEN_SESSION_TTL_SECONDS", &cfg.SessionTTLSeconds)
	overrideInt("ARCGEN_ARTIFACT_TTL_SECONDS", &cfg.ArtifactTTLSeconds)
	overrideInt("ARCGEN_SESSION_SWEEP_INTERVAL_SECONDS", &cfg.SessionSweepIntervalSecs)
	overrideInt("ARCGEN_ARTIFACT_SWEEP_INTERVAL_SECONDS", &cfg.ArtifactSweepIntervalSecs)
	overrideInt("ARCGEN_LLM_TIMEOUT_SECONDS", &cfg.LLMTimeoutSeconds)
	overrideInt("ARCGEN_RENDER_TIMEOUT_SECONDS", &cfg.RenderTimeoutSeconds)
	overrideInt("ARCGEN_REQUEST_TIMEOUT_SECONDS", &cfg.RequestTimeoutSeconds)
	overrideInt("ARCGEN_RATE_LIMIT_PER_MINUTE", &cfg.RateLimitPerMinute)

	if origins := os.Getenv("ARCGEN_CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = strings.Split(origins, ",")
	}
}

func overrideString(env string, dst *string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func overrideInt(env string, dst *int) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// lockAPIKey copies the plaintext LLM API key into a memguard-locked
// buffer and scrubs it from the in-memory config struct, so the key never
// appears in a log line or error payload built from ArcgenConfig. The
// previous buffer, if any, is destroyed first.
func lockAPIKey(key string) {
	apiKeyMu.Lock()
	defer apiKeyMu.Unlock()
	if apiKeyBuffer != nil {
		apiKeyBuffer.Destroy()
		apiKeyBuffer = nil
	}
	if key == "" {
		return
	}
	apiKeyBuffer = memguard.NewBufferFromBytes([]byte(key))
}

// LLMAPIKey returns the locked LLM API key, or "" if none is configured.
// Callers should not retain the returned string longer than needed.
func LLMAPIKey() string {
	apiKeyMu.Lock()
	defer apiKeyMu.Unlock()
	if apiKeyBuffer == nil || apiKeyBuffer.IsDestroyed() {
		return ""
	}
	return string(apiKeyBuffer.Bytes())
}
