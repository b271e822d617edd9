// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package config provides configuration types and loading for the arcgen
service.

# Configuration File

The configuration is stored at ~/.arcgen/arcgen.yaml (overridable via the
ARCGEN_CONFIG environment variable) and is created automatically on first
run with sensible defaults. Individual fields may be overridden by
environment variables; see Load.
*/
package config

import "time"

// -----------------------------------------------------------------------------
// Defaults
// -----------------------------------------------------------------------------

const (
	DefaultPort                       = 12230
	DefaultOutputDir                  = "./data/artifacts"
	DefaultSessionTTLSeconds          = 3600
	DefaultArtifactTTLSeconds         = 86400
	DefaultSessionSweepIntervalSecs   = 300
	DefaultArtifactSweepIntervalSecs  = 300
	DefaultLLMTimeoutSeconds          = 60
	DefaultRenderTimeoutSeconds       = 60
	DefaultRequestTimeoutSeconds      = 120
	DefaultProvider                   = "aws"
	DefaultDirection                  = "LR"
	DefaultOutFormat                  = "png"
	DefaultLogLevel                   = "info"
	DefaultResolverCachePath          = "./data/resolver-cache"
	DefaultInstalledLibraryVersion    = "v0.24.0"
	DefaultLLMBackend                 = "openai"
	DefaultArtifactStoreBackend       = "none"
	DefaultFeedbackBackend            = "none"
	DefaultFeedbackStatsBackend       = "none"
	DefaultRateLimitPerMinute         = 60
	DefaultRegistryDir                = "./services/arcgen/registry/data"
)

// ModelBackend selects which LLM SDK backs the LLMClient.
type ModelBackend string

const (
	ModelBackendOpenAI    ModelBackend = "openai"
	ModelBackendLangchain ModelBackend = "langchain"
)

// ArtifactStoreBackend selects the optional cold-storage mirror.
type ArtifactStoreBackend string

const (
	ArtifactStoreNone ArtifactStoreBackend = "none"
	ArtifactStoreGCS  ArtifactStoreBackend = "gcs"
)

// FeedbackBackend selects the optional feedback-collection sink.
type FeedbackBackend string

const (
	FeedbackBackendNone     FeedbackBackend = "none"
	FeedbackBackendWeaviate FeedbackBackend = "weaviate"
)

// FeedbackStatsBackend selects the optional feedback time-series sink.
type FeedbackStatsBackend string

const (
	FeedbackStatsBackendNone     FeedbackStatsBackend = "none"
	FeedbackStatsBackendInfluxDB FeedbackStatsBackend = "influxdb"
)

// ArcgenConfig is the full configuration schema, loaded once into Global.
type ArcgenConfig struct {
	Port int `yaml:"port"`

	OutputDir                  string `yaml:"output_dir"`
	SessionTTLSeconds          int    `yaml:"session_ttl_seconds"`
	ArtifactTTLSeconds         int    `yaml:"artifact_ttl_seconds"`
	SessionSweepIntervalSecs   int    `yaml:"session_sweep_interval_seconds"`
	ArtifactSweepIntervalSecs  int    `yaml:"artifact_sweep_interval_seconds"`
	LLMTimeoutSeconds          int    `yaml:"llm_timeout_seconds"`
	RenderTimeoutSeconds       int    `yaml:"render_timeout_seconds"`
	RequestTimeoutSeconds      int    `yaml:"request_timeout_seconds"`

	ProviderDefault  string `yaml:"provider_default"`
	DirectionDefault string `yaml:"direction_default"`
	OutFormatDefault string `yaml:"out_format_default"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	LogLevel           string   `yaml:"log_level"`

	ResolverCachePath       string `yaml:"resolver_cache_path"`
	InstalledLibraryVersion string `yaml:"installed_library_version"`
	RegistryDir             string `yaml:"registry_dir"`

	LLMBackend string `yaml:"llm_backend"`
	LLMAPIKey  string `yaml:"llm_api_key"`

	ArtifactStoreBackend string `yaml:"artifact_store_backend"`
	ArtifactStoreBucket  string `yaml:"artifact_store_bucket"`

	FeedbackBackend      string `yaml:"feedback_backend"`
	FeedbackWeaviateURL  string `yaml:"feedback_weaviate_url"`

	FeedbackStatsBackend string `yaml:"feedback_stats_backend"`
	InfluxDBURL          string `yaml:"influxdb_url"`
	InfluxDBOrg          string `yaml:"influxdb_org"`
	InfluxDBBucket       string `yaml:"influxdb_bucket"`
	InfluxDBToken        string `yaml:"influxdb_token"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// OTelEndpoint is the OpenTelemetry collector's gRPC endpoint
	// ("host:port"). Empty disables tracing (observability.InitTracer
	// becomes a no-op).
	OTelEndpoint string `yaml:"otel_endpoint"`
}

// SessionTTL returns the configured session idle TTL as a duration.
func (c ArcgenConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// ArtifactTTL returns the configured artifact retention TTL as a duration.
func (c ArcgenConfig) ArtifactTTL() time.Duration {
	return time.Duration(c.ArtifactTTLSeconds) * time.Second
}

// SessionSweepInterval returns the configured session sweep cadence.
func (c ArcgenConfig) SessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalSecs) * time.Second
}

// ArtifactSweepInterval returns the configured artifact sweep cadence.
func (c ArcgenConfig) ArtifactSweepInterval() time.Duration {
	return time.Duration(c.ArtifactSweepIntervalSecs) * time.Second
}

// LLMTimeout returns the configured LLM call timeout.
func (c ArcgenConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// RenderTimeout returns the configured renderer subprocess timeout.
func (c ArcgenConfig) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutSeconds) * time.Second
}

// RequestTimeout returns the configured overall request timeout.
func (c ArcgenConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DefaultConfig returns the configuration applied on first run.
func DefaultConfig() ArcgenConfig {
	return ArcgenConfig{
		Port:                      DefaultPort,
		OutputDir:                 DefaultOutputDir,
		SessionTTLSeconds:         DefaultSessionTTLSeconds,
		ArtifactTTLSeconds:        DefaultArtifactTTLSeconds,
		SessionSweepIntervalSecs:  DefaultSessionSweepIntervalSecs,
		ArtifactSweepIntervalSecs: DefaultArtifactSweepIntervalSecs,
		LLMTimeoutSeconds:         DefaultLLMTimeoutSeconds,
		RenderTimeoutSeconds:      DefaultRenderTimeoutSeconds,
		RequestTimeoutSeconds:     DefaultRequestTimeoutSeconds,
		ProviderDefault:           DefaultProvider,
		DirectionDefault:          DefaultDirection,
		OutFormatDefault:          DefaultOutFormat,
		LogLevel:                  DefaultLogLevel,
		ResolverCachePath:         DefaultResolverCachePath,
		InstalledLibraryVersion:   DefaultInstalledLibraryVersion,
		RegistryDir:               DefaultRegistryDir,
		LLMBackend:                DefaultLLMBackend,
		ArtifactStoreBackend:      DefaultArtifactStoreBackend,
		FeedbackBackend:           DefaultFeedbackBackend,
		FeedbackStatsBackend:      DefaultFeedbackStatsBackend,
		RateLimitPerMinute:        DefaultRateLimitPerMinute,
	}
}
