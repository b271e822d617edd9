// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package arcgen wires together every component of the diagram-generation
// service — registry, symbol index, resolver, advisor, render engine,
// session store, LLM client, feedback backends, observability, and the
// HTTP layer — behind a single Service.
package arcgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/arcgen/arcgen/services/arcgen/advisor"
	"github.com/arcgen/arcgen/services/arcgen/config"
	"github.com/arcgen/arcgen/services/arcgen/engine"
	"github.com/arcgen/arcgen/services/arcgen/feedback"
	"github.com/arcgen/arcgen/services/arcgen/handlers"
	"github.com/arcgen/arcgen/services/arcgen/llm"
	"github.com/arcgen/arcgen/services/arcgen/middleware"
	"github.com/arcgen/arcgen/services/arcgen/observability"
	"github.com/arcgen/arcgen/services/arcgen/progress"
	"github.com/arcgen/arcgen/services/arcgen/registry"
	"github.com/arcgen/arcgen/services/arcgen/resolver"
	"github.com/arcgen/arcgen/services/arcgen/routes"
	"github.com/arcgen/arcgen/services/arcgen/session"
	"github.com/arcgen/arcgen/services/arcgen/symbolindex"
)

// Service is the running diagram-generation server.
type Service interface {
	// Run starts the HTTP server and blocks until it stops or errors.
	Run() error
	// Router returns the configured *gin.Engine, for integration tests
	// that want to drive it with httptest rather than a real listener.
	Router() *gin.Engine
	// Shutdown releases every background resource (registry watcher,
	// session sweeps, trace exporter) without closing the listener;
	// callers that own the listener should call this from their own
	// signal-handling shutdown path.
	Shutdown(ctx context.Context)
}

type service struct {
	cfg    config.ArcgenConfig
	router *gin.Engine

	regWatcher    *registry.Watcher
	sessions      *session.Manager
	tracerCleanup func(context.Context)
}

// New builds a Service from cfg: loads the registry (with hot-reload via
// fsnotify), builds the symbol index over the generated table, opens the
// resolver's persisted memoization cache, constructs the advisor, render
// engine, session manager, LLM client, and feedback backends, then
// registers every route.
func New(cfg config.ArcgenConfig) (Service, error) {
	s := &service{cfg: cfg}

	tracerCleanup, err := observability.InitTracer(cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}
	s.tracerCleanup = tracerCleanup

	regWatcher, err := registry.NewWatcher(cfg.RegistryDir)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	s.regWatcher = regWatcher
	reg := regWatcher.Get()

	idx := symbolindex.New(registry.NewGeneratedTable(reg))

	memoCache, err := resolver.OpenBadgerMemoCache(cfg.ResolverCachePath)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("opening resolver cache: %w", err)
	}
	if err := memoCache.ResetOnVersionChange(cfg.InstalledLibraryVersion); err != nil {
		slog.Warn("resolver cache version check failed, continuing with existing entries", "error", err)
	}
	res := resolver.New(idx, reg, cfg.InstalledLibraryVersion, memoCache)

	adv := advisor.New(reg)

	mirror, err := newArtifactMirror(cfg)
	if err != nil {
		slog.Warn("artifact mirror unavailable, artifacts stay local-only", "error", err)
		mirror = nil
	}
	eng := engine.New(cfg.OutputDir, cfg.RenderTimeout(), mirror)

	sessions := session.NewManager(session.ManagerConfig{
		OutputDir:                 cfg.OutputDir,
		SessionTTLSeconds:         cfg.SessionTTLSeconds,
		ArtifactTTLSeconds:        cfg.ArtifactTTLSeconds,
		SessionSweepIntervalSecs:  cfg.SessionSweepIntervalSecs,
		ArtifactSweepIntervalSecs: cfg.ArtifactSweepIntervalSecs,
	})
	sessions.Start(context.Background())
	s.sessions = sessions

	llmClient, err := llm.New(cfg.LLMBackend, config.LLMAPIKey(), "")
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("constructing llm client: %w", err)
	}

	feedbackSink, err := feedback.NewSink(cfg.FeedbackBackend, cfg.FeedbackWeaviateURL)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("constructing feedback sink: %w", err)
	}
	feedbackStats, err := feedback.NewStats(cfg.FeedbackStatsBackend, cfg.InfluxDBURL, cfg.InfluxDBToken, cfg.InfluxDBOrg, cfg.InfluxDBBucket)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("constructing feedback stats backend: %w", err)
	}

	metrics := observability.NewMetrics()
	logs := observability.NewRequestLog()
	progressHub := progress.NewHub()

	h := handlers.New(reg, res, adv, eng, sessions, llmClient, feedbackSink, feedbackStats, metrics, logs, progressHub, cfg)

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("arcgen"))

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	}
	routes.SetupRoutes(s.router, h, rateLimiter, cfg.CORSAllowedOrigins)

	return s, nil
}

// newArtifactMirror opens the optional cold-storage mirror for cfg's
// configured backend, or returns a nil mirror for ArtifactStoreNone.
func newArtifactMirror(cfg config.ArcgenConfig) (*engine.ArtifactMirror, error) {
	switch cfg.ArtifactStoreBackend {
	case "", string(config.ArtifactStoreNone):
		return nil, nil
	case string(config.ArtifactStoreGCS):
		return engine.NewArtifactMirror(context.Background(), cfg.ArtifactStoreBucket)
	default:
		return nil, fmt.Errorf("unknown artifact store backend %q", cfg.ArtifactStoreBackend)
	}
}

func (s *service) Run() error {
	defer s.cleanup()
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	slog.Info("starting arcgen server", "port", s.cfg.Port)
	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) Shutdown(ctx context.Context) {
	s.cleanup()
}

func (s *service) cleanup() {
	if s.sessions != nil {
		s.sessions.Stop()
	}
	if s.regWatcher != nil {
		s.regWatcher.Stop()
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
