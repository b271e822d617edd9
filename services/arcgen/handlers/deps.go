// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the arcgen HTTP surface: diagram generation,
// modification, undo and format regeneration against the session store;
// advanced-mode code execution and validation; completions metadata;
// artifact serving; and feedback collection. Every endpoint is a method on
// *Handlers with signature func(*gin.Context), so routes.go registers the
// method value directly (h.GenerateDiagram, not a constructor returning a
// closure) — arcgen has exactly one concrete Handlers per process, so the
// teacher's constructor-returns-closure indirection buys no mockability it
// doesn't already get from Handlers' own interface-typed fields (LLM,
// Feedback, FeedbackStats).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arcgen/arcgen/services/arcgen/advisor"
	"github.com/arcgen/arcgen/services/arcgen/config"
	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/engine"
	"github.com/arcgen/arcgen/services/arcgen/feedback"
	"github.com/arcgen/arcgen/services/arcgen/llm"
	"github.com/arcgen/arcgen/services/arcgen/observability"
	"github.com/arcgen/arcgen/services/arcgen/progress"
	"github.com/arcgen/arcgen/services/arcgen/registry"
	"github.com/arcgen/arcgen/services/arcgen/resolver"
	"github.com/arcgen/arcgen/services/arcgen/session"
)

// Handlers bundles every dependency the HTTP layer needs. It holds no
// request-scoped state of its own; all per-request data lives on
// *gin.Context or is threaded through as function parameters.
type Handlers struct {
	Registry *registry.Registry
	Resolver *resolver.Resolver
	Advisor  *advisor.Advisor
	Engine   *engine.Engine
	Sessions *session.Manager
	LLM      llm.LLMClient

	Feedback      feedback.Sink
	FeedbackStats feedback.StatsBackend

	Metrics  *observability.Metrics
	Logs     *observability.RequestLog
	Progress *progress.Hub

	Config config.ArcgenConfig
}

// New builds a Handlers from its fully-constructed dependencies. Called
// once from service.go's wiring after every lower layer (registry,
// resolver, advisor, engine, session manager, LLM client, feedback
// backends, observability) has been constructed.
func New(
	reg *registry.Registry,
	res *resolver.Resolver,
	adv *advisor.Advisor,
	eng *engine.Engine,
	sessions *session.Manager,
	llmClient llm.LLMClient,
	feedbackSink feedback.Sink,
	feedbackStats feedback.StatsBackend,
	metrics *observability.Metrics,
	logs *observability.RequestLog,
	progressHub *progress.Hub,
	cfg config.ArcgenConfig,
) *Handlers {
	return &Handlers{
		Registry:      reg,
		Resolver:      res,
		Advisor:       adv,
		Engine:        eng,
		Sessions:      sessions,
		LLM:           llmClient,
		Feedback:      feedbackSink,
		FeedbackStats: feedbackStats,
		Metrics:       metrics,
		Logs:          logs,
		Progress:      progressHub,
		Config:        cfg,
	}
}

// beginProgress marks requestID in flight, if a progress hub is wired.
func (h *Handlers) beginProgress(requestID string) {
	if h.Progress != nil {
		h.Progress.Begin(requestID)
	}
}

// publishProgress reports a pipeline stage for requestID, if a progress
// hub is wired. Safe to call with an empty requestID (middleware.RequestID
// returns "" when called outside a request the id middleware processed,
// e.g. from a unit test that builds its own *gin.Context) since Hub.Begin
// was never called for "" and Publish on an unknown id is a harmless no-op.
func (h *Handlers) publishProgress(requestID, stage, detail string) {
	if h.Progress != nil {
		h.Progress.Publish(requestID, progress.Event{Stage: stage, Detail: detail})
	}
}

// endProgress marks requestID complete, if a progress hub is wired.
func (h *Handlers) endProgress(requestID, detail string) {
	if h.Progress != nil {
		h.Progress.End(requestID, detail)
	}
}

// HTTPStatus classifies err against the sentinel error taxonomy in
// datatypes/errors.go, per spec's error-handling propagation policy: lower
// layers raise typed errors, this is the single place that maps them to a
// status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, datatypes.ErrValidation), errors.Is(err, datatypes.ErrInputRejected), errors.Is(err, datatypes.ErrResolver):
		return http.StatusBadRequest
	case errors.Is(err, datatypes.ErrSessionNotFound), errors.Is(err, datatypes.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, datatypes.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, datatypes.ErrRenderFailed), errors.Is(err, datatypes.ErrInternal):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorKind returns the taxonomy label used as the response body's "error"
// field, independent of the HTTP status code (three kinds share 400, two
// share 404, two share 500).
func errorKind(err error) string {
	switch {
	case errors.Is(err, datatypes.ErrValidation):
		return "validation_error"
	case errors.Is(err, datatypes.ErrInputRejected):
		return "input_rejected"
	case errors.Is(err, datatypes.ErrResolver):
		return "resolver_error"
	case errors.Is(err, datatypes.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, datatypes.ErrNotFound):
		return "not_found"
	case errors.Is(err, datatypes.ErrRenderFailed):
		return "render_failed"
	case errors.Is(err, datatypes.ErrTimeout):
		return "timeout"
	default:
		return "internal_error"
	}
}

// resolveAll runs the resolver cascade over every component in spec,
// recording a Prometheus sample per resolution and short-circuiting on the
// first resolver_error (a diagnostic-carrying error, per the four-stage
// cascade's Stage 4).
func (h *Handlers) resolveAll(ctx context.Context, spec datatypes.ArchitectureSpec) ([]engine.ResolvedComponent, error) {
	resolved := make([]engine.ResolvedComponent, 0, len(spec.Components))
	for _, comp := range spec.Components {
		provider := string(spec.Provider)
		if comp.Provider != "" {
			provider = string(comp.Provider)
		}

		resolution, err := h.Resolver.Resolve(ctx, provider, comp.Type, comp.Name)
		if h.Metrics != nil {
			h.Metrics.RecordResolverStage(resolution.Stage, err == nil)
		}
		if err != nil {
			return nil, fmt.Errorf("resolving component %q: %w", comp.ID, err)
		}
		resolved = append(resolved, engine.ResolvedComponent{Component: comp, Symbol: resolution.Symbol})
	}
	return resolved, nil
}

// generationParams returns a zero-value llm.GenerationParams, so each
// backend applies its own sampling defaults; it exists as a single seam so a future request
// field (temperature override, etc.) has one place to land.
func generationParams() llm.GenerationParams {
	return llm.GenerationParams{}
}

// requestTimeout bounds the whole pipeline per spec.md's
// request_timeout_seconds configuration option.
func (h *Handlers) requestTimeout() time.Duration {
	return h.Config.RequestTimeout()
}
