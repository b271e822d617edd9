// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arcgen/arcgen/services/arcgen/advisor"
	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/llm"
	"github.com/arcgen/arcgen/services/arcgen/middleware"
	"github.com/arcgen/arcgen/services/arcgen/resolver"
)

// GenerateDiagram handles POST /api/generate-diagram: the full pipeline
// from a natural-language description to a rendered artifact. Order is
// validate input -> LLM spec generation -> advisor pass -> resolver
// cascade -> engine render -> session creation -> response.
func (h *Handlers) GenerateDiagram(c *gin.Context) {
	var req datatypes.GenerateDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "generate_diagram", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout())
	defer cancel()

	requestID := middleware.RequestID(c)
	h.beginProgress(requestID)
	finalDetail := "failed"
	defer func() { h.endProgress(requestID, finalDetail) }()

	if err := resolver.ValidateInput(req.Description); err != nil {
		h.respondError(c, "generate_diagram", err)
		return
	}

	provider := req.Provider
	if provider == "" {
		provider = datatypes.ProviderAWS
	}

	h.publishProgress(requestID, "generating_spec", "asking the LLM for an architecture spec")
	start := time.Now()
	result, err := llm.GenerateSpec(ctx, h.LLM, h.Registry, provider, req.Description, generationParams())
	if err != nil {
		h.respondError(c, "generate_diagram", fmt.Errorf("%w: %v", datatypes.ErrInternal, err))
		return
	}

	spec := result.Spec
	spec.Provider = provider
	if len(req.OutFormat) > 0 {
		spec.OutFormat = req.OutFormat
	}
	if req.Direction != "" {
		spec.Direction = req.Direction
	}
	spec.GraphvizAttrs = req.GraphvizAttrs.Merge(spec.GraphvizAttrs)
	spec.CoerceMainPathDefaults()

	if err := spec.Validate(); err != nil {
		h.respondError(c, "generate_diagram", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	h.publishProgress(requestID, "advising", "applying advisor heuristics to the spec")
	spec = h.Advisor.Advise(spec, advisor.Options{AllowSynthesis: true})

	h.publishProgress(requestID, "resolving", "resolving components against the installed library")
	resolved, err := h.resolveAll(ctx, spec)
	if err != nil {
		h.respondError(c, "generate_diagram", err)
		return
	}

	h.publishProgress(requestID, "rendering", "executing the generated Diagrams source")
	renderResult, err := h.Engine.Render(ctx, spec, resolved)
	if h.Metrics != nil {
		h.Metrics.RecordRender(time.Since(start).Seconds(), renderFailureReason(err))
	}
	if err != nil {
		h.respondError(c, "generate_diagram", err)
		return
	}

	sess := h.Sessions.Store.Create(spec, renderResult.ArtifactPaths, renderResult.Source)
	generationID := uuid.NewString()
	finalDetail = "rendered " + diagramURL(renderResult.ArtifactPaths)

	h.recordFeedbackLatency(ctx, string(provider), start, nil)

	c.JSON(http.StatusOK, datatypes.GenerateDiagramResponse{
		DiagramURL:    diagramURL(renderResult.ArtifactPaths),
		DiagramURLs:   diagramURLs(renderResult.ArtifactPaths),
		Message:       result.Message,
		SessionID:     sess.SessionID,
		GenerationID:  generationID,
		GeneratedCode: renderResult.Source,
	})
}

// diagramURL picks the first rendered artifact's path as the URL the
// client fetches via GET /api/diagrams/{filename}; the diagrams-serving
// handler accepts any of the artifacts that render produced.
func diagramURL(artifactPaths []string) string {
	if len(artifactPaths) == 0 {
		return ""
	}
	return "/api/diagrams/" + filepath.Base(artifactPaths[0])
}

// diagramURLs maps every rendered artifact to its GET /api/diagrams/{filename}
// URL, in the same order render produced them (which, in turn, mirrors the
// request's out_format order) — a multi-format request must surface every
// artifact, not just the first.
func diagramURLs(artifactPaths []string) []string {
	urls := make([]string, len(artifactPaths))
	for i, p := range artifactPaths {
		urls[i] = "/api/diagrams/" + filepath.Base(p)
	}
	return urls
}

// renderFailureReason reports the failure-reason label RecordRender
// expects: empty on success, "timeout"/"render_failed" otherwise.
func renderFailureReason(err error) string {
	if err == nil {
		return ""
	}
	return errorKind(err)
}

// recordFeedbackLatency fires the optional latency sample to the feedback
// stats backend; rating is nil until the client later submits feedback.
func (h *Handlers) recordFeedbackLatency(ctx context.Context, provider string, start time.Time, rating *int) {
	if h.FeedbackStats == nil {
		return
	}
	if err := h.FeedbackStats.RecordGeneration(ctx, provider, time.Since(start), rating); err != nil {
		// Stats collection is best-effort; a backend hiccup must never fail
		// the user-facing generation request.
		_ = err
	}
}
