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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arcgen/arcgen/services/arcgen/advisor"
	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/engine"
	"github.com/arcgen/arcgen/services/arcgen/llm"
)

// ModifyDiagram handles POST /api/modify-diagram: a chat-style follow-up
// request against an existing session's spec. The prior spec is pushed
// onto the session's undo stack before the modification is applied, so a
// subsequent undo-diagram restores it.
func (h *Handlers) ModifyDiagram(c *gin.Context) {
	var req datatypes.ModifyDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "modify_diagram", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	sess, ok := h.Sessions.Store.Get(req.SessionID)
	if !ok {
		h.respondError(c, "modify_diagram", fmt.Errorf("%w: %s", datatypes.ErrSessionNotFound, req.SessionID))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout())
	defer cancel()

	sess.Lock()
	defer sess.Unlock()

	result, err := llm.ModifySpec(ctx, h.LLM, h.Registry, sess.Spec, req.Modification, generationParams())
	if err != nil {
		h.respondError(c, "modify_diagram", fmt.Errorf("%w: %v", datatypes.ErrInternal, err))
		return
	}

	newSpec := result.Spec
	newSpec.Provider = sess.Spec.Provider
	if len(newSpec.OutFormat) == 0 {
		newSpec.OutFormat = sess.Spec.OutFormat
	}
	newSpec.CoerceMainPathDefaults()

	if err := newSpec.Validate(); err != nil {
		h.respondError(c, "modify_diagram", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	sess.PushUndo()
	h.applySpecLocked(c, "modify_diagram", sess, newSpec)
}

// UndoDiagram handles POST /api/undo-diagram: pops the session's undo
// stack and re-renders the prior spec.
func (h *Handlers) UndoDiagram(c *gin.Context) {
	var req datatypes.UndoDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "undo_diagram", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	sess, ok := h.Sessions.Store.Get(req.SessionID)
	if !ok {
		h.respondError(c, "undo_diagram", fmt.Errorf("%w: %s", datatypes.ErrSessionNotFound, req.SessionID))
		return
	}

	sess.Lock()
	defer sess.Unlock()

	priorSpec, ok := sess.PopUndo()
	if !ok {
		h.respondError(c, "undo_diagram", fmt.Errorf("%w: no prior version to restore", datatypes.ErrValidation))
		return
	}

	h.applySpecLocked(c, "undo_diagram", sess, priorSpec)
}

// RegenerateFormat handles POST /api/regenerate-format: re-renders the
// session's current spec with a different set of output formats, without
// involving the LLM or advancing the undo stack.
func (h *Handlers) RegenerateFormat(c *gin.Context) {
	var req datatypes.RegenerateFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "regenerate_format", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	sess, ok := h.Sessions.Store.Get(req.SessionID)
	if !ok {
		h.respondError(c, "regenerate_format", fmt.Errorf("%w: %s", datatypes.ErrSessionNotFound, req.SessionID))
		return
	}

	sess.Lock()
	defer sess.Unlock()

	newSpec := sess.Spec.Clone()
	newSpec.OutFormat = req.OutFormat

	h.applySpecLocked(c, "regenerate_format", sess, newSpec)
}

// applySpecLocked runs the shared advise -> resolve -> render -> diff ->
// update pipeline against newSpec and writes the mutation response. The
// caller must already hold sess's lock.
func (h *Handlers) applySpecLocked(c *gin.Context, route string, sess *datatypes.Session, newSpec datatypes.ArchitectureSpec) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout())
	defer cancel()

	advised := h.Advisor.Advise(newSpec, advisor.Options{AllowSynthesis: true})

	resolved, err := h.resolveAll(ctx, advised)
	if err != nil {
		h.respondError(c, route, err)
		return
	}

	renderResult, err := h.Engine.Render(ctx, advised, resolved)
	if err != nil {
		h.respondError(c, route, err)
		return
	}

	changes, err := engine.ComputeChanges(sess.SessionID, sess.LastSource, renderResult.Source)
	if err != nil {
		h.respondError(c, route, fmt.Errorf("%w: computing diff: %v", datatypes.ErrInternal, err))
		return
	}

	sess.Spec = advised
	sess.ArtifactPaths = renderResult.ArtifactPaths
	sess.LastSource = renderResult.Source

	c.JSON(http.StatusOK, datatypes.DiagramMutationResponse{
		DiagramURL:   diagramURL(renderResult.ArtifactPaths),
		DiagramURLs:  diagramURLs(renderResult.ArtifactPaths),
		Message:      "diagram updated",
		Changes:      changes,
		UpdatedSpec:  advised,
		GenerationID: uuid.NewString(),
	})
}
