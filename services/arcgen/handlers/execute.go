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
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/engine"
	"github.com/arcgen/arcgen/services/arcgen/middleware"
)

// ExecuteCode handles POST /api/execute-code: advanced-mode execution of
// user-supplied Diagrams source, through the same sandboxed subprocess
// boundary and timeout as generate-diagram, but skipping the LLM, advisor
// and resolver entirely — the caller's code is the program.
func (h *Handlers) ExecuteCode(c *gin.Context) {
	var req datatypes.ExecuteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "execute_code", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	title := req.Title
	if title == "" {
		title = "execute-code"
	}
	formats := req.OutFormat
	if len(formats) == 0 {
		formats = []datatypes.OutFormat{datatypes.FormatPNG}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout())
	defer cancel()

	requestID := middleware.RequestID(c)
	h.beginProgress(requestID)
	finalDetail := "failed"
	defer func() { h.endProgress(requestID, finalDetail) }()

	h.publishProgress(requestID, "rendering", "executing the submitted Diagrams source")
	result, err := h.Engine.RenderRaw(ctx, title, req.Code, formats)
	if err != nil {
		var renderErr *datatypes.RenderFailureErr
		if errors.As(err, &renderErr) {
			c.JSON(http.StatusInternalServerError, datatypes.ExecuteCodeResponse{
				Errors: []string{renderErr.Failure.StderrExcerpt},
			})
			return
		}
		h.respondError(c, "execute_code", err)
		return
	}

	warnings := make([]string, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		warnings = append(warnings, s.Message)
	}

	finalDetail = "rendered " + diagramURL(result.ArtifactPaths)
	c.JSON(http.StatusOK, datatypes.ExecuteCodeResponse{
		DiagramURL: diagramURL(result.ArtifactPaths),
		Warnings:   warnings,
	})
}

// ValidateCode handles POST /api/validate-code: a static, pre-execution
// syntax check via tree-sitter. Never returns a non-2xx status on an
// invalid submission — invalidity is reported through the body's valid
// field, per spec.md's explicit contract for this endpoint.
func (h *Handlers) ValidateCode(c *gin.Context) {
	var req datatypes.ValidateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "validate_code", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout())
	defer cancel()

	suggestions := engine.CheckPythonSyntax(ctx, req.Code)

	// CheckPythonSyntax only ever surfaces tree-sitter ERROR/MISSING node
	// regions, so any hit is a genuine syntax error rather than a stylistic
	// hint; Suggestions stays a distinct (currently always empty) field so
	// a future non-fatal-lint pass has somewhere to report without an
	// API shape change.
	errs := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		errs = append(errs, fmt.Sprintf("line %d: %s", s.Line, s.Message))
	}

	c.JSON(http.StatusOK, datatypes.ValidateCodeResponse{
		Valid:       len(errs) == 0,
		Errors:      errs,
		Suggestions: []string{},
	})
}
