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
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

// renderSourceKeywords and renderSourceOperators describe the emitted
// renderer source grammar (see engine.EmitSource / engine/source.go),
// for an editor's advanced-mode (execute-code) autocomplete.
var renderSourceKeywords = []string{"Diagram", "Cluster", "Edge", "with"}

var renderSourceOperators = []string{">>", "<<", "-"}

// Completions handles GET /api/completions/{provider}: the symbol catalog
// an editor needs to autocomplete component classes and their import paths
// for provider, plus the fixed renderer-source keyword and operator lists.
func (h *Handlers) Completions(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		h.respondError(c, "completions", fmt.Errorf("%w: missing provider", datatypes.ErrValidation))
		return
	}

	byCategory := h.Registry.ModulesByCategory(provider)
	if byCategory == nil {
		h.respondError(c, "completions", fmt.Errorf("%w: unknown provider %q", datatypes.ErrValidation, provider))
		return
	}

	classes := make(map[string][]string, len(byCategory))
	imports := make(map[string]string)
	for category, module := range byCategory {
		classes[category] = module.Classes
		for _, class := range module.Classes {
			imports[class] = fmt.Sprintf("from %s import %s", module.Path, class)
		}
	}

	c.JSON(http.StatusOK, datatypes.CompletionsResponse{
		Classes:   classes,
		Imports:   imports,
		Keywords:  renderSourceKeywords,
		Operators: renderSourceOperators,
	})
}
