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
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/engine"
)

// ServeDiagram handles GET /api/diagrams/{filename}: streams a previously
// rendered artifact. The requested name is re-sanitized here independent
// of whatever sanitization produced it: a literal ".." segment or an
// embedded path separator is treated as a path-traversal attempt (403,
// per spec.md), any other name outside engine.IsSafeFilename's allowed
// character set is just malformed (400), and anything not found on disk
// is a 404 — in that priority order, before the name ever reaches the
// filesystem.
func (h *Handlers) ServeDiagram(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") || filepath.IsAbs(filename) {
		c.Status(http.StatusForbidden)
		return
	}
	if !engine.IsSafeFilename(filename) {
		c.Status(http.StatusBadRequest)
		return
	}

	fullPath := filepath.Join(h.Config.OutputDir, filename)
	if _, err := os.Stat(fullPath); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.File(fullPath)
}
