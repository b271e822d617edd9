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

	"github.com/gin-gonic/gin"
)

// healthResponse is GET /health's body.
type healthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /health: an unconditional liveness probe. It does not
// check downstream dependencies (LLM reachability, feedback backends) —
// those degrade to no-ops or timeouts on their own call paths rather than
// taking the whole process down.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "healthy"})
}
