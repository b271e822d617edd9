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

// ErrorLogs handles GET /api/error-logs/{request_id}: the bounded set of
// log lines respond.go's respondError (and ordinary request logging)
// recorded against request_id, for a client correlating a failed call
// against X-Request-ID with what the server actually logged.
func (h *Handlers) ErrorLogs(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		h.respondError(c, "error_logs", fmt.Errorf("%w: missing request_id", datatypes.ErrValidation))
		return
	}

	lines, ok := h.Logs.Lines(requestID)
	if !ok {
		h.respondError(c, "error_logs", fmt.Errorf("%w: no log lines retained for %s", datatypes.ErrNotFound, requestID))
		return
	}

	out := make([]datatypes.LogLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, datatypes.LogLine{
			Time:    l.Time.Format("2006-01-02T15:04:05.000Z07:00"),
			Level:   l.Level,
			Message: l.Message,
		})
	}

	c.JSON(http.StatusOK, datatypes.ErrorLogsResponse{
		RequestID: requestID,
		Lines:     out,
	})
}
