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
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/middleware"
	"github.com/arcgen/arcgen/services/arcgen/observability"
)

// respondError classifies err via HTTPStatus, logs it at the appropriate
// level (non-fatal 4xx at INFO, 5xx at ERROR), records it under the
// request's id in the bounded request log, and writes the JSON error
// envelope. route is the metrics label.
func (h *Handlers) respondError(c *gin.Context, route string, err error) {
	status := HTTPStatus(err)
	kind := errorKind(err)
	requestID := middleware.RequestID(c)

	if status >= 500 {
		slog.Error("request failed", "request_id", requestID, "route", route, "kind", kind, "error", err)
	} else {
		slog.Info("request rejected", "request_id", requestID, "route", route, "kind", kind, "error", err)
	}
	if h.Logs != nil {
		h.Logs.Append(requestID, observability.LogLine{Time: time.Now(), Level: "ERROR", Message: kind + ": " + err.Error()})
	}
	if h.Metrics != nil {
		h.Metrics.RecordRequest(route, statusLabel(status), 0)
	}

	resp := datatypes.ErrorResponse{Error: kind, Message: err.Error()}
	var resolverErr *datatypes.ResolverErr
	if errors.As(err, &resolverErr) {
		resp.Diagnostic = resolverErr.Diagnostic
	}
	var renderErr *datatypes.RenderFailureErr
	if errors.As(err, &renderErr) {
		resp.Diagnostic = renderErr.Failure
	}
	c.AbortWithStatusJSON(status, resp)
}

func statusLabel(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
