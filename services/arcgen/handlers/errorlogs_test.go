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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/observability"
)

func TestErrorLogsReturnsRecordedLines(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{})
	h.Logs.Append("req-123", observability.LogLine{Time: time.Now(), Level: "error", Message: "render failed"})

	req := httptest.NewRequest(http.MethodGet, "/api/error-logs/req-123", nil)
	c, w := newTestContext(t)
	c.Request = req
	c.Params = gin.Params{{Key: "request_id", Value: "req-123"}}
	h.ErrorLogs(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.ErrorLogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RequestID != "req-123" || len(resp.Lines) != 1 || resp.Lines[0].Message != "render failed" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestErrorLogsUnknownRequestIDIs404(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/error-logs/never-seen", nil)
	c, w := newTestContext(t)
	c.Request = req
	c.Params = gin.Params{{Key: "request_id", Value: "never-seen"}}
	h.ErrorLogs(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}
