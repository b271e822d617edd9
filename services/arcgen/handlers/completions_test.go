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

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

func TestCompletionsReturnsClassesImportsKeywordsOperators(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/completions/aws", nil)
	c, w := newTestContext(t)
	c.Request = req
	c.Params = gin.Params{{Key: "provider", Value: "aws"}}
	h.Completions(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.CompletionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Classes) == 0 {
		t.Error("expected at least one category of classes for aws")
	}
	if len(resp.Imports) == 0 {
		t.Error("expected at least one class -> import mapping for aws")
	}
	if len(resp.Keywords) == 0 || len(resp.Operators) == 0 {
		t.Error("expected non-empty keyword and operator lists")
	}
}

func TestCompletionsUnknownProviderIsRejected(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/completions/not-a-provider", nil)
	c, w := newTestContext(t)
	c.Request = req
	c.Params = gin.Params{{Key: "provider", Value: "not-a-provider"}}
	h.Completions(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}
