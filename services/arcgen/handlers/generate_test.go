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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

func TestGenerateDiagramHappyPath(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})

	body, _ := json.Marshal(datatypes.GenerateDiagramRequest{Description: "a lambda function writing to dynamodb"})
	req := httptest.NewRequest(http.MethodPost, "/api/generate-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req

	h.GenerateDiagram(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.GenerateDiagramResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a non-empty session id")
	}
	if resp.GenerationID == "" {
		t.Error("expected a non-empty generation id")
	}
	if resp.GeneratedCode == "" {
		t.Error("expected non-empty generated code")
	}

	if _, ok := h.Sessions.Store.Get(resp.SessionID); !ok {
		t.Error("expected session to be stored")
	}
}

func TestGenerateDiagramReturnsOneURLPerOutFormat(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})

	body, _ := json.Marshal(datatypes.GenerateDiagramRequest{
		Description: "a lambda function writing to dynamodb",
		OutFormat:   []datatypes.OutFormat{datatypes.FormatPNG, datatypes.FormatSVG},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/generate-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req

	h.GenerateDiagram(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.GenerateDiagramResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.DiagramURLs) != 2 {
		t.Fatalf("got %d diagram URLs, want 2: %v", len(resp.DiagramURLs), resp.DiagramURLs)
	}
	if resp.DiagramURL != resp.DiagramURLs[0] {
		t.Errorf("diagram_url = %q, want it to match diagram_urls[0] = %q", resp.DiagramURL, resp.DiagramURLs[0])
	}
}

func TestGenerateDiagramRejectsUnrelatedDescription(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})

	body, _ := json.Marshal(datatypes.GenerateDiagramRequest{Description: "write me a poem about the ocean"})
	req := httptest.NewRequest(http.MethodPost, "/api/generate-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req

	h.GenerateDiagram(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "input_rejected" {
		t.Errorf("error kind = %q, want input_rejected", resp.Error)
	}
}

func TestGenerateDiagramRejectsMissingDescription(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})

	req := httptest.NewRequest(http.MethodPost, "/api/generate-diagram", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req

	h.GenerateDiagram(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestGenerateDiagramSurfacesResolverDiagnostic(t *testing.T) {
	badResponse := `{
		"message": "a mystery box",
		"spec": {
			"title": "Mystery",
			"provider": "aws",
			"components": [
				{"id": "x", "name": "thing", "type": "totally-unknown-widget-xyz"}
			]
		}
	}`
	h := newTestHandlers(t, &fakeLLMClient{response: badResponse})

	body, _ := json.Marshal(datatypes.GenerateDiagramRequest{Description: "a mystery aws widget"})
	req := httptest.NewRequest(http.MethodPost, "/api/generate-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req

	h.GenerateDiagram(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "resolver_error" {
		t.Errorf("error kind = %q, want resolver_error", resp.Error)
	}
	if resp.Diagnostic == nil {
		t.Error("expected a resolver diagnostic payload")
	}
}
