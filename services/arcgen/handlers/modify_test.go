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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

var errShouldNotBeCalled = errors.New("fakeLLMClient.Chat should not have been called")

const fakeModifiedResponse = `{
  "message": "added an s3 bucket",
  "spec": {
    "title": "Serverless Write Path",
    "provider": "aws",
    "components": [
      {"id": "fn", "name": "handler", "type": "lambda"},
      {"id": "tbl", "name": "orders", "type": "dynamodb"},
      {"id": "bkt", "name": "archive", "type": "s3"}
    ],
    "connections": [
      {"from_id": "fn", "to_id": "tbl", "direction": "forward"},
      {"from_id": "fn", "to_id": "bkt", "direction": "forward"}
    ]
  }
}`

func createTestSession(t *testing.T, h *Handlers) string {
	t.Helper()
	body, _ := json.Marshal(datatypes.GenerateDiagramRequest{Description: "a lambda function writing to dynamodb"})
	req := httptest.NewRequest(http.MethodPost, "/api/generate-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req
	h.GenerateDiagram(c)

	if w.Code != http.StatusOK {
		t.Fatalf("failed to create test session: status %d, body %s", w.Code, w.Body.String())
	}
	var resp datatypes.GenerateDiagramResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session creation response: %v", err)
	}
	return resp.SessionID
}

func TestModifyDiagramAppliesChangeAndRecordsUndo(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})
	sessionID := createTestSession(t, h)

	h.LLM = &fakeLLMClient{response: fakeModifiedResponse}

	body, _ := json.Marshal(datatypes.ModifyDiagramRequest{SessionID: sessionID, Modification: "also archive to s3"})
	req := httptest.NewRequest(http.MethodPost, "/api/modify-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req
	h.ModifyDiagram(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.DiagramMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.UpdatedSpec.Components) != 3 {
		t.Errorf("expected 3 components after modification, got %d", len(resp.UpdatedSpec.Components))
	}

	sess, ok := h.Sessions.Store.Get(sessionID)
	if !ok {
		t.Fatal("expected session to still exist")
	}
	sess.Lock()
	undoDepth := len(sess.UndoStack)
	sess.Unlock()
	if undoDepth != 1 {
		t.Errorf("expected one entry pushed to the undo stack, got %d", undoDepth)
	}
}

func TestModifyDiagramUnknownSessionReturnsNotFound(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})

	body, _ := json.Marshal(datatypes.ModifyDiagramRequest{SessionID: "does-not-exist", Modification: "anything"})
	req := httptest.NewRequest(http.MethodPost, "/api/modify-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req
	h.ModifyDiagram(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}

func TestUndoDiagramRestoresPriorSpec(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})
	sessionID := createTestSession(t, h)

	h.LLM = &fakeLLMClient{response: fakeModifiedResponse}
	modifyBody, _ := json.Marshal(datatypes.ModifyDiagramRequest{SessionID: sessionID, Modification: "also archive to s3"})
	modifyReq := httptest.NewRequest(http.MethodPost, "/api/modify-diagram", bytes.NewReader(modifyBody))
	modifyReq.Header.Set("Content-Type", "application/json")
	modifyCtx, modifyW := newTestContext(t)
	modifyCtx.Request = modifyReq
	h.ModifyDiagram(modifyCtx)
	if modifyW.Code != http.StatusOK {
		t.Fatalf("modify failed: status %d, body %s", modifyW.Code, modifyW.Body.String())
	}

	undoBody, _ := json.Marshal(datatypes.UndoDiagramRequest{SessionID: sessionID})
	undoReq := httptest.NewRequest(http.MethodPost, "/api/undo-diagram", bytes.NewReader(undoBody))
	undoReq.Header.Set("Content-Type", "application/json")
	c, w := newTestContext(t)
	c.Request = undoReq
	h.UndoDiagram(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.DiagramMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.UpdatedSpec.Components) != 2 {
		t.Errorf("expected the restored spec to have 2 components, got %d", len(resp.UpdatedSpec.Components))
	}
}

func TestUndoDiagramEmptyStackIsRejected(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})
	sessionID := createTestSession(t, h)

	body, _ := json.Marshal(datatypes.UndoDiagramRequest{SessionID: sessionID})
	req := httptest.NewRequest(http.MethodPost, "/api/undo-diagram", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req
	h.UndoDiagram(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestRegenerateFormatChangesOutFormatWithoutLLMCall(t *testing.T) {
	h := newTestHandlers(t, &fakeLLMClient{response: fakeLambdaDynamoResponse})
	sessionID := createTestSession(t, h)

	h.LLM = &fakeLLMClient{err: errShouldNotBeCalled}

	body, _ := json.Marshal(datatypes.RegenerateFormatRequest{SessionID: sessionID, OutFormat: []datatypes.OutFormat{datatypes.FormatSVG}})
	req := httptest.NewRequest(http.MethodPost, "/api/regenerate-format", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	c, w := newTestContext(t)
	c.Request = req
	h.RegenerateFormat(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp datatypes.DiagramMutationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.UpdatedSpec.OutFormat) != 1 || resp.UpdatedSpec.OutFormat[0] != datatypes.FormatSVG {
		t.Errorf("expected out_format [svg], got %+v", resp.UpdatedSpec.OutFormat)
	}
}
