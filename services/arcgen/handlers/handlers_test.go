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
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/advisor"
	"github.com/arcgen/arcgen/services/arcgen/config"
	"github.com/arcgen/arcgen/services/arcgen/engine"
	"github.com/arcgen/arcgen/services/arcgen/feedback"
	"github.com/arcgen/arcgen/services/arcgen/llm"
	"github.com/arcgen/arcgen/services/arcgen/observability"
	"github.com/arcgen/arcgen/services/arcgen/progress"
	"github.com/arcgen/arcgen/services/arcgen/registry"
	"github.com/arcgen/arcgen/services/arcgen/resolver"
	"github.com/arcgen/arcgen/services/arcgen/session"
	"github.com/arcgen/arcgen/services/arcgen/symbolindex"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeLLMClient returns a fixed response regardless of the messages it is
// given, or the configured error.
type fakeLLMClient struct {
	response string
	err      error
}

func (f *fakeLLMClient) Chat(ctx context.Context, messages []llm.Message, params llm.GenerationParams) (string, error) {
	return f.response, f.err
}

const fakeLambdaDynamoResponse = `{
  "message": "a lambda function writing to dynamodb",
  "spec": {
    "title": "Serverless Write Path",
    "provider": "aws",
    "components": [
      {"id": "fn", "name": "handler", "type": "lambda"},
      {"id": "tbl", "name": "orders", "type": "dynamodb"}
    ],
    "connections": [
      {"from_id": "fn", "to_id": "tbl", "direction": "forward"}
    ]
  }
}`

// newTestHandlers builds a Handlers wired against the real registry,
// resolver, advisor and engine (pointed at a fake interpreter so Render
// succeeds without a real Diagrams installation), a fresh in-memory
// session manager, and the given LLM client.
func newTestHandlers(t *testing.T, llmClient llm.LLMClient) *Handlers {
	t.Helper()

	reg, err := registry.Load("../registry/data")
	if err != nil {
		t.Fatalf("failed to load registry: %v", err)
	}
	idx := symbolindex.New(registry.NewGeneratedTable(reg))
	res := resolver.New(idx, reg, "v0.20.0", nil)
	adv := advisor.New(reg)

	eng := engine.New(t.TempDir(), 0, nil)
	eng.SetPythonBin("true")

	sessions := session.NewManager(session.ManagerConfig{
		OutputDir:                 t.TempDir(),
		SessionTTLSeconds:         3600,
		ArtifactTTLSeconds:        86400,
		SessionSweepIntervalSecs:  300,
		ArtifactSweepIntervalSecs: 300,
	})

	cfg := config.DefaultConfig()
	cfg.RequestTimeoutSeconds = 5

	return New(reg, res, adv, eng, sessions, llmClient, feedback.NoopSink{}, feedback.NoopStats{},
		observability.NewTestMetrics(), observability.NewRequestLog(), progress.NewHub(), cfg)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}
