// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the interface and backends used to turn a natural
// language description (or a chat-style modification against a prior spec)
// into a datatypes.ArchitectureSpec.
//
// # Architecture
//
// The package follows the interface-first pattern: LLMClient defines the
// contract, OpenAIClient and LangChainClient each implement it against a
// different backend, selectable via config.ArcgenConfig.LLMBackend. Both
// backends are handed the same system/user message pair built by
// BuildMessages and must return a single JSON object parseable by
// ParseSpecResponse — the prompt, not the backend, is what keeps the two
// implementations interchangeable.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; the orchestrator calls
// LLMClient from multiple in-flight requests simultaneously.
package llm

import (
	"context"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

// Message is one turn in the conversation handed to the LLM: the system
// prompt, the user's description or modification, and (for modify-diagram)
// the prior assistant turn carrying the spec being modified.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerationParams holds the sampling parameters threaded through to a
// backend. Fields are pointers so a zero-value GenerationParams always
// means "use the backend's default".
type GenerationParams struct {
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	Stop        []string
}

// LLMClient abstracts LLM interactions so generate-diagram and
// modify-diagram can call either backend interchangeably.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type LLMClient interface {
	// Chat sends messages and returns the assistant's complete response.
	// Implementations must respect ctx cancellation and return promptly
	// on a timed-out or cancelled context rather than leaking the
	// underlying HTTP request.
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)
}

// SpecResult pairs the parsed architecture spec with the free-text message
// the LLM wrote to accompany it (surfaced to the caller as the HTTP
// response's "message" field).
type SpecResult struct {
	Spec    datatypes.ArchitectureSpec
	Message string
}
