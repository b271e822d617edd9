// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/registry"
)

// GenerateSpec turns a fresh natural-language description into a
// SpecResult by building the prompt, calling client, and parsing the
// response.
func GenerateSpec(ctx context.Context, client LLMClient, reg *registry.Registry, provider datatypes.Provider, description string, params GenerationParams) (SpecResult, error) {
	messages := BuildMessages(reg, provider, description)
	raw, err := client.Chat(ctx, messages, params)
	if err != nil {
		return SpecResult{}, err
	}
	return ParseSpecResponse(raw)
}

// ModifySpec turns a chat-style modification request against an existing
// spec into an updated SpecResult.
func ModifySpec(ctx context.Context, client LLMClient, reg *registry.Registry, current datatypes.ArchitectureSpec, modification string, params GenerationParams) (SpecResult, error) {
	messages, err := BuildModificationMessages(reg, current, modification)
	if err != nil {
		return SpecResult{}, err
	}
	raw, err := client.Chat(ctx, messages, params)
	if err != nil {
		return SpecResult{}, err
	}
	return ParseSpecResponse(raw)
}
