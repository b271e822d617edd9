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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/registry"
)

const systemPromptTemplate = `You design cloud architecture diagrams. Given a description, respond with
a single JSON object and nothing else — no markdown fences, no commentary
outside the object.

The object has this shape:
{
  "message": "one or two sentences describing what you built",
  "spec": {
    "title": "short diagram title",
    "provider": %q,
    "components": [
      {"id": "stable-slug", "name": "Display Name", "type": "loose type identifier"}
    ],
    "connections": [
      {"from_id": "...", "to_id": "...", "label": "optional", "direction": "forward"}
    ]
  }
}

"type" identifiers do not need to be exact class names; common names like
"lambda", "public subnet", "load balancer" or "rds database" are resolved
downstream. Known identifiers for this provider include: %s.
Every connection's from_id/to_id must reference a component id declared in
"components". direction is one of "forward", "backward", "bidirectional".`

// BuildMessages assembles the system+user message pair for a fresh
// generate-diagram request. reg supplies the known type-id vocabulary hint;
// it is advisory only, since the resolver's contextual and fuzzy stages
// accept identifiers outside this list.
func BuildMessages(reg *registry.Registry, provider datatypes.Provider, description string) []Message {
	ids := reg.AllTypeIDs(string(provider))
	sort.Strings(ids)
	hint := strings.Join(ids, ", ")

	return []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(systemPromptTemplate, provider, hint)},
		{Role: RoleUser, Content: description},
	}
}

// BuildModificationMessages extends a prior conversation with a follow-up
// modification request, carrying the current spec back to the model as the
// prior assistant turn so the LLM edits it rather than starting over.
func BuildModificationMessages(reg *registry.Registry, current datatypes.ArchitectureSpec, modification string) ([]Message, error) {
	specJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("marshal current spec: %w", err)
	}

	msgs := BuildMessages(reg, current.Provider, modification)
	priorTurn := Message{
		Role:    RoleAssistant,
		Content: fmt.Sprintf(`{"message":"current diagram","spec":%s}`, specJSON),
	}
	// insert the prior turn between system and the new user request.
	return []Message{msgs[0], priorTurn, msgs[1]}, nil
}

// specEnvelope mirrors the JSON object the system prompt asks the model to
// return.
type specEnvelope struct {
	Message string                     `json:"message"`
	Spec    datatypes.ArchitectureSpec `json:"spec"`
}

// ParseSpecResponse extracts the JSON envelope from raw, tolerating a
// leading/trailing markdown code fence some backends add despite being told
// not to.
func ParseSpecResponse(raw string) (SpecResult, error) {
	trimmed := stripCodeFence(raw)

	var env specEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return SpecResult{}, fmt.Errorf("%w: parse LLM response as JSON: %v", datatypes.ErrInternal, err)
	}
	return SpecResult{Spec: env.Spec, Message: env.Message}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
