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

import "fmt"

// New builds the LLMClient selected by backend ("openai" or "langchain"),
// using apiKey and model for whichever is chosen.
func New(backend, apiKey, model string) (LLMClient, error) {
	switch backend {
	case "", "openai":
		return NewOpenAIClient(apiKey, model), nil
	case "langchain":
		return NewLangChainClient(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown llm backend %q", backend)
	}
}
