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
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangChainClient is the alternate LLMClient backend, selected when
// config.ArcgenConfig.LLMBackend is "langchain". It wraps langchaingo's
// model abstraction rather than calling a provider SDK directly, which
// buys interchangeability with any chat model langchaingo supports without
// this package growing a backend per provider.
type LangChainClient struct {
	model llms.Model
}

// NewLangChainClient builds a LangChainClient over langchaingo's OpenAI
// chat model. apiKey and model mirror OpenAIClient's.
func NewLangChainClient(apiKey, model string) (*LangChainClient, error) {
	if model == "" {
		model = "gpt-4o-mini"
	}
	m, err := lcopenai.New(lcopenai.WithToken(apiKey), lcopenai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("langchain openai model: %w", err)
	}
	return &LangChainClient{model: m}, nil
}

// Chat implements LLMClient.
func (c *LangChainClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	content := toLangChainContent(messages)

	opts := []llms.CallOption{}
	if params.Temperature != nil {
		opts = append(opts, llms.WithTemperature(float64(*params.Temperature)))
	}
	if params.TopP != nil {
		opts = append(opts, llms.WithTopP(float64(*params.TopP)))
	}
	if params.MaxTokens != nil {
		opts = append(opts, llms.WithMaxTokens(*params.MaxTokens))
	}
	if len(params.Stop) > 0 {
		opts = append(opts, llms.WithStopWords(params.Stop))
	}

	resp, err := c.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		slog.Error("langchain generate content failed", "error", err)
		return "", fmt.Errorf("langchain generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("langchain returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func toLangChainContent(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, len(messages))
	for i, m := range messages {
		out[i] = llms.TextParts(roleToLangChainType(m.Role), m.Content)
	}
	return out
}

func roleToLangChainType(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
