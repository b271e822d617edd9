// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package feedback

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// FeedbackClassName is the Weaviate class feedback entries are stored
// under.
const FeedbackClassName = "ArcgenFeedback"

// feedbackSchema mirrors the teacher's GetDocumentSchema shape: a simple,
// unvectorized class (Vectorizer "none") with filterable text/int/number
// properties, since feedback entries are looked up by session/generation
// id rather than searched semantically.
func feedbackSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:      FeedbackClassName,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "session_id", DataType: []string{"text"}, IndexFilterable: indexFilterable, Tokenization: "field"},
			{Name: "generation_id", DataType: []string{"text"}, IndexFilterable: indexFilterable, Tokenization: "field"},
			{Name: "rating", DataType: []string{"int"}, IndexFilterable: indexFilterable},
			{Name: "comment", DataType: []string{"text"}},
			{Name: "provider", DataType: []string{"text"}, IndexFilterable: indexFilterable, Tokenization: "field"},
			{Name: "submitted_at", DataType: []string{"number"}, IndexFilterable: indexFilterable},
		},
	}
}

// WeaviateSink persists feedback entries to a Weaviate instance, matching
// the teacher's lightweight-mode-if-unconfigured pattern: NewWeaviateSink
// returns a usable Sink even when rawURL is empty, at which point Record
// is a no-op rather than an error.
type WeaviateSink struct {
	client *weaviate.Client
}

// NewWeaviateSink parses rawURL and connects to Weaviate, ensuring the
// feedback class exists. An empty rawURL yields a Sink that behaves like
// NoopSink.
func NewWeaviateSink(rawURL string) (*WeaviateSink, error) {
	rawURL = strings.Trim(rawURL, "\"' ")
	if rawURL == "" {
		return &WeaviateSink{}, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid weaviate url %q: %w", rawURL, err)
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: parsed.Host, Scheme: parsed.Scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.Schema().ClassExistenceChecker().WithClassName(FeedbackClassName).Do(ctx)
	if err == nil && !exists {
		_ = client.Schema().ClassCreator().WithClass(feedbackSchema()).Do(ctx)
	}

	return &WeaviateSink{client: client}, nil
}

// Record implements Sink.
func (s *WeaviateSink) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.client == nil {
		return nil
	}

	properties := map[string]interface{}{
		"session_id":    entry.SessionID,
		"generation_id": entry.GenerationID,
		"rating":        entry.Rating,
		"comment":       entry.Comment,
		"provider":      entry.Provider,
		"submitted_at":  float64(entry.SubmittedAt.UnixMilli()),
	}

	_, err := s.client.Data().Creator().
		WithClassName(FeedbackClassName).
		WithID(strfmt.UUID(uuid.NewString())).
		WithProperties(properties).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}
