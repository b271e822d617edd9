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
	"testing"
	"time"
)

func TestNoopSinkRecordIsNoop(t *testing.T) {
	var s NoopSink
	if err := s.Record(context.Background(), Entry{SessionID: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNoopStatsSummarizeIsEmpty(t *testing.T) {
	var s NoopStats
	summary, err := s.Summarize(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Count != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestNewSinkDefaultsToNoop(t *testing.T) {
	s, err := NewSink("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(NoopSink); !ok {
		t.Errorf("expected NoopSink for empty backend, got %T", s)
	}
}

func TestNewSinkUnknownBackend(t *testing.T) {
	if _, err := NewSink("bogus", ""); err == nil {
		t.Error("expected error for unknown feedback backend")
	}
}

func TestNewSinkWeaviateEmptyURLIsLightweight(t *testing.T) {
	s, err := NewSink("weaviate", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Record(context.Background(), Entry{SessionID: "x"}); err != nil {
		t.Errorf("expected lightweight-mode Record to be a no-op, got error: %v", err)
	}
}

func TestNewStatsDefaultsToNoop(t *testing.T) {
	s, err := NewStats("", "", "", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(NoopStats); !ok {
		t.Errorf("expected NoopStats for empty backend, got %T", s)
	}
}

func TestNewStatsUnknownBackend(t *testing.T) {
	if _, err := NewStats("bogus", "", "", "", ""); err == nil {
		t.Error("expected error for unknown stats backend")
	}
}

func TestNewInfluxStatsEmptyURLIsLightweight(t *testing.T) {
	s := NewInfluxStats("", "", "", "")
	if err := s.RecordGeneration(context.Background(), "aws", time.Second, nil); err != nil {
		t.Errorf("expected lightweight-mode RecordGeneration to be a no-op, got error: %v", err)
	}
	summary, err := s.Summarize(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Count != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}
