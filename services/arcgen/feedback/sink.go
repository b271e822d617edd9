// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package feedback collects user feedback on generated diagrams and serves
// aggregate stats back, against two independently optional backends: a
// Weaviate sink for the raw feedback records and an InfluxDB sink for
// latency/rating time series. Both default to a no-op when unconfigured —
// collection is this package's whole job; applying the feedback to improve
// future generations is explicitly out of scope.
package feedback

import (
	"context"
	"time"
)

// Entry is one submitted feedback record.
type Entry struct {
	SessionID    string
	GenerationID string
	Rating       int // 1-5
	Comment      string
	Provider     string
	SubmittedAt  time.Time
}

// Sink persists feedback entries. Implementations must not block the HTTP
// response path on a slow or unreachable backend for longer than the
// caller's context allows.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// NoopSink discards every entry. It is the default Sink when no backend is
// configured (feedback_backend: none).
type NoopSink struct{}

// Record implements Sink.
func (NoopSink) Record(ctx context.Context, entry Entry) error { return nil }
