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
	"time"
)

// Summary is the aggregate GET /api/feedback/stats response.
type Summary struct {
	Count         int
	AverageRating float64
	ByProvider    map[string]int
}

// StatsRecorder writes per-request latency/rating samples to a time series
// backend; StatsReader reads the aggregate back. A single type implements
// both for a given backend, but handlers only need one side at a time.
type StatsRecorder interface {
	RecordGeneration(ctx context.Context, provider string, latency time.Duration, rating *int) error
}

type StatsReader interface {
	Summarize(ctx context.Context, window time.Duration) (Summary, error)
}

// NoopStats discards samples and reports an empty summary. It is the
// default when feedback_stats_backend is "none".
type NoopStats struct{}

func (NoopStats) RecordGeneration(ctx context.Context, provider string, latency time.Duration, rating *int) error {
	return nil
}

func (NoopStats) Summarize(ctx context.Context, window time.Duration) (Summary, error) {
	return Summary{ByProvider: map[string]int{}}, nil
}
