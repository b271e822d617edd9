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
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

const generationMeasurement = "diagram_generation"

// InfluxStats records per-generation latency/rating samples to InfluxDB
// and reads them back as an aggregate summary, grounded on the teacher's
// handlers/timeseries.go query shape and services/data_fetcher/main.go's
// write shape — one package here covers both directions since arcgen only
// has one measurement to manage, unlike the teacher's multi-ticker setup.
type InfluxStats struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxStats connects to url with token; org/bucket select the
// destination. An empty url yields an InfluxStats that behaves like
// NoopStats (nil client, all methods no-op).
func NewInfluxStats(url, token, org, bucket string) *InfluxStats {
	if url == "" {
		return &InfluxStats{}
	}
	client := influxdb2.NewClient(url, token)
	return &InfluxStats{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		org:      org,
		bucket:   bucket,
	}
}

// Close releases the underlying HTTP client.
func (s *InfluxStats) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

// RecordGeneration implements StatsRecorder.
func (s *InfluxStats) RecordGeneration(ctx context.Context, provider string, latency time.Duration, rating *int) error {
	if s == nil || s.client == nil {
		return nil
	}

	fields := map[string]interface{}{
		"latency_ms": latency.Milliseconds(),
	}
	if rating != nil {
		fields["rating"] = *rating
	}

	point := influxdb2.NewPoint(
		generationMeasurement,
		map[string]string{"provider": provider},
		fields,
		time.Now(),
	)

	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("write influxdb point: %w", err)
	}
	return nil
}

// Summarize implements StatsReader, aggregating rating samples over the
// trailing window.
func (s *InfluxStats) Summarize(ctx context.Context, window time.Duration) (Summary, error) {
	if s == nil || s.client == nil {
		return Summary{ByProvider: map[string]int{}}, nil
	}

	queryAPI := s.client.QueryAPI(s.org)
	query := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -%ds)
		  |> filter(fn: (r) => r._measurement == "%s")
		  |> filter(fn: (r) => r._field == "rating")
	`, s.bucket, int(window.Seconds()), generationMeasurement)

	result, err := queryAPI.Query(ctx, query)
	if err != nil {
		return Summary{}, fmt.Errorf("query influxdb: %w", err)
	}

	summary := Summary{ByProvider: map[string]int{}}
	var total float64
	for result.Next() {
		rec := result.Record()
		switch val := rec.Value().(type) {
		case float64:
			total += val
			summary.Count++
		case int64:
			total += float64(val)
			summary.Count++
		}
		if provider, ok := rec.ValueByKey("provider").(string); ok {
			summary.ByProvider[provider]++
		}
	}
	if result.Err() != nil {
		return Summary{}, fmt.Errorf("influxdb result error: %w", result.Err())
	}
	if summary.Count > 0 {
		summary.AverageRating = total / float64(summary.Count)
	}
	return summary, nil
}
