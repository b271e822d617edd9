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

import "fmt"

// NewSink selects a Sink by backend name ("none" or "weaviate").
func NewSink(backend, weaviateURL string) (Sink, error) {
	switch backend {
	case "", "none":
		return NoopSink{}, nil
	case "weaviate":
		return NewWeaviateSink(weaviateURL)
	default:
		return nil, fmt.Errorf("unknown feedback backend %q", backend)
	}
}

// StatsBackend bundles both StatsRecorder and StatsReader, since every
// backend this package supports implements both sides on one client.
type StatsBackend interface {
	StatsRecorder
	StatsReader
}

// NewStats selects a StatsBackend by backend name ("none" or "influxdb").
func NewStats(backend, url, token, org, bucket string) (StatsBackend, error) {
	switch backend {
	case "", "none":
		return NoopStats{}, nil
	case "influxdb":
		return NewInfluxStats(url, token, org, bucket), nil
	default:
		return nil, fmt.Errorf("unknown feedback stats backend %q", backend)
	}
}
