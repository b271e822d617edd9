// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// ArtifactMirror best-effort-uploads rendered artifacts to a GCS bucket
// under the same sanitized filename they were written locally under. This
// supplements, but never replaces, local TTL-swept storage: a mirror
// upload failure is logged, not returned to the caller, and
// GET /api/diagrams/{filename} always serves from the local output
// directory first.
//
// Grounded directly on cmd/aleutian/gcs/client.go's Client, adapted from a
// generic directory-uploading CLI helper to a single-artifact mirror
// invoked right after a successful render.
type ArtifactMirror struct {
	client *storage.Client
	bucket string
}

// NewArtifactMirror opens a GCS client using application-default
// credentials. If bucket is empty, mirroring is disabled and Upload is a
// no-op; callers do not need to special-case this.
func NewArtifactMirror(ctx context.Context, bucket string) (*ArtifactMirror, error) {
	if bucket == "" {
		return &ArtifactMirror{}, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &ArtifactMirror{client: client, bucket: bucket}, nil
}

// Upload mirrors localPath to the bucket under its base filename,
// logging (never returning) a failure.
func (m *ArtifactMirror) Upload(ctx context.Context, localPath string) {
	if m == nil || m.client == nil {
		return
	}
	gcsPath := filepath.Base(localPath)

	localFile, err := os.Open(localPath)
	if err != nil {
		slog.Warn("artifact mirror: failed to open local file", "path", localPath, "error", err)
		return
	}
	defer localFile.Close()

	obj := m.client.Bucket(m.bucket).Object(gcsPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/octet-stream"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, localFile); err != nil {
		slog.Warn("artifact mirror: upload failed", "path", localPath, "error", err)
		return
	}
	if err := writer.Close(); err != nil {
		slog.Warn("artifact mirror: failed to finalize upload", "path", localPath, "error", err)
		return
	}
	slog.Info("artifact mirrored to cold storage", "bucket", m.bucket, "object", gcsPath)
}

// Close releases the underlying GCS client, if any.
func (m *ArtifactMirror) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}
