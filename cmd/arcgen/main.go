// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command arcgen starts the arcgen diagram-generation HTTP server.
//
// Configuration is read from ~/.arcgen/arcgen.yaml (or the path named by
// ARCGEN_CONFIG), created with defaults on first run, then overridden by
// the ARCGEN_* environment variables read by config's applyEnvOverrides.
package main

import (
	"log"
	"log/slog"
	"os"

	arcgen "github.com/arcgen/arcgen/services/arcgen"
	"github.com/arcgen/arcgen/services/arcgen/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Load(); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	cfg := config.Global

	slog.Info("starting arcgen",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"artifact_store_backend", cfg.ArtifactStoreBackend,
		"feedback_backend", cfg.FeedbackBackend,
	)

	svc, err := arcgen.New(cfg)
	if err != nil {
		log.Fatalf("failed to construct arcgen service: %v", err)
	}
	if err := svc.Run(); err != nil {
		log.Fatalf("arcgen server error: %v", err)
	}
}
