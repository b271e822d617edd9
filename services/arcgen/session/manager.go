// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"time"
)

// Manager bundles the session store with the artifact-retention sweep that
// shares its lifecycle; service.go holds exactly one Manager for the
// process.
type Manager struct {
	Store     *Store
	Artifacts *ArtifactRetention
}

// ManagerConfig is the subset of config.ArcgenConfig the session package
// needs, kept narrow so this package does not import config directly.
type ManagerConfig struct {
	OutputDir                 string
	SessionTTLSeconds         int
	ArtifactTTLSeconds        int
	SessionSweepIntervalSecs  int
	ArtifactSweepIntervalSecs int
}

// NewManager builds the store and artifact retention sweep from cfg, in
// seconds rather than time.Duration so callers can pass config.ArcgenConfig
// fields directly without importing time at the call site.
func NewManager(cfg ManagerConfig) *Manager {
	sessionTTL := time.Duration(cfg.SessionTTLSeconds) * time.Second
	sessionInterval := time.Duration(cfg.SessionSweepIntervalSecs) * time.Second
	artifactTTL := time.Duration(cfg.ArtifactTTLSeconds) * time.Second
	artifactInterval := time.Duration(cfg.ArtifactSweepIntervalSecs) * time.Second

	return &Manager{
		Store:     NewStore(sessionTTL, sessionInterval),
		Artifacts: NewArtifactRetention(cfg.OutputDir, artifactTTL, artifactInterval),
	}
}

// Start starts both background sweeps. The caller's context governs
// shutdown for both.
func (m *Manager) Start(ctx context.Context) {
	m.Store.StartSweep(ctx)
	m.Artifacts.Start(ctx)
}

// Stop stops both background sweeps.
func (m *Manager) Stop() {
	m.Store.StopSweep()
	m.Artifacts.Stop()
}
