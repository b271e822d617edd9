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
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

// Store is a concurrent map of session id to *datatypes.Session, with a
// background idle-eviction sweep. The store's own lock only ever guards
// the map itself (insertion, lookup, eviction) — never a render call,
// which is serialized instead by the individual Session's own mutex (see
// datatypes.Session.Lock/Unlock).
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*datatypes.Session
	ttl      time.Duration
	sched    *scheduler
}

// NewStore creates a Store whose idle sweep runs every sweepInterval and
// evicts sessions idle longer than ttl. The sweep is not started until
// StartSweep is called.
func NewStore(ttl, sweepInterval time.Duration) *Store {
	s := &Store{sessions: make(map[string]*datatypes.Session), ttl: ttl}
	s.sched = newScheduler("session-sweep", sweepInterval, s.sweep)
	return s
}

// StartSweep starts the background idle-session sweep.
func (s *Store) StartSweep(ctx context.Context) { s.sched.Start(ctx) }

// StopSweep stops the background idle-session sweep.
func (s *Store) StopSweep() { s.sched.Stop() }

// Create inserts a new session for spec with a freshly generated id and
// returns it.
func (s *Store) Create(spec datatypes.ArchitectureSpec, artifactPaths []string, sourceCode string) *datatypes.Session {
	now := time.Now()
	sess := datatypes.NewSession(uuid.NewString(), spec, artifactPaths, sourceCode, now)

	s.mu.Lock()
	s.sessions[sess.SessionID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id, touching its last-access time if found.
func (s *Store) Get(id string) (*datatypes.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sess.Lock()
	sess.Touch(time.Now())
	sess.Unlock()
	return sess, true
}

// Delete removes a session outright (used by tests and explicit
// session-termination paths, if any are added later).
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the current session count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweep evicts every session whose last access is older than the
// configured TTL. It locks each candidate session briefly to read
// LastAccess consistently with any in-flight Touch, but never holds the
// store's own lock across a render call.
func (s *Store) sweep(now time.Time) {
	var expired []string

	s.mu.RLock()
	for id, sess := range s.sessions {
		sess.Lock()
		idle := sess.IsExpired(now, s.ttl)
		sess.Unlock()
		if idle {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	s.mu.Lock()
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	slog.Info("session sweep evicted idle sessions", "count", len(expired))
}

// ArtifactRetention sweeps outputDir, deleting files whose modification
// time is older than ttl. It runs independently of the session sweep
// (SPEC_FULL.md's artifact_ttl_seconds / artifact_sweep_interval_seconds)
// since an artifact can outlive the session that produced it (e.g. after
// a regenerate-format call against an already-evicted session's last known
// artifact).
type ArtifactRetention struct {
	outputDir string
	ttl       time.Duration
	sched     *scheduler
}

// NewArtifactRetention creates an ArtifactRetention sweeping outputDir
// every sweepInterval, deleting files older than ttl.
func NewArtifactRetention(outputDir string, ttl, sweepInterval time.Duration) *ArtifactRetention {
	a := &ArtifactRetention{outputDir: outputDir, ttl: ttl}
	a.sched = newScheduler("artifact-retention", sweepInterval, a.sweep)
	return a
}

// Start starts the background artifact sweep.
func (a *ArtifactRetention) Start(ctx context.Context) { a.sched.Start(ctx) }

// Stop stops the background artifact sweep.
func (a *ArtifactRetention) Stop() { a.sched.Stop() }

func (a *ArtifactRetention) sweep(now time.Time) {
	entries, err := os.ReadDir(a.outputDir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("artifact sweep: failed to read output dir", "dir", a.outputDir, "error", err)
		}
		return
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= a.ttl {
			continue
		}
		path := filepath.Join(a.outputDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("artifact sweep: failed to remove expired artifact", "path", path, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		slog.Info("artifact sweep removed expired artifacts", "count", deleted)
	}
}
