// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"sync"
	"time"
)

// MaxUndoDepth bounds the per-session undo stack.
const MaxUndoDepth = 10

// Session ties a client's successive modifications to the last successful
// spec. The session store exclusively owns Session values; callers mutate
// them only through the store's methods, which take Lock.
type Session struct {
	mu sync.Mutex

	SessionID     string
	Spec          ArchitectureSpec
	UndoStack     []ArchitectureSpec
	ArtifactPaths []string
	LastSource    string
	CreatedAt     time.Time
	LastAccess    time.Time
}

// NewSession constructs a session holding the given initial spec.
func NewSession(sessionID string, spec ArchitectureSpec, artifactPaths []string, source string, now time.Time) *Session {
	return &Session{
		SessionID:     sessionID,
		Spec:          spec,
		ArtifactPaths: artifactPaths,
		LastSource:    source,
		CreatedAt:     now,
		LastAccess:    now,
	}
}

// Lock acquires the session's per-session mutex, serializing modify/undo/
// regenerate-format against each other while leaving reads (diagram
// serving, metadata lookup) unserialized.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session's per-session mutex.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// PushUndo snapshots the current spec onto the bounded undo stack before it
// is replaced by a modification. Must be called with the session locked.
func (s *Session) PushUndo() {
	s.UndoStack = append(s.UndoStack, s.Spec.Clone())
	if len(s.UndoStack) > MaxUndoDepth {
		s.UndoStack = s.UndoStack[len(s.UndoStack)-MaxUndoDepth:]
	}
}

// PopUndo pops the most recent snapshot off the undo stack and returns it.
// The second return value is false if the stack is empty. Must be called
// with the session locked.
func (s *Session) PopUndo() (ArchitectureSpec, bool) {
	if len(s.UndoStack) == 0 {
		return ArchitectureSpec{}, false
	}
	n := len(s.UndoStack) - 1
	prior := s.UndoStack[n]
	s.UndoStack = s.UndoStack[:n]
	return prior, true
}

// Touch refreshes LastAccess. Must be called with the session locked, or
// under the store's CAS-on-LastAccess update path.
func (s *Session) Touch(now time.Time) {
	s.LastAccess = now
}

// IsExpired reports whether the session has been idle longer than ttl as
// of now.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastAccess) > ttl
}
