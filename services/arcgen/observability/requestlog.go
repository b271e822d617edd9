// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"container/list"
	"sync"
	"time"
)

// maxLinesPerRequest bounds how many log lines RequestLog retains for a
// single request id. Older lines for that request are dropped first.
const maxLinesPerRequest = 200

// maxTrackedRequests bounds how many distinct request ids RequestLog holds
// at once. When the cap is hit, the least-recently-touched request's lines
// are evicted to make room for a new one.
const maxTrackedRequests = 2000

// LogLine is one log entry attributed to a request id.
type LogLine struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type requestEntry struct {
	requestID string
	lines     []LogLine
}

// RequestLog is a bounded, in-memory ring buffer of log lines keyed by
// request id, backing GET /api/error-logs/{request_id}. It exists so the
// last-N lines of a request's log stream are retrievable without standing
// up a log aggregation system: requests evict in least-recently-touched
// order once maxTrackedRequests is exceeded, and each request's own line
// list is capped at maxLinesPerRequest.
type RequestLog struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // list.Element.Value is *requestEntry, front = most recent
	maxLines int
	maxReqs  int
}

// NewRequestLog builds an empty RequestLog.
func NewRequestLog() *RequestLog {
	return &RequestLog{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		maxLines: maxLinesPerRequest,
		maxReqs:  maxTrackedRequests,
	}
}

// Append records a log line for requestID, creating its entry if absent
// and evicting the oldest-touched request if the tracked-request cap is
// exceeded.
func (r *RequestLog) Append(requestID string, line LogLine) {
	if requestID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.entries[requestID]
	if !ok {
		entry := &requestEntry{requestID: requestID}
		elem = r.order.PushFront(entry)
		r.entries[requestID] = elem
		if r.order.Len() > r.maxReqs {
			r.evictOldest()
		}
	} else {
		r.order.MoveToFront(elem)
	}

	entry := elem.Value.(*requestEntry)
	entry.lines = append(entry.lines, line)
	if len(entry.lines) > r.maxLines {
		entry.lines = entry.lines[len(entry.lines)-r.maxLines:]
	}
}

// evictOldest removes the least-recently-touched request. Caller must hold
// r.mu.
func (r *RequestLog) evictOldest() {
	oldest := r.order.Back()
	if oldest == nil {
		return
	}
	r.order.Remove(oldest)
	entry := oldest.Value.(*requestEntry)
	delete(r.entries, entry.requestID)
}

// Lines returns a copy of the lines recorded for requestID, oldest first.
// Returns false if no lines have been recorded for that id.
func (r *RequestLog) Lines(requestID string) ([]LogLine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.entries[requestID]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*requestEntry)
	out := make([]LogLine, len(entry.lines))
	copy(out, entry.lines)
	return out, true
}

// TrackedRequests reports how many distinct request ids currently hold
// lines. Used only by tests to assert eviction behavior.
func (r *RequestLog) TrackedRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}
