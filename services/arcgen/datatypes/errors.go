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

import "errors"

// Sentinel errors for the arcgen service error taxonomy. Handlers classify
// errors with errors.Is against these and map them to HTTP status codes;
// nothing downstream should compare error strings.
var (
	// ErrValidation indicates the request failed shape/enum/size checks.
	ErrValidation = errors.New("validation_error")

	// ErrInputRejected indicates the input does not describe a cloud
	// architecture.
	ErrInputRejected = errors.New("input_rejected")

	// ErrResolver indicates a component could not be mapped to any
	// renderer symbol.
	ErrResolver = errors.New("resolver_error")

	// ErrSessionNotFound indicates a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session_not_found")

	// ErrNotFound indicates some other lookup key (a request id, an
	// artifact filename) has no matching record. Kept distinct from
	// ErrSessionNotFound since the two name different resources in the
	// response body's error field.
	ErrNotFound = errors.New("not_found")

	// ErrRenderFailed indicates the renderer subprocess returned non-zero
	// or produced no artifact.
	ErrRenderFailed = errors.New("render_failed")

	// ErrTimeout indicates a step exceeded its configured budget.
	ErrTimeout = errors.New("timeout")

	// ErrInternal indicates an unexpected failure.
	ErrInternal = errors.New("internal_error")
)

// ResolverDiagnostic is the structured payload attached to a Stage 4
// resolver failure (see the component resolver's four-stage cascade).
type ResolverDiagnostic struct {
	Provider          string              `json:"provider"`
	TypeID            string              `json:"type_id"`
	FuzzySuggestions  []string            `json:"fuzzy_suggestions"`
	AvailableClasses  map[string][]string `json:"available_classes"`
	VersionSkewHint   string              `json:"version_skew_hint,omitempty"`
}

// RenderFailure is the structured payload attached to a render_failed error.
type RenderFailure struct {
	ExitCode      int    `json:"exit_code"`
	StderrExcerpt string `json:"stderr_excerpt"`
	TimedOut      bool   `json:"timed_out"`
}

// ResolverErr wraps ErrResolver (or ErrTimeout, for a cascade aborted by
// context deadline) with its structured diagnostic payload, so the HTTP
// layer can attach fuzzy suggestions and available classes to the response
// without string-parsing the error.
type ResolverErr struct {
	Diagnostic ResolverDiagnostic
	Err        error
}

func (e *ResolverErr) Error() string { return e.Err.Error() }
func (e *ResolverErr) Unwrap() error { return e.Err }

// RenderFailureErr wraps ErrRenderFailed or ErrTimeout with the subprocess
// outcome that produced it, so the HTTP layer can surface a truncated
// stderr excerpt without re-parsing the error string.
type RenderFailureErr struct {
	Failure RenderFailure
	Err     error
}

func (e *RenderFailureErr) Error() string { return e.Err.Error() }
func (e *RenderFailureErr) Unwrap() error { return e.Err }
