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

// GenerateDiagramRequest is POST /api/generate-diagram's body.
type GenerateDiagramRequest struct {
	Description   string        `json:"description" binding:"required,max=4000"`
	Provider      Provider      `json:"provider,omitempty"`
	OutFormat     []OutFormat   `json:"out_format,omitempty"`
	Direction     Direction     `json:"direction,omitempty"`
	GraphvizAttrs GraphvizAttrs `json:"graphviz_attrs,omitempty"`
}

// GenerateDiagramResponse is the success body for generate-diagram.
// DiagramURLs carries one URL per requested out_format, in request order;
// DiagramURL stays populated with DiagramURLs[0] for callers that only
// ever requested (or care about) a single format.
type GenerateDiagramResponse struct {
	DiagramURL    string   `json:"diagram_url"`
	DiagramURLs   []string `json:"diagram_urls"`
	Message       string   `json:"message"`
	SessionID     string   `json:"session_id"`
	GenerationID  string   `json:"generation_id"`
	GeneratedCode string   `json:"generated_code"`
}

// ModifyDiagramRequest is POST /api/modify-diagram's body.
type ModifyDiagramRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	Modification string `json:"modification" binding:"required,max=4000"`
}

// UndoDiagramRequest is POST /api/undo-diagram's body.
type UndoDiagramRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// RegenerateFormatRequest is POST /api/regenerate-format's body.
type RegenerateFormatRequest struct {
	SessionID string      `json:"session_id" binding:"required"`
	OutFormat []OutFormat `json:"out_format" binding:"required"`
}

// DiagramMutationResponse is the common shape modify/undo/regenerate-format
// all return. DiagramURLs carries one URL per rendered out_format, in
// request order; DiagramURL stays populated with DiagramURLs[0].
type DiagramMutationResponse struct {
	DiagramURL   string           `json:"diagram_url"`
	DiagramURLs  []string         `json:"diagram_urls"`
	Message      string           `json:"message"`
	Changes      []string         `json:"changes"`
	UpdatedSpec  ArchitectureSpec `json:"updated_spec"`
	GenerationID string           `json:"generation_id"`
}

// ExecuteCodeRequest is POST /api/execute-code's body.
type ExecuteCodeRequest struct {
	Code      string      `json:"code" binding:"required"`
	Provider  Provider    `json:"provider,omitempty"`
	Title     string      `json:"title,omitempty"`
	OutFormat []OutFormat `json:"out_format,omitempty"`
}

// ExecuteCodeResponse is the response for execute-code.
type ExecuteCodeResponse struct {
	DiagramURL string   `json:"diagram_url,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ValidateCodeRequest is POST /api/validate-code's body.
type ValidateCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ValidateCodeResponse is the response for validate-code. Always 200; a
// syntactically bad submission is reported via Valid=false, never a 5xx.
type ValidateCodeResponse struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
}

// CompletionsResponse is GET /api/completions/{provider}'s body.
type CompletionsResponse struct {
	Classes   map[string][]string `json:"classes"`
	Imports   map[string]string   `json:"imports"`
	Keywords  []string            `json:"keywords"`
	Operators []string            `json:"operators"`
}

// FeedbackRequest is POST /api/feedback's body.
type FeedbackRequest struct {
	SessionID    string   `json:"session_id" binding:"required"`
	GenerationID string   `json:"generation_id,omitempty"`
	Rating       int      `json:"rating" binding:"required,min=1,max=5"`
	Comment      string   `json:"comment,omitempty"`
	Provider     Provider `json:"provider,omitempty"`
}

// FeedbackStatsResponse is GET /api/feedback/stats's body.
type FeedbackStatsResponse struct {
	Count         int            `json:"count"`
	AverageRating float64        `json:"average_rating"`
	ByProvider    map[string]int `json:"by_provider"`
}

// ErrorLogsResponse is GET /api/error-logs/{request_id}'s body.
type ErrorLogsResponse struct {
	RequestID string    `json:"request_id"`
	Lines     []LogLine `json:"lines"`
}

// LogLine is one retrievable log entry for a request id. Mirrors
// observability.LogLine's shape so handlers can convert without an import
// cycle (datatypes has no dependency on observability).
type LogLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ErrorResponse is the common error envelope every non-2xx JSON response
// uses. Diagnostic carries the kind-specific structured payload
// (ResolverDiagnostic or RenderFailure) when applicable.
type ErrorResponse struct {
	Error      string      `json:"error"`
	Message    string      `json:"message,omitempty"`
	Diagnostic interface{} `json:"diagnostic,omitempty"`
}
