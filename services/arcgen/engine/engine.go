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
	"path/filepath"
	"time"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

// Engine emits, executes, and persists diagram source for a resolved
// architecture spec, satisfying the spec.md §4.5 contract:
// render(spec) -> { artifact_paths: [path], source: string } or a
// structured failure.
type Engine struct {
	executor *Executor
	mirror   *ArtifactMirror
}

// New creates an Engine writing to outputDir with the given per-render
// timeout and an optional cold-storage mirror (pass nil to disable).
func New(outputDir string, timeout time.Duration, mirror *ArtifactMirror) *Engine {
	return &Engine{executor: NewExecutor(outputDir, timeout), mirror: mirror}
}

// SetPythonBin overrides the interpreter binary the Engine's executor
// invokes. Callers outside this package only need this in tests, to stand
// in a fake interpreter for the real python3 + Diagrams installation the
// production renderer requires.
func (e *Engine) SetPythonBin(bin string) {
	e.executor.PythonBin = bin
}

// RenderResult is the engine's successful output.
type RenderResult struct {
	ArtifactPaths []string
	Source        string
	Suggestions   []SyntaxSuggestion
}

// Render emits Python source for spec, statically pre-checks it, executes
// it once for all requested out_formats (the Diagrams library itself supports
// multi-format output via a single outformat=[...] argument, so this is
// one subprocess invocation regardless of len(spec.OutFormat)), and mirrors
// the resulting artifacts to cold storage if configured.
func (e *Engine) Render(ctx context.Context, spec datatypes.ArchitectureSpec, resolved []ResolvedComponent) (RenderResult, error) {
	source, err := EmitSource(spec, resolved)
	if err != nil {
		return RenderResult{}, err
	}

	suggestions := CheckPythonSyntax(ctx, source)

	_, sourcePath, err := e.executor.Run(ctx, spec.Title, source)
	if err != nil {
		return RenderResult{Source: source, Suggestions: suggestions}, err
	}

	artifactPaths := artifactPathsFor(sourcePath, spec.OutFormat)
	for _, p := range artifactPaths {
		e.mirror.Upload(ctx, p)
	}

	return RenderResult{ArtifactPaths: artifactPaths, Source: source, Suggestions: suggestions}, nil
}

// RenderRaw executes caller-supplied Diagrams source directly, skipping
// EmitSource, for POST /api/execute-code's advanced-mode path: the user's
// own program is the opaque source, run through the identical sandboxed
// subprocess boundary and artifact/mirror handling as Render.
func (e *Engine) RenderRaw(ctx context.Context, title, source string, formats []datatypes.OutFormat) (RenderResult, error) {
	suggestions := CheckPythonSyntax(ctx, source)

	_, sourcePath, err := e.executor.Run(ctx, title, source)
	if err != nil {
		return RenderResult{Source: source, Suggestions: suggestions}, err
	}

	artifactPaths := artifactPathsFor(sourcePath, formats)
	for _, p := range artifactPaths {
		e.mirror.Upload(ctx, p)
	}

	return RenderResult{ArtifactPaths: artifactPaths, Source: source, Suggestions: suggestions}, nil
}

// artifactPathsFor derives the artifact file paths the Diagrams library
// writes alongside sourcePath: the same base name, one extension per
// requested out_format.
func artifactPathsFor(sourcePath string, formats []datatypes.OutFormat) []string {
	base := sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))]
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, fmt.Sprintf("%s.%s", base, string(f)))
	}
	return out
}
