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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/observability"
)

// Executor runs emitted (or user-supplied) Diagrams source in a sandboxed
// Python subprocess and manages the resulting artifact files.
//
// Thread Safety: Executor holds no mutable state and is safe for
// concurrent use; each Render call is independent.
type Executor struct {
	// PythonBin is the interpreter to invoke; defaults to "python3".
	PythonBin string
	// OutputDir is where source and artifact files are written.
	OutputDir string
	// Timeout bounds subprocess execution.
	Timeout time.Duration
}

// NewExecutor creates an Executor with the given output directory and
// timeout; PythonBin defaults to "python3".
func NewExecutor(outputDir string, timeout time.Duration) *Executor {
	return &Executor{PythonBin: "python3", OutputDir: outputDir, Timeout: timeout}
}

// ExecResult carries a subprocess run's outcome for both the success and
// structured-failure paths.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Run writes source to a sanitized, unique .py file under e.OutputDir and
// executes it with the configured interpreter, killing the entire process
// group on timeout so any child processes the script spawns (graphviz's
// `dot`, in particular) do not outlive the deadline.
//
// Grounded on services/trace/lint/runner.go's exec.CommandContext +
// context.WithTimeout pattern; process-group kill via SysProcAttr and
// syscall.Kill(-pid, ...) is new ground this package adds, since nothing
// in the source repo sets Setpgid.
func (e *Executor) Run(ctx context.Context, filenameHint, source string) (ExecResult, string, error) {
	ctx, span := observability.StartSpan(ctx, "engine.Executor.Run")
	defer span.End()
	span.SetAttributes(attribute.String("filename_hint", filenameHint))

	sourcePath, err := e.writeSource(filenameHint, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "writing source")
		return ExecResult{}, "", fmt.Errorf("%w: writing source: %v", datatypes.ErrRenderFailed, err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, e.PythonBin, sourcePath)
	cmd.Dir = e.OutputDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "starting renderer")
		return ExecResult{}, sourcePath, fmt.Errorf("%w: starting renderer: %v", datatypes.ErrRenderFailed, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-cmdCtx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		slog.Error("renderer subprocess killed on timeout", "source", sourcePath, "timeout", timeout)
		res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String(), TimedOut: true}
		span.SetStatus(codes.Error, "renderer timed out")
		return res, sourcePath, &datatypes.RenderFailureErr{
			Failure: datatypes.RenderFailure{StderrExcerpt: truncate(res.Stderr, 2000), TimedOut: true},
			Err:     fmt.Errorf("%w: renderer exceeded %s", datatypes.ErrTimeout, timeout),
		}
	case err := <-done:
		res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				res.ExitCode = exitErr.ExitCode()
			} else {
				res.ExitCode = -1
			}
			slog.Error("renderer subprocess failed", "source", sourcePath, "exit_code", res.ExitCode, "stderr", truncate(res.Stderr, 2000))
			span.SetAttributes(attribute.Int("exit_code", res.ExitCode))
			span.SetStatus(codes.Error, "renderer exited non-zero")
			return res, sourcePath, &datatypes.RenderFailureErr{
				Failure: datatypes.RenderFailure{ExitCode: res.ExitCode, StderrExcerpt: truncate(res.Stderr, 2000)},
				Err:     fmt.Errorf("%w: %s", datatypes.ErrRenderFailed, firstLine(res.Stderr)),
			}
		}
		slog.Info("renderer subprocess succeeded", "source", sourcePath)
		return res, sourcePath, nil
	}
}

func (e *Executor) writeSource(filenameHint, source string) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", err
	}
	name := SanitizeFilename(filenameHint, ".py")
	path := filepath.Join(e.OutputDir, name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return truncate(s, 500)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
