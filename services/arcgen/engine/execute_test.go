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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
)

// writeSleepScript writes a shell script that ignores its argument and
// sleeps, standing in for a Python interpreter that hangs past its
// deadline — the fixed one-argument exec.CommandContext call Executor.Run
// makes has no room for a literal "sleep N" binary to receive a duration.
func writeSleepScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hang.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nsleep 5\n"), 0o755); err != nil {
		t.Fatalf("failed to write sleep script: %v", err)
	}
	return path
}

func TestExecutorRunSucceeds(t *testing.T) {
	e := NewExecutor(t.TempDir(), 5*time.Second)
	e.PythonBin = "true" // exits 0 without reading its argument

	res, path, err := e.Run(testContext(), "diagram", "print('hello')")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path == "" {
		t.Error("expected a non-empty source path")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestExecutorRunNonZeroExitWrapsRenderFailureErr(t *testing.T) {
	e := NewExecutor(t.TempDir(), 5*time.Second)
	e.PythonBin = "false" // always exits 1

	_, _, err := e.Run(testContext(), "diagram", "print('hello')")
	if !errors.Is(err, datatypes.ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}

	var renderErr *datatypes.RenderFailureErr
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected a *datatypes.RenderFailureErr, got %T", err)
	}
	if renderErr.Failure.ExitCode != 1 {
		t.Errorf("expected ExitCode 1, got %d", renderErr.Failure.ExitCode)
	}
	if renderErr.Failure.TimedOut {
		t.Error("expected TimedOut false for a non-timeout failure")
	}
}

func TestExecutorRunTimeoutWrapsRenderFailureErr(t *testing.T) {
	e := NewExecutor(t.TempDir(), 20*time.Millisecond)
	e.PythonBin = writeSleepScript(t)

	_, _, err := e.Run(testContext(), "diagram", "1")
	if !errors.Is(err, datatypes.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	var renderErr *datatypes.RenderFailureErr
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected a *datatypes.RenderFailureErr, got %T", err)
	}
	if !renderErr.Failure.TimedOut {
		t.Error("expected TimedOut true for a timeout failure")
	}
}
