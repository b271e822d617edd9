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
	"strings"
	"testing"
)

func TestComputeChangesNoDiff(t *testing.T) {
	changes, err := ComputeChanges("diagram.py", "a\nb\n", "a\nb\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changes != nil {
		t.Fatalf("expected no changes for identical source, got %v", changes)
	}
}

func TestComputeChangesDetectsAddedLine(t *testing.T) {
	old := "fn = Lambda(\"f\")\n"
	new := "fn = Lambda(\"f\")\ntbl = Dynamodb(\"t\")\n"
	changes, err := ComputeChanges("diagram.py", old, new)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) == 0 {
		t.Fatal("expected at least one hunk")
	}
	found := false
	for _, c := range changes {
		if strings.Contains(c, "+tbl = Dynamodb") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an added-line hunk, got %v", changes)
	}
}

func TestCheckPythonSyntaxValid(t *testing.T) {
	suggestions := CheckPythonSyntax(testContext(), "from diagrams import Diagram\nwith Diagram(\"x\"):\n    pass\n")
	if len(suggestions) != 0 {
		t.Errorf("expected no suggestions for valid python, got %v", suggestions)
	}
}

func TestCheckPythonSyntaxDetectsError(t *testing.T) {
	suggestions := CheckPythonSyntax(testContext(), "with Diagram(\"x\"\n")
	if len(suggestions) == 0 {
		t.Error("expected at least one suggestion for malformed python")
	}
}
