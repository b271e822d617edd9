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
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// ComputeChanges diffs the previously emitted source against the newly
// emitted source after a modify-diagram pass and returns the formatted
// unified-diff hunks (unifiedDiffText writes a single hunk spanning the
// whole file, so a changed source yields exactly one entry), resolving spec.md's stated
// ambiguity about what populates the modify-diagram response's changes[]
// field. Grounded on services/trace/diff/parse.go's pairing of a
// hand-rolled line diff with sourcegraph/go-diff's hunk parser/printer.
func ComputeChanges(filename, oldSource, newSource string) ([]string, error) {
	if oldSource == newSource {
		return nil, nil
	}

	unified := unifiedDiffText(filename, oldSource, newSource)
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(unified))
	if err != nil {
		return nil, fmt.Errorf("parsing generated diff: %w", err)
	}

	var changes []string
	for _, fd := range fileDiffs {
		for _, h := range fd.Hunks {
			printed, err := godiff.PrintHunk(h)
			if err != nil {
				return nil, fmt.Errorf("printing hunk: %w", err)
			}
			changes = append(changes, string(printed))
		}
	}
	return changes, nil
}

// unifiedDiffText builds a minimal unified diff between oldSource and
// newSource using a line-based longest-common-subsequence diff. This is
// deliberately a simpler algorithm than a full Myers implementation since
// engine-emitted sources are short (one diagram's worth of imports and
// component/edge statements); correctness, not asymptotic performance,
// is what matters here.
func unifiedDiffText(filename, oldSource, newSource string) string {
	oldLines := splitKeepEmpty(oldSource)
	newLines := splitKeepEmpty(newSource)
	ops := lcsDiff(oldLines, newLines)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", filename)
	fmt.Fprintf(&b, "+++ %s\n", filename)
	fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", len(oldLines), len(newLines))
	for _, op := range ops {
		switch op.kind {
		case opEqual:
			fmt.Fprintf(&b, " %s\n", op.text)
		case opDelete:
			fmt.Fprintf(&b, "-%s\n", op.text)
		case opInsert:
			fmt.Fprintf(&b, "+%s\n", op.text)
		}
	}
	return b.String()
}

func splitKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

type diffOpKind int

const (
	opEqual diffOpKind = iota
	opDelete
	opInsert
)

type diffOp struct {
	kind diffOpKind
	text string
}

// lcsDiff computes a line-level edit script via dynamic-programming
// longest common subsequence, then walks the DP table back to front to
// emit equal/delete/insert operations in forward order.
func lcsDiff(a, b []string) []diffOp {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var ops []diffOp
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, diffOp{opEqual, a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			ops = append(ops, diffOp{opDelete, a[i]})
			i++
		default:
			ops = append(ops, diffOp{opInsert, b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, diffOp{opDelete, a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, diffOp{opInsert, b[j]})
	}
	return ops
}
