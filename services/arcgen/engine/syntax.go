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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// SyntaxSuggestion is one non-fatal issue the static pre-check surfaced.
// These never block execution; they only enrich the response for
// /api/validate-code and /api/execute-code.
type SyntaxSuggestion struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// maxSyntaxSuggestions caps the pre-check's output the same way the
// teacher's tree-sitter validator caps its own error collection, to bound
// memory on heavily malformed input.
const maxSyntaxSuggestions = 50

// CheckPythonSyntax parses source with tree-sitter's Python grammar and
// collects ERROR/MISSING node regions as suggestions[]. This is
// best-effort only: a tree-sitter parse always produces *some* tree, valid
// or not, so this never returns an error of its own — only a (possibly
// empty) suggestion list.
func CheckPythonSyntax(ctx context.Context, source string) []SyntaxSuggestion {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(source))
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	var out []SyntaxSuggestion
	collectSyntaxIssues(tree.RootNode(), []byte(source), &out, 0)
	return out
}

func collectSyntaxIssues(node *sitter.Node, content []byte, out *[]SyntaxSuggestion, depth int) {
	if node == nil || depth > 1000 || len(*out) >= maxSyntaxSuggestions {
		return
	}
	if node.IsError() || node.IsMissing() {
		point := node.StartPoint()
		msg := "unexpected syntax"
		if node.IsMissing() {
			msg = fmt.Sprintf("missing %s", node.Type())
		}
		*out = append(*out, SyntaxSuggestion{
			Line:    int(point.Row) + 1,
			Column:  int(point.Column),
			Message: msg,
		})
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectSyntaxIssues(node.Child(i), content, out, depth+1)
	}
}
