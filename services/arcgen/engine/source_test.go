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

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/resolver"
)

func TestEmitSourceImportsAndBody(t *testing.T) {
	spec := datatypes.ArchitectureSpec{
		Title:     "My Diagram",
		Provider:  datatypes.ProviderAWS,
		Direction: datatypes.DirectionLR,
		OutFormat: []datatypes.OutFormat{datatypes.FormatPNG},
		Components: []datatypes.Component{
			{ID: "fn", Name: "My Function"},
			{ID: "tbl", Name: "My Table"},
		},
		Connections: []datatypes.Connection{
			{FromID: "fn", ToID: "tbl"},
		},
	}
	resolved := []ResolvedComponent{
		{Component: spec.Components[0], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "Lambda"}},
		{Component: spec.Components[1], Symbol: resolver.Symbol{Module: "diagrams.aws.database", Class: "Dynamodb"}},
	}

	src, err := EmitSource(spec, resolved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(src, "from diagrams.aws.compute import Lambda") {
		t.Errorf("expected compute import, got:\n%s", src)
	}
	if !strings.Contains(src, "from diagrams.aws.database import Dynamodb") {
		t.Errorf("expected database import, got:\n%s", src)
	}
	if !strings.Contains(src, `Diagram("My Diagram", direction="LR"`) {
		t.Errorf("expected Diagram block with title/direction, got:\n%s", src)
	}
	if !strings.Contains(src, "fn = Lambda(") {
		t.Errorf("expected component assignment, got:\n%s", src)
	}
	if !strings.Contains(src, "fn >> tbl") {
		t.Errorf("expected forward connection, got:\n%s", src)
	}
}

func TestEmitSourceMissingResolutionErrors(t *testing.T) {
	spec := datatypes.ArchitectureSpec{
		Title:      "X",
		Provider:   datatypes.ProviderAWS,
		Components: []datatypes.Component{{ID: "fn", Name: "F"}},
	}
	if _, err := EmitSource(spec, nil); err == nil {
		t.Fatal("expected an error for an unresolved component")
	}
}

func TestEmitSourceGroupsSharedDestinationEdges(t *testing.T) {
	spec := datatypes.ArchitectureSpec{
		Title:    "Fan In",
		Provider: datatypes.ProviderAWS,
		Components: []datatypes.Component{
			{ID: "a", Name: "A"},
			{ID: "b", Name: "B"},
			{ID: "c", Name: "C"},
			{ID: "dst", Name: "Dst"},
		},
		Connections: []datatypes.Connection{
			{FromID: "a", ToID: "dst"},
			{FromID: "b", ToID: "dst"},
			{FromID: "c", ToID: "dst"},
		},
	}
	resolved := []ResolvedComponent{
		{Component: spec.Components[0], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "EC2"}},
		{Component: spec.Components[1], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "EC2"}},
		{Component: spec.Components[2], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "EC2"}},
		{Component: spec.Components[3], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "ECS"}},
	}

	src, err := EmitSource(spec, resolved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(src, "[a, b, c] >> dst") {
		t.Errorf("expected a single grouped edge expression, got:\n%s", src)
	}
	if strings.Count(src, ">> dst") != 1 {
		t.Errorf("expected exactly one edge expression into dst, got:\n%s", src)
	}
}

func TestEmitSourceDoesNotGroupLabeledOrAttrEdges(t *testing.T) {
	spec := datatypes.ArchitectureSpec{
		Title:    "Fan In Labeled",
		Provider: datatypes.ProviderAWS,
		Components: []datatypes.Component{
			{ID: "a", Name: "A"},
			{ID: "b", Name: "B"},
			{ID: "dst", Name: "Dst"},
		},
		Connections: []datatypes.Connection{
			{FromID: "a", ToID: "dst", Label: "reads"},
			{FromID: "b", ToID: "dst", Label: "writes"},
		},
	}
	resolved := []ResolvedComponent{
		{Component: spec.Components[0], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "EC2"}},
		{Component: spec.Components[1], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "EC2"}},
		{Component: spec.Components[2], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "ECS"}},
	}

	src, err := EmitSource(spec, resolved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(src, `a >> Edge(label="reads") >> dst`) {
		t.Errorf("expected labeled edge a, got:\n%s", src)
	}
	if !strings.Contains(src, `b >> Edge(label="writes") >> dst`) {
		t.Errorf("expected labeled edge b, got:\n%s", src)
	}
}

func TestEmitSourceClusters(t *testing.T) {
	spec := datatypes.ArchitectureSpec{
		Title:      "Clustered",
		Provider:   datatypes.ProviderAWS,
		Components: []datatypes.Component{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		Clusters: []datatypes.Cluster{
			{ID: "cl1", Name: "Compute", ComponentIDs: []string{"a", "b"}},
		},
	}
	resolved := []ResolvedComponent{
		{Component: spec.Components[0], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "EC2"}},
		{Component: spec.Components[1], Symbol: resolver.Symbol{Module: "diagrams.aws.compute", Class: "ECS"}},
	}
	src, err := EmitSource(spec, resolved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(src, `Cluster("Compute"`) {
		t.Errorf("expected a Cluster block, got:\n%s", src)
	}
}

func TestSanitizeFilename(t *testing.T) {
	orig := stampSuffix
	stampSuffix = func() int64 { return 1 }
	defer func() { stampSuffix = orig }()

	got := SanitizeFilename("../../etc/passwd", ".png")
	if strings.Contains(got, "/") {
		t.Fatalf("expected no path separator in sanitized name, got %q", got)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Fatalf("expected .png extension, got %q", got)
	}

	zw := SanitizeFilename("my​diagram", ".svg")
	if strings.Contains(zw, "​") {
		t.Fatalf("expected zero-width space stripped, got %q", zw)
	}
}

func TestIsSafeFilename(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"diagram-12345.png", true},
		{"My_Diagram-1.svg", true},
		{"../../etc/passwd", false},
		{"a/b.png", false},
		{`a\b.png`, false},
		{"", false},
		{"diagram..png", false},
		{"/etc/passwd", false},
		{"diagram\x00.png", false},
	}
	for _, tc := range cases {
		if got := IsSafeFilename(tc.name); got != tc.want {
			t.Errorf("IsSafeFilename(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
