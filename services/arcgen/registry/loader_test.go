// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"testing"
)

const dataDir = "data"

func TestLoadAWSCatalog(t *testing.T) {
	reg, err := Load(dataDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	module, ok := reg.ModuleFor("aws", "compute")
	if !ok || module != "diagrams.aws.compute" {
		t.Fatalf("expected diagrams.aws.compute, got %q ok=%v", module, ok)
	}

	mapping, ok := reg.Mapping("aws", "lambda")
	if !ok || mapping.ClassName != "Lambda" {
		t.Fatalf("expected Lambda mapping, got %+v ok=%v", mapping, ok)
	}

	if !reg.IsAmbiguous("aws", "subnet") {
		t.Error("expected subnet to be ambiguous")
	}
	if reg.IsAmbiguous("aws", "lambda") {
		t.Error("expected lambda to not be ambiguous")
	}

	layer, ok := reg.Layer("aws", "rds")
	if !ok || layer != 7 {
		t.Fatalf("expected rds layer 7, got %d ok=%v", layer, ok)
	}

	deps := reg.Dependencies("aws", "ec2")
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependencies for ec2, got %v", deps)
	}
}

func TestModulesByCategory(t *testing.T) {
	reg, err := Load(dataDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	modules := reg.ModulesByCategory("aws")
	compute, ok := modules["compute"]
	if !ok || compute.Path != "diagrams.aws.compute" {
		t.Fatalf("expected compute -> diagrams.aws.compute, got %+v ok=%v", compute, ok)
	}
	if len(compute.Classes) == 0 {
		t.Error("expected at least one class in the compute module")
	}

	if got := reg.ModulesByCategory("nope"); got != nil {
		t.Errorf("expected nil for unknown provider, got %v", got)
	}
}

func TestLoadContextRules(t *testing.T) {
	reg, err := Load(dataDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rule, ok := reg.ContextRuleFor("subnet")
	if !ok {
		t.Fatal("expected a context rule for subnet")
	}
	if rule.Default != "private_subnet" {
		t.Errorf("expected default private_subnet, got %q", rule.Default)
	}
	found := false
	for _, tag := range rule.Tags {
		if tag.ResolvedTypeID == "public_subnet" {
			found = true
			hasToken := false
			for _, tok := range tag.Tokens {
				if tok == "public" {
					hasToken = true
				}
			}
			if !hasToken {
				t.Error("expected public_subnet tag to include token 'public'")
			}
		}
	}
	if !found {
		t.Error("expected a public_subnet tag")
	}
}

func TestPatternsSortedByPriority(t *testing.T) {
	reg, err := Load(dataDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	patterns := reg.Patterns()
	for i := 1; i < len(patterns); i++ {
		if patterns[i-1].Priority < patterns[i].Priority {
			t.Fatalf("patterns not sorted by descending priority: %+v", patterns)
		}
	}
}

func TestGeneratedTableClassesInModule(t *testing.T) {
	reg, err := Load(dataDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	table := NewGeneratedTable(reg)
	classes, err := table.ClassesInModule(context.Background(), "diagrams.aws.compute")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, c := range classes {
		if c == "Lambda" {
			found = true
		}
	}
	if !found {
		t.Error("expected Lambda among diagrams.aws.compute classes")
	}
}

func TestLoadRejectsBadCrossReference(t *testing.T) {
	pf := providerFile{
		Modules: map[string]ModuleEntry{"compute": {Path: "x", Classes: []string{"A"}}},
		Mappings: []Mapping{
			{TypeID: "foo", Category: "does-not-exist", ClassName: "A"},
		},
	}
	if err := validateCrossReferences("inline", pf); err == nil {
		t.Fatal("expected an error for an undeclared category reference")
	}
}
