// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/registry"
	"github.com/arcgen/arcgen/services/arcgen/symbolindex"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	reg, err := registry.Load("../registry/data")
	if err != nil {
		t.Fatalf("failed to load registry: %v", err)
	}
	idx := symbolindex.New(registry.NewGeneratedTable(reg))
	return New(idx, reg, "v0.20.0", nil)
}

func TestResolveExactName(t *testing.T) {
	r := newTestResolver(t)
	res, err := r.Resolve(context.Background(), "aws", "lambda", "my function")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Symbol.Class != "Lambda" || res.Symbol.Module != "diagrams.aws.compute" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if res.Stage != 1 {
		t.Errorf("expected Stage 1 resolution, got %d", res.Stage)
	}
}

func TestResolveAmbiguousSubnetByContext(t *testing.T) {
	r := newTestResolver(t)

	pub, err := r.Resolve(context.Background(), "aws", "subnet", "Public Subnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.Symbol.Class != "PublicSubnet" {
		t.Errorf("expected PublicSubnet, got %+v", pub)
	}

	priv, err := r.Resolve(context.Background(), "aws", "subnet", "Private Subnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if priv.Symbol.Class != "PrivateSubnet" {
		t.Errorf("expected PrivateSubnet, got %+v", priv)
	}
}

func TestResolveUnknownTypeFails(t *testing.T) {
	r := newTestResolver(t)
	_, err := r.Resolve(context.Background(), "aws", "totally-made-up-thing-xyz", "Widget")
	if !errors.Is(err, datatypes.ErrResolver) {
		t.Fatalf("expected ErrResolver, got %v", err)
	}

	var resolverErr *datatypes.ResolverErr
	if !errors.As(err, &resolverErr) {
		t.Fatalf("expected a *datatypes.ResolverErr, got %T", err)
	}
	if resolverErr.Diagnostic.TypeID != "totally-made-up-thing-xyz" {
		t.Errorf("expected diagnostic TypeID to match, got %+v", resolverErr.Diagnostic)
	}
}

func TestResolveIsMemoized(t *testing.T) {
	r := newTestResolver(t)
	first, err := r.Resolve(context.Background(), "aws", "lambda", "f")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Resolve(context.Background(), "aws", "lambda", "f")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Symbol != second.Symbol {
		t.Errorf("expected memoized identical resolution, got %+v vs %+v", first, second)
	}
}

func TestValidateInputRejectsUnrelatedText(t *testing.T) {
	if err := ValidateInput("write me a poem about the ocean"); !errors.Is(err, datatypes.ErrInputRejected) {
		t.Errorf("expected ErrInputRejected, got %v", err)
	}
	if err := ValidateInput("a lambda function calling dynamodb"); err != nil {
		t.Errorf("expected nil error for a valid architecture description, got %v", err)
	}
}

func TestNormalizeTypeID(t *testing.T) {
	cases := map[string]string{
		"Public Subnet": "public_subnet",
		"public-subnet": "public_subnet",
		"LAMBDA":        "lambda",
	}
	for in, want := range cases {
		if got := normalizeTypeID(in); got != want {
			t.Errorf("normalizeTypeID(%q) = %q, want %q", in, got, want)
		}
	}
}
