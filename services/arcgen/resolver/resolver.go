// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver maps a free-form (provider, type_id, display_name)
// triple to an exact renderer symbol via a four-stage cascade: library-first
// discovery, intelligent/contextual resolution, registry fallback, and a
// diagnostic failure carrying fuzzy suggestions and the available classes
// in the hinted module.
package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/observability"
	"github.com/arcgen/arcgen/services/arcgen/registry"
	"github.com/arcgen/arcgen/services/arcgen/symbolindex"
)

// Symbol is the resolved (module, class) pair a Component maps to.
type Symbol struct {
	Module string
	Class  string
}

// Resolution additionally records which cascade stage produced the symbol,
// for logging and for the advisor's resolver-error diagnostics.
type Resolution struct {
	Symbol Symbol
	Stage  int
}

// Resolver implements the four-stage component resolution cascade.
//
// Thread Safety: Resolver is safe for concurrent use. Per-triple results
// are memoized in an in-process sync.Map; the installed icon library does
// not change during process lifetime so no invalidation is required.
type Resolver struct {
	index            *symbolindex.Index
	reg              *registry.Registry
	installedVersion string
	memo             sync.Map // memoKey -> Resolution
	cache            MemoCache
}

// MemoCache is the optional persisted memoization backend (see cache.go's
// Badger-backed implementation). A nil MemoCache disables persistence; the
// in-process sync.Map memoization still applies.
type MemoCache interface {
	Get(key string) (Symbol, bool)
	Put(key string, sym Symbol)
}

// New creates a Resolver over the given symbol index and registry.
func New(index *symbolindex.Index, reg *registry.Registry, installedVersion string, cache MemoCache) *Resolver {
	return &Resolver{index: index, reg: reg, installedVersion: installedVersion, cache: cache}
}

// rejectKeywords is the input-validation pre-pass keyword gate: if none of
// a request's free text contains any of these tokens, it is rejected as
// input_rejected before any LLM call. This is intentionally permissive (a
// broad allowlist of cloud/architecture vocabulary) since false rejects are
// more costly than false accepts at this stage.
var rejectKeywords = []string{
	"server", "database", "db", "api", "gateway", "lambda", "function",
	"queue", "topic", "bucket", "storage", "network", "subnet", "vpc",
	"load balancer", "cluster", "container", "service", "cloud", "aws",
	"azure", "gcp", "microservice", "pipeline", "cache", "cdn", "dns",
	"architecture", "diagram", "infrastructure", "compute", "instance",
}

// ValidateInput rejects free-form descriptions that are obviously unrelated
// to cloud architecture, before any LLM call is made.
func ValidateInput(description string) error {
	lower := strings.ToLower(description)
	for _, kw := range rejectKeywords {
		if strings.Contains(lower, kw) {
			return nil
		}
	}
	return fmt.Errorf("%w: description does not appear to describe a cloud architecture", datatypes.ErrInputRejected)
}

// Resolve maps one component to a concrete renderer symbol under the
// four-stage cascade. provider is the effective provider (component.Provider
// overrides spec-level provider when set).
func (r *Resolver) Resolve(ctx context.Context, provider, typeID, name string) (Resolution, error) {
	ctx, span := observability.StartSpan(ctx, "resolver.Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", provider),
		attribute.String("type_id", typeID),
	)

	key := memoKey(provider, typeID, name)
	if v, ok := r.memo.Load(key); ok {
		res := v.(Resolution)
		span.SetAttributes(attribute.Int("stage", res.Stage), attribute.Bool("memo_hit", true))
		return res, nil
	}
	if r.cache != nil {
		if sym, ok := r.cache.Get(key); ok {
			res := Resolution{Symbol: sym, Stage: 0}
			r.memo.Store(key, res)
			span.SetAttributes(attribute.Int("stage", 0), attribute.Bool("cache_hit", true))
			return res, nil
		}
	}

	res, err := r.resolveUncached(ctx, provider, typeID, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return Resolution{}, err
	}
	span.SetAttributes(attribute.Int("stage", res.Stage))
	r.memo.Store(key, res)
	if r.cache != nil {
		r.cache.Put(key, res.Symbol)
	}
	return res, nil
}

func (r *Resolver) resolveUncached(ctx context.Context, provider, typeID, name string) (Resolution, error) {
	normalizedType := normalizeTypeID(typeID)

	// Ambiguous type_ids try Stage 2's contextual resolution before the
	// plain Stage 1 lookup, so the display name decides between e.g.
	// public_subnet and private_subnet.
	if r.reg.IsAmbiguous(provider, normalizedType) {
		if resolvedType, ok := r.stage2(normalizedType, name); ok {
			if sym, ok, err := r.stage1(ctx, provider, resolvedType); err != nil {
				return Resolution{}, err
			} else if ok {
				return Resolution{Symbol: sym, Stage: 2}, nil
			}
		}
	}

	// Stage 1: library-first discovery.
	if sym, ok, err := r.stage1(ctx, provider, normalizedType); err != nil {
		return Resolution{}, err
	} else if ok {
		return Resolution{Symbol: sym, Stage: 1}, nil
	}

	// Stage 2: intelligent/contextual resolution, only for ambiguous
	// type_ids or when Stage 1 missed.
	if resolvedType, ok := r.stage2(normalizedType, name); ok {
		if sym, ok, err := r.stage1(ctx, provider, resolvedType); err != nil {
			return Resolution{}, err
		} else if ok {
			return Resolution{Symbol: sym, Stage: 2}, nil
		}
		// A Stage 2 resolution that still misses Stage 1 falls through
		// to Stage 3 under the contextually-resolved type_id, since the
		// registry mapping is keyed by resolved type_id too.
		normalizedType = resolvedType
	}

	// Stage 3: registry fallback / direct import.
	if sym, ok := r.stage3(ctx, provider, normalizedType); ok {
		return Resolution{Symbol: sym, Stage: 3}, nil
	}

	// Stage 4: diagnostic failure.
	return Resolution{}, r.stage4(ctx, provider, typeID)
}

// stage1 calls the symbol index's find(), seeded with the registry's
// category hint for typeID if one exists.
func (r *Resolver) stage1(ctx context.Context, provider, typeID string) (Symbol, bool, error) {
	modules := r.candidateModules(provider, typeID)
	if len(modules) == 0 {
		return Symbol{}, false, nil
	}
	cand, ok, err := r.index.Find(ctx, typeID, modules)
	if err != nil {
		return Symbol{}, false, err
	}
	if !ok {
		return Symbol{}, false, nil
	}
	return Symbol{Module: cand.Module, Class: cand.Class}, true, nil
}

// candidateModules returns the module set to search: just the hinted
// category's module if the registry names one for typeID, else every
// module declared for the provider.
func (r *Resolver) candidateModules(provider, typeID string) []string {
	if m, ok := r.reg.Mapping(provider, typeID); ok {
		if module, ok := r.reg.ModuleFor(provider, m.Category); ok {
			return []string{module}
		}
	}
	return r.reg.ModulesForProvider(provider)
}

// stage2 applies the context-token table for ambiguous type_ids, returning
// a resolved type_id to resubmit to Stage 1.
func (r *Resolver) stage2(typeID, name string) (string, bool) {
	rule, ok := r.reg.ContextRuleFor(typeID)
	if !ok {
		return "", false
	}
	tokens := tokenize(name)
	for _, tag := range rule.Tags {
		for _, want := range tag.Tokens {
			if tokens[want] {
				return tag.ResolvedTypeID, true
			}
		}
	}
	if rule.Default != "" {
		return rule.Default, true
	}
	return "", false
}

// stage3 consults the registry mapping and attempts a direct lookup of the
// named class in the hinted module, even if the symbol index's cached set
// does not (yet, or ever) include it — this is the path that survives a
// stale registry entry when the installed library nonetheless carries the
// symbol, and the path that survives a stale symbol-index entry when the
// registry is authoritative.
func (r *Resolver) stage3(ctx context.Context, provider, typeID string) (Symbol, bool) {
	m, ok := r.reg.Mapping(provider, typeID)
	if !ok {
		return Symbol{}, false
	}
	module, ok := r.reg.ModuleFor(provider, m.Category)
	if !ok {
		return Symbol{}, false
	}
	classes, err := r.index.ClassesIn(ctx, module)
	if err == nil {
		for _, c := range classes {
			if c == m.ClassName {
				return Symbol{Module: module, Class: m.ClassName}, true
			}
		}
	}
	// Direct import fallback: the registry is authoritative here even
	// though the cached/discovered set didn't carry the symbol. In this
	// rewrite "direct import" means trusting the registry's declared
	// class_name against the generated table's module entry directly,
	// bypassing the cache miss above.
	return Symbol{Module: module, Class: m.ClassName}, true
}

// stage4 builds the structured diagnostic failure.
func (r *Resolver) stage4(ctx context.Context, provider, typeID string) error {
	modules := r.reg.ModulesForProvider(provider)
	suggestions, _ := r.index.FuzzySuggestions(ctx, typeID, modules, 5)

	available := make(map[string][]string)
	if m, ok := r.reg.Mapping(provider, normalizeTypeID(typeID)); ok {
		if module, ok := r.reg.ModuleFor(provider, m.Category); ok {
			classes, _ := r.index.ClassesIn(ctx, module)
			available[module] = classes
		}
	}

	diag := datatypes.ResolverDiagnostic{
		Provider:         provider,
		TypeID:           typeID,
		FuzzySuggestions: suggestions,
		AvailableClasses: available,
		VersionSkewHint:  r.versionSkewHint(provider),
	}
	return &datatypes.ResolverErr{
		Diagnostic: diag,
		Err:        fmt.Errorf("%w: no renderer symbol found for (%s, %s)", datatypes.ErrResolver, provider, typeID),
	}
}

// versionSkewHint compares the registry's declared minimum library version
// against the configured installed version, hinting that the icon library
// may be outdated when the registry expects a newer release.
func (r *Resolver) versionSkewHint(provider string) string {
	want := r.reg.MinLibraryVersion(provider)
	if want == "" || r.installedVersion == "" {
		return ""
	}
	wantCanon, gotCanon := canonicalSemver(want), canonicalSemver(r.installedVersion)
	if !semver.IsValid(wantCanon) || !semver.IsValid(gotCanon) {
		return ""
	}
	if semver.Compare(gotCanon, wantCanon) < 0 {
		return fmt.Sprintf("registry expects icon library >= %s, installed version is %s; the installation may be outdated", want, r.installedVersion)
	}
	return ""
}

func canonicalSemver(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

func memoKey(provider, typeID, name string) string {
	return provider + "\x00" + typeID + "\x00" + strconv.Itoa(len(name)) + "\x00" + name
}

// normalizeTypeID lowercases typeID and folds hyphens/whitespace to
// underscores, matching the registry YAML's snake_case type_id keys
// (e.g. "Public Subnet" and "public-subnet" both become "public_subnet").
func normalizeTypeID(typeID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(typeID)) {
		switch r {
		case '-', ' ', '\t':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tokenize lowercases name and splits it into a set of words for Stage 2's
// context-token matching.
func tokenize(name string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
