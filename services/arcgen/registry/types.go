// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry loads the static, provider-scoped symbol catalog the
// resolver and advisor consult as a hint source and fallback: module
// paths per category, type_id -> (category, class_name) mappings, the
// ambiguous type_id set, Stage 2 context-token rules, layer numbers,
// missing-dependency declarations, and the advisor's pattern catalog.
//
// In the source system this catalog backed runtime introspection of an
// icon library. Here it doubles as the build-time generated symbol table
// described in SPEC_FULL.md's design notes: GeneratedTable satisfies
// symbolindex.Discoverer directly from the same YAML-declared module
// class lists, so Stage 3's "direct import" fallback becomes "consult the
// generated table," and registry drift (a class the registry names but the
// table does not carry) is surfaced as a Stage 4 diagnostic rather than a
// panic.
package registry

import (
	"context"
	"fmt"
)

// ModuleEntry declares one renderer module: its import path and the
// exported class names it carries, as generated ahead of time from the
// installed icon library.
type ModuleEntry struct {
	Path    string   `yaml:"path"`
	Classes []string `yaml:"classes"`
}

// Mapping is one type_id -> (category, class_name) hint.
type Mapping struct {
	TypeID    string `yaml:"type_id"`
	Category  string `yaml:"category"`
	ClassName string `yaml:"class_name"`
}

// ContextTag is one resolved_type_id plus the tokens that select it within
// a ContextRule.
type ContextTag struct {
	ResolvedTypeID string   `yaml:"resolved_type_id"`
	Tokens         []string `yaml:"tokens"`
}

// ContextRule is the Stage 2 contextual-resolution entry for one ambiguous
// type_id.
type ContextRule struct {
	AmbiguousTypeID string       `yaml:"ambiguous_type_id"`
	Default         string       `yaml:"default"`
	Tags            []ContextTag `yaml:"tags"`
}

// PatternEdge is one edge declared by a pattern, referencing component
// type_ids rather than spec component ids; the advisor resolves it to
// concrete component ids when the pattern matches a spec.
type PatternEdge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Pattern is one entry in the advisor's closed pattern catalog.
type Pattern struct {
	Name       string        `yaml:"name"`
	Priority   int           `yaml:"priority"`
	Components []string      `yaml:"components"`
	Edges      []PatternEdge `yaml:"edges"`
}

// providerFile is the on-disk shape of one provider's YAML catalog.
type providerFile struct {
	MinLibraryVersion string                 `yaml:"min_library_version"`
	Modules           map[string]ModuleEntry `yaml:"modules"`
	Mappings          []Mapping              `yaml:"mappings"`
	AmbiguousTypeIDs  []string               `yaml:"ambiguous_type_ids"`
	Layers            map[string]int         `yaml:"layers"`
	Dependencies      map[string][]string    `yaml:"dependencies"`
}

// patternsFile is the on-disk shape of the advisor pattern catalog.
type patternsFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// contextFile is the on-disk shape of the Stage 2 context-token table.
type contextFile struct {
	Rules []ContextRule `yaml:"rules"`
}

// providerCatalog is the parsed, cross-reference-validated form of one
// provider's YAML file.
type providerCatalog struct {
	minLibraryVersion string
	modules           map[string]ModuleEntry // category -> module entry
	mappingByTypeID   map[string]Mapping
	typeIDsOrdered    []string
	ambiguous         map[string]bool
	layers            map[string]int
	dependencies      map[string][]string
}

// Registry is the immutable-after-load (until a successful hot reload)
// static catalog for all three providers plus the advisor pattern catalog
// and the Stage 2 context rules.
type Registry struct {
	providers map[string]*providerCatalog
	patterns  []Pattern
	context   map[string]ContextRule // ambiguous_type_id -> rule
}

// ModuleFor returns the renderer module path declared for (provider,
// category). ok is false if the provider or category is unknown.
func (r *Registry) ModuleFor(provider, category string) (string, bool) {
	pc, ok := r.providers[provider]
	if !ok {
		return "", false
	}
	m, ok := pc.modules[category]
	if !ok {
		return "", false
	}
	return m.Path, true
}

// Mapping returns the registry hint for (provider, type_id), if any.
func (r *Registry) Mapping(provider, typeID string) (Mapping, bool) {
	pc, ok := r.providers[provider]
	if !ok {
		return Mapping{}, false
	}
	m, ok := pc.mappingByTypeID[typeID]
	return m, ok
}

// AllTypeIDs returns the ordered list of every type_id the registry
// declares for provider.
func (r *Registry) AllTypeIDs(provider string) []string {
	pc, ok := r.providers[provider]
	if !ok {
		return nil
	}
	out := make([]string, len(pc.typeIDsOrdered))
	copy(out, pc.typeIDsOrdered)
	return out
}

// IsAmbiguous reports whether type_id is in the provider's ambiguous set.
func (r *Registry) IsAmbiguous(provider, typeID string) bool {
	pc, ok := r.providers[provider]
	if !ok {
		return false
	}
	return pc.ambiguous[typeID]
}

// Layer returns the architectural layer number declared for type_id under
// provider. ok is false if undeclared (caller should treat as a neutral
// default layer).
func (r *Registry) Layer(provider, typeID string) (int, bool) {
	pc, ok := r.providers[provider]
	if !ok {
		return 0, false
	}
	l, ok := pc.layers[typeID]
	return l, ok
}

// Dependencies returns the declared dependency type_ids for type_id under
// provider (e.g. ec2 -> [vpc, subnet]).
func (r *Registry) Dependencies(provider, typeID string) []string {
	pc, ok := r.providers[provider]
	if !ok {
		return nil
	}
	return append([]string(nil), pc.dependencies[typeID]...)
}

// ContextRuleFor returns the Stage 2 context rule for an ambiguous type_id.
func (r *Registry) ContextRuleFor(typeID string) (ContextRule, bool) {
	rule, ok := r.context[typeID]
	return rule, ok
}

// Patterns returns the advisor's closed pattern catalog, sorted by
// descending priority (ties preserve file order), mirroring
// policy_engine's Classification.SortByPriority convention.
func (r *Registry) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// MinLibraryVersion returns the minimum icon-library version the provider's
// catalog was generated against, for the Stage 4 version-skew hint.
func (r *Registry) MinLibraryVersion(provider string) string {
	pc, ok := r.providers[provider]
	if !ok {
		return ""
	}
	return pc.minLibraryVersion
}

// GeneratedTable exposes the registry's module->classes data as a
// symbolindex.Discoverer, standing in for the build-time generated symbol
// table described in SPEC_FULL.md.
type GeneratedTable struct {
	reg *Registry
}

// NewGeneratedTable wraps reg as a symbolindex.Discoverer.
func NewGeneratedTable(reg *Registry) *GeneratedTable {
	return &GeneratedTable{reg: reg}
}

// ClassesInModule returns every exported class name the generated table
// declares for module, regardless of which provider's catalog carries it
// (a module path is unique to one provider by convention, but lookup does
// not assume that).
func (g *GeneratedTable) ClassesInModule(_ context.Context, module string) ([]string, error) {
	for _, pc := range g.reg.providers {
		for _, m := range pc.modules {
			if m.Path == module {
				return append([]string(nil), m.Classes...), nil
			}
		}
	}
	return nil, fmt.Errorf("module %q not present in generated table", module)
}

// ModulesForProvider returns every module path declared for provider, for
// callers (the resolver) that need to search across all of a provider's
// categories rather than one category_hint.
func (r *Registry) ModulesForProvider(provider string) []string {
	pc, ok := r.providers[provider]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(pc.modules))
	for _, m := range pc.modules {
		out = append(out, m.Path)
	}
	return out
}

// ModulesByCategory returns a copy of provider's category -> ModuleEntry
// map, for the completions endpoint's classes[category] and
// imports[class] groupings.
func (r *Registry) ModulesByCategory(provider string) map[string]ModuleEntry {
	pc, ok := r.providers[provider]
	if !ok {
		return nil
	}
	out := make(map[string]ModuleEntry, len(pc.modules))
	for category, m := range pc.modules {
		out[category] = ModuleEntry{Path: m.Path, Classes: append([]string(nil), m.Classes...)}
	}
	return out
}
