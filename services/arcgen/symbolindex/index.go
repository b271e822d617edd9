// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symbolindex introspects the installed icon/diagram library once
// per module and caches the set of exported class-like symbols it exposes,
// serving fuzzy lookups of a free-form type_id against that cache.
package symbolindex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Discoverer enumerates every exported class-like symbol declared by a
// module, without filtering by the symbol's declared defining module —
// re-exported symbols must be included (a past source of missed matches).
// It is the seam over which the real icon library is introspected; in this
// rewrite it is backed by the build-time generated symbol table rather than
// runtime reflection (see registry.GeneratedTable).
type Discoverer interface {
	ClassesInModule(ctx context.Context, module string) ([]string, error)
}

// matchKind orders candidate matches from best to worst, mirroring the
// cascade spelled out for library discovery: exact, normalized-equal,
// substring, fuzzy.
type matchKind int

const (
	matchExact matchKind = iota
	matchNormalized
	matchSubstring
	matchFuzzy
	matchNone
)

// fuzzyThreshold is the minimum string-similarity ratio (1 - editDistance /
// maxLen) accepted for a fuzzy match.
const fuzzyThreshold = 0.60

// Index caches, per module, the set of exported class names the installed
// library exposes, and answers fuzzy find() queries over that cache.
//
// Thread Safety: Index is safe for concurrent use. First discovery of a
// module is at-most-once: concurrent callers for the same module block on a
// singleflight.Group and observe the same resulting set. Reads after
// population are lock-free aside from a brief RLock to copy out the slice.
type Index struct {
	mu         sync.RWMutex
	byModule   map[string][]string // module -> sorted exported class names
	discoverer Discoverer
	group      singleflight.Group
}

// New creates an index backed by the given discoverer. The index starts
// empty; modules are populated lazily on first ClassesIn/Find call.
func New(discoverer Discoverer) *Index {
	return &Index{
		byModule:   make(map[string][]string),
		discoverer: discoverer,
	}
}

// ClassesIn returns the set of exported class names for module, discovering
// it on first use. Concurrent first-time callers for the same module share
// one discovery call via singleflight.
func (idx *Index) ClassesIn(ctx context.Context, module string) ([]string, error) {
	idx.mu.RLock()
	if classes, ok := idx.byModule[module]; ok {
		defer idx.mu.RUnlock()
		return copyStrings(classes), nil
	}
	idx.mu.RUnlock()

	v, err, _ := idx.group.Do(module, func() (interface{}, error) {
		// Re-check under the singleflight key: another caller may have
		// populated it between the RUnlock above and this closure running.
		idx.mu.RLock()
		if classes, ok := idx.byModule[module]; ok {
			idx.mu.RUnlock()
			return classes, nil
		}
		idx.mu.RUnlock()

		classes, err := idx.discoverer.ClassesInModule(ctx, module)
		if err != nil {
			return nil, fmt.Errorf("discovering module %q: %w", module, err)
		}
		sorted := append([]string(nil), classes...)
		sort.Strings(sorted)

		idx.mu.Lock()
		idx.byModule[module] = sorted
		idx.mu.Unlock()
		return sorted, nil
	})
	if err != nil {
		return nil, err
	}
	return copyStrings(v.([]string)), nil
}

// Candidate is one module's worth of classes searched by Find, paired with
// the module path so callers can report where a match lives.
type Candidate struct {
	Module string
	Class  string
}

// Find searches typeID (possibly hyphenated, plural, cased variably)
// against the cached class sets of the given modules, in the match-order
// laid out for library discovery: exact, normalized-equal, substring,
// fuzzy (similarity >= 0.60, ties broken by higher score then
// alphabetical). It returns the first hit across the match cascade, or
// ok=false if nothing clears the fuzzy threshold.
func (idx *Index) Find(ctx context.Context, typeID string, modules []string) (Candidate, bool, error) {
	normalizedQuery := normalize(typeID)
	if normalizedQuery == "" {
		return Candidate{}, false, nil
	}

	type scored struct {
		cand  Candidate
		kind  matchKind
		score float64
	}
	var all []scored

	for _, module := range modules {
		classes, err := idx.ClassesIn(ctx, module)
		if err != nil {
			return Candidate{}, false, err
		}
		for _, class := range classes {
			kind, score := classify(normalizedQuery, typeID, class)
			if kind == matchNone {
				continue
			}
			all = append(all, scored{cand: Candidate{Module: module, Class: class}, kind: kind, score: score})
		}
	}

	if len(all) == 0 {
		return Candidate{}, false, nil
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].kind != all[j].kind {
			return all[i].kind < all[j].kind
		}
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].cand.Class < all[j].cand.Class
	})

	return all[0].cand, true, nil
}

// FuzzySuggestions returns up to limit class names across modules ranked by
// similarity to typeID, for use in Stage 4 diagnostic payloads. It ignores
// the match-kind cutoff that Find enforces so it can surface "near misses."
func (idx *Index) FuzzySuggestions(ctx context.Context, typeID string, modules []string, limit int) ([]string, error) {
	normalizedQuery := normalize(typeID)
	type scored struct {
		class string
		score float64
	}
	var all []scored
	seen := map[string]bool{}
	for _, module := range modules {
		classes, err := idx.ClassesIn(ctx, module)
		if err != nil {
			return nil, err
		}
		for _, class := range classes {
			if seen[class] {
				continue
			}
			seen[class] = true
			score := similarity(normalizedQuery, normalize(class))
			all = append(all, scored{class: class, score: score})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].class < all[j].class
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.class
	}
	return out, nil
}

// classify scores a candidate class against the normalized query per the
// exact/normalized/substring/fuzzy cascade.
func classify(normalizedQuery, rawQuery, class string) (matchKind, float64) {
	if strings.EqualFold(rawQuery, class) {
		return matchExact, 1.0
	}
	normalizedClass := normalize(class)
	if normalizedQuery == normalizedClass {
		return matchNormalized, 1.0
	}
	if strings.Contains(normalizedClass, normalizedQuery) || strings.Contains(normalizedQuery, normalizedClass) {
		return matchSubstring, similarity(normalizedQuery, normalizedClass)
	}
	score := similarity(normalizedQuery, normalizedClass)
	if score >= fuzzyThreshold {
		return matchFuzzy, score
	}
	return matchNone, 0
}

// normalize strips underscores, hyphens and whitespace and lowercases,
// per the library-discovery lookup's normalization rule.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '_', '-', ' ', '\t', '\n':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)), in [0,1].
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshteinDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// levenshteinDistance computes the edit distance between a and b using a
// two-row dynamic-programming table for memory efficiency.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Stats reports index population counters for observability.
type Stats struct {
	ModuleCount int
	ClassCount  int
}

// Stats returns a snapshot of current index population.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	classCount := 0
	for _, classes := range idx.byModule {
		classCount += len(classes)
	}
	return Stats{ModuleCount: len(idx.byModule), ClassCount: classCount}
}
