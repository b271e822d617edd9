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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

var providerFiles = map[string]string{
	"aws":   "aws.yaml",
	"azure": "azure.yaml",
	"gcp":   "gcp.yaml",
}

// Load parses every provider catalog, the pattern catalog, and the context
// rule table under dir, cross-reference-validates them, and returns a
// ready-to-use Registry.
func Load(dir string) (*Registry, error) {
	reg := &Registry{providers: make(map[string]*providerCatalog)}

	for provider, filename := range providerFiles {
		pc, err := loadProviderCatalog(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("loading %s catalog: %w", provider, err)
		}
		reg.providers[provider] = pc
	}

	patterns, err := loadPatterns(filepath.Join(dir, "patterns.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading pattern catalog: %w", err)
	}
	reg.patterns = patterns

	ctxRules, err := loadContext(filepath.Join(dir, "context.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading context rules: %w", err)
	}
	reg.context = ctxRules

	return reg, nil
}

func loadProviderCatalog(path string) (*providerCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf providerFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	pc := &providerCatalog{
		minLibraryVersion: pf.MinLibraryVersion,
		modules:           pf.Modules,
		mappingByTypeID:   make(map[string]Mapping, len(pf.Mappings)),
		ambiguous:         make(map[string]bool, len(pf.AmbiguousTypeIDs)),
		layers:            pf.Layers,
		dependencies:      pf.Dependencies,
	}
	for _, m := range pf.Mappings {
		pc.mappingByTypeID[m.TypeID] = m
		pc.typeIDsOrdered = append(pc.typeIDsOrdered, m.TypeID)
	}
	for _, t := range pf.AmbiguousTypeIDs {
		pc.ambiguous[t] = true
	}

	if err := validateCrossReferences(path, pf); err != nil {
		return nil, err
	}

	return pc, nil
}

// validateCrossReferences rejects a catalog whose mappings point at
// undeclared categories, since module_for would otherwise silently fail at
// resolve time instead of at load time.
func validateCrossReferences(path string, pf providerFile) error {
	for _, m := range pf.Mappings {
		if _, ok := pf.Modules[m.Category]; !ok {
			return fmt.Errorf("%s: mapping %q references undeclared category %q", path, m.TypeID, m.Category)
		}
	}
	return nil
}

func loadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf patternsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	sortPatternsByPriority(pf.Patterns)
	return pf.Patterns, nil
}

func sortPatternsByPriority(patterns []Pattern) {
	// Stable insertion sort by descending priority: the catalog is small
	// and this preserves file order among equal priorities, matching
	// policy_engine's SortByPriority semantics.
	for i := 1; i < len(patterns); i++ {
		j := i
		for j > 0 && patterns[j-1].Priority < patterns[j].Priority {
			patterns[j-1], patterns[j] = patterns[j], patterns[j-1]
			j--
		}
	}
}

func loadContext(path string) (map[string]ContextRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf contextFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make(map[string]ContextRule, len(cf.Rules))
	for _, r := range cf.Rules {
		out[r.AmbiguousTypeID] = r
	}
	return out, nil
}

// Watcher wraps a Registry in an atomic.Pointer and hot-reloads it from
// disk whenever fsnotify reports a write under dir. A reload that fails to
// parse or cross-reference-validate is logged and discarded; the
// previously loaded Registry remains live (swap-on-success only).
type Watcher struct {
	dir     string
	current atomic.Pointer[Registry]
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher loads dir once and starts watching it for changes.
func NewWatcher(dir string) (*Watcher, error) {
	reg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Registry hot-reload is a convenience, not a correctness
		// requirement; degrade gracefully rather than fail startup.
		slog.Warn("registry watcher unavailable, hot reload disabled", "error", err)
		w := &Watcher{dir: dir}
		w.current.Store(reg)
		return w, nil
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		slog.Warn("registry watcher could not watch directory, hot reload disabled", "dir", dir, "error", err)
		w := &Watcher{dir: dir}
		w.current.Store(reg)
		return w, nil
	}

	w := &Watcher{dir: dir, watcher: fsw, done: make(chan struct{})}
	w.current.Store(reg)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("registry watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	reg, err := Load(w.dir)
	if err != nil {
		slog.Error("registry reload failed, keeping previous catalog", "dir", w.dir, "error", err)
		return
	}
	w.current.Store(reg)
	slog.Info("registry reloaded", "dir", w.dir)
}

// Get returns the currently live Registry.
func (w *Watcher) Get() *Registry {
	return w.current.Load()
}

// Stop stops watching. Safe to call once.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.done)
	w.watcher.Close()
}
