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
	"encoding/json"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerMemoCache persists resolve() results across restarts so a warm
// process skips re-resolution for previously seen (provider, type_id,
// name) triples. Entries carry no TTL — resolution results do not expire
// within a process lifetime — but the whole database is wiped whenever the
// configured installed library version changes (see ResetOnVersionChange),
// since a new library version invalidates every prior resolution.
type BadgerMemoCache struct {
	db *badger.DB
}

// OpenBadgerMemoCache opens (creating if missing) a Badger database at
// path. On any open failure it logs a warning and returns a nil cache with
// a nil error: the resolver degrades gracefully to in-process-only
// memoization rather than failing startup over a convenience cache.
func OpenBadgerMemoCache(path string) (*BadgerMemoCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		slog.Warn("resolver cache unavailable, continuing without persistence", "path", path, "error", err)
		return nil, nil
	}
	return &BadgerMemoCache{db: db}, nil
}

// Get returns the cached symbol for key, if present.
func (c *BadgerMemoCache) Get(key string) (Symbol, bool) {
	if c == nil || c.db == nil {
		return Symbol{}, false
	}
	var sym Symbol
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sym)
		})
	})
	if err != nil {
		return Symbol{}, false
	}
	return sym, true
}

// Put persists sym under key, logging (not failing) on a write error.
func (c *BadgerMemoCache) Put(key string, sym Symbol) {
	if c == nil || c.db == nil {
		return
	}
	data, err := json.Marshal(sym)
	if err != nil {
		return
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		slog.Warn("resolver cache write failed", "error", err)
	}
}

// ResetOnVersionChange drops every entry when storedVersion (the version
// the cache was last populated under, itself stored under a reserved key)
// differs from currentVersion, then records currentVersion.
func (c *BadgerMemoCache) ResetOnVersionChange(currentVersion string) error {
	if c == nil || c.db == nil {
		return nil
	}
	const versionKey = "__installed_library_version__"
	var stored string
	_ = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(versionKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored = string(val)
			return nil
		})
	})
	if stored == currentVersion {
		return nil
	}
	if err := c.db.DropAll(); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(versionKey), []byte(currentVersion))
	})
}

// Close releases the underlying Badger database.
func (c *BadgerMemoCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
