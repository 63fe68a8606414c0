// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package poster

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const posterKeyPrefix = "poster:"

// Cache stores resolved poster URLs keyed by external reference id. An empty
// URL is a valid cached value meaning "OMDb has no poster".
type Cache interface {
	Get(ref string) (url string, found bool, err error)
	Set(ref, url string, ttl time.Duration) error
}

// BadgerCache is a Cache persisted in BadgerDB. Expiry is handled by
// badger entry TTLs.
type BadgerCache struct {
	db *badger.DB
}

// OpenBadgerCache opens a cache in dir. An empty dir keeps it in memory.
func OpenBadgerCache(dir string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open poster cache: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

// NewBadgerCache wraps an already open database.
func NewBadgerCache(db *badger.DB) *BadgerCache {
	return &BadgerCache{db: db}
}

// Get returns the cached URL for ref.
func (c *BadgerCache) Get(ref string) (string, bool, error) {
	var url string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(posterKeyPrefix + ref))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			url = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get poster %s: %w", ref, err)
	}
	return url, true, nil
}

// Set stores url for ref. A non-positive ttl stores it without expiry.
func (c *BadgerCache) Set(ref, url string, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(posterKeyPrefix+ref), []byte(url))
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set poster %s: %w", ref, err)
		}
		return nil
	})
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
