// Copyright (C) 2025 Jappo Collectif (dev@jappo-asso.org)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package geocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// DefaultSlot is the fixed identifier of the geocode cache blob inside
// the badger database.
const DefaultSlot = "geocache"

// BadgerStore keeps the cache blob under a single fixed key in an
// embedded BadgerDB. It implements Store.
type BadgerStore struct {
	db  *badger.DB
	key []byte
}

// NewBadgerStore creates a store for the named slot. An empty name
// selects DefaultSlot.
func NewBadgerStore(db *badger.DB, slot string) *BadgerStore {
	if slot == "" {
		slot = DefaultSlot
	}
	return &BadgerStore{
		db:  db,
		key: []byte("slot/" + slot),
	}
}

// Read returns the stored blob, or (nil, nil) when the slot was never
// written.
func (s *BadgerStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", s.key, err)
	}
	return blob, nil
}

// Write replaces the stored blob.
func (s *BadgerStore) Write(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, blob)
	})
	if err != nil {
		return fmt.Errorf("write slot %s: %w", s.key, err)
	}
	return nil
}
