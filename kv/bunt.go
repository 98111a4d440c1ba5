// Package kv defines the byte-key/byte-value primitive that
// the document store and query planner treat as their sole mutator
// contract. No ordering across unrelated keys is guaranteed.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package kv

import (
	"errors"

	"github.com/tidwall/buntdb"
)

// BuntStore implements Store atop github.com/tidwall/buntdb, an embedded,
// in-process ordered key-value engine. This is the production Store.
type BuntStore struct {
	db *buntdb.DB
}

// OpenBunt opens (creating if absent) a buntdb database at path. Pass ":memory:"
// for a volatile store suitable for tests.
func OpenBunt(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, opError("kv.OpenBunt", err)
	}
	return &BuntStore{db: db}, nil
}

func (s *BuntStore) Get(key []byte) ([]byte, bool, error) {
	var val string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(string(key))
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, opError("kv.Get", err)
	}
	return []byte(val), true, nil
}

func (s *BuntStore) Put(key, value []byte) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(string(key), string(value), nil)
		return err
	})
	return opError("kv.Put", err)
}

func (s *BuntStore) Delete(key []byte) (bool, error) {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(string(key))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, opError("kv.Delete", err)
	}
	return true, nil
}

func (s *BuntStore) Contains(key []byte) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

func (s *BuntStore) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	pattern := string(prefix) + "*"
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(pattern, func(k, v string) bool {
			return fn([]byte(k), []byte(v))
		})
	})
	return opError("kv.Scan", err)
}

func (s *BuntStore) Close() error {
	return opError("kv.Close", s.db.Close())
}
