// Package kv defines the byte-key/byte-value primitive that
// the document store and query planner treat as their sole mutator
// contract. No ordering across unrelated keys is guaranteed.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package kv

import "github.com/dotlanth/dotvm/cmn"

// Store is the key-value interface. Implementations: Mem (in-process
// map, for tests) and BuntStore (embedded buntdb-backed, for production).
type Store interface {
	// Get returns the value for key and true, or nil and false if absent.
	Get(key []byte) ([]byte, bool, error)
	// Put writes value for key, creating or overwriting it.
	Put(key, value []byte) error
	// Delete removes key, reporting whether it previously existed.
	Delete(key []byte) (existed bool, err error)
	// Contains reports whether key is present without copying its value.
	Contains(key []byte) (bool, error)
	// Scan invokes fn for every key with the given prefix, in the
	// implementation's native order, until fn returns false or all matching
	// keys are exhausted. Used by the checkpoint manager to enumerate data.
	Scan(prefix []byte, fn func(key, value []byte) bool) error
	// Close releases any resources the store holds open.
	Close() error
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return cmn.NewError(cmn.KindUnavailable, op, "storage failure", err)
}
