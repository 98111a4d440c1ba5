// Package kv defines the byte-key/byte-value primitive that
// the document store and query planner treat as their sole mutator
// contract. No ordering across unrelated keys is guaranteed.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package kv_test

import (
	"testing"

	"github.com/dotlanth/dotvm/cmn/tassert"
	"github.com/dotlanth/dotvm/kv"
)

func stores(t *testing.T) map[string]kv.Store {
	bunt, err := kv.OpenBunt(":memory:")
	tassert.CheckFatal(t, err)
	t.Cleanup(func() { bunt.Close() })
	return map[string]kv.Store{
		"mem":  kv.NewMem(),
		"bunt": bunt,
	}
}

func TestPutGet(t *testing.T) {
	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			tassert.CheckFatal(t, s.Put([]byte("k1"), []byte("v1")))
			v, ok, err := s.Get([]byte("k1"))
			tassert.CheckFatal(t, err)
			tassert.Fatalf(t, ok, "expected k1 to be present")
			tassert.Errorf(t, string(v) == "v1", "got %q, want v1", v)
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get([]byte("missing"))
			tassert.CheckFatal(t, err)
			tassert.Errorf(t, !ok, "expected missing key to be absent")
		})
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			tassert.CheckFatal(t, s.Put([]byte("k"), []byte("v")))
			existed, err := s.Delete([]byte("k"))
			tassert.CheckFatal(t, err)
			tassert.Errorf(t, existed, "first Delete must report the key existed")
			existed, err = s.Delete([]byte("k"))
			tassert.CheckFatal(t, err)
			tassert.Errorf(t, !existed, "second Delete must report the key was gone")
		})
	}
}

func TestContains(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ok, _ := s.Contains([]byte("x"))
			tassert.Errorf(t, !ok, "expected absent key")
			s.Put([]byte("x"), []byte("1"))
			ok, _ = s.Contains([]byte("x"))
			tassert.Errorf(t, ok, "expected present key")
		})
	}
}

func TestScanPrefix(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Put([]byte("doc:a:1"), []byte("1"))
			s.Put([]byte("doc:a:2"), []byte("2"))
			s.Put([]byte("doc:b:1"), []byte("3"))

			var got []string
			s.Scan([]byte("doc:a:"), func(k, v []byte) bool {
				got = append(got, string(k))
				return true
			})
			tassert.Errorf(t, len(got) == 2, "expected 2 keys under doc:a:, got %v", got)
		})
	}
}
