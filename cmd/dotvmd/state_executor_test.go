// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"testing"

	"github.com/dotlanth/dotvm/checkpoint"
	"github.com/dotlanth/dotvm/kv"
	"github.com/dotlanth/dotvm/vm"
)

func newTestStateExecutor(t *testing.T) (*kvStateExecutor, kv.Store) {
	t.Helper()
	store := kv.NewMem()
	mgr, err := checkpoint.New(t.TempDir(), store, nil, checkpoint.DefaultConfig())
	if err != nil {
		t.Fatalf("checkpoint.New: %v", err)
	}
	return newKVStateExecutor(store, nil, mgr), store
}

func TestKVStateExecutorGetMissing(t *testing.T) {
	e, _ := newTestStateExecutor(t)
	_, found, err := e.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("Get(nope) reported found for an unset key")
	}
}

func TestKVStateExecutorSetThenGet(t *testing.T) {
	e, _ := newTestStateExecutor(t)
	ctx := context.Background()
	want := vm.Int64Value(7)

	if err := e.Set(ctx, "counter", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := e.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("Get(counter) reported not found after Set")
	}
	if gi, _ := got.AsInt64(); gi != 7 {
		t.Fatalf("Get(counter) = %v, want 7", got)
	}
}

func TestKVStateExecutorKeysAreNamespaced(t *testing.T) {
	e, store := newTestStateExecutor(t)
	if err := e.Set(context.Background(), "k", vm.Int64Value(1)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found, _ := store.Get([]byte("k")); found {
		t.Fatalf("state key leaked into the unnamespaced keyspace")
	}
	if _, found, _ := store.Get(stateKey("k")); !found {
		t.Fatalf("expected the namespaced state: key to be present")
	}
}

func TestKVStateExecutorSnapshotCreatesCheckpoint(t *testing.T) {
	e, _ := newTestStateExecutor(t)
	id, err := e.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if id == "" {
		t.Fatalf("Snapshot returned an empty checkpoint id")
	}
	list, err := e.checkpoint.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("List() = %+v, want one checkpoint matching %q", list, id)
	}
}
