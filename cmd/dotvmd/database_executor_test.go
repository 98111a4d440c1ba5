// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"testing"

	"github.com/dotlanth/dotvm/document"
	"github.com/dotlanth/dotvm/kv"
	"github.com/dotlanth/dotvm/planner"
	"github.com/dotlanth/dotvm/vm"
)

func newTestDBExecutor() *documentDatabaseExecutor {
	store := document.New(kv.NewMem(), nil)
	return newDocumentDatabaseExecutor(store, planner.New())
}

func TestDocumentDatabaseExecutorReadMissing(t *testing.T) {
	e := newTestDBExecutor()
	v, err := e.Read(context.Background(), "widgets", "nope")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v.Kind != "Null" {
		t.Fatalf("Read(missing) kind = %q, want Null", v.Kind)
	}
}

func TestDocumentDatabaseExecutorWriteThenRead(t *testing.T) {
	e := newTestDBExecutor()
	ctx := context.Background()
	v := jsonValue(t, `{"name":"gizmo"}`)

	if err := e.Write(ctx, "widgets", "w1", v); err != nil {
		t.Fatalf("Write (create): %v", err)
	}
	got, err := e.Read(ctx, "widgets", "w1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got.JSON) != `{"name":"gizmo"}` {
		t.Fatalf("Read = %s, want created content", got.JSON)
	}

	updated := jsonValue(t, `{"name":"gizmo-v2"}`)
	if err := e.Write(ctx, "widgets", "w1", updated); err != nil {
		t.Fatalf("Write (update): %v", err)
	}
	got, err = e.Read(ctx, "widgets", "w1")
	if err != nil {
		t.Fatalf("Read after update: %v", err)
	}
	if string(got.JSON) != `{"name":"gizmo-v2"}` {
		t.Fatalf("Read after update = %s, want updated content", got.JSON)
	}
}

func TestDocumentDatabaseExecutorQueryFiltersBySubstring(t *testing.T) {
	e := newTestDBExecutor()
	ctx := context.Background()

	if err := e.Write(ctx, "widgets", "w1", jsonValue(t, `{"name":"gizmo"}`)); err != nil {
		t.Fatalf("Write w1: %v", err)
	}
	if err := e.Write(ctx, "widgets", "w2", jsonValue(t, `{"name":"sprocket"}`)); err != nil {
		t.Fatalf("Write w2: %v", err)
	}

	result, err := e.Query(ctx, "widgets", jsonValue(t, `{"contains":"gizmo"}`))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if string(result.JSON) != `[{"name":"gizmo"}]` {
		t.Fatalf("Query result = %s, want only the matching row", result.JSON)
	}
}

func TestDocumentDatabaseExecutorQueryEmptySpecReturnsAll(t *testing.T) {
	e := newTestDBExecutor()
	ctx := context.Background()

	if err := e.Write(ctx, "widgets", "w1", jsonValue(t, `{"name":"gizmo"}`)); err != nil {
		t.Fatalf("Write w1: %v", err)
	}
	if err := e.Write(ctx, "widgets", "w2", jsonValue(t, `{"name":"sprocket"}`)); err != nil {
		t.Fatalf("Write w2: %v", err)
	}

	result, err := e.Query(ctx, "widgets", vm.Value{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if string(result.JSON) != `[{"name":"gizmo"},{"name":"sprocket"}]` {
		t.Fatalf("Query with empty spec = %s, want every row in insertion order", result.JSON)
	}
}
