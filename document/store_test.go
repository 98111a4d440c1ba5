// Package document implements the document store: collections of
// content-addressed JSON documents atop the key-value interface, with every
// mutation recorded in the write-ahead log before it becomes visible.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package document_test

import (
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/dotlanth/dotvm/document"
	"github.com/dotlanth/dotvm/kv"
)

// TestDocumentCRUD walks a document through create, read, update, and delete.
func TestDocumentCRUD(t *testing.T) {
	store := document.New(kv.NewMem(), nil)

	if err := store.CreateCollection("users"); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	doc := &document.Document{ID: "u1", Content: jsoniter.RawMessage(`{"name":"Alice"}`)}
	if _, err := store.CreateDocument("users", doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, ok, err := store.GetDocument("users", "u1")
	if err != nil || !ok {
		t.Fatalf("GetDocument: ok=%v err=%v", ok, err)
	}
	if string(got.Content) != `{"name":"Alice"}` {
		t.Fatalf("content = %s", got.Content)
	}

	got.Content = jsoniter.RawMessage(`{"name":"Alice","age":30}`)
	if err := store.UpdateDocument("users", got); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}

	updated, ok, err := store.GetDocument("users", "u1")
	if err != nil || !ok {
		t.Fatalf("GetDocument after update: ok=%v err=%v", ok, err)
	}
	if string(updated.Content) != `{"name":"Alice","age":30}` {
		t.Fatalf("content after update = %s", updated.Content)
	}
	if !updated.Metadata.UpdatedAt.After(updated.Metadata.CreatedAt) && !updated.Metadata.UpdatedAt.Equal(updated.Metadata.CreatedAt) {
		t.Fatalf("UpdatedAt should not precede CreatedAt")
	}

	existed, err := store.DeleteDocument("users", "u1")
	if err != nil || !existed {
		t.Fatalf("first DeleteDocument: existed=%v err=%v", existed, err)
	}
	existed, err = store.DeleteDocument("users", "u1")
	if err != nil || existed {
		t.Fatalf("second DeleteDocument: existed=%v err=%v", existed, err)
	}
}

func TestCreateDocumentAlreadyExists(t *testing.T) {
	store := document.New(kv.NewMem(), nil)
	store.CreateCollection("c")
	doc := &document.Document{ID: "1", Content: jsoniter.RawMessage(`{}`)}
	if _, err := store.CreateDocument("c", doc); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := store.CreateDocument("c", doc); err == nil {
		t.Fatalf("expected AlreadyExists error")
	}
}

func TestUpdateMissingDocumentNotFound(t *testing.T) {
	store := document.New(kv.NewMem(), nil)
	store.CreateCollection("c")
	err := store.UpdateDocument("c", &document.Document{ID: "missing", Content: jsoniter.RawMessage(`{}`)})
	if err == nil {
		t.Fatalf("expected NotFound error")
	}
}

func TestEmptyCollectionBoundary(t *testing.T) {
	store := document.New(kv.NewMem(), nil)
	store.CreateCollection("empty")

	ids, err := store.ListDocuments("empty")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty list, got %v", ids)
	}
	count, err := store.CountDocuments("empty")
	if err != nil || count != 0 {
		t.Fatalf("CountDocuments: %d, %v", count, err)
	}
}

func TestListDocumentsInsertionOrder(t *testing.T) {
	store := document.New(kv.NewMem(), nil)
	store.CreateCollection("c")
	for _, id := range []string{"b", "a", "c"} {
		store.CreateDocument("c", &document.Document{ID: id, Content: jsoniter.RawMessage(`{}`)})
	}
	ids, err := store.ListDocuments("c")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	want := []string{"b", "a", "c"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestDeleteCollectionCascades(t *testing.T) {
	store := document.New(kv.NewMem(), nil)
	store.CreateCollection("c")
	store.CreateDocument("c", &document.Document{ID: "1", Content: jsoniter.RawMessage(`{}`)})
	store.CreateDocument("c", &document.Document{ID: "2", Content: jsoniter.RawMessage(`{}`)})

	if err := store.DeleteCollection("c"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if _, ok, _ := store.GetDocument("c", "1"); ok {
		t.Fatalf("expected document 1 to be gone")
	}
	cols, _ := store.ListCollections()
	for _, name := range cols {
		if name == "c" {
			t.Fatalf("expected collection c to be removed from registry")
		}
	}
}
