// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"encoding/json"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/document"
	"github.com/dotlanth/dotvm/planner"
	"github.com/dotlanth/dotvm/vm"
)

// documentDatabaseExecutor adapts document.Store to bridge.
// DatabaseExecutor: the host-function ABI's db_read/db_write/
// db_query trap directly into the document store guest bytecode already
// shares with the gateway's own DBRead/DBWrite/DBQuery calls.
type documentDatabaseExecutor struct {
	store   *document.Store
	planner *planner.Planner
}

func newDocumentDatabaseExecutor(store *document.Store, p *planner.Planner) *documentDatabaseExecutor {
	return &documentDatabaseExecutor{store: store, planner: p}
}

func (e *documentDatabaseExecutor) Read(_ context.Context, collection, documentID string) (vm.Value, error) {
	doc, ok, err := e.store.GetDocument(collection, documentID)
	if err != nil {
		return vm.Value{}, err
	}
	if !ok {
		return vm.NullValue(), nil
	}
	return vm.JSONValue(json.RawMessage(doc.Content)), nil
}

func (e *documentDatabaseExecutor) Write(_ context.Context, collection, documentID string, value vm.Value) error {
	content := jsoniter.RawMessage(value.JSON)
	if content == nil {
		content = jsoniter.RawMessage("null")
	}
	doc := &document.Document{ID: documentID, Content: content}
	if _, ok, err := e.store.GetDocument(collection, documentID); err != nil {
		return err
	} else if ok {
		return e.store.UpdateDocument(collection, doc)
	}
	_, err := e.store.CreateDocument(collection, doc)
	return err
}

// querySpec is the JSON shape db_query's querySpec value carries: a
// single substring filter over each document's raw content. Query-language
// parsing belongs to the external gateway.
type querySpec struct {
	Contains string `json:"contains"`
}

func (e *documentDatabaseExecutor) Query(_ context.Context, collection string, spec vm.Value) (vm.Value, error) {
	var q querySpec
	if len(spec.JSON) > 0 {
		if err := jsoniter.Unmarshal(spec.JSON, &q); err != nil {
			return vm.Value{}, cmn.Validationf("dotvmd.Query", "invalid query spec: %v", err)
		}
	}

	ids, err := e.store.ListDocuments(collection)
	if err != nil {
		return vm.Value{}, err
	}
	if e.planner != nil {
		e.planner.RegisterTable(collection, planner.TableMetadata{RowCount: uint64(len(ids))})
		parsed := &planner.ParsedQuery{FromTable: collection}
		if q.Contains != "" {
			parsed.WherePredicates = []planner.QueryPredicate{{Column: "content", Operator: "contains", Value: q.Contains}}
		}
		if _, err := e.planner.GeneratePlan(parsed); err != nil {
			return vm.Value{}, err
		}
	}

	rows := make([]jsoniter.RawMessage, 0, len(ids))
	for _, id := range ids {
		doc, ok, err := e.store.GetDocument(collection, id)
		if err != nil {
			return vm.Value{}, err
		}
		if !ok {
			continue
		}
		if q.Contains == "" || strings.Contains(string(doc.Content), q.Contains) {
			rows = append(rows, doc.Content)
		}
	}

	b, err := jsoniter.Marshal(rows)
	if err != nil {
		return vm.Value{}, cmn.NewError(cmn.KindInternal, "dotvmd.Query", "result serialization failed", err)
	}
	return vm.JSONValue(b), nil
}
