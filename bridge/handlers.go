// Package bridge implements the synchronous-to-async host-function
// bridge: it lets guest bytecode invoke database, crypto, parallel, and
// state operations through blocking calls backed by the async scheduler.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package bridge

import (
	"context"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/vm"
)

// handler is one registered host function: a parameter-count/type check
// followed by the actual (possibly blocking-on-executor) execution.
type handler struct {
	validate func(params []vm.Value) error
	exec     func(ctx context.Context, b *Bridge, params []vm.Value) ([]vm.Value, error)
}

func wrongArity(name string, want string, got int) error {
	return cmn.Validationf("bridge."+name, "%s requires %s, got %d", name, want, got)
}

func wrongType(name string, index int, want string) error {
	return cmn.Validationf("bridge."+name, "%s parameter %d must be %s", name, index, want)
}

func kindAt(params []vm.Value, i int) string {
	if i < 0 || i >= len(params) {
		return ""
	}
	return params[i].Kind
}

func unavailable(name string) error {
	return cmn.NewError(cmn.KindUnavailable, "bridge."+name, name+" executor is not configured", nil)
}

var handlers = map[string]handler{
	"db_read": {
		validate: func(p []vm.Value) error {
			if len(p) != 2 {
				return wrongArity("db_read", "2 parameters: collection, document_id", len(p))
			}
			if kindAt(p, 0) != "Collection" {
				return wrongType("db_read", 0, "Collection")
			}
			if kindAt(p, 1) != "DocumentID" {
				return wrongType("db_read", 1, "DocumentID")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.db == nil {
				return nil, unavailable("db_read")
			}
			v, err := b.db.Read(ctx, p[0].Collection, p[1].DocumentID)
			if err != nil {
				return nil, err
			}
			return []vm.Value{v}, nil
		},
	},
	"db_write": {
		validate: func(p []vm.Value) error {
			if len(p) != 3 {
				return wrongArity("db_write", "3 parameters: collection, document_id, value", len(p))
			}
			if kindAt(p, 0) != "Collection" {
				return wrongType("db_write", 0, "Collection")
			}
			if kindAt(p, 1) != "DocumentID" {
				return wrongType("db_write", 1, "DocumentID")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.db == nil {
				return nil, unavailable("db_write")
			}
			if err := b.db.Write(ctx, p[0].Collection, p[1].DocumentID, p[2]); err != nil {
				return nil, err
			}
			return nil, nil
		},
	},
	"db_query": {
		validate: func(p []vm.Value) error {
			if len(p) != 2 {
				return wrongArity("db_query", "2 parameters: collection, query_spec", len(p))
			}
			if kindAt(p, 0) != "Collection" {
				return wrongType("db_query", 0, "Collection")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.db == nil {
				return nil, unavailable("db_query")
			}
			v, err := b.db.Query(ctx, p[0].Collection, p[1])
			if err != nil {
				return nil, err
			}
			return []vm.Value{v}, nil
		},
	},
	"crypto_hash": {
		validate: func(p []vm.Value) error {
			if len(p) != 2 {
				return wrongArity("crypto_hash", "2 parameters: algorithm, data", len(p))
			}
			if kindAt(p, 0) != "String" {
				return wrongType("crypto_hash", 0, "String")
			}
			if kindAt(p, 1) != "String" {
				return wrongType("crypto_hash", 1, "String")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.crypto == nil {
				return nil, unavailable("crypto_hash")
			}
			out, err := b.crypto.Hash(ctx, p[0].Str, p[1].Str)
			if err != nil {
				return nil, err
			}
			return []vm.Value{vm.StringValue(out)}, nil
		},
	},
	"crypto_encrypt": {
		validate: func(p []vm.Value) error {
			if len(p) != 3 {
				return wrongArity("crypto_encrypt", "3 parameters: algorithm, key, data", len(p))
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.crypto == nil {
				return nil, unavailable("crypto_encrypt")
			}
			out, err := b.crypto.Encrypt(ctx, p[0].Str, p[1].Str, p[2].Str)
			if err != nil {
				return nil, err
			}
			return []vm.Value{vm.StringValue(out)}, nil
		},
	},
	"crypto_decrypt": {
		validate: func(p []vm.Value) error {
			if len(p) != 3 {
				return wrongArity("crypto_decrypt", "3 parameters: algorithm, key, encrypted_data", len(p))
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.crypto == nil {
				return nil, unavailable("crypto_decrypt")
			}
			out, err := b.crypto.Decrypt(ctx, p[0].Str, p[1].Str, p[2].Str)
			if err != nil {
				return nil, err
			}
			return []vm.Value{vm.StringValue(out)}, nil
		},
	},
	"parallel_map": {
		validate: func(p []vm.Value) error {
			if len(p) < 2 {
				return wrongArity("parallel_map", "at least 2 parameters: function_ref, data...", len(p))
			}
			if kindAt(p, 0) != "Int64" {
				return wrongType("parallel_map", 0, "Int64")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.parallel == nil {
				return nil, unavailable("parallel_map")
			}
			return b.parallel.Map(ctx, p[0].Int64, p[1:])
		},
	},
	"parallel_reduce": {
		validate: func(p []vm.Value) error {
			if len(p) < 2 {
				return wrongArity("parallel_reduce", "at least 2 parameters: function_ref, initial_value, data...", len(p))
			}
			if kindAt(p, 0) != "Int64" {
				return wrongType("parallel_reduce", 0, "Int64")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.parallel == nil {
				return nil, unavailable("parallel_reduce")
			}
			v, err := b.parallel.Reduce(ctx, p[0].Int64, p[1], p[2:])
			if err != nil {
				return nil, err
			}
			return []vm.Value{v}, nil
		},
	},
	"paradot_spawn": {
		validate: func(p []vm.Value) error {
			if len(p) != 1 {
				return wrongArity("paradot_spawn", "1 parameter: paradot_spec", len(p))
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.parallel == nil {
				return nil, unavailable("paradot_spawn")
			}
			id, err := b.parallel.SpawnParaDot(ctx, p[0])
			if err != nil {
				return nil, err
			}
			return []vm.Value{vm.StringValue(id)}, nil
		},
	},
	"state_get": {
		validate: func(p []vm.Value) error {
			if len(p) != 1 {
				return wrongArity("state_get", "1 parameter: key", len(p))
			}
			if kindAt(p, 0) != "String" {
				return wrongType("state_get", 0, "String")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.state == nil {
				return nil, unavailable("state_get")
			}
			v, found, err := b.state.Get(ctx, p[0].Str)
			if err != nil {
				return nil, err
			}
			if !found {
				return []vm.Value{vm.NullValue()}, nil
			}
			return []vm.Value{v}, nil
		},
	},
	"state_set": {
		validate: func(p []vm.Value) error {
			if len(p) != 2 {
				return wrongArity("state_set", "2 parameters: key, value", len(p))
			}
			if kindAt(p, 0) != "String" {
				return wrongType("state_set", 0, "String")
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.state == nil {
				return nil, unavailable("state_set")
			}
			if err := b.state.Set(ctx, p[0].Str, p[1]); err != nil {
				return nil, err
			}
			return nil, nil
		},
	},
	"state_snapshot": {
		validate: func(p []vm.Value) error {
			if len(p) != 0 {
				return wrongArity("state_snapshot", "0 parameters", len(p))
			}
			return nil
		},
		exec: func(ctx context.Context, b *Bridge, p []vm.Value) ([]vm.Value, error) {
			if b.state == nil {
				return nil, unavailable("state_snapshot")
			}
			id, err := b.state.Snapshot(ctx)
			if err != nil {
				return nil, err
			}
			return []vm.Value{vm.StringValue(id)}, nil
		},
	},
}
