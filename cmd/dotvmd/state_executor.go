// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"github.com/dotlanth/dotvm/checkpoint"
	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/kv"
	"github.com/dotlanth/dotvm/vm"
	"github.com/dotlanth/dotvm/wal"
)

// kvStateExecutor adapts kv.Store to bridge.StateExecutor for
// state_get/state_set/state_snapshot: guest-visible scratch state
// distinct from document storage, namespaced under "state:" so it never
// collides with document.Store's "doc:"/"col:" key families. Snapshot
// triggers an actual checkpoint so the returned id is one a later
// restore can target.
type kvStateExecutor struct {
	store      kv.Store
	log        wal.Log
	checkpoint *checkpoint.Manager
}

func newKVStateExecutor(store kv.Store, log wal.Log, ckpt *checkpoint.Manager) *kvStateExecutor {
	return &kvStateExecutor{store: store, log: log, checkpoint: ckpt}
}

func stateKey(key string) []byte { return []byte("state:" + key) }

func (e *kvStateExecutor) Get(_ context.Context, key string) (vm.Value, bool, error) {
	b, found, err := e.store.Get(stateKey(key))
	if err != nil {
		return vm.Value{}, false, err
	}
	if !found {
		return vm.Value{}, false, nil
	}
	var v vm.Value
	if err := jsoniter.Unmarshal(b, &v); err != nil {
		return vm.Value{}, false, cmn.NewError(cmn.KindInternal, "dotvmd.StateGet", "deserialization failure", err)
	}
	return v, true, nil
}

func (e *kvStateExecutor) Set(_ context.Context, key string, value vm.Value) error {
	b, err := jsoniter.Marshal(value)
	if err != nil {
		return cmn.NewError(cmn.KindInternal, "dotvmd.StateSet", "serialization failure", err)
	}
	if e.log != nil {
		payload := wal.MarshalPayload(wal.PutPayload{TableID: "state", Key: stateKey(key), Value: b})
		if _, err := e.log.Append(wal.KindPut, payload); err != nil {
			return cmn.NewError(cmn.KindUnavailable, "dotvmd.StateSet", "WAL append failed", err)
		}
	}
	return e.store.Put(stateKey(key), b)
}

func (e *kvStateExecutor) Snapshot(_ context.Context) (string, error) {
	meta, err := e.checkpoint.CreateCheckpoint()
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}
