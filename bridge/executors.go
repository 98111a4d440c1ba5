// Package bridge implements the synchronous-to-async host-function
// bridge: it lets guest bytecode invoke database, crypto, parallel, and
// state operations through blocking calls backed by the async scheduler.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package bridge

import (
	"context"

	"github.com/dotlanth/dotvm/vm"
)

// DatabaseExecutor backs db_read/db_write/db_query. Implementations
// adapt the document store to the stack-value ABI the bridge
// exposes to guest bytecode.
type DatabaseExecutor interface {
	Read(ctx context.Context, collection, documentID string) (vm.Value, error)
	Write(ctx context.Context, collection, documentID string, value vm.Value) error
	Query(ctx context.Context, collection string, querySpec vm.Value) (vm.Value, error)
}

// CryptoExecutor backs crypto_hash/crypto_encrypt/crypto_decrypt.
type CryptoExecutor interface {
	Hash(ctx context.Context, algorithm, data string) (string, error)
	Encrypt(ctx context.Context, algorithm, key, data string) (string, error)
	Decrypt(ctx context.Context, algorithm, key, data string) (string, error)
}

// ParallelExecutor backs parallel_map/parallel_reduce/paradot_spawn.
type ParallelExecutor interface {
	Map(ctx context.Context, functionRef int64, data []vm.Value) ([]vm.Value, error)
	Reduce(ctx context.Context, functionRef int64, initial vm.Value, data []vm.Value) (vm.Value, error)
	SpawnParaDot(ctx context.Context, spec vm.Value) (string, error)
}

// StateExecutor backs state_get/state_set/state_snapshot.
type StateExecutor interface {
	Get(ctx context.Context, key string) (vm.Value, bool, error)
	Set(ctx context.Context, key string, value vm.Value) error
	Snapshot(ctx context.Context) (string, error)
}
