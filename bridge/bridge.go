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
	"github.com/dotlanth/dotvm/scheduler"
	"github.com/dotlanth/dotvm/vm"
)

// Names is the fixed set of host functions the bridge registers.
var Names = []string{
	"db_read", "db_write", "db_query",
	"crypto_hash", "crypto_encrypt", "crypto_decrypt",
	"parallel_map", "parallel_reduce", "paradot_spawn",
	"state_get", "state_set", "state_snapshot",
}

// Bridge wires the fixed host-function ABI to whichever executors have
// been configured. Every Call blocks the calling goroutine until the
// scheduler finishes the task backing it; the caller MUST run on a
// worker thread distinct from the scheduler's own pool, i.e. the
// scheduler must be started with at least two workers.
type Bridge struct {
	scheduler *scheduler.Scheduler
	security  *SecurityContext

	db       DatabaseExecutor
	crypto   CryptoExecutor
	parallel ParallelExecutor
	state    StateExecutor
}

// New returns a bridge with no executors configured; Call fails with
// KindUnavailable for any host function until its executor is set.
func New(sched *scheduler.Scheduler, security *SecurityContext) *Bridge {
	return &Bridge{scheduler: sched, security: security}
}

func (b *Bridge) SetDatabaseExecutor(e DatabaseExecutor) { b.db = e }
func (b *Bridge) SetCryptoExecutor(e CryptoExecutor)     { b.crypto = e }
func (b *Bridge) SetParallelExecutor(e ParallelExecutor) { b.parallel = e }
func (b *Bridge) SetStateExecutor(e StateExecutor)       { b.state = e }

// Call validates params against name's registered handler, submits the
// call to the scheduler, and blocks until the result is ready or ctx is
// cancelled.
//
// Steps: (1) security check; (2) parameter count/type validation;
// (3) submit to the async runtime handle and block on completion;
// (4) return the result as stack values.
func (b *Bridge) Call(ctx context.Context, name string, params []vm.Value) ([]vm.Value, error) {
	if err := b.security.Check(name); err != nil {
		return nil, err
	}

	h, ok := handlers[name]
	if !ok {
		return nil, cmn.NotFoundf("bridge.Call", "unknown host function %q", name)
	}
	if err := h.validate(params); err != nil {
		return nil, err
	}

	type outcome struct {
		result []vm.Value
		err    error
	}
	resultCh := make(chan outcome, 1)

	_, err := b.scheduler.Schedule(func(taskCtx context.Context) error {
		result, execErr := h.exec(taskCtx, b, params)
		resultCh <- outcome{result: result, err: execErr}
		return execErr
	}, scheduler.Normal)
	if err != nil {
		return nil, err
	}

	select {
	case out := <-resultCh:
		return out.result, out.err
	case <-ctx.Done():
		return nil, cmn.NewError(cmn.KindTimeout, "bridge.Call", "host function "+name+" did not complete before context cancellation", ctx.Err())
	}
}
