// Package main is the dotvmd daemon entrypoint: it wires every package
// (kv, wal, checkpoint, document, planner, wasm, extension, transpiler,
// instruction, vm, scheduler, finality, bridge, crypto) into the running
// process and exposes the gateway operation surface through Gateway.
// There is no wire protocol here; an embedding process or test calls
// Gateway's methods directly.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"time"

	"github.com/dotlanth/dotvm/bridge"
	"github.com/dotlanth/dotvm/checkpoint"
	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/extension"
	"github.com/dotlanth/dotvm/transpiler"
	"github.com/dotlanth/dotvm/vm"
	"github.com/dotlanth/dotvm/wasm"
)

// Gateway implements the operations the external gateway calls:
// compile_module, deploy_dot, execute_dot, get_dot_state, list_dots,
// delete_dot, db_read/write/query, checkpoint_now, list_checkpoints,
// restore_checkpoint.
type Gateway struct {
	dots       *dotRegistry
	db         *documentDatabaseExecutor
	state      *kvStateExecutor
	checkpoint *checkpoint.Manager
	bridge     *bridge.Bridge
}

// NewGateway assembles a Gateway from already-constructed components.
func NewGateway(db *documentDatabaseExecutor, state *kvStateExecutor, ckpt *checkpoint.Manager, br *bridge.Bridge) *Gateway {
	return &Gateway{
		dots:       newDotRegistry(),
		db:         db,
		state:      state,
		checkpoint: ckpt,
		bridge:     br,
	}
}

// DotInfo is list_dots's per-entry summary.
type DotInfo struct {
	ID         string
	Name       string
	ModuleID   string
	DeployedAt time.Time
}

// Pagination is list_dots's optional paging parameter.
type Pagination struct {
	Offset int
	Limit  int // 0 == unbounded
}

// CompileModule implements compile_module(wasm_bytes, config) ->
// transpiled_module_id: runs the extension detector for
// architecture-compatibility validation, then the transpilation pipeline
//, and registers the resulting Module under a fresh id.
func (g *Gateway) CompileModule(wasmBytes []byte, cfg transpiler.Config) (string, error) {
	parsed, err := wasm.ParseModule(wasmBytes)
	if err != nil {
		return "", cmn.Validationf("dotvmd.CompileModule", "failed to parse WASM binary: %v", err)
	}
	detector := extension.New(cfg.TargetArchitecture)
	if err := detector.AnalyzeModule(parsed); err != nil {
		return "", err
	}

	result, err := transpiler.Run(wasmBytes, cfg)
	if err != nil {
		return "", err
	}

	id := cmn.GenUUID()
	g.dots.putCompiled(&compiledModule{ID: id, Module: result.Module, Stages: result.Stages, Compiled: time.Now().UTC()})
	return id, nil
}

// DeployDot implements deploy_dot(name, bytecode, options) -> dot_id,
// where "bytecode" is a transpiled_module_id returned by CompileModule.
func (g *Gateway) DeployDot(name, moduleID string, options DeployOptions) (string, error) {
	cm, ok := g.dots.getCompiled(moduleID)
	if !ok {
		return "", cmn.NotFoundf("dotvmd.DeployDot", "unknown compiled module %q", moduleID)
	}
	dot := &Dot{
		ID:         cmn.GenUUID(),
		Name:       name,
		ModuleID:   moduleID,
		Module:     cm.Module,
		Options:    options,
		DeployedAt: time.Now().UTC(),
	}
	g.dots.putDot(dot)
	return dot.ID, nil
}

// ExecuteDot implements execute_dot(dot_id, inputs) ->
// {outputs, status, execution_time}. It takes no per-call options.
func (g *Gateway) ExecuteDot(ctx context.Context, dotID string, inputs []vm.Value) (ExecutionResult, error) {
	dot, ok := g.dots.getDot(dotID)
	if !ok {
		return ExecutionResult{}, cmn.NotFoundf("dotvmd.ExecuteDot", "unknown dot %q", dotID)
	}
	return runDot(ctx, dot.Module, inputs, g.bridge)
}

// GetDotState implements get_dot_state(dot_id, keys?) -> state_data:
// keys are looked up against the shared state namespace state_get/set
// write to, not per-dot isolated storage; the StateExecutor ABI is a
// flat key/value space.
func (g *Gateway) GetDotState(dotID string, keys []string) (map[string]vm.Value, error) {
	if _, ok := g.dots.getDot(dotID); !ok {
		return nil, cmn.NotFoundf("dotvmd.GetDotState", "unknown dot %q", dotID)
	}
	out := make(map[string]vm.Value, len(keys))
	for _, k := range keys {
		v, found, err := g.state.Get(context.Background(), k)
		if err != nil {
			return nil, err
		}
		if found {
			out[k] = v
		}
	}
	return out, nil
}

// ListDots implements list_dots(pagination?) -> [dot_info].
func (g *Gateway) ListDots(page Pagination) []DotInfo {
	all := g.dots.listDots()
	if page.Offset < 0 || page.Offset > len(all) {
		page.Offset = len(all)
	}
	all = all[page.Offset:]
	if page.Limit > 0 && page.Limit < len(all) {
		all = all[:page.Limit]
	}
	out := make([]DotInfo, len(all))
	for i, d := range all {
		out[i] = DotInfo{ID: d.ID, Name: d.Name, ModuleID: d.ModuleID, DeployedAt: d.DeployedAt}
	}
	return out
}

// DeleteDot implements delete_dot(dot_id).
func (g *Gateway) DeleteDot(dotID string) error {
	if !g.dots.deleteDot(dotID) {
		return cmn.NotFoundf("dotvmd.DeleteDot", "unknown dot %q", dotID)
	}
	return nil
}

// DBRead implements db_read(table_id, key) -> bytes?.
func (g *Gateway) DBRead(ctx context.Context, collection, documentID string) (vm.Value, error) {
	return g.db.Read(ctx, collection, documentID)
}

// DBWrite implements db_write(table_id, key, value).
func (g *Gateway) DBWrite(ctx context.Context, collection, documentID string, value vm.Value) error {
	return g.db.Write(ctx, collection, documentID, value)
}

// DBQuery implements db_query(spec) -> rows.
func (g *Gateway) DBQuery(ctx context.Context, collection string, spec vm.Value) (vm.Value, error) {
	return g.db.Query(ctx, collection, spec)
}

// CheckpointNow implements checkpoint_now().
func (g *Gateway) CheckpointNow() (*checkpoint.Metadata, error) {
	return g.checkpoint.CreateCheckpoint()
}

// ListCheckpoints implements list_checkpoints() -> [metadata].
func (g *Gateway) ListCheckpoints() ([]*checkpoint.Metadata, error) {
	return g.checkpoint.List()
}

// RestoreCheckpoint implements restore_checkpoint(id).
func (g *Gateway) RestoreCheckpoint(id string) error {
	return g.checkpoint.RestoreFrom(id)
}
