// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/dotlanth/dotvm/bridge"
	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/scheduler"
	"github.com/dotlanth/dotvm/vm"
)

// dotParallelExecutor backs parallel_map/parallel_reduce/paradot_spawn by
// running deployed dots: a function ref names a dot by deployment order,
// and each data element becomes one invocation. Map invocations run
// concurrently under an errgroup; Reduce folds sequentially since each
// step consumes the previous accumulator.
type dotParallelExecutor struct {
	dots  *dotRegistry
	br    *bridge.Bridge
	sched *scheduler.Scheduler
}

func newDotParallelExecutor(dots *dotRegistry, br *bridge.Bridge, sched *scheduler.Scheduler) *dotParallelExecutor {
	return &dotParallelExecutor{dots: dots, br: br, sched: sched}
}

func (e *dotParallelExecutor) resolve(functionRef int64) (*Dot, error) {
	all := e.dots.listDots()
	if functionRef < 0 || int(functionRef) >= len(all) {
		return nil, cmn.NotFoundf("dotvmd.resolveParallelRef", "function ref %d does not name a deployed dot", functionRef)
	}
	return all[functionRef], nil
}

func lastOutput(result ExecutionResult) vm.Value {
	if len(result.Outputs) == 0 {
		return vm.NullValue()
	}
	return result.Outputs[len(result.Outputs)-1]
}

func (e *dotParallelExecutor) Map(ctx context.Context, functionRef int64, data []vm.Value) ([]vm.Value, error) {
	dot, err := e.resolve(functionRef)
	if err != nil {
		return nil, err
	}
	out := make([]vm.Value, len(data))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range data {
		i, v := i, v
		g.Go(func() error {
			result, err := runDot(gctx, dot.Module, []vm.Value{v}, e.br)
			if err != nil {
				return err
			}
			out[i] = lastOutput(result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *dotParallelExecutor) Reduce(ctx context.Context, functionRef int64, initial vm.Value, data []vm.Value) (vm.Value, error) {
	dot, err := e.resolve(functionRef)
	if err != nil {
		return vm.Value{}, err
	}
	acc := initial
	for _, v := range data {
		result, err := runDot(ctx, dot.Module, []vm.Value{acc, v}, e.br)
		if err != nil {
			return vm.Value{}, err
		}
		acc = lastOutput(result)
	}
	return acc, nil
}

// paraDotSpec is paradot_spawn's JSON parameter: which dot to run and its
// integer inputs.
type paraDotSpec struct {
	DotID  string  `json:"dot_id"`
	Inputs []int64 `json:"inputs"`
}

// SpawnParaDot schedules an asynchronous run of the named dot and returns
// the scheduler task id as the paradot handle. The spawned run executes at
// High priority so a parent dot waiting on its sibling is not starved by
// Normal-priority host calls.
func (e *dotParallelExecutor) SpawnParaDot(ctx context.Context, spec vm.Value) (string, error) {
	if spec.Kind != "Json" {
		return "", cmn.Validationf("dotvmd.SpawnParaDot", "paradot spec must be a Json value, got %s", spec.Kind)
	}
	var parsed paraDotSpec
	if err := jsoniter.Unmarshal(spec.JSON, &parsed); err != nil {
		return "", cmn.Validationf("dotvmd.SpawnParaDot", "invalid paradot spec: %v", err)
	}
	dot, ok := e.dots.getDot(parsed.DotID)
	if !ok {
		return "", cmn.NotFoundf("dotvmd.SpawnParaDot", "unknown dot %q", parsed.DotID)
	}

	inputs := make([]vm.Value, len(parsed.Inputs))
	for i, n := range parsed.Inputs {
		inputs[i] = vm.Int64Value(n)
	}
	taskID, err := e.sched.Schedule(func(taskCtx context.Context) error {
		_, err := runDot(taskCtx, dot.Module, inputs, e.br)
		return err
	}, scheduler.High)
	if err != nil {
		return "", err
	}
	return taskID, nil
}
