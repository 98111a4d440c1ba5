// Package transpiler implements the four-stage WASM-to-bytecode pipeline:
// preprocess, translate, optimize, postprocess. Each stage is a pure
// function of (input, config) -> output.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transpiler

import (
	"time"

	"github.com/dotlanth/dotvm/cmn"
)

// Result is the outcome of a full pipeline run.
type Result struct {
	Module *Module
	Stages []StageReport
}

// Run executes every stage in order. Preprocess never skips; optimize
// skips entirely at O0 (the identity transform, which is what makes the
// O0 round-trip a fixpoint); postprocess always runs.
func Run(wasmBytes []byte, cfg Config) (*Result, error) {
	result := &Result{}

	start := time.Now()
	wasmModule, err := preprocess(wasmBytes, cfg)
	result.Stages = append(result.Stages, StageReport{Stage: "preprocess", Duration: time.Since(start)})
	if err != nil {
		return nil, err
	}

	start = time.Now()
	module := translate(wasmModule, cfg)
	result.Stages = append(result.Stages, StageReport{Stage: "translate", Duration: time.Since(start)})

	start = time.Now()
	if !canSkipOptimize(cfg) {
		optimize(module, cfg)
	}
	result.Stages = append(result.Stages, StageReport{Stage: "optimize", Duration: time.Since(start)})

	start = time.Now()
	err = postprocess(module, cfg)
	result.Stages = append(result.Stages, StageReport{Stage: "postprocess", Duration: time.Since(start)})
	if err != nil {
		return nil, err
	}

	result.Module = module
	return result, nil
}

// canSkipOptimize: optimize is the one stage with real work to skip;
// preprocess and postprocess always run.
func canSkipOptimize(cfg Config) bool { return cfg.OptimizationLevel == cmn.O0 }

// TotalDuration sums every stage's reported contribution.
func (r *Result) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range r.Stages {
		total += s.Duration
	}
	return total
}
