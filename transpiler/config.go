// Package transpiler implements the four-stage WASM-to-bytecode pipeline:
// preprocess, translate, optimize, postprocess. Each stage is a pure
// function of (input, config) -> output.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transpiler

import "github.com/dotlanth/dotvm/cmn"

// Config parameterizes every pipeline stage.
type Config struct {
	TargetArchitecture   cmn.Architecture
	OptimizationLevel    cmn.OptimizationLevel
	MaxInputSize         uint64 // bytes, 0 = unbounded
	MaxFunctions         int
	MaxGlobals           int
	MaxMemories          int
	MaxFunctionSize      uint32 // instructions in postprocess, body bytes in preprocess; 0 = unbounded (mirrors cmn.Config.MaxFunctionSize)
	MaxFunctionParams    int
	MaxFunctionLocals    int
	NormalizeExports     bool
	NormalizeImports     bool
	RemoveUnusedElements bool
}

// DefaultConfig is the baseline every caller starts from: Arch64, no
// optimization, generous structural limits.
func DefaultConfig() Config {
	return Config{
		TargetArchitecture:   cmn.Arch64,
		OptimizationLevel:    cmn.O0,
		MaxInputSize:         64 * 1024 * 1024,
		MaxFunctions:         10000,
		MaxGlobals:           1000,
		MaxMemories:          1,
		MaxFunctionParams:    100,
		MaxFunctionLocals:    1000,
		NormalizeExports:     true,
		NormalizeImports:     true,
		RemoveUnusedElements: false,
	}
}
