// Package transpiler implements the four-stage WASM-to-bytecode pipeline:
// preprocess, translate, optimize, postprocess. Each stage is a pure
// function of (input, config) -> output.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transpiler

import (
	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/wasm"
)

// preprocess validates the raw binary, parses it, validates the resulting
// AST against Config's limits, and normalizes it. Never skipped,
// regardless of optimization level.
func preprocess(data []byte, cfg Config) (*wasm.Module, error) {
	if cfg.MaxInputSize != 0 && uint64(len(data)) > cfg.MaxInputSize {
		return nil, cmn.Validationf("transpiler.preprocess", "WASM binary too large: %d bytes (max %d)", len(data), cfg.MaxInputSize)
	}

	module, err := wasm.ParseModule(data)
	if err != nil {
		return nil, cmn.Validationf("transpiler.preprocess", "failed to parse WASM binary: %v", err)
	}

	if err := validateLimits(module, cfg); err != nil {
		return nil, err
	}
	if err := module.Validate(); err != nil {
		return nil, cmn.Validationf("transpiler.preprocess", "module structure invalid: %v", err)
	}

	if cfg.NormalizeExports || cfg.NormalizeImports {
		module.Normalize()
	}
	return module, nil
}

func validateLimits(module *wasm.Module, cfg Config) error {
	if cfg.MaxFunctions != 0 && len(module.Functions) > cfg.MaxFunctions {
		return cmn.Validationf("transpiler.preprocess", "too many functions: %d (max %d)", len(module.Functions), cfg.MaxFunctions)
	}
	if cfg.MaxGlobals != 0 && len(module.Globals) > cfg.MaxGlobals {
		return cmn.Validationf("transpiler.preprocess", "too many globals: %d (max %d)", len(module.Globals), cfg.MaxGlobals)
	}
	if cfg.MaxMemories != 0 && len(module.Memories) > cfg.MaxMemories {
		return cmn.Validationf("transpiler.preprocess", "too many memories: %d (max %d)", len(module.Memories), cfg.MaxMemories)
	}
	for i, fn := range module.Functions {
		if cfg.MaxFunctionSize != 0 && uint32(len(fn.Body)) > cfg.MaxFunctionSize {
			return cmn.Validationf("transpiler.preprocess", "function %d too large: %d bytes (max %d)", i, len(fn.Body), cfg.MaxFunctionSize)
		}
		if cfg.MaxFunctionParams != 0 && len(fn.Signature.Params) > cfg.MaxFunctionParams {
			return cmn.Validationf("transpiler.preprocess", "function %d has too many parameters: %d (max %d)", i, len(fn.Signature.Params), cfg.MaxFunctionParams)
		}
		if cfg.MaxFunctionLocals != 0 && len(fn.Locals) > cfg.MaxFunctionLocals {
			return cmn.Validationf("transpiler.preprocess", "function %d has too many locals: %d (max %d)", i, len(fn.Locals), cfg.MaxFunctionLocals)
		}
	}
	return nil
}
