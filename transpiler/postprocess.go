// Package transpiler implements the four-stage WASM-to-bytecode pipeline:
// preprocess, translate, optimize, postprocess. Each stage is a pure
// function of (input, config) -> output.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transpiler

import "github.com/dotlanth/dotvm/cmn"

// postprocess enforces function size limits, validates export indices, and
// confirms the module's architecture matches cfg. Always
// runs, even when optimizations are skipped.
func postprocess(module *Module, cfg Config) error {
	for i, fn := range module.Functions {
		if cfg.MaxFunctionSize != 0 && uint32(fn.instructionCount()) > cfg.MaxFunctionSize {
			return cmn.Validationf("transpiler.postprocess", "function %d exceeds maximum size: %d > %d", i, fn.instructionCount(), cfg.MaxFunctionSize)
		}
	}

	for _, exp := range module.Exports {
		switch exp.Kind {
		case ExportKindFunction:
			if int(exp.Index) >= len(module.Functions) {
				return cmn.Validationf("transpiler.postprocess", "export %q references non-existent function %d", exp.Name, exp.Index)
			}
		case ExportKindGlobal:
			if int(exp.Index) >= len(module.Globals) {
				return cmn.Validationf("transpiler.postprocess", "export %q references non-existent global %d", exp.Name, exp.Index)
			}
		}
	}

	if module.Header.Architecture != cfg.TargetArchitecture {
		return cmn.Validationf("transpiler.postprocess", "module architecture %s doesn't match target %s", module.Header.Architecture, cfg.TargetArchitecture)
	}
	return nil
}
