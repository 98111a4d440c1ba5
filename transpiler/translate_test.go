// Package transpiler implements the four-stage WASM-to-bytecode pipeline:
// preprocess, translate, optimize, postprocess. Each stage is a pure
// function of (input, config) -> output.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transpiler

import (
	"testing"

	"github.com/dotlanth/dotvm/wasm"
)

func TestTranslateCarriesImportFunctionsAndDecodesCall(t *testing.T) {
	module := &wasm.Module{
		Imports: []wasm.Import{
			{Module: "env", Name: "db_read", Kind: wasm.ImportKind{Kind: "Function"}},
			{Module: "env", Name: "not_a_function", Kind: wasm.ImportKind{Kind: "Global"}},
			{Module: "env", Name: "crypto_hash", Kind: wasm.ImportKind{Kind: "Function"}},
		},
		Functions: []wasm.Function{
			// call import #1 (crypto_hash), then end
			{Body: []byte{0x10, 0x01, 0x0B}},
		},
	}

	out := translate(module, DefaultConfig())

	if len(out.ImportFunctions) != 2 {
		t.Fatalf("ImportFunctions = %v, want 2 entries", out.ImportFunctions)
	}
	if out.ImportFunctions[0] != "db_read" || out.ImportFunctions[1] != "crypto_hash" {
		t.Fatalf("ImportFunctions = %v", out.ImportFunctions)
	}

	instrs := out.Functions[0].Instructions
	if len(instrs) != 2 {
		t.Fatalf("instructions = %v, want [call, end]", instrs)
	}
	if instrs[0].Opcode != "call" || len(instrs[0].Operands) != 1 || instrs[0].Operands[0].Index != 1 {
		t.Fatalf("call instruction = %+v, want index 1", instrs[0])
	}
}
