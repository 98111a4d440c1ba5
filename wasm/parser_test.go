// Package wasm parses and validates WebAssembly binary modules into an
// AST.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package wasm_test

import (
	"testing"

	"github.com/dotlanth/dotvm/wasm"
)

// buildMinimalModule assembles a tiny valid WASM binary: one nullary
// function type, one function using it, one export named "main", and an
// empty code body (local decl count 0, immediate end opcode).
func buildMinimalModule() []byte {
	header := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	typeSec := []byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}
	funcSec := []byte{0x03, 0x02, 0x01, 0x00}
	exportSec := []byte{0x07, 0x08, 0x01, 0x04, 'm', 'a', 'i', 'n', 0x00, 0x00}
	codeSec := []byte{0x0A, 0x04, 0x01, 0x02, 0x00, 0x0B}

	var out []byte
	out = append(out, header...)
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}

func TestParseModuleMinimal(t *testing.T) {
	m, err := wasm.ParseModule(buildMinimalModule())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if len(m.Types) != 1 {
		t.Fatalf("types = %d, want 1", len(m.Types))
	}
	if len(m.Functions) != 1 {
		t.Fatalf("functions = %d, want 1", len(m.Functions))
	}
	if m.TotalFunctionCount() != 1 {
		t.Fatalf("TotalFunctionCount = %d, want 1", m.TotalFunctionCount())
	}
	export, ok := m.FindExport("main")
	if !ok {
		t.Fatalf("expected export %q to be found", "main")
	}
	if export.Kind != wasm.ExportKindFunction || export.Index != 0 {
		t.Fatalf("export = %+v, want function index 0", export)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseModuleRejectsBadMagic(t *testing.T) {
	data := buildMinimalModule()
	data[0] = 0xFF
	if _, err := wasm.ParseModule(data); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestParseModuleRejectsBadVersion(t *testing.T) {
	data := buildMinimalModule()
	data[4] = 0x02
	if _, err := wasm.ParseModule(data); err == nil {
		t.Fatalf("expected error for unsupported version")
	}
}

func TestValidateRejectsInvalidExportIndex(t *testing.T) {
	m := wasm.NewModule()
	m.Exports = append(m.Exports, wasm.Export{Name: "missing", Kind: wasm.ExportKindFunction, Index: 5})
	if err := m.Validate(); err == nil {
		t.Fatalf("expected error for out-of-range export index")
	}
}

func TestValidateRejectsDuplicateExportNames(t *testing.T) {
	m := wasm.NewModule()
	m.Types = append(m.Types, wasm.FunctionType{})
	m.FunctionTypes = append(m.FunctionTypes, 0, 0)
	m.Functions = append(m.Functions, wasm.Function{}, wasm.Function{})
	m.Exports = append(m.Exports,
		wasm.Export{Name: "dup", Kind: wasm.ExportKindFunction, Index: 0},
		wasm.Export{Name: "dup", Kind: wasm.ExportKindFunction, Index: 1},
	)
	if err := m.Validate(); err == nil {
		t.Fatalf("expected error for duplicate export name")
	}
}

func TestNormalizeSortsExportsAndImports(t *testing.T) {
	m := wasm.NewModule()
	m.Exports = []wasm.Export{
		{Name: "zeta", Kind: wasm.ExportKindFunction},
		{Name: "alpha", Kind: wasm.ExportKindFunction},
	}
	m.Imports = []wasm.Import{
		{Module: "env", Name: "zzz"},
		{Module: "env", Name: "aaa"},
	}
	m.Normalize()
	if m.Exports[0].Name != "alpha" || m.Exports[1].Name != "zeta" {
		t.Fatalf("exports not sorted: %+v", m.Exports)
	}
	if m.Imports[0].Name != "aaa" || m.Imports[1].Name != "zzz" {
		t.Fatalf("imports not sorted: %+v", m.Imports)
	}
}
