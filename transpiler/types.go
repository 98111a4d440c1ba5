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

// Operand is one instruction operand, tagged by Kind the same way
// planner.PlanOperation and wasm.ImportKind are.
type Operand struct {
	Kind      string // "Immediate" | "Index"
	Immediate uint32
	Index     uint32
}

// ImmediateOperand builds a constant operand.
func ImmediateOperand(v uint32) Operand { return Operand{Kind: "Immediate", Immediate: v} }

// Instruction is one opcode with its operands, the transpiled-stream unit
// opcodes and the instruction registry ultimately dispatch.
type Instruction struct {
	Opcode   string
	Operands []Operand
}

// NewInstruction builds an Instruction from an opcode name and operands.
func NewInstruction(opcode string, operands ...Operand) Instruction {
	return Instruction{Opcode: opcode, Operands: operands}
}

// Function is a translated WASM function.
type Function struct {
	Name         string
	IsExported   bool
	Instructions []Instruction
	Locals       []byte // local value-type tags, carried over from wasm.Function.Locals
}

func (f *Function) instructionCount() int { return len(f.Instructions) }

// ExportKind mirrors wasm.ExportKind for the transpiled module's export
// table.
type ExportKind byte

const (
	ExportKindFunction ExportKind = iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
)

// Export is one exported item in the transpiled module.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// Global is a module-level global, carried through translation with its
// byte size for the optimize stage's global-layout pass.
type Global struct {
	SizeBytes uint32
	Mutable   bool
}

// Header carries module-level metadata the postprocess stage checks.
type Header struct {
	Architecture cmn.Architecture
}

// Module is the output of the transpilation pipeline: a flat instruction
// stream per function plus the export/global tables needed to validate and
// eventually load it into the VM.
type Module struct {
	Header    Header
	Functions []Function
	Globals   []Global
	Exports   []Export

	// ImportFunctions holds imported function names in WASM function-index
	// order, ahead of the locally-defined Functions in the same index
	// space: a "call" instruction's operand index below
	// len(ImportFunctions) names a host import, at or above it references
	// Functions[index-len(ImportFunctions)].
	ImportFunctions []string
}

// StageReport records one stage's wall-clock contribution to a pipeline
// run.
type StageReport struct {
	Stage    string
	Duration time.Duration
}
