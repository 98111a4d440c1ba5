// Package transpiler implements the four-stage WASM-to-bytecode pipeline:
// preprocess, translate, optimize, postprocess. Each stage is a pure
// function of (input, config) -> output.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transpiler

import "github.com/dotlanth/dotvm/wasm"

// opcode names this stage recognizes well enough to decode operands for.
// Everything else passes through as an opaque single-byte instruction;
// full opcode semantics belong to the instruction registry, which
// operates once a module has already been through this pipeline.
var namedOpcodes = map[byte]string{
	0x0B: "end",
	0x1A: "drop",
	0x20: "local.get",
	0x21: "local.set",
	0x22: "local.tee",
	0x23: "global.get",
	0x24: "global.set",
	0x28: "i32.load",
	0x36: "i32.store",
	0x29: "i64.load",
	0x37: "i64.store",
	0x41: "i32.const",
	0x42: "i64.const",
	0x6A: "i32.add",
	0x6B: "i32.sub",
	0x6C: "i32.mul",
	0x7C: "i64.add",
	0x7D: "i64.sub",
	0x7E: "i64.mul",
	0x7F: "i64.div_s",
	0x10: "call",
}

// translate maps a parsed wasm.Module into a flat transpiler.Module, the
// "implied mid-stage" between preprocess and optimize:
// every function becomes a linear Instruction stream, globals are
// allocated with a byte size, and exports carry over by kind/index.
func translate(module *wasm.Module, cfg Config) *Module {
	out := &Module{Header: Header{Architecture: cfg.TargetArchitecture}}

	for _, imp := range module.Imports {
		if imp.Kind.Kind == "Function" {
			out.ImportFunctions = append(out.ImportFunctions, imp.Name)
		}
	}

	for i, fn := range module.Functions {
		out.Functions = append(out.Functions, translateFunction(i, fn, module))
	}
	for _, g := range module.Globals {
		wordSize, _, _ := cfg.TargetArchitecture.Attrs()
		size := uint32(wordSize)
		if g.GlobalType.ValueType == wasm.ValueTypeI32 || g.GlobalType.ValueType == wasm.ValueTypeF32 {
			size = 4
		} else if g.GlobalType.ValueType == wasm.ValueTypeI64 || g.GlobalType.ValueType == wasm.ValueTypeF64 {
			size = 8
		}
		out.Globals = append(out.Globals, Global{SizeBytes: size, Mutable: g.GlobalType.Mutable})
	}
	for _, exp := range module.Exports {
		out.Exports = append(out.Exports, Export{Name: exp.Name, Kind: ExportKind(exp.Kind), Index: exp.Index})
	}
	return out
}

func translateFunction(index int, fn wasm.Function, module *wasm.Module) Function {
	exported := false
	for _, exp := range module.Exports {
		if exp.Kind == wasm.ExportKindFunction && int(exp.Index) == index {
			exported = true
			break
		}
	}

	tfn := Function{IsExported: exported}
	for _, vt := range fn.Locals {
		tfn.Locals = append(tfn.Locals, byte(vt))
	}
	body := fn.Body
	for i := 0; i < len(body); {
		op := body[i]
		name, known := namedOpcodes[op]
		if !known {
			tfn.Instructions = append(tfn.Instructions, NewInstruction(unknownOpcodeName(op)))
			i++
			continue
		}

		switch name {
		case "i32.const", "i64.const":
			value, n := readSLEB128(body[i+1:])
			tfn.Instructions = append(tfn.Instructions, NewInstruction(name, ImmediateOperand(uint32(value))))
			i += 1 + n
		case "call":
			idx, n := readULEB128(body[i+1:])
			tfn.Instructions = append(tfn.Instructions, NewInstruction(name, Operand{Kind: "Index", Index: uint32(idx)}))
			i += 1 + n
		case "local.get", "local.set", "local.tee", "global.get", "global.set":
			idx, n := readULEB128(body[i+1:])
			tfn.Instructions = append(tfn.Instructions, NewInstruction(name, Operand{Kind: "Index", Index: uint32(idx)}))
			i += 1 + n
		case "i32.load", "i32.store", "i64.load", "i64.store":
			// align + offset, both varuint32
			_, n1 := readULEB128(body[i+1:])
			_, n2 := readULEB128(body[i+1+n1:])
			tfn.Instructions = append(tfn.Instructions, NewInstruction(name))
			i += 1 + n1 + n2
		default:
			tfn.Instructions = append(tfn.Instructions, NewInstruction(name))
			i++
		}
	}
	return tfn
}

func unknownOpcodeName(op byte) string {
	const hexDigits = "0123456789abcdef"
	return "unknown_0x" + string([]byte{hexDigits[op>>4], hexDigits[op&0xF]})
}

// readULEB128 decodes an unsigned LEB128 varint, returning the value and
// the number of bytes consumed.
func readULEB128(b []byte) (uint64, int) {
	var result uint64
	var shift uint
	for i, by := range b {
		result |= uint64(by&0x7F) << shift
		if by&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
	}
	return result, len(b)
}

// readSLEB128 decodes a signed LEB128 varint.
func readSLEB128(b []byte) (int64, int) {
	var result int64
	var shift uint
	var by byte
	i := 0
	for i < len(b) {
		by = b[i]
		result |= int64(by&0x7F) << shift
		shift += 7
		i++
		if by&0x80 == 0 {
			break
		}
	}
	if shift < 64 && by&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i
}
