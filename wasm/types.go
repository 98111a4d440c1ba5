// Package wasm parses and validates WebAssembly binary modules into an
// AST.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package wasm

// ValueType is a WASM value type as it appears in signatures, locals, and
// globals.
type ValueType byte

const (
	ValueTypeI32      ValueType = 0x7F
	ValueTypeI64      ValueType = 0x7E
	ValueTypeF32      ValueType = 0x7D
	ValueTypeF64      ValueType = 0x7C
	ValueTypeV128     ValueType = 0x7B
	ValueTypeFuncRef  ValueType = 0x70
	ValueTypeExternRef ValueType = 0x6F
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncRef:
		return "funcref"
	case ValueTypeExternRef:
		return "externref"
	default:
		return "unknown"
	}
}

func (v ValueType) valid() bool {
	switch v {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeV128, ValueTypeFuncRef, ValueTypeExternRef:
		return true
	default:
		return false
	}
}

// FunctionType is a function signature: zero or more parameter types
// producing zero or more result types.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// GlobalType describes a global variable's value type and mutability.
type GlobalType struct {
	ValueType ValueType
	Mutable   bool
}

// TableType describes a table's element type and size limits.
type TableType struct {
	ElementType ValueType
	Initial     uint32
	Maximum     *uint32
}

// MemoryType describes a linear memory's size limits, in 64KiB pages.
type MemoryType struct {
	Initial uint32
	Maximum *uint32
	Shared  bool
}

// InitialBytes returns the memory's initial size in bytes.
func (m MemoryType) InitialBytes() uint64 {
	const pageSize = 64 * 1024
	return uint64(m.Initial) * pageSize
}
