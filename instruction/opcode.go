// Package instruction provides the architecture-tiered opcode registry:
// each target tier maps an Opcode, plus optional integer arguments, to an
// Instruction object.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package instruction

import "github.com/dotlanth/dotvm/cmn"

// Opcode is a flat 16-bit instruction identifier. Its numeric range
// determines the minimum architecture tier that defines it:
// 0x0000-0x3FFF Arch64, 0x4000-0x7FFF Arch128, 0x8000-0xBFFF
// Arch256, 0xC000-0xFFFF Arch512.
type Opcode uint16

const (
	tierArch64Base  Opcode = 0x0000
	tierArch128Base Opcode = 0x4000
	tierArch256Base Opcode = 0x8000
	tierArch512Base Opcode = 0xC000
)

// Arch64 base opcodes: arithmetic, control flow, memory, system call,
// crypto. Every tier inherits these.
const (
	OpArithmeticAdd Opcode = tierArch64Base + 0x0001
	OpArithmeticSub Opcode = tierArch64Base + 0x0002
	OpArithmeticMul Opcode = tierArch64Base + 0x0003
	OpArithmeticDiv Opcode = tierArch64Base + 0x0004
	OpArithmeticMod Opcode = tierArch64Base + 0x0005

	OpControlIfElse    Opcode = tierArch64Base + 0x0100
	OpControlJump      Opcode = tierArch64Base + 0x0101
	OpControlWhileLoop Opcode = tierArch64Base + 0x0102
	OpControlDoWhile   Opcode = tierArch64Base + 0x0103
	OpControlForLoop   Opcode = tierArch64Base + 0x0104

	OpMemoryLoad       Opcode = tierArch64Base + 0x0200
	OpMemoryStore      Opcode = tierArch64Base + 0x0201
	OpMemoryAllocate   Opcode = tierArch64Base + 0x0202
	OpMemoryDeallocate Opcode = tierArch64Base + 0x0203
	OpMemoryPointerOp  Opcode = tierArch64Base + 0x0204

	OpSysCallWrite            Opcode = tierArch64Base + 0x0300
	OpSysCallRead             Opcode = tierArch64Base + 0x0301
	OpSysCallCreateProcess    Opcode = tierArch64Base + 0x0302
	OpSysCallTerminateProcess Opcode = tierArch64Base + 0x0303
	OpSysCallNetSend          Opcode = tierArch64Base + 0x0304
	OpSysCallNetRecv          Opcode = tierArch64Base + 0x0305

	OpCryptoHash    Opcode = tierArch64Base + 0x0400
	OpCryptoEncrypt Opcode = tierArch64Base + 0x0401
	OpCryptoDecrypt Opcode = tierArch64Base + 0x0402
	OpCryptoSign    Opcode = tierArch64Base + 0x0403
	OpCryptoVerify  Opcode = tierArch64Base + 0x0404

	// Stack ops, usable from Arch64 up.
	OpStackPush  Opcode = tierArch64Base + 0x0500
	OpStackPop   Opcode = tierArch64Base + 0x0501
	OpStackDup   Opcode = tierArch64Base + 0x0502
	OpStackSwap  Opcode = tierArch64Base + 0x0503
	OpStackDupN  Opcode = tierArch64Base + 0x0504
)

// Arch128 BigInt extension opcodes.
const (
	OpBigIntAdd Opcode = tierArch128Base + 0x0001
	OpBigIntSub Opcode = tierArch128Base + 0x0002
	OpBigIntMul Opcode = tierArch128Base + 0x0003
	OpBigIntDiv Opcode = tierArch128Base + 0x0004
	OpBigIntMod Opcode = tierArch128Base + 0x0005
)

// Arch256 parallel/SIMD extension opcodes.
const (
	OpParallelMap    Opcode = tierArch256Base + 0x0001
	OpParallelReduce Opcode = tierArch256Base + 0x0002
)

// Arch512 vector extension opcodes.
const (
	OpVectorDotProduct     Opcode = tierArch512Base + 0x0001
	OpVectorCrossProduct   Opcode = tierArch512Base + 0x0002
	OpVectorMatrixMultiply Opcode = tierArch512Base + 0x0003
)

// Architecture returns the minimum tier that defines opcode, by numeric
// range.
func (op Opcode) Architecture() cmn.Architecture {
	switch {
	case op < tierArch128Base:
		return cmn.Arch64
	case op < tierArch256Base:
		return cmn.Arch128
	case op < tierArch512Base:
		return cmn.Arch256
	default:
		return cmn.Arch512
	}
}

// expectedArgCount describes how many integer arguments CreateInstruction
// requires for a given opcode. Opcodes absent from the map take none.
var expectedArgCount = map[Opcode]int{
	OpControlIfElse:    1,
	OpControlJump:      1,
	OpControlWhileLoop: 2,
	OpControlDoWhile:   2,
	OpControlForLoop:   2,

	OpMemoryLoad:       1,
	OpMemoryStore:      1,
	OpMemoryAllocate:   1,
	OpMemoryDeallocate: 1,
	OpMemoryPointerOp:  2,

	OpSysCallTerminateProcess: 1,

	OpStackDupN: 1,
}

// mnemonics names every opcode this registry knows, for error messages and
// detect_architecture_from_opcode-style tooling.
var mnemonics = map[Opcode]string{
	OpArithmeticAdd: "arith.add", OpArithmeticSub: "arith.sub", OpArithmeticMul: "arith.mul",
	OpArithmeticDiv: "arith.div", OpArithmeticMod: "arith.mod",
	OpControlIfElse: "ctrl.if_else", OpControlJump: "ctrl.jump", OpControlWhileLoop: "ctrl.while",
	OpControlDoWhile: "ctrl.do_while", OpControlForLoop: "ctrl.for",
	OpMemoryLoad: "mem.load", OpMemoryStore: "mem.store", OpMemoryAllocate: "mem.allocate",
	OpMemoryDeallocate: "mem.deallocate", OpMemoryPointerOp: "mem.pointer_op",
	OpSysCallWrite: "sys.write", OpSysCallRead: "sys.read", OpSysCallCreateProcess: "sys.create_process",
	OpSysCallTerminateProcess: "sys.terminate_process", OpSysCallNetSend: "sys.net_send", OpSysCallNetRecv: "sys.net_recv",
	OpCryptoHash: "crypto.hash", OpCryptoEncrypt: "crypto.encrypt", OpCryptoDecrypt: "crypto.decrypt",
	OpCryptoSign: "crypto.sign", OpCryptoVerify: "crypto.verify",
	OpStackPush: "stack.push", OpStackPop: "stack.pop", OpStackDup: "stack.dup",
	OpStackSwap: "stack.swap", OpStackDupN: "stack.dup_n",
	OpBigIntAdd: "bigint.add", OpBigIntSub: "bigint.sub", OpBigIntMul: "bigint.mul",
	OpBigIntDiv: "bigint.div", OpBigIntMod: "bigint.mod",
	OpParallelMap: "parallel.map", OpParallelReduce: "parallel.reduce",
	OpVectorDotProduct: "vector.dot_product", OpVectorCrossProduct: "vector.cross_product",
	OpVectorMatrixMultiply: "vector.matrix_multiply",
}

// Mnemonic returns the human-readable name for op, or "" if unknown.
func (op Opcode) Mnemonic() string { return mnemonics[op] }

func (op Opcode) known() bool {
	_, ok := mnemonics[op]
	return ok
}

// DetectArchitectureFromOpcode classifies opcodeValue by numeric range,
// independent of whether the opcode is actually registered. Every 16-bit
// value falls into one of the four tiers, so this never fails.
func DetectArchitectureFromOpcode(opcodeValue uint16) cmn.Architecture {
	return Opcode(opcodeValue).Architecture()
}
