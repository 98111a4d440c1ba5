// Package transpiler implements the four-stage WASM-to-bytecode pipeline:
// preprocess, translate, optimize, postprocess. Each stage is a pure
// function of (input, config) -> output.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package transpiler

import "github.com/dotlanth/dotvm/cmn"

// optimize applies the passes for cfg.OptimizationLevel in place.
// O0 is a no-op, the identity function, so at O0 two runs over the same
// input give identical instruction streams (what the suite's O0 test
// checks).
func optimize(module *Module, cfg Config) {
	if cfg.OptimizationLevel == cmn.O0 {
		return
	}
	for i := range module.Functions {
		optimizeFunction(&module.Functions[i], cfg.OptimizationLevel)
	}
	optimizeFunctionOrdering(module)
	optimizeGlobalLayout(module)
}

func optimizeFunction(fn *Function, level cmn.OptimizationLevel) {
	if level >= cmn.O1 {
		removeRedundantLoadStore(fn)
		foldConstants(fn)
	}
	if level >= cmn.O2 {
		eliminateDeadCode(fn)
		peephole(fn)
	}
	// O3 has no additional passes yet; it inherits O1+O2.
}

func isLoad(opcode string) bool  { return opcode == "i32.load" || opcode == "i64.load" }
func isStore(opcode string) bool { return opcode == "i32.store" || opcode == "i64.store" }
func isConst(opcode string) bool { return opcode == "i32.const" || opcode == "i64.const" }
func isAdd(opcode string) bool   { return opcode == "i32.add" || opcode == "i64.add" }

// removeRedundantLoadStore drops a store that immediately follows a load
// (the combination is a no-op round trip through the same slot).
func removeRedundantLoadStore(fn *Function) {
	var out []Instruction
	ins := fn.Instructions
	for i := 0; i < len(ins); i++ {
		if i+1 < len(ins) && isLoad(ins[i].Opcode) && isStore(ins[i+1].Opcode) {
			out = append(out, ins[i])
			i++
			continue
		}
		out = append(out, ins[i])
	}
	fn.Instructions = out
}

// foldConstants collapses `const a, const b, add` into a single const
// a+b.
func foldConstants(fn *Function) {
	var out []Instruction
	ins := fn.Instructions
	for i := 0; i < len(ins); i++ {
		if i+2 < len(ins) && isConst(ins[i].Opcode) && isConst(ins[i+1].Opcode) && isAdd(ins[i+2].Opcode) {
			a := immediateValue(ins[i])
			b := immediateValue(ins[i+1])
			out = append(out, NewInstruction(ins[i].Opcode, ImmediateOperand(a+b)))
			i += 2
			continue
		}
		out = append(out, ins[i])
	}
	fn.Instructions = out
}

func immediateValue(ins Instruction) uint32 {
	if len(ins.Operands) == 1 && ins.Operands[0].Kind == "Immediate" {
		return ins.Operands[0].Immediate
	}
	return 0
}

// eliminateDeadCode drops instructions unreachable from entry by simple
// fallthrough. Only the fallthrough successor is followed and branches and
// returns are not consulted, so every instruction is reachable and none is
// removed.
func eliminateDeadCode(fn *Function) {
	n := len(fn.Instructions)
	if n == 0 {
		return
	}
	reachable := make([]bool, n)
	worklist := []int{0}
	for len(worklist) > 0 {
		idx := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if idx >= n || reachable[idx] {
			continue
		}
		reachable[idx] = true
		if idx+1 < n {
			worklist = append(worklist, idx+1)
		}
	}
	var out []Instruction
	for i, ins := range fn.Instructions {
		if reachable[i] {
			out = append(out, ins)
		}
	}
	fn.Instructions = out
}

// peephole cancels push-then-pop pairs and turns two identical loads into
// a load followed by a dup.
func peephole(fn *Function) {
	var out []Instruction
	ins := fn.Instructions
	for i := 0; i < len(ins); i++ {
		if i+1 < len(ins) {
			cur, next := ins[i], ins[i+1]
			if cur.Opcode == "push" && next.Opcode == "pop" {
				i++
				continue
			}
			if cur.Opcode == next.Opcode && isLoad(cur.Opcode) {
				out = append(out, cur, NewInstruction("dup"))
				i++
				continue
			}
		}
		out = append(out, ins[i])
	}
	fn.Instructions = out
}

// optimizeFunctionOrdering orders functions by descending score: exported
// functions score 100, others their instruction count, so a non-exported
// function with more than 100 instructions comes before exported ones.
func optimizeFunctionOrdering(module *Module) {
	fns := module.Functions
	for i := 1; i < len(fns); i++ {
		for j := i; j > 0 && functionScore(fns[j-1]) < functionScore(fns[j]); j-- {
			fns[j-1], fns[j] = fns[j], fns[j-1]
		}
	}
}

func functionScore(fn Function) int {
	if fn.IsExported {
		return 100
	}
	return fn.instructionCount()
}

// optimizeGlobalLayout sorts globals largest-first for alignment.
func optimizeGlobalLayout(module *Module) {
	g := module.Globals
	for i := 1; i < len(g); i++ {
		for j := i; j > 0 && g[j-1].SizeBytes < g[j].SizeBytes; j-- {
			g[j-1], g[j] = g[j], g[j-1]
		}
	}
}
