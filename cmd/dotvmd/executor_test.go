// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"testing"

	"github.com/dotlanth/dotvm/bridge"
	"github.com/dotlanth/dotvm/checkpoint"
	"github.com/dotlanth/dotvm/kv"
	"github.com/dotlanth/dotvm/scheduler"
	"github.com/dotlanth/dotvm/transpiler"
	"github.com/dotlanth/dotvm/vm"
)

func newTestBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	store := kv.NewMem()
	mgr, err := checkpoint.New(t.TempDir(), store, nil, checkpoint.DefaultConfig())
	if err != nil {
		t.Fatalf("checkpoint.New: %v", err)
	}
	sched := scheduler.New()
	if err := sched.Start(context.Background(), 2); err != nil {
		t.Fatalf("scheduler.Start: %v", err)
	}
	t.Cleanup(func() { sched.Stop() })

	br := bridge.New(sched, nil)
	br.SetStateExecutor(newKVStateExecutor(store, nil, mgr))
	return br
}

func TestRunDotArithmetic(t *testing.T) {
	module := &transpiler.Module{
		Functions: []transpiler.Function{{
			IsExported: true,
			Instructions: []transpiler.Instruction{
				transpiler.NewInstruction("i64.const", transpiler.ImmediateOperand(41)),
				transpiler.NewInstruction("i64.const", transpiler.ImmediateOperand(1)),
				transpiler.NewInstruction("i64.add"),
				transpiler.NewInstruction("end"),
			},
		}},
	}

	result, err := runDot(context.Background(), module, nil, newTestBridge(t))
	if err != nil {
		t.Fatalf("runDot: %v", err)
	}
	if result.Status != "Completed" {
		t.Fatalf("Status = %q, want Completed", result.Status)
	}
	if len(result.Outputs) != 1 {
		t.Fatalf("Outputs = %v, want one value", result.Outputs)
	}
	if got, _ := result.Outputs[0].AsInt64(); got != 42 {
		t.Fatalf("Outputs[0] = %d, want 42", got)
	}
}

func TestRunDotLocalsFromInputs(t *testing.T) {
	module := &transpiler.Module{
		Functions: []transpiler.Function{{
			IsExported: true,
			Instructions: []transpiler.Instruction{
				transpiler.NewInstruction("local.get", transpiler.Operand{Kind: "Index", Index: 0}),
				transpiler.NewInstruction("end"),
			},
		}},
	}

	inputs := []vm.Value{vm.StringValue("hello")}
	result, err := runDot(context.Background(), module, inputs, newTestBridge(t))
	if err != nil {
		t.Fatalf("runDot: %v", err)
	}
	if len(result.Outputs) != 1 || result.Outputs[0].Str != "hello" {
		t.Fatalf("Outputs = %v, want [\"hello\"]", result.Outputs)
	}
}

func TestRunDotHostCallDispatch(t *testing.T) {
	module := &transpiler.Module{
		ImportFunctions: []string{"state_snapshot"},
		Functions: []transpiler.Function{{
			IsExported: true,
			Instructions: []transpiler.Instruction{
				transpiler.NewInstruction("call", transpiler.Operand{Kind: "Index", Index: 0}),
				transpiler.NewInstruction("end"),
			},
		}},
	}

	result, err := runDot(context.Background(), module, nil, newTestBridge(t))
	if err != nil {
		t.Fatalf("runDot: %v", err)
	}
	if len(result.Outputs) != 1 || result.Outputs[0].Kind != "String" {
		t.Fatalf("Outputs = %v, want one String value (the checkpoint id)", result.Outputs)
	}
}

func TestRunDotLocalToLocalCallUnsupported(t *testing.T) {
	module := &transpiler.Module{
		Functions: []transpiler.Function{
			{
				IsExported: true,
				Instructions: []transpiler.Instruction{
					// Index 0 names a local function (no ImportFunctions
					// exist), which this single-frame interpreter cannot
					// dispatch.
					transpiler.NewInstruction("call", transpiler.Operand{Kind: "Index", Index: 0}),
					transpiler.NewInstruction("end"),
				},
			},
			{Instructions: []transpiler.Instruction{transpiler.NewInstruction("end")}},
		},
	}

	if _, err := runDot(context.Background(), module, nil, newTestBridge(t)); err == nil {
		t.Fatalf("expected an error dispatching a local-to-local call")
	}
}

func TestRunDotDivisionByZero(t *testing.T) {
	module := &transpiler.Module{
		Functions: []transpiler.Function{{
			IsExported: true,
			Instructions: []transpiler.Instruction{
				transpiler.NewInstruction("i64.const", transpiler.ImmediateOperand(10)),
				transpiler.NewInstruction("i64.const", transpiler.ImmediateOperand(0)),
				transpiler.NewInstruction("i64.div_s"),
				transpiler.NewInstruction("end"),
			},
		}},
	}

	result, err := runDot(context.Background(), module, nil, newTestBridge(t))
	if err == nil {
		t.Fatalf("expected a division-by-zero error")
	}
	if result.Status != "Failed" {
		t.Fatalf("Status = %q, want Failed", result.Status)
	}
}
