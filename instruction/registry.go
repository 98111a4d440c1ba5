// Package instruction provides the architecture-tiered opcode registry:
// each target tier maps an Opcode, plus optional integer arguments, to an
// Instruction object.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package instruction

import "github.com/dotlanth/dotvm/cmn"

// Instruction is a decoded opcode with its validated arguments, ready for
// the VM core to execute.
type Instruction struct {
	Opcode Opcode
	Args   []int
}

// Registry creates Instructions for a specific target architecture tier.
// Higher tiers accept every opcode a lower tier defines verbatim,
// since CreateInstruction
// only ever checks an opcode's own minimum tier against the registry's,
// never an exact match.
type Registry struct {
	tier cmn.Architecture
}

// NewRegistry returns a Registry targeting tier.
func NewRegistry(tier cmn.Architecture) *Registry { return &Registry{tier: tier} }

// Architecture returns the registry's target tier.
func (r *Registry) Architecture() cmn.Architecture { return r.tier }

// SupportsOpcode reports whether opcode is defined and runnable on this
// registry's tier.
func (r *Registry) SupportsOpcode(op Opcode) bool {
	return op.known() && op.Architecture() <= r.tier
}

// CreateInstruction validates opcode and args against the registry's
// tier and the opcode's declared arity, and returns an Instruction.
func (r *Registry) CreateInstruction(op Opcode, args []int) (*Instruction, error) {
	if !op.known() {
		return nil, cmn.NotFoundf("instruction.CreateInstruction", "unknown opcode 0x%04X", uint16(op))
	}
	if op.Architecture() > r.tier {
		return nil, cmn.Validationf("instruction.CreateInstruction", "opcode %s requires %s but registry targets %s", op.Mnemonic(), op.Architecture(), r.tier)
	}

	if want, ok := expectedArgCount[op]; ok {
		if args == nil {
			return nil, cmn.Validationf("instruction.CreateInstruction", "opcode %s requires %d argument(s), got none", op.Mnemonic(), want)
		}
		if len(args) != want {
			return nil, cmn.Validationf("instruction.CreateInstruction", "opcode %s requires %d argument(s), got %d", op.Mnemonic(), want, len(args))
		}
	}

	if op == OpMemoryPointerOp && len(args) == 2 {
		if args[0] != 0 && args[0] != 1 {
			return nil, cmn.Validationf("instruction.CreateInstruction", "pointer_op requires operation in {0,1}, got %d", args[0])
		}
	}

	return &Instruction{Opcode: op, Args: args}, nil
}

// IsBackwardCompatible reports whether an opcode defined at sourceTier can
// run unmodified on targetTier.
func IsBackwardCompatible(sourceTier, targetTier cmn.Architecture) bool {
	return targetTier >= sourceTier
}
