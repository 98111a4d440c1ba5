// Package extension detects when a compiled function needs DotVM-specific
// capabilities beyond the WASM baseline, and checks those needs against
// the architecture tier the VM targets.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package extension

import (
	"sort"
	"strings"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/wasm"
)

// Type is a DotVM extension category.
type Type string

const (
	TypeBigInt        Type = "BigInt"
	TypeSimd          Type = "Simd"
	TypeVector        Type = "Vector"
	TypeCrypto        Type = "Crypto"
	TypeHighPrecision Type = "HighPrecision"
	TypeParallel      Type = "Parallel"
	TypeCustomMath    Type = "CustomMath"
)

// MinimumArchitecture returns the smallest architecture tier that supports t.
func (t Type) MinimumArchitecture() cmn.Architecture {
	switch t {
	case TypeBigInt, TypeCrypto, TypeHighPrecision, TypeCustomMath:
		return cmn.Arch128
	case TypeSimd, TypeParallel:
		return cmn.Arch256
	case TypeVector:
		return cmn.Arch512
	default:
		return cmn.Arch64
	}
}

// IsCompatibleWith reports whether arch meets t's minimum tier.
func (t Type) IsCompatibleWith(arch cmn.Architecture) bool {
	return arch >= t.MinimumArchitecture()
}

// Requirement is one detected extension need, attributed to the function it
// came from.
type Requirement struct {
	ExtensionType Type
	FunctionIndex uint32
	DetectedVia   string
	Priority      int
}

// Attribute is a parsed `dotvm::*` annotation.
type Attribute struct {
	Name       string
	Parameters map[string]string
}

// Detector analyzes a parsed WASM module for extension requirements and
// validates them against a target architecture.
type Detector struct {
	targetArchitecture cmn.Architecture
	requirements       []Requirement
	attributes         []Attribute
}

// New creates a Detector targeting arch.
func New(arch cmn.Architecture) *Detector {
	return &Detector{targetArchitecture: arch}
}

// opcode byte values from the WASM spec that this heuristic scans for in
// a function's raw instruction stream (wasm.Function.Body is opaque
// bytes; no fully decoded instruction list is needed here).
const (
	opI64Add     = 0x7C
	opI64Sub     = 0x7D
	opI64Mul     = 0x7E
	opI64DivS    = 0x7F
	opSimdPrefix = 0xFD // every v128 instruction starts with this prefix byte
)

// AnalyzeModule scans every function body in module for extension
// requirements, then validates them against the target architecture.
func (d *Detector) AnalyzeModule(module *wasm.Module) error {
	d.requirements = nil
	for i, fn := range module.Functions {
		d.analyzeFunctionBody(uint32(i), fn)
	}
	return d.ValidateArchitectureCompatibility()
}

func (d *Detector) analyzeFunctionBody(functionIndex uint32, fn wasm.Function) {
	intOps := countOccurrences(fn.Body, opI64Add, opI64Sub, opI64Mul, opI64DivS)
	if intOps > 10 {
		d.addRequirement(Requirement{
			ExtensionType: TypeBigInt,
			FunctionIndex: functionIndex,
			DetectedVia:   "instruction_pattern",
			Priority:      50,
		})
	}
	if countOccurrences(fn.Body, opSimdPrefix) > 0 {
		d.addRequirement(Requirement{
			ExtensionType: TypeSimd,
			FunctionIndex: functionIndex,
			DetectedVia:   "v128_instruction",
			Priority:      80,
		})
	}
}

func countOccurrences(body []byte, opcodes ...byte) int {
	set := make(map[byte]struct{}, len(opcodes))
	for _, op := range opcodes {
		set[op] = struct{}{}
	}
	n := 0
	for _, b := range body {
		if _, ok := set[b]; ok {
			n++
		}
	}
	return n
}

func (d *Detector) addRequirement(r Requirement) {
	for _, existing := range d.requirements {
		if existing.ExtensionType == r.ExtensionType && existing.FunctionIndex == r.FunctionIndex {
			return
		}
	}
	d.requirements = append(d.requirements, r)
}

// ParseAttributes parses a batch of `dotvm::*` annotation strings, e.g.
// `#[dotvm::simd(width=256)]`, and records the recognized ones. Strings
// that don't carry the dotvm:: marker are silently skipped, not errors.
func (d *Detector) ParseAttributes(attrs []string) error {
	for _, attr := range attrs {
		pattern, err := parseAttribute(attr)
		if err != nil {
			return err
		}
		if pattern != nil {
			d.attributes = append(d.attributes, *pattern)
		}
	}
	return nil
}

func parseAttribute(attr string) (*Attribute, error) {
	if !strings.HasPrefix(attr, "#[dotvm::") {
		return nil, nil
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(attr, "#["), "]")
	parts := strings.SplitN(trimmed, "(", 2)
	if len(parts) == 0 || parts[0] == "" {
		return nil, cmn.Validationf("extension.parseAttribute", "invalid attribute syntax: %q", attr)
	}

	pattern := &Attribute{Name: parts[0], Parameters: make(map[string]string)}
	if len(parts) == 2 {
		paramStr := strings.TrimSuffix(parts[1], ")")
		for _, param := range strings.Split(paramStr, ",") {
			param = strings.TrimSpace(param)
			if param == "" {
				continue
			}
			key, value, ok := strings.Cut(param, "=")
			if !ok {
				continue
			}
			pattern.Parameters[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return pattern, nil
}

// ValidateArchitectureCompatibility returns an ArchitectureIncompatibility
// error (cmn.KindValidation) for the first detected requirement whose
// minimum architecture exceeds the target.
func (d *Detector) ValidateArchitectureCompatibility() error {
	for _, req := range d.requirements {
		if !req.ExtensionType.IsCompatibleWith(d.targetArchitecture) {
			return cmn.Validationf(
				"extension.ValidateArchitectureCompatibility",
				"architecture incompatibility: %s requires %s but target is %s",
				req.ExtensionType, req.ExtensionType.MinimumArchitecture(), d.targetArchitecture,
			)
		}
	}
	return nil
}

// Requirements returns every detected requirement.
func (d *Detector) Requirements() []Requirement { return d.requirements }

// RequiredExtensions returns the set of distinct extension types detected.
func (d *Detector) RequiredExtensions() []Type {
	seen := make(map[Type]struct{})
	for _, r := range d.requirements {
		seen[r.ExtensionType] = struct{}{}
	}
	out := make([]Type, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MinimumRequiredArchitecture returns the highest minimum tier among every
// detected requirement, or Arch64 if none were detected.
func (d *Detector) MinimumRequiredArchitecture() cmn.Architecture {
	min := cmn.Arch64
	for _, r := range d.requirements {
		if arch := r.ExtensionType.MinimumArchitecture(); arch > min {
			min = arch
		}
	}
	return min
}

// HasExtension reports whether t was detected.
func (d *Detector) HasExtension(t Type) bool {
	for _, r := range d.requirements {
		if r.ExtensionType == t {
			return true
		}
	}
	return false
}

// FunctionRequirements returns every requirement attributed to
// functionIndex.
func (d *Detector) FunctionRequirements(functionIndex uint32) []Requirement {
	var out []Requirement
	for _, r := range d.requirements {
		if r.FunctionIndex == functionIndex {
			out = append(out, r)
		}
	}
	return out
}
