// Package wasm parses and validates WebAssembly binary modules into an
// AST.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package wasm

import "fmt"

// Module is a parsed and (optionally) validated WebAssembly module.
type Module struct {
	Types          []FunctionType
	Imports        []Import
	FunctionTypes  []uint32 // type index per defined function, parallel to Functions
	Tables         []Table
	Memories       []Memory
	Globals        []Global
	Exports        []Export
	StartFunction  *uint32
	Elements       []Element
	Functions      []Function
	DataSegments   []DataSegment
	CustomSections []CustomSection
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{}
}

// Function is a defined (non-imported) function body.
type Function struct {
	Signature FunctionType
	Locals    []ValueType
	// Body holds the raw, unparsed instruction bytes for this function: the
	// opcode stream is interpreted downstream by the extension detector and
	// transpiler, not by this package.
	Body []byte
}

func (f Function) totalLocals() int { return len(f.Signature.Params) + len(f.Locals) }

// Global is a module-level global variable.
type Global struct {
	GlobalType GlobalType
	InitExpr   []byte
}

// Table is a defined (non-imported) table.
type Table struct {
	TableType TableType
}

// Memory is a defined (non-imported) linear memory.
type Memory struct {
	MemoryType MemoryType
}

// ImportKind tags which kind of item an Import introduces. Only the
// index field matching Kind is meaningful.
type ImportKind struct {
	Kind string // "Function" | "Table" | "Memory" | "Global"

	FunctionTypeIndex uint32 // Function
	Table             Table  // Table
	Memory            Memory // Memory
	GlobalType        GlobalType
}

// Import is one imported item.
type Import struct {
	Module string
	Name   string
	Kind   ImportKind
}

func (i Import) key() string { return i.Module + "::" + i.Name }

// ExportKind tags what an Export refers to.
type ExportKind byte

const (
	ExportKindFunction ExportKind = iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
)

func (k ExportKind) String() string {
	switch k {
	case ExportKindFunction:
		return "function"
	case ExportKindTable:
		return "table"
	case ExportKindMemory:
		return "memory"
	case ExportKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Export is one exported item.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// Element is an element segment initializing a table with function indices.
type Element struct {
	TableIndex uint32
	Offset     []byte
	Functions  []uint32
}

// DataSegment is a data segment initializing part of a linear memory.
type DataSegment struct {
	MemoryIndex uint32
	Offset      []byte
	Data        []byte
}

// CustomSection is a passthrough, name-tagged custom section.
type CustomSection struct {
	Name string
	Data []byte
}

func (c CustomSection) isNameSection() bool      { return c.Name == "name" }
func (c CustomSection) isProducersSection() bool { return c.Name == "producers" }

// TotalFunctionCount returns the number of imported plus defined functions.
func (m *Module) TotalFunctionCount() int {
	return m.importFunctionCount() + len(m.Functions)
}

func (m *Module) importFunctionCount() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind.Kind == "Function" {
			n++
		}
	}
	return n
}

// TotalGlobalCount returns the number of imported plus defined globals.
func (m *Module) TotalGlobalCount() int {
	return m.importGlobalCount() + len(m.Globals)
}

func (m *Module) importGlobalCount() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind.Kind == "Global" {
			n++
		}
	}
	return n
}

// TotalTableCount returns the number of imported plus defined tables.
func (m *Module) TotalTableCount() int {
	n := len(m.Tables)
	for _, imp := range m.Imports {
		if imp.Kind.Kind == "Table" {
			n++
		}
	}
	return n
}

// TotalMemoryCount returns the number of imported plus defined memories.
func (m *Module) TotalMemoryCount() int {
	n := len(m.Memories)
	for _, imp := range m.Imports {
		if imp.Kind.Kind == "Memory" {
			n++
		}
	}
	return n
}

// FindExport returns the export named name, if any.
func (m *Module) FindExport(name string) (Export, bool) {
	for _, exp := range m.Exports {
		if exp.Name == name {
			return exp, true
		}
	}
	return Export{}, false
}

// FindImport returns the import matching (module, name), if any.
func (m *Module) FindImport(module, name string) (Import, bool) {
	for _, imp := range m.Imports {
		if imp.Module == module && imp.Name == name {
			return imp, true
		}
	}
	return Import{}, false
}

// HasStartFunction reports whether the module declares a start function.
func (m *Module) HasStartFunction() bool { return m.StartFunction != nil }

// Validate checks the module's structural invariants: function
// type indices, export indices, and the start function index must all be in
// range, and export names / import (module,name) pairs must be unique.
func (m *Module) Validate() error {
	for i, typeIndex := range m.FunctionTypes {
		if int(typeIndex) >= len(m.Types) {
			return fmt.Errorf("function %d references invalid type index %d", i, typeIndex)
		}
	}

	seenExports := make(map[string]struct{}, len(m.Exports))
	for _, export := range m.Exports {
		if _, dup := seenExports[export.Name]; dup {
			return fmt.Errorf("duplicate export name %q", export.Name)
		}
		seenExports[export.Name] = struct{}{}

		var bound int
		switch export.Kind {
		case ExportKindFunction:
			bound = m.TotalFunctionCount()
		case ExportKindGlobal:
			bound = m.TotalGlobalCount()
		case ExportKindTable:
			bound = m.TotalTableCount()
		case ExportKindMemory:
			bound = m.TotalMemoryCount()
		}
		if int(export.Index) >= bound {
			return fmt.Errorf("export %q references invalid %s index %d", export.Name, export.Kind, export.Index)
		}
	}

	seenImports := make(map[string]struct{}, len(m.Imports))
	for _, imp := range m.Imports {
		if _, dup := seenImports[imp.key()]; dup {
			return fmt.Errorf("duplicate import (module=%q, name=%q)", imp.Module, imp.Name)
		}
		seenImports[imp.key()] = struct{}{}
	}

	if m.StartFunction != nil && int(*m.StartFunction) >= m.TotalFunctionCount() {
		return fmt.Errorf("start function references invalid function index %d", *m.StartFunction)
	}
	return nil
}

// Normalize sorts exports and imports lexicographically. It
// mutates m in place.
func (m *Module) Normalize() {
	sortExports(m.Exports)
	sortImports(m.Imports)
}

func sortExports(exports []Export) {
	for i := 1; i < len(exports); i++ {
		for j := i; j > 0 && exports[j-1].Name > exports[j].Name; j-- {
			exports[j-1], exports[j] = exports[j], exports[j-1]
		}
	}
}

func sortImports(imports []Import) {
	for i := 1; i < len(imports); i++ {
		for j := i; j > 0 && imports[j-1].key() > imports[j].key(); j-- {
			imports[j-1], imports[j] = imports[j], imports[j-1]
		}
	}
}
