// Package wasm parses and validates WebAssembly binary modules into an
// AST.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package wasm

import (
	"encoding/binary"

	"github.com/dotlanth/dotvm/cmn"
)

var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6D} // "\0asm"

const wasmVersion = uint32(1)

const (
	sectionCustom uint8 = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
)

// cursor is a forward-only reader over a WASM binary payload: a plain
// byte-slice cursor with explicit
// bounds checks rather than a buffered io.Reader, since every section is
// already fully resident in memory by the time ParseModule runs.
type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) remaining() int { return len(c.b) - c.pos }

func (c *cursor) readByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, cmn.Validationf("wasm.cursor.readByte", "unexpected end of input")
	}
	v := c.b[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, cmn.Validationf("wasm.cursor.readBytes", "unexpected end of input reading %d bytes", n)
	}
	out := c.b[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// readVarU32 reads an unsigned LEB128-encoded uint32, the variable-length
// integer encoding the WASM binary format uses throughout.
func (c *cursor) readVarU32() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		if shift >= 32 {
			return 0, cmn.Validationf("wasm.cursor.readVarU32", "varuint32 too long")
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func (c *cursor) readValueType() (ValueType, error) {
	b, err := c.readByte()
	if err != nil {
		return 0, err
	}
	vt := ValueType(b)
	if !vt.valid() {
		return 0, cmn.Validationf("wasm.cursor.readValueType", "unknown value type 0x%02x", b)
	}
	return vt, nil
}

func (c *cursor) readName() (string, error) {
	n, err := c.readVarU32()
	if err != nil {
		return "", err
	}
	b, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readLimits parses the shared (flags, initial[, maximum]) limits encoding
// used by both table and memory types. bit 0 of flags signals a maximum is
// present; bit 1 (memories only) signals the memory is shared.
func (c *cursor) readLimits() (initial uint32, maximum *uint32, shared bool, err error) {
	flags, err := c.readByte()
	if err != nil {
		return 0, nil, false, err
	}
	initial, err = c.readVarU32()
	if err != nil {
		return 0, nil, false, err
	}
	if flags&0x01 != 0 {
		max, err := c.readVarU32()
		if err != nil {
			return 0, nil, false, err
		}
		maximum = &max
	}
	shared = flags&0x02 != 0
	return initial, maximum, shared, nil
}

func (c *cursor) readTableType() (TableType, error) {
	elemType, err := c.readValueType()
	if err != nil {
		return TableType{}, err
	}
	initial, maximum, _, err := c.readLimits()
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElementType: elemType, Initial: initial, Maximum: maximum}, nil
}

func (c *cursor) readMemoryType() (MemoryType, error) {
	initial, maximum, shared, err := c.readLimits()
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Initial: initial, Maximum: maximum, Shared: shared}, nil
}

func (c *cursor) readGlobalType() (GlobalType, error) {
	vt, err := c.readValueType()
	if err != nil {
		return GlobalType{}, err
	}
	mutFlag, err := c.readByte()
	if err != nil {
		return GlobalType{}, err
	}
	return GlobalType{ValueType: vt, Mutable: mutFlag != 0}, nil
}

// readConstExpr reads an init expression up to and including its
// terminating 0x0B (end) opcode. It does not interpret the expression, only
// delimits it, since evaluating constant expressions is the VM's job.
func (c *cursor) readConstExpr() ([]byte, error) {
	start := c.pos
	for {
		b, err := c.readByte()
		if err != nil {
			return nil, cmn.Validationf("wasm.cursor.readConstExpr", "unterminated init expression")
		}
		if b == 0x0B {
			return c.b[start:c.pos], nil
		}
	}
}

const (
	maxSectionCount = 1 << 20
	maxVectorCount  = 1 << 24
)

// ParseModule validates the 8-byte WASM header and parses every section
// into a Module. Unknown section ids are rejected; custom
// sections are preserved verbatim.
func ParseModule(data []byte) (*Module, error) {
	if len(data) < 8 {
		return nil, cmn.Validationf("wasm.ParseModule", "input too short for WASM header")
	}
	var magic [4]byte
	copy(magic[:], data[:4])
	if magic != wasmMagic {
		return nil, cmn.Validationf("wasm.ParseModule", "missing \\0asm magic header")
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != wasmVersion {
		return nil, cmn.Validationf("wasm.ParseModule", "unsupported WASM version %d", version)
	}

	c := &cursor{b: data, pos: 8}
	m := NewModule()

	for c.remaining() > 0 {
		id, err := c.readByte()
		if err != nil {
			return nil, err
		}
		size, err := c.readVarU32()
		if err != nil {
			return nil, err
		}
		body, err := c.readBytes(int(size))
		if err != nil {
			return nil, err
		}
		if err := parseSection(m, id, body); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func parseSection(m *Module, id uint8, body []byte) error {
	sc := &cursor{b: body}
	switch id {
	case sectionCustom:
		return parseCustomSection(m, sc)
	case sectionType:
		return parseTypeSection(m, sc)
	case sectionImport:
		return parseImportSection(m, sc)
	case sectionFunction:
		return parseFunctionSection(m, sc)
	case sectionTable:
		return parseTableSection(m, sc)
	case sectionMemory:
		return parseMemorySection(m, sc)
	case sectionGlobal:
		return parseGlobalSection(m, sc)
	case sectionExport:
		return parseExportSection(m, sc)
	case sectionStart:
		return parseStartSection(m, sc)
	case sectionElement:
		return parseElementSection(m, sc)
	case sectionCode:
		return parseCodeSection(m, sc)
	case sectionData:
		return parseDataSection(m, sc)
	default:
		return cmn.Validationf("wasm.parseSection", "unknown section id %d", id)
	}
}

func readVector(c *cursor) (uint32, error) {
	n, err := c.readVarU32()
	if err != nil {
		return 0, err
	}
	if n > maxVectorCount {
		return 0, cmn.Validationf("wasm.readVector", "section vector count %d exceeds bound", n)
	}
	return n, nil
}

func parseCustomSection(m *Module, c *cursor) error {
	name, err := c.readName()
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{Name: name, Data: c.b[c.pos:]})
	return nil
}

func parseTypeSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		form, err := c.readByte()
		if err != nil {
			return err
		}
		if form != 0x60 {
			return cmn.Validationf("wasm.parseTypeSection", "unexpected function type form 0x%02x", form)
		}
		paramCount, err := readVector(c)
		if err != nil {
			return err
		}
		params := make([]ValueType, paramCount)
		for j := range params {
			if params[j], err = c.readValueType(); err != nil {
				return err
			}
		}
		resultCount, err := readVector(c)
		if err != nil {
			return err
		}
		results := make([]ValueType, resultCount)
		for j := range results {
			if results[j], err = c.readValueType(); err != nil {
				return err
			}
		}
		m.Types = append(m.Types, FunctionType{Params: params, Results: results})
	}
	return nil
}

func parseImportSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		module, err := c.readName()
		if err != nil {
			return err
		}
		name, err := c.readName()
		if err != nil {
			return err
		}
		kindByte, err := c.readByte()
		if err != nil {
			return err
		}
		var kind ImportKind
		switch kindByte {
		case 0x00:
			idx, err := c.readVarU32()
			if err != nil {
				return err
			}
			kind = ImportKind{Kind: "Function", FunctionTypeIndex: idx}
		case 0x01:
			tt, err := c.readTableType()
			if err != nil {
				return err
			}
			kind = ImportKind{Kind: "Table", Table: Table{TableType: tt}}
		case 0x02:
			mt, err := c.readMemoryType()
			if err != nil {
				return err
			}
			kind = ImportKind{Kind: "Memory", Memory: Memory{MemoryType: mt}}
		case 0x03:
			gt, err := c.readGlobalType()
			if err != nil {
				return err
			}
			kind = ImportKind{Kind: "Global", GlobalType: gt}
		default:
			return cmn.Validationf("wasm.parseImportSection", "unknown import kind 0x%02x", kindByte)
		}
		m.Imports = append(m.Imports, Import{Module: module, Name: name, Kind: kind})
	}
	return nil
}

func parseFunctionSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		idx, err := c.readVarU32()
		if err != nil {
			return err
		}
		m.FunctionTypes = append(m.FunctionTypes, idx)
	}
	return nil
}

func parseTableSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tt, err := c.readTableType()
		if err != nil {
			return err
		}
		m.Tables = append(m.Tables, Table{TableType: tt})
	}
	return nil
}

func parseMemorySection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		mt, err := c.readMemoryType()
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, Memory{MemoryType: mt})
	}
	return nil
}

func parseGlobalSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		gt, err := c.readGlobalType()
		if err != nil {
			return err
		}
		expr, err := c.readConstExpr()
		if err != nil {
			return err
		}
		m.Globals = append(m.Globals, Global{GlobalType: gt, InitExpr: expr})
	}
	return nil
}

func parseExportSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		name, err := c.readName()
		if err != nil {
			return err
		}
		kindByte, err := c.readByte()
		if err != nil {
			return err
		}
		if kindByte > byte(ExportKindGlobal) {
			return cmn.Validationf("wasm.parseExportSection", "unknown export kind 0x%02x", kindByte)
		}
		idx, err := c.readVarU32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: ExportKind(kindByte), Index: idx})
	}
	return nil
}

func parseStartSection(m *Module, c *cursor) error {
	idx, err := c.readVarU32()
	if err != nil {
		return err
	}
	m.StartFunction = &idx
	return nil
}

func parseElementSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tableIdx, err := c.readVarU32()
		if err != nil {
			return err
		}
		offset, err := c.readConstExpr()
		if err != nil {
			return err
		}
		count, err := readVector(c)
		if err != nil {
			return err
		}
		funcs := make([]uint32, count)
		for j := range funcs {
			if funcs[j], err = c.readVarU32(); err != nil {
				return err
			}
		}
		m.Elements = append(m.Elements, Element{TableIndex: tableIdx, Offset: offset, Functions: funcs})
	}
	return nil
}

func parseCodeSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		bodySize, err := c.readVarU32()
		if err != nil {
			return err
		}
		bodyBytes, err := c.readBytes(int(bodySize))
		if err != nil {
			return err
		}
		fc := &cursor{b: bodyBytes}
		localCount, err := readVector(fc)
		if err != nil {
			return err
		}
		var locals []ValueType
		for j := uint32(0); j < localCount; j++ {
			n, err := fc.readVarU32()
			if err != nil {
				return err
			}
			vt, err := fc.readValueType()
			if err != nil {
				return err
			}
			for k := uint32(0); k < n; k++ {
				locals = append(locals, vt)
			}
		}
		var signature FunctionType
		if int(i) < len(m.FunctionTypes) && int(m.FunctionTypes[i]) < len(m.Types) {
			signature = m.Types[m.FunctionTypes[i]]
		}
		m.Functions = append(m.Functions, Function{
			Signature: signature,
			Locals:    locals,
			Body:      fc.b[fc.pos:],
		})
	}
	return nil
}

func parseDataSection(m *Module, c *cursor) error {
	n, err := readVector(c)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		memIdx, err := c.readVarU32()
		if err != nil {
			return err
		}
		offset, err := c.readConstExpr()
		if err != nil {
			return err
		}
		size, err := c.readVarU32()
		if err != nil {
			return err
		}
		data, err := c.readBytes(int(size))
		if err != nil {
			return err
		}
		m.DataSegments = append(m.DataSegments, DataSegment{MemoryIndex: memIdx, Offset: offset, Data: data})
	}
	return nil
}
