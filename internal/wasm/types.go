// Package wasm defines the decoded module AST and the store/instance types
// built from it. It has no dependency on how the bytes were read (binary
// package) or how instructions are executed (interpreter package).
package wasm

import "github.com/skanehira/wazen/api"

// Limits bounds the size of a table or memory: a minimum, and an optional
// maximum.
//
// See https://webassembly.github.io/spec/core/binary/types.html#limits
type Limits struct {
	Min uint32
	Max *uint32
}

// ElemTypeFuncRef is the only element type this core supports.
const ElemTypeFuncRef = 0x70

// Table declares a table of funcref elements.
type Table struct {
	Limits Limits
}

// Memory declares linear memory sized in 64KiB pages.
type Memory struct {
	Limits Limits
}

// Mutability of a GlobalType.
type Mutability bool

const (
	Const Mutability = false
	Var   Mutability = true
)

// GlobalType is the declared type and mutability of a global.
type GlobalType struct {
	ValType    api.ValueType
	Mutability Mutability
}

// ConstExpr is a decoded constant initializer expression: one of
// i32.const/i64.const/f32.const/f64.const followed by end. Used by
// globals, data offsets, and element offsets.
type ConstExpr struct {
	Value api.Value
}

// Global is a module-defined global: its type plus its constant
// initializer.
type Global struct {
	Type GlobalType
	Init ConstExpr
}

// ExportDesc names which instance-space the export's index refers into.
type ExportDesc struct {
	Type api.ExternType
	Idx  uint32
}

// Export is one entry of the export section.
type Export struct {
	Name string
	Desc ExportDesc
}

// ImportKind tags which of Func/Table/Memory/Global an import resolves to.
type ImportKind byte

const (
	ImportKindFunc ImportKind = iota
	ImportKindTable
	ImportKindMemory
	ImportKindGlobal
)

// Import is one entry of the import section. Exactly one of TypeIdx/Table/
// Mem/Global is meaningful, selected by Kind.
type Import struct {
	Module string
	Field  string
	Kind   ImportKind
	TypeIdx uint32
	Table   Table
	Mem     Memory
	Global  GlobalType
}

// FunctionLocal is one (count, type) pack from a function body's locals
// declaration.
type FunctionLocal struct {
	Count uint32
	Type  api.ValueType
}

// FunctionBody is one entry of the code section: the still-packed locals
// declarations and the decoded instruction stream.
type FunctionBody struct {
	Locals []FunctionLocal
	Body   []Instruction
}

// ExpandedLocals expands the (count, type) packs into one ValueType per
// local slot, in declaration order.
func (b *FunctionBody) ExpandedLocals() []api.ValueType {
	n := 0
	for _, l := range b.Locals {
		n += int(l.Count)
	}
	out := make([]api.ValueType, 0, n)
	for _, l := range b.Locals {
		for i := uint32(0); i < l.Count; i++ {
			out = append(out, l.Type)
		}
	}
	return out
}

// Data is one entry of the data section: always memory index 0 in this
// core, a constant offset expression, and the raw bytes to copy.
type Data struct {
	MemoryIdx uint32
	Offset    ConstExpr
	Init      []byte
}

// Element is one entry of the element section: always table index 0 in
// this core, a constant offset expression, and the function indices to
// write starting at that offset.
type Element struct {
	TableIdx uint32
	Offset   ConstExpr
	Init     []uint32
}

// Module is the decoded, unvalidated AST of a binary module. Sections that
// were absent from the binary are nil, not empty.
type Module struct {
	Version uint32

	TypeSection     []api.FuncType
	ImportSection   []Import
	FunctionSection []uint32 // index into TypeSection, one per module-defined function
	TableSection    []Table  // at most one entry
	MemorySection   []Memory // at most one entry
	GlobalSection   []Global
	ExportSection   []Export
	StartSection    *uint32
	ElementSection  []Element
	CodeSection     []FunctionBody // same length as FunctionSection
	DataSection     []Data
}
