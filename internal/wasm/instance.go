package wasm

import "github.com/skanehira/wazen/api"

// PageSize is the fixed size of one linear memory page.
//
// See https://webassembly.github.io/spec/core/exec/runtime.html#page-size
const PageSize = 65536

// InternalFunc is a module-defined function: its signature and its decoded
// body, ready for the interpreter to walk.
type InternalFunc struct {
	Type   api.FuncType
	Locals []api.ValueType
	Body   []Instruction
}

// ExternalFunc is a function resolved from a host or another module's
// export: the interpreter never sees its body, only its call contract and
// the closure that runs it, captured once at link time.
type ExternalFunc struct {
	Module string
	Field  string
	Type   api.FuncType
	Invoke HostFunc
}

// FuncInst is a tagged union over module-defined and externally-resolved
// functions, populated by the store builder from the function/code
// sections or from a successful import resolution.
type FuncInst struct {
	Internal *InternalFunc
	External *ExternalFunc
}

// IsInternal reports whether this instance holds module-defined code.
func (f *FuncInst) IsInternal() bool { return f.Internal != nil }

// TableInst is a table of (possibly absent) function references.
type TableInst struct {
	Elements []*FuncInst
	Max      *uint32
}

// MemoryInst is linear memory, grown in whole pages up to an optional
// maximum, per spec's memory.grow semantics.
type MemoryInst struct {
	Data []byte
	Max  *uint32
}

// PageCount reports the memory's current size in pages.
func (m *MemoryInst) PageCount() uint32 { return uint32(len(m.Data) / PageSize) }

// Grow appends n pages of zeroed memory, returning the previous page count,
// or -1 if growing by n pages would exceed Max (or the 4GiB address space
// the 32-bit address scheme allows). It never partially grows.
func (m *MemoryInst) Grow(n uint32) int32 {
	prev := m.PageCount()
	next := uint64(prev) + uint64(n)
	if m.Max != nil && next > uint64(*m.Max) {
		return -1
	}
	// A 32-bit memory cannot address more than 65536 pages (4GiB).
	if next > 65536 {
		return -1
	}
	m.Data = append(m.Data, make([]byte, uint64(n)*PageSize)...)
	return int32(prev)
}

// GlobalInst is a global variable's current value and whether it may be
// mutated after instantiation.
type GlobalInst struct {
	Value      api.Value
	Mutability Mutability
}

// ExternalVal tags an export by which instance-space it indexes into.
type ExternalVal struct {
	Type api.ExternType
	Idx  uint32
}

// ExportInst names one export and what it resolves to.
type ExportInst struct {
	Name string
	Val  ExternalVal
}

// ModuleInst is the instantiated, linked form of a Module: concrete
// function/table/memory/global instances plus the export namespace used to
// satisfy other modules' imports and the embedder's lookups.
type ModuleInst struct {
	Types   []api.FuncType
	Funcs   []*FuncInst
	Tables  []*TableInst
	Mems    []*MemoryInst
	Globals []*GlobalInst
	Exports map[string]ExportInst
}

// Export looks up a named export.
func (m *ModuleInst) Export(name string) (ExportInst, bool) {
	e, ok := m.Exports[name]
	return e, ok
}
