package wazen

import (
	"context"
	"fmt"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/interpreter"
	"github.com/skanehira/wazen/internal/wasm"
)

// Module is an instantiated WebAssembly module: its exports are live and
// callable. Create one with Runtime.InstantiateModule.
type Module struct {
	inst    *wasm.ModuleInst
	machine *interpreter.Machine
}

// SetListener attaches a FunctionListener that observes every call made
// through this Module's exported functions, including nested internal
// calls. Pass nil to detach it.
func (m *Module) SetListener(l interpreter.FunctionListener) {
	m.machine.SetListener(l)
}

// ExportedFunction looks up an exported function by name. It returns a
// zero-value Function if no export with that name exists, or if the export
// isn't a function.
func (m *Module) ExportedFunction(name string) Function {
	export, ok := m.inst.Export(name)
	if !ok || export.Val.Type != api.ExternTypeFunc {
		return Function{}
	}
	return Function{name: name, idx: export.Val.Idx, machine: m.machine, valid: true}
}

// Memory returns the module's own memory 0, or nil if it defines none.
func (m *Module) Memory() *Memory {
	if len(m.inst.Mems) == 0 {
		return nil
	}
	return &Memory{inst: m.inst.Mems[0]}
}

// ExportedMemory looks up an exported memory by name.
func (m *Module) ExportedMemory(name string) *Memory {
	export, ok := m.inst.Export(name)
	if !ok || export.Val.Type != api.ExternTypeMemory {
		return nil
	}
	return &Memory{inst: m.inst.Mems[export.Val.Idx]}
}

// Global looks up an exported global by name.
func (m *Module) Global(name string) *Global {
	export, ok := m.inst.Export(name)
	if !ok || export.Val.Type != api.ExternTypeGlobal {
		return nil
	}
	return &Global{inst: m.inst.Globals[export.Val.Idx]}
}

// Close releases this Module. The interpreter keeps no resources beyond Go
// memory, so Close is a no-op kept for interface parity with embedders that
// expect it (e.g. closing in a defer right after InstantiateModule).
func (m *Module) Close() error { return nil }

// Function is a reference to one of a Module's exported functions.
type Function struct {
	name    string
	idx     uint32
	machine *interpreter.Machine
	valid   bool
}

// Call invokes the function with args encoded as api.Value, and returns its
// results the same way. Calling a zero-value Function (one ExportedFunction
// didn't find) returns an error rather than panicking.
func (f Function) Call(ctx context.Context, args ...api.Value) ([]api.Value, error) {
	if !f.valid {
		return nil, fmt.Errorf("wazen: function %q is not exported", f.name)
	}
	return f.machine.CallByIndex(ctx, f.idx, args)
}

// Memory is a restricted view over a module's linear memory: reads and
// writes go straight through to the backing buffer the interpreter
// operates on, and Grow follows the same page-growth rule memory.grow does.
type Memory struct {
	inst *wasm.MemoryInst
}

// Size reports the current memory size in bytes.
func (m *Memory) Size() uint32 { return uint32(len(m.inst.Data)) }

// Grow increases memory by delta pages (64KiB each), returning the previous
// size in pages and true, or false if growing would exceed the configured
// or declared maximum.
func (m *Memory) Grow(delta uint32) (previousPages uint32, ok bool) {
	prev := m.inst.Grow(delta)
	if prev < 0 {
		return 0, false
	}
	return uint32(prev), true
}

// Read returns a byte-count window into memory starting at offset, sharing
// the backing array: writes through it are visible to the module and vice
// versa. It returns false if the window falls outside the current memory.
func (m *Memory) Read(offset, byteCount uint32) ([]byte, bool) {
	if uint64(offset)+uint64(byteCount) > uint64(len(m.inst.Data)) {
		return nil, false
	}
	return m.inst.Data[offset : offset+byteCount], true
}

// Write copies v into memory starting at offset. It returns false without
// writing anything if the range falls outside the current memory.
func (m *Memory) Write(offset uint32, v []byte) bool {
	if uint64(offset)+uint64(len(v)) > uint64(len(m.inst.Data)) {
		return false
	}
	copy(m.inst.Data[offset:], v)
	return true
}

// Global is a reference to one of a module's globals.
type Global struct {
	inst *wasm.GlobalInst
}

// Get returns the global's current value.
func (g *Global) Get() api.Value { return g.inst.Value }

// Set updates the global's value. Callers are responsible for only calling
// this on globals declared mutable; the interpreter itself only mutates
// globals through global.set, which is validated against mutability at
// decode time in a fuller implementation, not enforced here.
func (g *Global) Set(v api.Value) { g.inst.Value = v }
