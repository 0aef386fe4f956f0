package wasm

import (
	"context"

	"github.com/skanehira/wazen/api"
)

// HostFunc is the signature every resolved external function is called
// through, whether it ultimately runs Go code (a host module) or another
// module's internal function reached via cross-module linking.
type HostFunc func(ctx context.Context, args []api.Value) ([]api.Value, error)

// Importer resolves one (module, field) pair per WebAssembly import kind.
// It is consulted once, at Instantiate time, to turn a Module's import
// section into concrete FuncInst/TableInst/MemoryInst/GlobalInst values;
// the interpreter itself never calls back into it.
//
// Grounded on chibiwasm's execution/import.rs Importer trait.
type Importer interface {
	ResolveFunc(module, field string, sig api.FuncType) (*FuncInst, error)
	ResolveTable(module, field string) (*TableInst, error)
	ResolveMemory(module, field string) (*MemoryInst, error)
	ResolveGlobal(module, field string) (*GlobalInst, error)
}
