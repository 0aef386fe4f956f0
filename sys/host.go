// Package sys provides the host-linking layer: a Linker that resolves a
// module's imports either against Go functions registered through a
// HostModuleBuilder or against another module instantiated earlier in the
// same Linker, mirroring chibiwasm's Importer/Import design.
package sys

import (
	"context"
	"fmt"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/wasm"
)

// HostFunc is a Go implementation of an imported WebAssembly function.
type HostFunc func(ctx context.Context, args []api.Value) ([]api.Value, error)

// HostModuleBuilder accumulates named functions and memories under a
// single module namespace before sealing them into a HostModule.
type HostModuleBuilder struct {
	name  string
	funcs map[string]hostEntry
	mems  map[string]*wasm.MemoryInst
}

type hostEntry struct {
	sig api.FuncType
	fn  HostFunc
}

// NewHostModuleBuilder starts building a host module importers will see
// under the given module name (e.g. "env", "wasi_snapshot_preview1").
func NewHostModuleBuilder(name string) *HostModuleBuilder {
	return &HostModuleBuilder{name: name, funcs: map[string]hostEntry{}, mems: map[string]*wasm.MemoryInst{}}
}

// WithFunc registers fn under field, callable by a guest module that
// imports (name, field) with a matching signature.
func (b *HostModuleBuilder) WithFunc(field string, sig api.FuncType, fn HostFunc) *HostModuleBuilder {
	b.funcs[field] = hostEntry{sig: sig, fn: fn}
	return b
}

// WithMemory exposes mem so a guest module can import (name, field) as its
// linear memory, for host modules that share memory with the guest instead
// of only exchanging scalars through function calls.
func (b *HostModuleBuilder) WithMemory(field string, mem *wasm.MemoryInst) *HostModuleBuilder {
	b.mems[field] = mem
	return b
}

// Build seals the builder into an immutable HostModule.
func (b *HostModuleBuilder) Build() *HostModule {
	funcs := make(map[string]hostEntry, len(b.funcs))
	for k, v := range b.funcs {
		funcs[k] = v
	}
	mems := make(map[string]*wasm.MemoryInst, len(b.mems))
	for k, v := range b.mems {
		mems[k] = v
	}
	return &HostModule{name: b.name, funcs: funcs, mems: mems}
}

// HostModule is a named namespace of Go-implemented functions (and,
// optionally, shared memories), ready to satisfy a guest module's imports
// through a Linker.
type HostModule struct {
	name  string
	funcs map[string]hostEntry
	mems  map[string]*wasm.MemoryInst
}

// Name reports the module name guests import this namespace under.
func (h *HostModule) Name() string { return h.name }

func (h *HostModule) resolveFunc(field string, sig api.FuncType) (*wasm.FuncInst, error) {
	entry, ok := h.funcs[field]
	if !ok {
		return nil, fmt.Errorf("sys: host module %q has no function %q", h.name, field)
	}
	if !entry.sig.Equal(&sig) {
		return nil, fmt.Errorf("sys: host module %q function %q has signature %s, import wants %s", h.name, field, &entry.sig, &sig)
	}
	return &wasm.FuncInst{External: &wasm.ExternalFunc{
		Module: h.name,
		Field:  field,
		Type:   entry.sig,
		Invoke: wasm.HostFunc(entry.fn),
	}}, nil
}

func (h *HostModule) resolveMemory(field string) (*wasm.MemoryInst, error) {
	mem, ok := h.mems[field]
	if !ok {
		return nil, fmt.Errorf("sys: host module %q has no memory %q", h.name, field)
	}
	return mem, nil
}
