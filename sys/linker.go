package sys

import (
	"fmt"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/wasm"
)

// Linker resolves a module's imports against whatever namespaces have
// been registered under their module name: a HostModule for Go-side
// functions, or another module's already-instantiated exports for
// cross-module linking. It implements wasm.Importer directly, so
// wasm.Instantiate can consult it without wrapping.
//
// Grounded on chibiwasm's execution/import.rs Imports/Import, generalized
// from "one named import source" to a registry of named sources.
type Linker struct {
	hosts          map[string]*HostModule
	instances      map[string]*wasm.ModuleInst
}

// NewLinker returns an empty Linker.
func NewLinker() *Linker {
	return &Linker{hosts: map[string]*HostModule{}, instances: map[string]*wasm.ModuleInst{}}
}

// AddHostModule registers a HostModule so guest modules can import its
// functions by (h.Name(), field).
func (l *Linker) AddHostModule(h *HostModule) *Linker {
	l.hosts[h.Name()] = h
	return l
}

// AddModule registers an already-instantiated module's exports under
// name, so later Instantiate calls through this Linker can import from
// it.
func (l *Linker) AddModule(name string, inst *wasm.ModuleInst) *Linker {
	l.instances[name] = inst
	return l
}

// Instantiate links mod against everything registered on l so far and
// returns its instance. Callers composing a multi-module program
// register each dependency's instance via AddModule before instantiating
// modules that import it. memoryMaxPages caps any memory the module
// declares no smaller max for; see wazen.RuntimeConfig.WithMemoryMaxPages.
func (l *Linker) Instantiate(mod *wasm.Module, memoryMaxPages uint32) (*wasm.ModuleInst, error) {
	return wasm.Instantiate(mod, l, memoryMaxPages)
}

func (l *Linker) ResolveFunc(module, field string, sig api.FuncType) (*wasm.FuncInst, error) {
	if h, ok := l.hosts[module]; ok {
		return h.resolveFunc(field, sig)
	}
	inst, ok := l.instances[module]
	if !ok {
		return nil, fmt.Errorf("sys: no module registered for import %q", module)
	}
	export, ok := inst.Export(field)
	if !ok || export.Val.Type != api.ExternTypeFunc {
		return nil, fmt.Errorf("sys: module %q has no exported function %q", module, field)
	}
	if int(export.Val.Idx) >= len(inst.Funcs) {
		return nil, fmt.Errorf("sys: module %q export %q index out of range", module, field)
	}
	fn := inst.Funcs[export.Val.Idx]
	got := funcType(fn)
	if !got.Equal(&sig) {
		return nil, fmt.Errorf("sys: module %q export %q has signature %s, import wants %s", module, field, &got, &sig)
	}
	return fn, nil
}

func (l *Linker) ResolveTable(module, field string) (*wasm.TableInst, error) {
	inst, ok := l.instances[module]
	if !ok {
		return nil, fmt.Errorf("sys: no module registered for import %q", module)
	}
	export, ok := inst.Export(field)
	if !ok || export.Val.Type != api.ExternTypeTable {
		return nil, fmt.Errorf("sys: module %q has no exported table %q", module, field)
	}
	return inst.Tables[export.Val.Idx], nil
}

func (l *Linker) ResolveMemory(module, field string) (*wasm.MemoryInst, error) {
	if h, ok := l.hosts[module]; ok {
		return h.resolveMemory(field)
	}
	inst, ok := l.instances[module]
	if !ok {
		return nil, fmt.Errorf("sys: no module registered for import %q", module)
	}
	export, ok := inst.Export(field)
	if !ok || export.Val.Type != api.ExternTypeMemory {
		return nil, fmt.Errorf("sys: module %q has no exported memory %q", module, field)
	}
	return inst.Mems[export.Val.Idx], nil
}

func (l *Linker) ResolveGlobal(module, field string) (*wasm.GlobalInst, error) {
	inst, ok := l.instances[module]
	if !ok {
		return nil, fmt.Errorf("sys: no module registered for import %q", module)
	}
	export, ok := inst.Export(field)
	if !ok || export.Val.Type != api.ExternTypeGlobal {
		return nil, fmt.Errorf("sys: module %q has no exported global %q", module, field)
	}
	return inst.Globals[export.Val.Idx], nil
}

func funcType(fn *wasm.FuncInst) api.FuncType {
	if fn.IsInternal() {
		return fn.Internal.Type
	}
	return fn.External.Type
}
