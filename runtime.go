package wazen

import (
	"context"

	"github.com/skanehira/wazen/internal/interpreter"
	"github.com/skanehira/wazen/internal/wasm"
	"github.com/skanehira/wazen/internal/wasm/binary"
	"github.com/skanehira/wazen/sys"
)

// Runtime compiles and instantiates WebAssembly modules under one shared
// configuration. Each instantiated Module is independent: Runtime itself
// holds no mutable state beyond its config.
type Runtime struct {
	config *RuntimeConfig
}

// NewRuntime constructs a Runtime. A nil config uses NewRuntimeConfig's
// defaults.
func NewRuntime(config *RuntimeConfig) *Runtime {
	if config == nil {
		config = NewRuntimeConfig()
	}
	return &Runtime{config: config}
}

// CompiledModule is a decoded module, ready for InstantiateModule. Decoding
// is the only thing that happens at this phase: this runtime has no
// ahead-of-time compiler, so CompiledModule is just the parsed AST plus the
// bits Module needs to name its exports.
type CompiledModule struct {
	module *wasm.Module
}

// CompileModule decodes a binary WebAssembly module. It returns the same
// decode errors binary.DecodeModule does (malformed magic/version, unknown
// section ids, truncated LEB128 data, and so on).
func (r *Runtime) CompileModule(ctx context.Context, source []byte) (*CompiledModule, error) {
	m, err := binary.DecodeModule(source)
	if err != nil {
		return nil, err
	}
	return &CompiledModule{module: m}, nil
}

// InstantiateModule links compiled against the given host modules only (pass
// none for a module with no imports; each call uses a fresh Linker, so
// modules instantiated earlier are not visible), runs its start function if
// it declares one, and
// returns the live Module. Each call produces an independent instance: the
// same CompiledModule may be instantiated many times.
func (r *Runtime) InstantiateModule(ctx context.Context, compiled *CompiledModule, hosts ...*sys.HostModule) (*Module, error) {
	linker := sys.NewLinker()
	for _, h := range hosts {
		linker.AddHostModule(h)
	}
	return r.instantiateModule(ctx, compiled, linker)
}

// InstantiateModuleWithLinker is InstantiateModule for callers that need
// cross-module imports: register dependency instances on linker via
// Linker.AddModule before calling this for a module that imports them.
func (r *Runtime) InstantiateModuleWithLinker(ctx context.Context, compiled *CompiledModule, linker *sys.Linker) (*Module, error) {
	return r.instantiateModule(ctx, compiled, linker)
}

func (r *Runtime) instantiateModule(ctx context.Context, compiled *CompiledModule, linker *sys.Linker) (*Module, error) {
	inst, err := linker.Instantiate(compiled.module, r.config.memoryMaxPages)
	if err != nil {
		return nil, err
	}
	machine := interpreter.NewMachineWithMaxCallDepth(inst, r.config.maxCallDepth)

	mod := &Module{
		inst:    inst,
		machine: machine,
	}

	if idx := compiled.module.StartSection; idx != nil {
		if _, err := machine.CallByIndex(ctx, *idx, nil); err != nil {
			return nil, err
		}
	}
	return mod, nil
}
