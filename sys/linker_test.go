package sys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/wasm"
)

func i32FuncType(n int) api.FuncType {
	params := make([]api.ValueType, n)
	for i := range params {
		params[i] = api.ValueTypeI32
	}
	return api.FuncType{Params: params}
}

// TestHostWrite exercises a guest importing a host function that reads
// from linear memory shared with the guest, the shape a "write" syscall
// takes: the guest places bytes at an address, and the host copies that
// range out to its own output.
func TestHostWrite(t *testing.T) {
	mem := &wasm.MemoryInst{Data: make([]byte, wasm.PageSize)}

	var written []byte
	host := NewHostModuleBuilder("env").
		WithFunc("write", i32FuncType(2), func(_ context.Context, args []api.Value) ([]api.Value, error) {
			addr := uint32(args[0].I32())
			n := uint32(args[1].I32())
			written = append([]byte(nil), mem.Data[addr:addr+n]...)
			return nil, nil
		}).
		WithMemory("memory", mem).
		Build()

	linker := NewLinker().AddHostModule(host)

	fn, err := linker.ResolveFunc("env", "write", i32FuncType(2))
	require.NoError(t, err)
	require.False(t, fn.IsInternal())

	resolvedMem, err := linker.ResolveMemory("env", "memory")
	require.NoError(t, err)
	require.Same(t, mem, resolvedMem)

	copy(mem.Data[8:], []byte("hi"))
	_, err = fn.External.Invoke(context.Background(), []api.Value{api.I32(8), api.I32(2)})
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), written)
}

func TestResolveFuncSignatureMismatch(t *testing.T) {
	host := NewHostModuleBuilder("env").
		WithFunc("f", i32FuncType(1), func(context.Context, []api.Value) ([]api.Value, error) { return nil, nil }).
		Build()
	linker := NewLinker().AddHostModule(host)

	_, err := linker.ResolveFunc("env", "f", i32FuncType(2))
	require.Error(t, err)
}

func TestResolveFuncMissingModule(t *testing.T) {
	linker := NewLinker()
	_, err := linker.ResolveFunc("env", "f", i32FuncType(0))
	require.Error(t, err)
}

// TestCrossModuleLinking covers AddModule: one module's exported function
// satisfies another module's import, without going through a HostModule.
func TestCrossModuleLinking(t *testing.T) {
	sevenType := api.FuncType{Results: []api.ValueType{api.ValueTypeI32}}
	exporter := &wasm.ModuleInst{
		Funcs: []*wasm.FuncInst{{Internal: &wasm.InternalFunc{
			Type: sevenType,
			Body: []wasm.Instruction{{Op: wasm.OpcodeI32Const, Const: api.I32(7)}},
		}}},
		Exports: map[string]wasm.ExportInst{
			"seven": {Name: "seven", Val: wasm.ExternalVal{Type: api.ExternTypeFunc, Idx: 0}},
		},
	}
	linker := NewLinker().AddModule("lib", exporter)

	fn, err := linker.ResolveFunc("lib", "seven", sevenType)
	require.NoError(t, err)
	require.True(t, fn.IsInternal())
}
