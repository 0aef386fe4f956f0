package wazen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/interpreter"
	"github.com/skanehira/wazen/internal/wasm"
	"github.com/skanehira/wazen/internal/wasm/binary"
)

func encode(t *testing.T, m *wasm.Module) []byte {
	t.Helper()
	return binary.EncodeModule(m)
}

// TestEndToEndAdd exercises the full CompileModule/InstantiateModule/
// ExportedFunction.Call path against a minimal module with no imports.
func TestEndToEndAdd(t *testing.T) {
	i32 := api.ValueTypeI32
	mod := &wasm.Module{
		TypeSection:     []api.FuncType{{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}}},
		FunctionSection: []uint32{0},
		ExportSection:   []wasm.Export{{Name: "add", Desc: wasm.ExportDesc{Type: api.ExternTypeFunc, Idx: 0}}},
		CodeSection: []wasm.FunctionBody{{Body: []wasm.Instruction{
			{Op: wasm.OpcodeLocalGet, Idx: 0},
			{Op: wasm.OpcodeLocalGet, Idx: 1},
			{Op: wasm.OpcodeI32Add},
		}}},
	}

	ctx := context.Background()
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(ctx, encode(t, mod))
	require.NoError(t, err)

	m, err := rt.InstantiateModule(ctx, compiled)
	require.NoError(t, err)
	defer m.Close()

	results, err := m.ExportedFunction("add").Call(ctx, api.I32(2), api.I32(40))
	require.NoError(t, err)
	require.Equal(t, int32(42), results[0].I32())

	_, err = m.ExportedFunction("missing").Call(ctx)
	require.Error(t, err)
}

// TestStartFunction checks a module's start function runs automatically
// during InstantiateModule, before the caller gets its Module back.
func TestStartFunction(t *testing.T) {
	i32 := api.ValueTypeI32
	zero := uint32(0)
	mod := &wasm.Module{
		TypeSection:     []api.FuncType{{}},
		FunctionSection: []uint32{0},
		StartSection:    &zero,
		GlobalSection: []wasm.Global{
			{Type: wasm.GlobalType{ValType: i32, Mutability: wasm.Var}, Init: wasm.ConstExpr{Value: api.I32(0)}},
		},
		ExportSection: []wasm.Export{{Name: "counter", Desc: wasm.ExportDesc{Type: api.ExternTypeGlobal, Idx: 0}}},
		CodeSection: []wasm.FunctionBody{{Body: []wasm.Instruction{
			{Op: wasm.OpcodeI32Const, Const: api.I32(42)},
			{Op: wasm.OpcodeGlobalSet, Idx: 0},
		}}},
	}

	ctx := context.Background()
	rt := NewRuntime(nil)
	compiled, err := rt.CompileModule(ctx, encode(t, mod))
	require.NoError(t, err)

	m, err := rt.InstantiateModule(ctx, compiled)
	require.NoError(t, err)

	require.Equal(t, int32(42), m.Global("counter").Get().I32())
}

// TestWithMaxCallDepth checks RuntimeConfig.WithMaxCallDepth is actually
// wired through to the executing Machine, not just stored.
func TestWithMaxCallDepth(t *testing.T) {
	mod := &wasm.Module{
		TypeSection:     []api.FuncType{{}},
		FunctionSection: []uint32{0},
		ExportSection:   []wasm.Export{{Name: "loop", Desc: wasm.ExportDesc{Type: api.ExternTypeFunc, Idx: 0}}},
		CodeSection: []wasm.FunctionBody{{Body: []wasm.Instruction{
			{Op: wasm.OpcodeCall, Idx: 0},
		}}},
	}

	ctx := context.Background()
	rt := NewRuntime(NewRuntimeConfig().WithMaxCallDepth(8))
	compiled, err := rt.CompileModule(ctx, encode(t, mod))
	require.NoError(t, err)
	m, err := rt.InstantiateModule(ctx, compiled)
	require.NoError(t, err)

	_, err = m.ExportedFunction("loop").Call(ctx)
	require.True(t, interpreter.IsTrap(err, interpreter.TrapCallStackExhausted))
}

// TestWithMemoryMaxPages checks RuntimeConfig.WithMemoryMaxPages caps a
// memory that declares no max of its own.
func TestWithMemoryMaxPages(t *testing.T) {
	mod := &wasm.Module{
		MemorySection: []wasm.Memory{{Limits: wasm.Limits{Min: 1}}},
		ExportSection: []wasm.Export{{Name: "memory", Desc: wasm.ExportDesc{Type: api.ExternTypeMemory, Idx: 0}}},
	}

	ctx := context.Background()
	rt := NewRuntime(NewRuntimeConfig().WithMemoryMaxPages(1))
	compiled, err := rt.CompileModule(ctx, encode(t, mod))
	require.NoError(t, err)
	m, err := rt.InstantiateModule(ctx, compiled)
	require.NoError(t, err)

	_, ok := m.Memory().Grow(1)
	require.False(t, ok)

	mem := m.ExportedMemory("memory")
	require.NotNil(t, mem)
	require.Equal(t, uint32(wasm.PageSize), mem.Size())
}
