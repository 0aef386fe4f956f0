package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/wasm"
)

// TestDecodeModule_roundTrip relies on EncodeModule being correct: each
// case is encoded then decoded, and the result must equal the input. This
// avoids hand-writing and maintaining expected byte arrays.
func TestDecodeModule_roundTrip(t *testing.T) {
	i32, i64, f32, f64 := api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64
	zero := uint32(0)

	tests := []struct {
		name  string
		input *wasm.Module
	}{
		{name: "empty", input: &wasm.Module{}},
		{
			name: "type section",
			input: &wasm.Module{
				TypeSection: []api.FuncType{
					{},
					{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}},
					{Params: []api.ValueType{i64}, Results: []api.ValueType{f64}},
				},
			},
		},
		{
			name: "import and function section",
			input: &wasm.Module{
				TypeSection: []api.FuncType{
					{Params: []api.ValueType{i32, i32}, Results: []api.ValueType{i32}},
				},
				ImportSection: []wasm.Import{
					{Module: "env", Field: "add", Kind: wasm.ImportKindFunc, TypeIdx: 0},
				},
				FunctionSection: []uint32{0},
				CodeSection: []wasm.FunctionBody{
					{Body: []wasm.Instruction{
						{Op: wasm.OpcodeLocalGet, Idx: 0},
						{Op: wasm.OpcodeLocalGet, Idx: 1},
						{Op: wasm.OpcodeI32Add},
					}},
				},
			},
		},
		{
			name: "memory, global, and export section",
			input: &wasm.Module{
				MemorySection: []wasm.Memory{{Limits: wasm.Limits{Min: 1, Max: &zero}}},
				GlobalSection: []wasm.Global{
					{Type: wasm.GlobalType{ValType: f32, Mutability: wasm.Var}, Init: wasm.ConstExpr{Value: api.F32(1.5)}},
				},
				ExportSection: []wasm.Export{
					{Name: "memory", Desc: wasm.ExportDesc{Type: api.ExternTypeMemory, Idx: 0}},
					{Name: "g", Desc: wasm.ExportDesc{Type: api.ExternTypeGlobal, Idx: 0}},
				},
			},
		},
		{
			name: "table, element, and data section",
			input: &wasm.Module{
				TypeSection:     []api.FuncType{{}},
				FunctionSection: []uint32{0, 0},
				CodeSection: []wasm.FunctionBody{
					{Body: []wasm.Instruction{{Op: wasm.OpcodeNop}}},
					{Body: []wasm.Instruction{{Op: wasm.OpcodeNop}}},
				},
				TableSection:  []wasm.Table{{Limits: wasm.Limits{Min: 2}}},
				MemorySection: []wasm.Memory{{Limits: wasm.Limits{Min: 1}}},
				ElementSection: []wasm.Element{
					{TableIdx: 0, Offset: wasm.ConstExpr{Value: api.I32(0)}, Init: []uint32{0, 1}},
				},
				DataSection: []wasm.Data{
					{MemoryIdx: 0, Offset: wasm.ConstExpr{Value: api.I32(0)}, Init: []byte("hi")},
				},
			},
		},
		{
			name: "nested block, loop, and if/else",
			input: &wasm.Module{
				TypeSection:     []api.FuncType{{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}},
				FunctionSection: []uint32{0},
				CodeSection: []wasm.FunctionBody{{
					Locals: []wasm.FunctionLocal{{Count: 1, Type: i32}},
					Body: []wasm.Instruction{
						{
							Op: wasm.OpcodeBlock,
							Block: wasm.Block{
								Type: wasm.BlockType{Empty: true},
								Then: []wasm.Instruction{
									{
										Op: wasm.OpcodeLoop,
										Block: wasm.Block{
											Type: wasm.BlockType{Empty: true},
											Then: []wasm.Instruction{
												{Op: wasm.OpcodeLocalGet, Idx: 0},
												{
													Op: wasm.OpcodeIf,
													Block: wasm.Block{
														Type: wasm.BlockType{Result: i32},
														Then: []wasm.Instruction{{Op: wasm.OpcodeI32Const, Const: api.I32(1)}},
														Else: []wasm.Instruction{{Op: wasm.OpcodeI32Const, Const: api.I32(0)}},
													},
												},
												{Op: wasm.OpcodeDrop},
												{Op: wasm.OpcodeBr, Idx: 1},
											},
										},
									},
								},
							},
						},
						{Op: wasm.OpcodeLocalGet, Idx: 0},
					},
				}},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeModule(tc.input)
			decoded, err := DecodeModule(encoded)
			require.NoError(t, err)
			requireModuleEqual(t, tc.input, decoded)
		})
	}
}

// requireModuleEqual normalizes nil-vs-empty slices the same way the
// decoder does (absent sections stay nil) before comparing, since an input
// that leaves a section as a nil slice and one that leaves it as an empty
// slice describe the same module.
func requireModuleEqual(t *testing.T, want, got *wasm.Module) {
	t.Helper()
	require.Equal(t, normalizeModule(want), normalizeModule(got))
}

func normalizeModule(m *wasm.Module) *wasm.Module {
	cp := *m
	cp.Version = 1 // EncodeModule always writes version 1 regardless of the input's Version field
	if len(cp.TypeSection) == 0 {
		cp.TypeSection = nil
	}
	if len(cp.ImportSection) == 0 {
		cp.ImportSection = nil
	}
	if len(cp.FunctionSection) == 0 {
		cp.FunctionSection = nil
	}
	if len(cp.TableSection) == 0 {
		cp.TableSection = nil
	}
	if len(cp.MemorySection) == 0 {
		cp.MemorySection = nil
	}
	if len(cp.GlobalSection) == 0 {
		cp.GlobalSection = nil
	}
	if len(cp.ExportSection) == 0 {
		cp.ExportSection = nil
	}
	if len(cp.ElementSection) == 0 {
		cp.ElementSection = nil
	}
	if len(cp.CodeSection) == 0 {
		cp.CodeSection = nil
	}
	if len(cp.DataSection) == 0 {
		cp.DataSection = nil
	}
	return &cp
}

func TestDecodeModule_invalidMagic(t *testing.T) {
	_, err := DecodeModule([]byte{0x00, 0x01, 0x02, 0x03})
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeModule_invalidVersion(t *testing.T) {
	data := append([]byte{0x00, 0x61, 0x73, 0x6d}, 0x02, 0x00, 0x00, 0x00)
	_, err := DecodeModule(data)
	require.ErrorIs(t, err, ErrInvalidVersion)
}
