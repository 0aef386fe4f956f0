// Package bench differentially benchmarks this repository's interpreter
// against wasmtime-go and wasmer-go on the same compiled module, the way
// the teacher's own vs/ package compared its interpreter and JIT engines
// against wasmtime-go, wasmer-go, and go-wasm3.
//
// The fib module is built as an AST and serialized with the binary encoder
// rather than shipped as a checked-in .wasm file, so the exact bytes every
// engine compiles are generated from (and stay in sync with) the same
// types the decoder and interpreter use.
package bench

import (
	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/wasm"
	"github.com/skanehira/wazen/internal/wasm/binary"
)

// local slot numbering for buildFibModule's only function: 0 is the
// parameter, 1..4 are declared locals.
const (
	localN = 0
	localA = 1
	localB = 2
	localI = 3
	localT = 4
)

// buildFibModule returns the decoded AST of a single-function module
// exporting "fib": an iterative Fibonacci computed with a loop/block pair
// instead of recursion, so the benchmark measures loop and local-variable
// overhead rather than call overhead (no fixture here measures call
// overhead).
func buildFibModule() *wasm.Module {
	i32 := api.ValueTypeI32

	loopBody := []wasm.Instruction{
		{Op: wasm.OpcodeLocalGet, Idx: localI},
		{Op: wasm.OpcodeLocalGet, Idx: localN},
		{Op: wasm.OpcodeI32GeS},
		{Op: wasm.OpcodeBrIf, Idx: 1}, // exit the enclosing block

		{Op: wasm.OpcodeLocalGet, Idx: localA},
		{Op: wasm.OpcodeLocalGet, Idx: localB},
		{Op: wasm.OpcodeI32Add},
		{Op: wasm.OpcodeLocalSet, Idx: localT},

		{Op: wasm.OpcodeLocalGet, Idx: localB},
		{Op: wasm.OpcodeLocalSet, Idx: localA},

		{Op: wasm.OpcodeLocalGet, Idx: localT},
		{Op: wasm.OpcodeLocalSet, Idx: localB},

		{Op: wasm.OpcodeLocalGet, Idx: localI},
		{Op: wasm.OpcodeI32Const, Const: api.I32(1)},
		{Op: wasm.OpcodeI32Add},
		{Op: wasm.OpcodeLocalSet, Idx: localI},

		{Op: wasm.OpcodeBr, Idx: 0}, // restart the loop
	}

	body := []wasm.Instruction{
		{Op: wasm.OpcodeI32Const, Const: api.I32(0)},
		{Op: wasm.OpcodeLocalSet, Idx: localA},
		{Op: wasm.OpcodeI32Const, Const: api.I32(1)},
		{Op: wasm.OpcodeLocalSet, Idx: localB},
		{Op: wasm.OpcodeI32Const, Const: api.I32(0)},
		{Op: wasm.OpcodeLocalSet, Idx: localI},
		{
			Op: wasm.OpcodeBlock,
			Block: wasm.Block{
				Type: wasm.BlockType{Empty: true},
				Then: []wasm.Instruction{
					{Op: wasm.OpcodeLoop, Block: wasm.Block{Type: wasm.BlockType{Empty: true}, Then: loopBody}},
				},
			},
		},
		{Op: wasm.OpcodeLocalGet, Idx: localA},
	}

	return &wasm.Module{
		Version:         1,
		TypeSection:     []api.FuncType{{Params: []api.ValueType{i32}, Results: []api.ValueType{i32}}},
		FunctionSection: []uint32{0},
		ExportSection:   []wasm.Export{{Name: "fib", Desc: wasm.ExportDesc{Type: api.ExternTypeFunc, Idx: 0}}},
		CodeSection: []wasm.FunctionBody{{
			Locals: []wasm.FunctionLocal{{Count: 4, Type: i32}},
			Body:   body,
		}},
	}
}

// fibWasm is the binary encoding of buildFibModule, the form every engine
// under comparison actually compiles.
func fibWasm() []byte {
	return binary.EncodeModule(buildFibModule())
}
