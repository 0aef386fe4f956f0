package interpreter

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/wasm"
)

func i32FuncType() api.FuncType {
	return api.FuncType{
		Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
		Results: []api.ValueType{api.ValueTypeI32},
	}
}

// TestAdd exercises the simplest possible internal function: two locals
// pushed and added.
func TestAdd(t *testing.T) {
	fn := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: i32FuncType(),
		Body: []wasm.Instruction{
			{Op: wasm.OpcodeLocalGet, Idx: 0},
			{Op: wasm.OpcodeLocalGet, Idx: 1},
			{Op: wasm.OpcodeI32Add},
		},
	}}
	mod := &wasm.ModuleInst{Funcs: []*wasm.FuncInst{fn}, Exports: map[string]wasm.ExportInst{}}
	m := NewMachine(mod)

	results, err := m.CallByIndex(context.Background(), 0, []api.Value{api.I32(2), api.I32(40)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int32(42), results[0].I32())
}

// TestIterativeFib builds a loop/block-based iterative Fibonacci using
// locals, the same shape bench/fixture.go serializes for the differential
// benchmark, but run directly against the interpreter.
func TestIterativeFib(t *testing.T) {
	const (
		localN = 0
		localA = 1
		localB = 2
		localI = 3
		localT = 4
	)

	loopBody := []wasm.Instruction{
		{Op: wasm.OpcodeLocalGet, Idx: localI},
		{Op: wasm.OpcodeLocalGet, Idx: localN},
		{Op: wasm.OpcodeI32GeS},
		{Op: wasm.OpcodeBrIf, Idx: 1},

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

		{Op: wasm.OpcodeBr, Idx: 0},
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

	fn := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type:   api.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}},
		Locals: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
		Body:   body,
	}}
	mod := &wasm.ModuleInst{Funcs: []*wasm.FuncInst{fn}, Exports: map[string]wasm.ExportInst{}}
	m := NewMachine(mod)

	results, err := m.CallByIndex(context.Background(), 0, []api.Value{api.I32(10)})
	require.NoError(t, err)
	require.Equal(t, int32(55), results[0].I32())
}

// TestCallIndirectTypeMismatchTraps builds a table holding a function whose
// signature doesn't match the call_indirect site's declared type, and
// checks the mismatch is reported as a trap rather than a plain error.
func TestCallIndirectTypeMismatchTraps(t *testing.T) {
	// the table holds a function that takes no arguments and returns nothing.
	mismatched := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: api.FuncType{},
		Body: []wasm.Instruction{},
	}}

	// caller's call_indirect declares type 0: (i32, i32) -> i32.
	caller := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: i32FuncType(),
		Body: []wasm.Instruction{
			{Op: wasm.OpcodeLocalGet, Idx: 0},
			{Op: wasm.OpcodeLocalGet, Idx: 1},
			{Op: wasm.OpcodeI32Const, Const: api.I32(0)}, // element index
			{Op: wasm.OpcodeCallIndirect, Idx: 0, Idx2: 0},
		},
	}}

	mod := &wasm.ModuleInst{
		Types:   []api.FuncType{i32FuncType()},
		Funcs:   []*wasm.FuncInst{caller, mismatched},
		Tables:  []*wasm.TableInst{{Elements: []*wasm.FuncInst{mismatched}}},
		Exports: map[string]wasm.ExportInst{},
	}
	m := NewMachine(mod)

	_, err := m.CallByIndex(context.Background(), 0, []api.Value{api.I32(1), api.I32(2)})
	require.Error(t, err)
	require.True(t, IsTrap(err, TrapIndirectCallTypeMismatch))
}

// TestCallIndirectUndefinedElementTraps covers the sibling cases: an
// out-of-range element index traps as undefined, and an in-range slot that
// was never written (a nil table entry) traps as uninitialized.
func TestCallIndirectUndefinedElementTraps(t *testing.T) {
	callWith := func(elemIdx int32) *wasm.FuncInst {
		return &wasm.FuncInst{Internal: &wasm.InternalFunc{
			Type: api.FuncType{},
			Body: []wasm.Instruction{
				{Op: wasm.OpcodeI32Const, Const: api.I32(elemIdx)},
				{Op: wasm.OpcodeCallIndirect, Idx: 0, Idx2: 0},
			},
		}}
	}

	t.Run("out of range", func(t *testing.T) {
		mod := &wasm.ModuleInst{
			Types:   []api.FuncType{{}},
			Funcs:   []*wasm.FuncInst{callWith(5)},
			Tables:  []*wasm.TableInst{{Elements: make([]*wasm.FuncInst, 3)}},
			Exports: map[string]wasm.ExportInst{},
		}
		_, err := NewMachine(mod).CallByIndex(context.Background(), 0, nil)
		require.True(t, IsTrap(err, TrapUndefinedElement))
	})

	t.Run("uninitialized", func(t *testing.T) {
		mod := &wasm.ModuleInst{
			Types:   []api.FuncType{{}},
			Funcs:   []*wasm.FuncInst{callWith(1)},
			Tables:  []*wasm.TableInst{{Elements: make([]*wasm.FuncInst, 3)}},
			Exports: map[string]wasm.ExportInst{},
		}
		_, err := NewMachine(mod).CallByIndex(context.Background(), 0, nil)
		require.True(t, IsTrap(err, TrapUninitializedElement))
	})
}

// TestMemoryGrowCap exercises memory.grow's cap behavior: growing within
// Max succeeds and returns the previous page count, growing past it
// signals failure by pushing -1 without mutating the memory.
func TestMemoryGrowCap(t *testing.T) {
	max := uint32(2)
	mem := &wasm.MemoryInst{Data: make([]byte, wasm.PageSize), Max: &max}

	fn := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: api.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}},
		Body: []wasm.Instruction{
			{Op: wasm.OpcodeLocalGet, Idx: 0},
			{Op: wasm.OpcodeMemoryGrow},
		},
	}}
	mod := &wasm.ModuleInst{Funcs: []*wasm.FuncInst{fn}, Mems: []*wasm.MemoryInst{mem}, Exports: map[string]wasm.ExportInst{}}
	m := NewMachine(mod)

	results, err := m.CallByIndex(context.Background(), 0, []api.Value{api.I32(1)})
	require.NoError(t, err)
	require.Equal(t, int32(1), results[0].I32())
	require.Equal(t, uint32(2), mem.PageCount())

	results, err = m.CallByIndex(context.Background(), 0, []api.Value{api.I32(1)})
	require.NoError(t, err)
	require.Equal(t, int32(-1), results[0].I32())
	require.Equal(t, uint32(2), mem.PageCount())
}

// TestDivSOverflowTraps pins MinInt32 / -1, the one signed-division input
// pair that overflows a 32-bit result despite neither operand being zero.
func TestDivSOverflowTraps(t *testing.T) {
	fn := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: api.FuncType{Results: []api.ValueType{api.ValueTypeI32}},
		Body: []wasm.Instruction{
			{Op: wasm.OpcodeI32Const, Const: api.I32(math.MinInt32)},
			{Op: wasm.OpcodeI32Const, Const: api.I32(-1)},
			{Op: wasm.OpcodeI32DivS},
		},
	}}
	mod := &wasm.ModuleInst{Funcs: []*wasm.FuncInst{fn}, Exports: map[string]wasm.ExportInst{}}
	m := NewMachine(mod)

	_, err := m.CallByIndex(context.Background(), 0, nil)
	require.True(t, IsTrap(err, TrapIntegerOverflow))

	// calling again after a trap fails again with no results, rather than
	// succeeding off stale stack state left by the first call.
	results, err := m.CallByIndex(context.Background(), 0, nil)
	require.Error(t, err)
	require.Nil(t, results)
}

type recordingListener struct {
	names []string
}

func (l *recordingListener) Before(_ context.Context, name string, _ []interface{}) {
	l.names = append(l.names, name)
}
func (l *recordingListener) After(context.Context, string, []interface{}, error) {}

// TestListenerObservesNestedCalls pins that a FunctionListener sees every
// call made through a Module's exports, including calls made from inside
// an already-running function, not just the top-level call CallByIndex
// starts with.
func TestListenerObservesNestedCalls(t *testing.T) {
	inner := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: api.FuncType{},
		Body: []wasm.Instruction{},
	}}
	outer := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: api.FuncType{},
		Body: []wasm.Instruction{
			{Op: wasm.OpcodeCall, Idx: 1},
			{Op: wasm.OpcodeCall, Idx: 1},
		},
	}}
	mod := &wasm.ModuleInst{Funcs: []*wasm.FuncInst{outer, inner}, Exports: map[string]wasm.ExportInst{}}
	m := NewMachine(mod)

	l := &recordingListener{}
	m.SetListener(l)

	_, err := m.CallByIndex(context.Background(), 0, nil)
	require.NoError(t, err)
	// one Before for the top-level call, plus one for each of the two
	// nested calls it makes.
	require.Len(t, l.names, 3)
}

// TestCallStackExhausted checks unbounded internal recursion is stopped by
// maxDepth rather than the goroutine stack.
func TestCallStackExhausted(t *testing.T) {
	fn := &wasm.FuncInst{Internal: &wasm.InternalFunc{
		Type: api.FuncType{},
		Body: []wasm.Instruction{{Op: wasm.OpcodeCall, Idx: 0}},
	}}
	mod := &wasm.ModuleInst{Funcs: []*wasm.FuncInst{fn}, Exports: map[string]wasm.ExportInst{}}
	m := NewMachineWithMaxCallDepth(mod, 16)

	_, err := m.CallByIndex(context.Background(), 0, nil)
	require.True(t, IsTrap(err, TrapCallStackExhausted))
}
