package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skanehira/wazen/api"
)

type stubImporter struct{}

func (stubImporter) ResolveFunc(string, string, api.FuncType) (*FuncInst, error) { return nil, nil }
func (stubImporter) ResolveTable(string, string) (*TableInst, error)             { return nil, nil }
func (stubImporter) ResolveMemory(string, string) (*MemoryInst, error)           { return nil, nil }
func (stubImporter) ResolveGlobal(string, string) (*GlobalInst, error)           { return nil, nil }

// TestInstantiateTableSizedToMaxWithElements pins the table-allocation rule:
// a table with an element segment is sized to its declared max (elements
// can populate any slot up to capacity, not just the initial min), while a
// table with no element segment only needs min slots.
func TestInstantiateTableSizedToMaxWithElements(t *testing.T) {
	max := uint32(10)
	m := &Module{
		TypeSection:     []api.FuncType{{}},
		FunctionSection: []uint32{0, 0},
		CodeSection: []FunctionBody{
			{Body: []Instruction{{Op: OpcodeNop}}},
			{Body: []Instruction{{Op: OpcodeNop}}},
		},
		TableSection: []Table{{Limits: Limits{Min: 2, Max: &max}}},
		ElementSection: []Element{
			// writes at offsets 2..9, which only fit if the table was
			// sized to max rather than to min.
			{TableIdx: 0, Offset: ConstExpr{Value: api.I32(2)}, Init: []uint32{0, 1, 0, 1, 0, 1, 0, 1}},
		},
	}

	inst, err := Instantiate(m, stubImporter{}, 65536)
	require.NoError(t, err)
	require.Len(t, inst.Tables[0].Elements, 10)
	require.NotNil(t, inst.Tables[0].Elements[9])
}

// TestInstantiateTableNoElementsSizedToMin checks a table with no element
// segment stays sized to min, not max.
func TestInstantiateTableNoElementsSizedToMin(t *testing.T) {
	max := uint32(10)
	m := &Module{
		TableSection: []Table{{Limits: Limits{Min: 2, Max: &max}}},
	}

	inst, err := Instantiate(m, stubImporter{}, 65536)
	require.NoError(t, err)
	require.Len(t, inst.Tables[0].Elements, 2)
}
