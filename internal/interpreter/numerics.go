package interpreter

import (
	"encoding/binary"
	"math"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/numeric"
	"github.com/skanehira/wazen/internal/wasm"
)

// stepNumericOrMemory handles every opcode step doesn't dispatch directly:
// comparisons, arithmetic, conversions, reinterprets, and typed memory
// load/store. Kept separate from control flow so step's switch stays
// readable.
func (m *Machine) stepNumericOrMemory(inst *wasm.Instruction) error {
	switch inst.Op {
	// i32 relops
	case wasm.OpcodeI32Eqz:
		return m.unaryI32(func(a int32) int32 { return b2i(a == 0) })
	case wasm.OpcodeI32Eq:
		return m.binI32(func(a, b int32) int32 { return b2i(a == b) })
	case wasm.OpcodeI32Ne:
		return m.binI32(func(a, b int32) int32 { return b2i(a != b) })
	case wasm.OpcodeI32LtS:
		return m.binI32(func(a, b int32) int32 { return b2i(a < b) })
	case wasm.OpcodeI32LtU:
		return m.cmpU32(func(a, b uint32) bool { return a < b })
	case wasm.OpcodeI32GtS:
		return m.binI32(func(a, b int32) int32 { return b2i(a > b) })
	case wasm.OpcodeI32GtU:
		return m.cmpU32(func(a, b uint32) bool { return a > b })
	case wasm.OpcodeI32LeS:
		return m.binI32(func(a, b int32) int32 { return b2i(a <= b) })
	case wasm.OpcodeI32LeU:
		return m.cmpU32(func(a, b uint32) bool { return a <= b })
	case wasm.OpcodeI32GeS:
		return m.binI32(func(a, b int32) int32 { return b2i(a >= b) })
	case wasm.OpcodeI32GeU:
		return m.cmpU32(func(a, b uint32) bool { return a >= b })

	// i64 relops (push i32 result)
	case wasm.OpcodeI64Eqz:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.I32(b2i(v.I64() == 0)))
		return nil
	case wasm.OpcodeI64Eq:
		return m.cmpI64(func(a, b int64) bool { return a == b })
	case wasm.OpcodeI64Ne:
		return m.cmpI64(func(a, b int64) bool { return a != b })
	case wasm.OpcodeI64LtS:
		return m.cmpI64(func(a, b int64) bool { return a < b })
	case wasm.OpcodeI64LtU:
		return m.cmpU64(func(a, b uint64) bool { return a < b })
	case wasm.OpcodeI64GtS:
		return m.cmpI64(func(a, b int64) bool { return a > b })
	case wasm.OpcodeI64GtU:
		return m.cmpU64(func(a, b uint64) bool { return a > b })
	case wasm.OpcodeI64LeS:
		return m.cmpI64(func(a, b int64) bool { return a <= b })
	case wasm.OpcodeI64LeU:
		return m.cmpU64(func(a, b uint64) bool { return a <= b })
	case wasm.OpcodeI64GeS:
		return m.cmpI64(func(a, b int64) bool { return a >= b })
	case wasm.OpcodeI64GeU:
		return m.cmpU64(func(a, b uint64) bool { return a >= b })

	// float relops
	case wasm.OpcodeF32Eq:
		return m.cmpF32(func(a, b float32) bool { return a == b })
	case wasm.OpcodeF32Ne:
		return m.cmpF32(func(a, b float32) bool { return a != b })
	case wasm.OpcodeF32Lt:
		return m.cmpF32(func(a, b float32) bool { return a < b })
	case wasm.OpcodeF32Gt:
		return m.cmpF32(func(a, b float32) bool { return a > b })
	case wasm.OpcodeF32Le:
		return m.cmpF32(func(a, b float32) bool { return a <= b })
	case wasm.OpcodeF32Ge:
		return m.cmpF32(func(a, b float32) bool { return a >= b })
	case wasm.OpcodeF64Eq:
		return m.cmpF64(func(a, b float64) bool { return a == b })
	case wasm.OpcodeF64Ne:
		return m.cmpF64(func(a, b float64) bool { return a != b })
	case wasm.OpcodeF64Lt:
		return m.cmpF64(func(a, b float64) bool { return a < b })
	case wasm.OpcodeF64Gt:
		return m.cmpF64(func(a, b float64) bool { return a > b })
	case wasm.OpcodeF64Le:
		return m.cmpF64(func(a, b float64) bool { return a <= b })
	case wasm.OpcodeF64Ge:
		return m.cmpF64(func(a, b float64) bool { return a >= b })

	// i32 arithmetic
	case wasm.OpcodeI32Clz:
		return m.unaryU32(numeric.I32Clz)
	case wasm.OpcodeI32Ctz:
		return m.unaryU32(numeric.I32Ctz)
	case wasm.OpcodeI32Popcnt:
		return m.unaryU32(numeric.I32Popcnt)
	case wasm.OpcodeI32Add:
		return m.binI32(func(a, b int32) int32 { return a + b })
	case wasm.OpcodeI32Sub:
		return m.binI32(func(a, b int32) int32 { return a - b })
	case wasm.OpcodeI32Mul:
		return m.binI32(func(a, b int32) int32 { return a * b })
	case wasm.OpcodeI32DivS:
		return m.binI32E(numeric.I32DivS)
	case wasm.OpcodeI32DivU:
		return m.binU32E(numeric.I32DivU)
	case wasm.OpcodeI32RemS:
		return m.binI32E(numeric.I32RemS)
	case wasm.OpcodeI32RemU:
		return m.binU32E(numeric.I32RemU)
	case wasm.OpcodeI32And:
		return m.binI32(func(a, b int32) int32 { return a & b })
	case wasm.OpcodeI32Or:
		return m.binI32(func(a, b int32) int32 { return a | b })
	case wasm.OpcodeI32Xor:
		return m.binI32(func(a, b int32) int32 { return a ^ b })
	case wasm.OpcodeI32Shl:
		return m.binI32(func(a, b int32) int32 { return a << (uint32(b) & 31) })
	case wasm.OpcodeI32ShrS:
		return m.binI32(func(a, b int32) int32 { return a >> (uint32(b) & 31) })
	case wasm.OpcodeI32ShrU:
		return m.binU32(func(a, b uint32) uint32 { return a >> (b & 31) })
	case wasm.OpcodeI32Rotl:
		return m.binU32(numeric.I32Rotl)
	case wasm.OpcodeI32Rotr:
		return m.binU32(numeric.I32Rotr)
	case wasm.OpcodeI32Extend8S:
		return m.unaryI32(numeric.I32Extend8S)
	case wasm.OpcodeI32Extend16S:
		return m.unaryI32(numeric.I32Extend16S)

	// i64 arithmetic
	case wasm.OpcodeI64Clz:
		return m.unaryU64(numeric.I64Clz)
	case wasm.OpcodeI64Ctz:
		return m.unaryU64(numeric.I64Ctz)
	case wasm.OpcodeI64Popcnt:
		return m.unaryU64(numeric.I64Popcnt)
	case wasm.OpcodeI64Add:
		return m.binI64(func(a, b int64) int64 { return a + b })
	case wasm.OpcodeI64Sub:
		return m.binI64(func(a, b int64) int64 { return a - b })
	case wasm.OpcodeI64Mul:
		return m.binI64(func(a, b int64) int64 { return a * b })
	case wasm.OpcodeI64DivS:
		return m.binI64E(numeric.I64DivS)
	case wasm.OpcodeI64DivU:
		return m.binU64E(numeric.I64DivU)
	case wasm.OpcodeI64RemS:
		return m.binI64E(numeric.I64RemS)
	case wasm.OpcodeI64RemU:
		return m.binU64E(numeric.I64RemU)
	case wasm.OpcodeI64And:
		return m.binI64(func(a, b int64) int64 { return a & b })
	case wasm.OpcodeI64Or:
		return m.binI64(func(a, b int64) int64 { return a | b })
	case wasm.OpcodeI64Xor:
		return m.binI64(func(a, b int64) int64 { return a ^ b })
	case wasm.OpcodeI64Shl:
		return m.binI64(func(a, b int64) int64 { return a << (uint64(b) & 63) })
	case wasm.OpcodeI64ShrS:
		return m.binI64(func(a, b int64) int64 { return a >> (uint64(b) & 63) })
	case wasm.OpcodeI64ShrU:
		return m.binU64(func(a, b uint64) uint64 { return a >> (b & 63) })
	case wasm.OpcodeI64Rotl:
		return m.binU64(numeric.I64Rotl)
	case wasm.OpcodeI64Rotr:
		return m.binU64(numeric.I64Rotr)
	case wasm.OpcodeI64Extend8S:
		return m.unaryI64(numeric.I64Extend8S)
	case wasm.OpcodeI64Extend16S:
		return m.unaryI64(numeric.I64Extend16S)
	case wasm.OpcodeI64Extend32S:
		return m.unaryI64(numeric.I64Extend32S)

	// f32 arithmetic
	case wasm.OpcodeF32Abs:
		return m.unaryF32(func(v float32) float32 { return float32(math.Abs(float64(v))) })
	case wasm.OpcodeF32Neg:
		return m.unaryF32(func(v float32) float32 { return -v })
	case wasm.OpcodeF32Ceil:
		return m.unaryF32(func(v float32) float32 { return float32(math.Ceil(float64(v))) })
	case wasm.OpcodeF32Floor:
		return m.unaryF32(func(v float32) float32 { return float32(math.Floor(float64(v))) })
	case wasm.OpcodeF32Trunc:
		return m.unaryF32(func(v float32) float32 { return float32(math.Trunc(float64(v))) })
	case wasm.OpcodeF32Nearest:
		return m.unaryF32(numeric.F32Nearest)
	case wasm.OpcodeF32Sqrt:
		return m.unaryF32(func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
	case wasm.OpcodeF32Add:
		return m.binF32(func(a, b float32) float32 { return a + b })
	case wasm.OpcodeF32Sub:
		return m.binF32(func(a, b float32) float32 { return a - b })
	case wasm.OpcodeF32Mul:
		return m.binF32(func(a, b float32) float32 { return a * b })
	case wasm.OpcodeF32Div:
		return m.binF32(func(a, b float32) float32 { return a / b })
	case wasm.OpcodeF32Min:
		return m.binF32(numeric.F32Min)
	case wasm.OpcodeF32Max:
		return m.binF32(numeric.F32Max)
	case wasm.OpcodeF32Copysign:
		return m.binF32(numeric.F32Copysign)

	// f64 arithmetic
	case wasm.OpcodeF64Abs:
		return m.unaryF64(math.Abs)
	case wasm.OpcodeF64Neg:
		return m.unaryF64(func(v float64) float64 { return -v })
	case wasm.OpcodeF64Ceil:
		return m.unaryF64(math.Ceil)
	case wasm.OpcodeF64Floor:
		return m.unaryF64(math.Floor)
	case wasm.OpcodeF64Trunc:
		return m.unaryF64(math.Trunc)
	case wasm.OpcodeF64Nearest:
		return m.unaryF64(numeric.F64Nearest)
	case wasm.OpcodeF64Sqrt:
		return m.unaryF64(math.Sqrt)
	case wasm.OpcodeF64Add:
		return m.binF64(func(a, b float64) float64 { return a + b })
	case wasm.OpcodeF64Sub:
		return m.binF64(func(a, b float64) float64 { return a - b })
	case wasm.OpcodeF64Mul:
		return m.binF64(func(a, b float64) float64 { return a * b })
	case wasm.OpcodeF64Div:
		return m.binF64(func(a, b float64) float64 { return a / b })
	case wasm.OpcodeF64Min:
		return m.binF64(numeric.F64Min)
	case wasm.OpcodeF64Max:
		return m.binF64(numeric.F64Max)
	case wasm.OpcodeF64Copysign:
		return m.binF64(numeric.F64Copysign)

	// conversions
	case wasm.OpcodeI32WrapI64:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.I32(numeric.I32WrapI64(v.I64())))
		return nil
	case wasm.OpcodeI32TruncF32S:
		return m.cvtF32ToI32(numeric.I32TruncF32S)
	case wasm.OpcodeI32TruncF32U:
		return m.cvtF32ToI32U(numeric.I32TruncF32U)
	case wasm.OpcodeI32TruncF64S:
		return m.cvtF64ToI32(numeric.I32TruncF64S)
	case wasm.OpcodeI32TruncF64U:
		return m.cvtF64ToI32U(numeric.I32TruncF64U)
	case wasm.OpcodeI64ExtendI32S:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.I64(numeric.I64ExtendI32S(v.I32())))
		return nil
	case wasm.OpcodeI64ExtendI32U:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.I64(numeric.I64ExtendI32U(v.I32())))
		return nil
	case wasm.OpcodeI64TruncF32S:
		return m.cvtF32ToI64(numeric.I64TruncF32S)
	case wasm.OpcodeI64TruncF32U:
		return m.cvtF32ToI64U(numeric.I64TruncF32U)
	case wasm.OpcodeI64TruncF64S:
		return m.cvtF64ToI64(numeric.I64TruncF64S)
	case wasm.OpcodeI64TruncF64U:
		return m.cvtF64ToI64U(numeric.I64TruncF64U)
	case wasm.OpcodeF32ConvertI32S:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F32(numeric.F32ConvertI32S(v.I32())))
		return nil
	case wasm.OpcodeF32ConvertI32U:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F32(numeric.F32ConvertI32U(v.I32())))
		return nil
	case wasm.OpcodeF32ConvertI64S:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F32(numeric.F32ConvertI64S(v.I64())))
		return nil
	case wasm.OpcodeF32ConvertI64U:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F32(numeric.F32ConvertI64U(v.I64())))
		return nil
	case wasm.OpcodeF32DemoteF64:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F32(numeric.F32DemoteF64(v.F64())))
		return nil
	case wasm.OpcodeF64ConvertI32S:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F64(numeric.F64ConvertI32S(v.I32())))
		return nil
	case wasm.OpcodeF64ConvertI32U:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F64(numeric.F64ConvertI32U(v.I32())))
		return nil
	case wasm.OpcodeF64ConvertI64S:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F64(numeric.F64ConvertI64S(v.I64())))
		return nil
	case wasm.OpcodeF64ConvertI64U:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F64(numeric.F64ConvertI64U(v.I64())))
		return nil
	case wasm.OpcodeF64PromoteF32:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F64(numeric.F64PromoteF32(v.F32())))
		return nil
	case wasm.OpcodeI32ReinterpretF32:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.I32(numeric.I32ReinterpretF32(v.F32())))
		return nil
	case wasm.OpcodeI64ReinterpretF64:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.I64(numeric.I64ReinterpretF64(v.F64())))
		return nil
	case wasm.OpcodeF32ReinterpretI32:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F32(numeric.F32ReinterpretI32(v.I32())))
		return nil
	case wasm.OpcodeF64ReinterpretI64:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(api.F64(numeric.F64ReinterpretI64(v.I64())))
		return nil

	// memory
	case wasm.OpcodeI32Load:
		return m.loadI32(inst.Memarg, 4, false)
	case wasm.OpcodeI32Load8S:
		return m.loadI32(inst.Memarg, 1, true)
	case wasm.OpcodeI32Load8U:
		return m.loadI32(inst.Memarg, 1, false)
	case wasm.OpcodeI32Load16S:
		return m.loadI32(inst.Memarg, 2, true)
	case wasm.OpcodeI32Load16U:
		return m.loadI32(inst.Memarg, 2, false)
	case wasm.OpcodeI64Load:
		return m.loadI64(inst.Memarg, 8, false)
	case wasm.OpcodeI64Load8S:
		return m.loadI64(inst.Memarg, 1, true)
	case wasm.OpcodeI64Load8U:
		return m.loadI64(inst.Memarg, 1, false)
	case wasm.OpcodeI64Load16S:
		return m.loadI64(inst.Memarg, 2, true)
	case wasm.OpcodeI64Load16U:
		return m.loadI64(inst.Memarg, 2, false)
	case wasm.OpcodeI64Load32S:
		return m.loadI64(inst.Memarg, 4, true)
	case wasm.OpcodeI64Load32U:
		return m.loadI64(inst.Memarg, 4, false)
	case wasm.OpcodeF32Load:
		b, err := m.loadBytes(inst.Memarg, 4)
		if err != nil {
			return err
		}
		m.push(api.F32(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		return nil
	case wasm.OpcodeF64Load:
		b, err := m.loadBytes(inst.Memarg, 8)
		if err != nil {
			return err
		}
		m.push(api.F64(math.Float64frombits(binary.LittleEndian.Uint64(b))))
		return nil

	case wasm.OpcodeI32Store:
		return m.storeI32(inst.Memarg, 4)
	case wasm.OpcodeI32Store8:
		return m.storeI32(inst.Memarg, 1)
	case wasm.OpcodeI32Store16:
		return m.storeI32(inst.Memarg, 2)
	case wasm.OpcodeI64Store:
		return m.storeI64(inst.Memarg, 8)
	case wasm.OpcodeI64Store8:
		return m.storeI64(inst.Memarg, 1)
	case wasm.OpcodeI64Store16:
		return m.storeI64(inst.Memarg, 2)
	case wasm.OpcodeI64Store32:
		return m.storeI64(inst.Memarg, 4)
	case wasm.OpcodeF32Store:
		v, err := m.pop()
		if err != nil {
			return err
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v.F32()))
		return m.storeAt(inst.Memarg, b[:])
	case wasm.OpcodeF64Store:
		v, err := m.pop()
		if err != nil {
			return err
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.F64()))
		return m.storeAt(inst.Memarg, b[:])

	default:
		return errUnknownOpcode
	}
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) unaryI32(f func(int32) int32) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.push(api.I32(f(v.I32())))
	return nil
}

func (m *Machine) unaryU32(f func(uint32) uint32) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.push(api.I32(int32(f(uint32(v.I32())))))
	return nil
}

func (m *Machine) unaryI64(f func(int64) int64) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.push(api.I64(f(v.I64())))
	return nil
}

func (m *Machine) unaryU64(f func(uint64) uint64) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.push(api.I64(int64(f(uint64(v.I64())))))
	return nil
}

func (m *Machine) unaryF32(f func(float32) float32) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.push(api.F32(f(v.F32())))
	return nil
}

func (m *Machine) unaryF64(f func(float64) float64) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.push(api.F64(f(v.F64())))
	return nil
}

func (m *Machine) popPair() (api.Value, api.Value, error) {
	b, err := m.pop()
	if err != nil {
		return api.Value{}, api.Value{}, err
	}
	a, err := m.pop()
	if err != nil {
		return api.Value{}, api.Value{}, err
	}
	return a, b, nil
}

func (m *Machine) binI32(f func(a, b int32) int32) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I32(f(a.I32(), b.I32())))
	return nil
}

func (m *Machine) binU32(f func(a, b uint32) uint32) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I32(int32(f(uint32(a.I32()), uint32(b.I32())))))
	return nil
}

func (m *Machine) binI32E(f func(a, b int32) (int32, error)) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	r, err := f(a.I32(), b.I32())
	if err != nil {
		return numErr(err)
	}
	m.push(api.I32(r))
	return nil
}

func (m *Machine) cmpU32(f func(a, b uint32) bool) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I32(b2i(f(uint32(a.I32()), uint32(b.I32())))))
	return nil
}

func (m *Machine) binU32E(f func(a, b uint32) (uint32, error)) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	r, err := f(uint32(a.I32()), uint32(b.I32()))
	if err != nil {
		return numErr(err)
	}
	m.push(api.I32(int32(r)))
	return nil
}

func (m *Machine) binI64(f func(a, b int64) int64) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I64(f(a.I64(), b.I64())))
	return nil
}

func (m *Machine) binU64(f func(a, b uint64) uint64) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I64(int64(f(uint64(a.I64()), uint64(b.I64())))))
	return nil
}

func (m *Machine) binI64E(f func(a, b int64) (int64, error)) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	r, err := f(a.I64(), b.I64())
	if err != nil {
		return numErr(err)
	}
	m.push(api.I64(r))
	return nil
}

func (m *Machine) binU64E(f func(a, b uint64) (uint64, error)) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	r, err := f(uint64(a.I64()), uint64(b.I64()))
	if err != nil {
		return numErr(err)
	}
	m.push(api.I64(int64(r)))
	return nil
}

func (m *Machine) binF32(f func(a, b float32) float32) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.F32(f(a.F32(), b.F32())))
	return nil
}

func (m *Machine) binF64(f func(a, b float64) float64) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.F64(f(a.F64(), b.F64())))
	return nil
}

func (m *Machine) cmpI64(f func(a, b int64) bool) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I32(b2i(f(a.I64(), b.I64()))))
	return nil
}

func (m *Machine) cmpU64(f func(a, b uint64) bool) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I32(b2i(f(uint64(a.I64()), uint64(b.I64())))))
	return nil
}

func (m *Machine) cmpF32(f func(a, b float32) bool) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I32(b2i(f(a.F32(), b.F32()))))
	return nil
}

func (m *Machine) cmpF64(f func(a, b float64) bool) error {
	a, b, err := m.popPair()
	if err != nil {
		return err
	}
	m.push(api.I32(b2i(f(a.F64(), b.F64()))))
	return nil
}

func (m *Machine) cvtF32ToI32(f func(float32) (int32, error)) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	r, err := f(v.F32())
	if err != nil {
		return numErr(err)
	}
	m.push(api.I32(r))
	return nil
}

func (m *Machine) cvtF32ToI32U(f func(float32) (int32, error)) error {
	return m.cvtF32ToI32(f)
}

func (m *Machine) cvtF64ToI32(f func(float64) (int32, error)) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	r, err := f(v.F64())
	if err != nil {
		return numErr(err)
	}
	m.push(api.I32(r))
	return nil
}

func (m *Machine) cvtF64ToI32U(f func(float64) (int32, error)) error {
	return m.cvtF64ToI32(f)
}

func (m *Machine) cvtF32ToI64(f func(float32) (int64, error)) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	r, err := f(v.F32())
	if err != nil {
		return numErr(err)
	}
	m.push(api.I64(r))
	return nil
}

func (m *Machine) cvtF32ToI64U(f func(float32) (int64, error)) error {
	return m.cvtF32ToI64(f)
}

func (m *Machine) cvtF64ToI64(f func(float64) (int64, error)) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	r, err := f(v.F64())
	if err != nil {
		return numErr(err)
	}
	m.push(api.I64(r))
	return nil
}

func (m *Machine) cvtF64ToI64U(f func(float64) (int64, error)) error {
	return m.cvtF64ToI64(f)
}

// loadBytes reads n bytes at the address on top of the stack plus the
// instruction's static offset, trapping on an out-of-bounds access.
func (m *Machine) loadBytes(arg wasm.MemoryArg, n int) ([]byte, error) {
	addr, err := m.pop()
	if err != nil {
		return nil, err
	}
	mem, err := m.memory()
	if err != nil {
		return nil, err
	}
	start := uint64(arg.Offset) + uint64(uint32(addr.I32()))
	if start+uint64(n) > uint64(len(mem.Data)) {
		return nil, trap(TrapOutOfBoundsMemoryAccess)
	}
	return mem.Data[start : start+uint64(n)], nil
}

func (m *Machine) loadI32(arg wasm.MemoryArg, n int, signed bool) error {
	b, err := m.loadBytes(arg, n)
	if err != nil {
		return err
	}
	v := loadUint(b)
	if signed {
		m.push(api.I32(signExtend32(v, n)))
	} else {
		m.push(api.I32(int32(uint32(v))))
	}
	return nil
}

func (m *Machine) loadI64(arg wasm.MemoryArg, n int, signed bool) error {
	b, err := m.loadBytes(arg, n)
	if err != nil {
		return err
	}
	v := loadUint(b)
	if signed {
		m.push(api.I64(signExtend64(v, n)))
	} else {
		m.push(api.I64(int64(v)))
	}
	return nil
}

func (m *Machine) storeI32(arg wasm.MemoryArg, n int) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	b := make([]byte, n)
	putUint(b, uint64(uint32(v.I32())))
	return m.storeAt(arg, b)
}

func (m *Machine) storeI64(arg wasm.MemoryArg, n int) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	b := make([]byte, n)
	putUint(b, uint64(v.I64()))
	return m.storeAt(arg, b)
}

// storeAt pops the address and writes b at addr+offset: the value operand
// must already have been popped by the caller, matching stack order
// value-then-address from the top (address was pushed first, so it comes
// off second).
func (m *Machine) storeAt(arg wasm.MemoryArg, b []byte) error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	mem, err := m.memory()
	if err != nil {
		return err
	}
	start := uint64(arg.Offset) + uint64(uint32(addr.I32()))
	if start+uint64(len(b)) > uint64(len(mem.Data)) {
		return trap(TrapOutOfBoundsMemoryAccess)
	}
	copy(mem.Data[start:], b)
	return nil
}

func loadUint(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * uint(i))
	}
	return v
}

func putUint(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

func signExtend32(v uint64, n int) int32 {
	switch n {
	case 1:
		return int32(int8(v))
	case 2:
		return int32(int16(v))
	default:
		return int32(v)
	}
}

func signExtend64(v uint64, n int) int64 {
	switch n {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	default:
		return int64(v)
	}
}
