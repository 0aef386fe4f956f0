// Package api includes the types shared between the embedding API and the
// internal engine: value types, function types, and external kinds.
package api

import "fmt"

// ValueType classifies the four numeric types this core operates on.
//
// See https://webassembly.github.io/spec/core/binary/types.html#value-types
type ValueType byte

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = 0x7f
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64 ValueType = 0x7e
	// ValueTypeF32 is a 32-bit IEEE-754 float.
	ValueTypeF32 ValueType = 0x7d
	// ValueTypeF64 is a 64-bit IEEE-754 float.
	ValueTypeF64 ValueType = 0x7c
)

// String returns the WebAssembly text format name of t, or a hex escape for
// an unrecognized byte.
func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return fmt.Sprintf("%#x", byte(t))
	}
}

// Value is a tagged variant over the four numeric types, per spec's Value
// data model. It is the unit of exchange on the interpreter's value stack
// and across the embedding API.
type Value struct {
	typ ValueType
	i32 int32
	i64 int64
	f32 float32
	f64 float64
}

// I32 constructs a Value holding a 32-bit integer.
func I32(v int32) Value { return Value{typ: ValueTypeI32, i32: v} }

// I64 constructs a Value holding a 64-bit integer.
func I64(v int64) Value { return Value{typ: ValueTypeI64, i64: v} }

// F32 constructs a Value holding a 32-bit float.
func F32(v float32) Value { return Value{typ: ValueTypeF32, f32: v} }

// F64 constructs a Value holding a 64-bit float.
func F64(v float64) Value { return Value{typ: ValueTypeF64, f64: v} }

// Type reports which of the four numeric types v holds.
func (v Value) Type() ValueType { return v.typ }

// I32 returns the value as an int32. Panics if Type() is not ValueTypeI32.
func (v Value) I32() int32 {
	v.mustBe(ValueTypeI32)
	return v.i32
}

// I64 returns the value as an int64. Panics if Type() is not ValueTypeI64.
func (v Value) I64() int64 {
	v.mustBe(ValueTypeI64)
	return v.i64
}

// F32 returns the value as a float32. Panics if Type() is not ValueTypeF32.
func (v Value) F32() float32 {
	v.mustBe(ValueTypeF32)
	return v.f32
}

// F64 returns the value as a float64. Panics if Type() is not ValueTypeF64.
func (v Value) F64() float64 {
	v.mustBe(ValueTypeF64)
	return v.f64
}

func (v Value) mustBe(t ValueType) {
	if v.typ != t {
		panic(fmt.Sprintf("value is %s, not %s", v.typ, t))
	}
}

// IsTrue reports the truthiness of an i32/i64 value: non-zero is true.
// Float truthiness is not part of this bytecode: br_if, if, and select all
// take i32 conditions, so this panics for ValueTypeF32/ValueTypeF64 rather
// than defining a meaning the spec never needs.
func (v Value) IsTrue() bool {
	switch v.typ {
	case ValueTypeI32:
		return v.i32 != 0
	case ValueTypeI64:
		return v.i64 != 0
	default:
		panic(fmt.Sprintf("IsTrue is undefined for %s", v.typ))
	}
}

// String renders the value the way the WebAssembly text format would.
func (v Value) String() string {
	switch v.typ {
	case ValueTypeI32:
		return fmt.Sprintf("%d", v.i32)
	case ValueTypeI64:
		return fmt.Sprintf("%d", v.i64)
	case ValueTypeF32:
		return fmt.Sprintf("%v", v.f32)
	case ValueTypeF64:
		return fmt.Sprintf("%v", v.f64)
	default:
		return "<invalid>"
	}
}

// FuncType is an ordered sequence of parameter types and an ordered
// sequence of result types.
//
// See https://webassembly.github.io/spec/core/binary/types.html#function-types
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether f and o declare the same params and results,
// componentwise. Used by call_indirect's runtime type check.
func (f *FuncType) Equal(o *FuncType) bool {
	if len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i, p := range f.Params {
		if o.Params[i] != p {
			return false
		}
	}
	for i, r := range f.Results {
		if o.Results[i] != r {
			return false
		}
	}
	return true
}

func (f *FuncType) String() string {
	return fmt.Sprintf("%v -> %v", f.Params, f.Results)
}

// ExternType classifies imports and exports with their respective kind.
//
// See https://webassembly.github.io/spec/core/syntax/types.html#external-types
type ExternType byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// String returns the WebAssembly text format field name of t.
func (t ExternType) String() string {
	switch t {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	default:
		return fmt.Sprintf("%#x", byte(t))
	}
}
