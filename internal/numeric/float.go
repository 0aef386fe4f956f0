package numeric

import "math"

// F32Min and F64Min implement WebAssembly's min, which differs from
// math.Min in two ways the stdlib doesn't handle: either operand being NaN
// makes the result NaN even when the other is an infinity, and -0.0 is
// strictly less than +0.0.
//
// Ported from wazero's internal/moremath.WasmCompatMin, generalized to
// float32 for F32Min.
func F64Min(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// F64Max is WebAssembly's max; see F64Min.
func F64Max(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

func F32Min(x, y float32) float32 {
	return float32(F64Min(float64(x), float64(y)))
}

func F32Max(x, y float32) float32 {
	return float32(F64Max(float64(x), float64(y)))
}

// F32Nearest and F64Nearest round to the nearest integer, ties to even, per
// the WebAssembly spec's "nearest" operator. math.RoundToEven already
// implements exactly this rounding rule.
func F64Nearest(v float64) float64 { return math.RoundToEven(v) }
func F32Nearest(v float32) float32 { return float32(math.RoundToEven(float64(v))) }

func F32Copysign(x, y float32) float32 { return float32(math.Copysign(float64(x), float64(y))) }
func F64Copysign(x, y float64) float64 { return math.Copysign(x, y) }
