package numeric

import "math/bits"

// I32DivS is signed 32-bit division. Traps on divide-by-zero and on the
// one case signed division overflows: MinInt32 / -1.
func I32DivS(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == -2147483648 && b == -1 {
		return 0, ErrIntegerOverflow
	}
	return a / b, nil
}

// I32DivU is unsigned 32-bit division. Traps on divide-by-zero.
func I32DivU(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a / b, nil
}

// I32RemS is signed 32-bit remainder. Unlike division, MinInt32 %% -1 does
// not overflow (the result is always representable: 0).
func I32RemS(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == -2147483648 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

// I32RemU is unsigned 32-bit remainder. Traps on divide-by-zero.
func I32RemU(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a % b, nil
}

// I64DivS is signed 64-bit division. Traps on divide-by-zero and on
// MinInt64 / -1.
func I64DivS(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == -9223372036854775808 && b == -1 {
		return 0, ErrIntegerOverflow
	}
	return a / b, nil
}

// I64DivU is unsigned 64-bit division. Traps on divide-by-zero.
func I64DivU(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a / b, nil
}

// I64RemS is signed 64-bit remainder.
func I64RemS(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == -9223372036854775808 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

// I64RemU is unsigned 64-bit remainder. Traps on divide-by-zero.
func I64RemU(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return a % b, nil
}

// Rotation amounts are taken mod the operand width, per the spec, by
// masking the count before calling bits.RotateLeft. (Shift amounts are
// masked the same way inline in the interpreter's dispatch.)

func I32Rotl(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, int(n&31)) }
func I32Rotr(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, -int(n&31)) }
func I64Rotl(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, int(n&63)) }
func I64Rotr(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, -int(n&63)) }

func I32Clz(v uint32) uint32 { return uint32(bits.LeadingZeros32(v)) }
func I32Ctz(v uint32) uint32 { return uint32(bits.TrailingZeros32(v)) }
func I32Popcnt(v uint32) uint32 { return uint32(bits.OnesCount32(v)) }

func I64Clz(v uint64) uint64 { return uint64(bits.LeadingZeros64(v)) }
func I64Ctz(v uint64) uint64 { return uint64(bits.TrailingZeros64(v)) }
func I64Popcnt(v uint64) uint64 { return uint64(bits.OnesCount64(v)) }

// I32Extend8S sign-extends the low 8 bits of v through the rest of the
// word, implemented as a left-then-arithmetic-right shift.
func I32Extend8S(v int32) int32  { return v << 24 >> 24 }
func I32Extend16S(v int32) int32 { return v << 16 >> 16 }
func I64Extend8S(v int64) int64  { return v << 56 >> 56 }
func I64Extend16S(v int64) int64 { return v << 48 >> 48 }
func I64Extend32S(v int64) int64 { return v << 32 >> 32 }
