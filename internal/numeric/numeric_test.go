package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestI32DivS(t *testing.T) {
	v, err := I32DivS(7, 2)
	require.NoError(t, err)
	require.Equal(t, int32(3), v)

	_, err = I32DivS(1, 0)
	require.ErrorIs(t, err, ErrIntegerDivideByZero)

	_, err = I32DivS(math.MinInt32, -1)
	require.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestI32RemS(t *testing.T) {
	v, err := I32RemS(7, 2)
	require.NoError(t, err)
	require.Equal(t, int32(1), v)

	_, err = I32RemS(1, 0)
	require.ErrorIs(t, err, ErrIntegerDivideByZero)

	// unlike division, MinInt32 %% -1 does not overflow: the result is 0.
	v, err = I32RemS(math.MinInt32, -1)
	require.NoError(t, err)
	require.Equal(t, int32(0), v)
}

func TestI64DivS(t *testing.T) {
	_, err := I64DivS(1, 0)
	require.ErrorIs(t, err, ErrIntegerDivideByZero)

	_, err = I64DivS(math.MinInt64, -1)
	require.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestI64RemS(t *testing.T) {
	v, err := I64RemS(math.MinInt64, -1)
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestUnsignedDivRemByZero(t *testing.T) {
	_, err := I32DivU(1, 0)
	require.ErrorIs(t, err, ErrIntegerDivideByZero)
	_, err = I32RemU(1, 0)
	require.ErrorIs(t, err, ErrIntegerDivideByZero)
	_, err = I64DivU(1, 0)
	require.ErrorIs(t, err, ErrIntegerDivideByZero)
	_, err = I64RemU(1, 0)
	require.ErrorIs(t, err, ErrIntegerDivideByZero)
}

func TestRotateAndShiftCounts(t *testing.T) {
	require.Equal(t, uint32(1), I32Rotl(1<<31, 1))
	require.Equal(t, uint32(1<<31), I32Rotr(1, 1))
	require.Equal(t, uint64(1), I64Rotl(1<<63, 1))

	// counts beyond the operand width wrap modulo the width.
	require.Equal(t, I32Rotl(1, 1), I32Rotl(1, 33))
	require.Equal(t, I64Rotl(1, 1), I64Rotl(1, 65))
}

func TestClzCtzPopcnt(t *testing.T) {
	require.Equal(t, uint32(31), I32Clz(1))
	require.Equal(t, uint32(0), I32Ctz(1))
	require.Equal(t, uint32(4), I32Popcnt(0xF))
	require.Equal(t, uint32(32), I32Clz(0))
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, int32(-1), I32Extend8S(0xFF))
	require.Equal(t, int32(127), I32Extend8S(0x7F))
	require.Equal(t, int64(-1), I64Extend32S(0xFFFFFFFF))
}

func TestF64MinMaxNaNAndZero(t *testing.T) {
	require.True(t, math.IsNaN(F64Min(math.NaN(), 1)))
	require.True(t, math.IsNaN(F64Max(1, math.NaN())))

	// -0.0 is strictly less than +0.0.
	neg, pos := math.Copysign(0, -1), 0.0
	require.Equal(t, neg, F64Min(neg, pos))
	require.True(t, math.Signbit(F64Min(neg, pos)))
	require.Equal(t, pos, F64Max(neg, pos))
	require.False(t, math.Signbit(F64Max(neg, pos)))

	require.True(t, math.IsInf(F64Min(math.Inf(-1), 0), -1))
	require.True(t, math.IsInf(F64Max(math.Inf(1), 0), 1))
}

func TestF64Nearest(t *testing.T) {
	require.Equal(t, 2.0, F64Nearest(2.5))
	require.Equal(t, 4.0, F64Nearest(3.5))
	require.Equal(t, -2.0, F64Nearest(-2.5))
}

func TestTruncTraps(t *testing.T) {
	_, err := I32TruncF32S(float32(math.NaN()))
	require.ErrorIs(t, err, ErrInvalidConversionToInteger)

	_, err = I32TruncF64S(2147483648)
	require.ErrorIs(t, err, ErrIntegerOverflow)

	_, err = I32TruncF64S(-2147483649)
	require.ErrorIs(t, err, ErrIntegerOverflow)

	v, err := I32TruncF64S(2147483647.9)
	require.NoError(t, err)
	require.Equal(t, int32(2147483647), v)

	_, err = I64TruncF64U(-1)
	require.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestWrapExtendConvert(t *testing.T) {
	require.Equal(t, int32(-1), I32WrapI64(0xFFFFFFFFFF))
	require.Equal(t, int64(-1), I64ExtendI32S(-1))
	require.Equal(t, int64(0xFFFFFFFF), I64ExtendI32U(-1))
	require.Equal(t, float32(-1), F32ConvertI32S(-1))
	require.Equal(t, float64(4294967295), F64ConvertI32U(-1))
}

// TestReinterpretIsBitcast pins the corrected behavior: reinterpreting must
// preserve the bit pattern rather than performing a numeric conversion, so a
// negative i32 reinterpreted as f32 is not the same as converting it.
func TestReinterpretIsBitcast(t *testing.T) {
	bits := int32(math.Float32bits(1.5))
	require.Equal(t, float32(1.5), F32ReinterpretI32(bits))
	require.Equal(t, bits, I32ReinterpretF32(1.5))

	require.NotEqual(t, float32(-1), F32ReinterpretI32(-1))
	require.Equal(t, math.Float32frombits(0xFFFFFFFF), F32ReinterpretI32(-1))

	lbits := int64(math.Float64bits(-2.25))
	require.Equal(t, float64(-2.25), F64ReinterpretI64(lbits))
	require.Equal(t, lbits, I64ReinterpretF64(-2.25))
}
