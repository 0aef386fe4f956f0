// Package numeric implements the trapping and NaN/rounding-sensitive parts
// of the WebAssembly numeric instruction set: integer division/remainder,
// rotate, float min/max/nearest, and every trunc/convert/reinterpret
// conversion. Trivial operators (add, sub, mul, bitwise, shift, compare) are plain
// Go operators and live directly in the interpreter's dispatch; this
// package exists for the operators where getting the corner case wrong is
// easy.
package numeric

import "errors"

// Trapping errors, grounded on chibiwasm's execution/error.rs variants of
// the same name.
var (
	ErrIntegerDivideByZero        = errors.New("integer divide by zero")
	ErrIntegerOverflow            = errors.New("integer overflow")
	ErrInvalidConversionToInteger = errors.New("invalid conversion to integer")
)
