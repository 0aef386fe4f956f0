package interpreter

import (
	"errors"
	"fmt"
)

// TrapKind names one of the distinguished runtime faults a module can
// raise, independent of the English message attached to it. Embedders can
// match on Kind via errors.As instead of string-matching Error().
type TrapKind string

const (
	TrapUnreachable            TrapKind = "unreachable"
	TrapIntegerDivideByZero    TrapKind = "integer divide by zero"
	TrapIntegerOverflow        TrapKind = "integer overflow"
	TrapInvalidConversion      TrapKind = "invalid conversion to integer"
	TrapUndefinedElement       TrapKind = "undefined element"
	TrapUninitializedElement   TrapKind = "uninitialized element"
	TrapIndirectCallTypeMismatch TrapKind = "indirect call type mismatch"
	TrapOutOfBoundsMemoryAccess TrapKind = "out of bounds memory access"
	TrapCallStackExhausted     TrapKind = "call stack exhausted"
)

// TrapError is the error type every runtime fault that halts execution is
// reported as, wrapping a TrapKind so callers can errors.As it without
// parsing text, per the error-handling design's call for a distinguished
// trap type (grounded on wazero's internal wasmruntime.Error sentinel
// convention and chibiwasm's execution/error.rs Error enum).
type TrapError struct {
	Kind TrapKind
	// Func names the function the trap occurred in, when known.
	Func string
}

func (e *TrapError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("wasm: trap: %s (in %s)", e.Kind, e.Func)
	}
	return fmt.Sprintf("wasm: trap: %s", e.Kind)
}

func trap(kind TrapKind) error { return &TrapError{Kind: kind} }

// IsTrap reports whether err is (or wraps) a *TrapError of the given kind.
func IsTrap(err error, kind TrapKind) bool {
	var t *TrapError
	if errors.As(err, &t) {
		return t.Kind == kind
	}
	return false
}

var (
	errStackUnderflow   = errors.New("interpreter: value stack underflow")
	errFuncIndexRange   = errors.New("interpreter: function index out of range")
	errTableIndexRange  = errors.New("interpreter: table index out of range")
	errLocalIndexRange  = errors.New("interpreter: local index out of range")
	errGlobalIndexRange = errors.New("interpreter: global index out of range")
	errTypeIndexRange   = errors.New("interpreter: type index out of range")
	errMemoryIndexRange = errors.New("interpreter: memory index out of range")
	errUnknownOpcode    = errors.New("interpreter: unknown opcode")
)
