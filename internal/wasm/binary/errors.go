package binary

import "errors"

// Decode-time errors, grounded on chibiwasm's src/binary/error.rs sentinel
// set and the malformed-module cases WebAssembly's own spec names.
var (
	ErrInvalidMagic           = errors.New("binary: invalid magic number")
	ErrInvalidVersion         = errors.New("binary: invalid version")
	ErrInvalidSectionID       = errors.New("binary: invalid section id")
	ErrInvalidFuncTypeTag     = errors.New("binary: invalid func type tag, expected 0x60")
	ErrInvalidElemType        = errors.New("binary: invalid element type, expected 0x70 (funcref)")
	ErrInvalidImportKind      = errors.New("binary: invalid import kind")
	ErrInvalidExportKind      = errors.New("binary: invalid export kind")
	ErrInvalidInitExprOpcode  = errors.New("binary: invalid constant expression opcode")
	ErrInvalidInitExprEnd     = errors.New("binary: constant expression missing end opcode")
	ErrInvalidTableCount      = errors.New("binary: at most one table is supported")
	ErrInvalidMemoryCount     = errors.New("binary: at most one memory is supported")
	ErrUnknownOpcode          = errors.New("binary: unknown opcode")
	ErrInvalidUTF8            = errors.New("binary: name is not valid utf-8")
)
