package interpreter

import "context"

// FunctionListener observes function calls as they happen, purely for
// diagnostics: it cannot see or influence the value stack, the call stack,
// or the trap/error path, and the interpreter's externally-observable
// behavior is identical whether or not a listener is attached.
//
// Grounded on wazero's internal/logging and experimental/logging
// FunctionListener hook.
type FunctionListener interface {
	// Before fires immediately before a function starts executing.
	Before(ctx context.Context, funcName string, params []interface{})
	// After fires once the function returns, successfully or not.
	After(ctx context.Context, funcName string, results []interface{}, err error)
}

// noopListener is used when a Machine is constructed without one, so call
// sites never need a nil check.
type noopListener struct{}

func (noopListener) Before(context.Context, string, []interface{})            {}
func (noopListener) After(context.Context, string, []interface{}, error) {}
