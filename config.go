// Package wazen is an embeddable WebAssembly 1.0 (20191205) runtime: decode a
// binary module, instantiate it against host-provided imports, and call its
// exported functions from Go.
package wazen

// RuntimeConfig controls the behavior of a Runtime created by NewRuntime. The
// zero value is never used directly; start from NewRuntimeConfig.
type RuntimeConfig struct {
	maxCallDepth   uint32
	memoryMaxPages uint32
}

// defaultMaxCallDepth bounds recursive WebAssembly call nesting (including
// nesting introduced by host function callbacks that call back into the
// module) well below the point where it would exhaust the Go goroutine
// stack, so a runaway recursive module traps instead of crashing the process.
const defaultMaxCallDepth = 8192

// defaultMemoryMaxPages is 4GiB of linear memory (65536 pages * 64KiB),
// matching the WebAssembly 1.0 address space limit when a module's own
// memory section declares no smaller max.
const defaultMemoryMaxPages = 65536

// NewRuntimeConfig returns the default configuration used by NewRuntime(nil).
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		maxCallDepth:   defaultMaxCallDepth,
		memoryMaxPages: defaultMemoryMaxPages,
	}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	ret := *c
	return &ret
}

// WithMaxCallDepth overrides how deeply calls (including reentrant host
// callbacks) may nest before a function call traps with
// interpreter.TrapCallStackExhausted.
func (c *RuntimeConfig) WithMaxCallDepth(depth uint32) *RuntimeConfig {
	ret := c.clone()
	ret.maxCallDepth = depth
	return ret
}

// WithMemoryMaxPages caps the number of 64KiB pages a memory.grow instruction
// may grow a module's memory to, for modules that don't declare their own,
// smaller max in the memory section.
func (c *RuntimeConfig) WithMemoryMaxPages(pages uint32) *RuntimeConfig {
	ret := c.clone()
	ret.memoryMaxPages = pages
	return ret
}
