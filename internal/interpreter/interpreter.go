// Package interpreter executes a linked module instance: a tree-walking
// evaluator operating directly on the decoded instruction AST, structured
// the way the decoder produced it (blocks own their then/else bodies
// rather than a flat stream with jump targets).
package interpreter

import (
	"context"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/numeric"
	"github.com/skanehira/wazen/internal/wasm"
)

// defaultMaxCallDepth bounds recursion into internal calls when a Machine
// is constructed with NewMachine. Unlike a bytecode VM with an explicit
// call-stack slice, this tree-walking evaluator rides the Go call stack
// for both nested blocks and nested calls, so a runaway module has to be
// stopped before it exhausts the goroutine stack rather than after.
const defaultMaxCallDepth = 8192

// ctrlKind distinguishes how control left an instruction sequence: fell
// through normally, is branching to an enclosing label, or is returning
// from the current function.
type ctrlKind int

const (
	ctrlNone ctrlKind = iota
	ctrlBranch
	ctrlReturn
)

// ctrl is the non-local-control-flow signal threaded back up through
// nested runInsts/step calls. A zero value means "ran to completion,
// keep going."
type ctrl struct {
	kind  ctrlKind
	level uint32 // meaningful only when kind == ctrlBranch
}

// frame is a function activation: its locals and the value-stack height
// and result arity it must restore to on return.
type frame struct {
	locals []api.Value
	sp     int
	arity  int
}

// Machine executes calls against a single linked module instance. It is
// not safe for concurrent use.
type Machine struct {
	Module *wasm.ModuleInst

	stack     []api.Value
	callDepth int
	maxDepth  int

	listener FunctionListener
}

// NewMachine constructs a Machine ready to call exported functions of mod,
// using defaultMaxCallDepth as its call-nesting limit.
func NewMachine(mod *wasm.ModuleInst) *Machine {
	return &Machine{Module: mod, maxDepth: defaultMaxCallDepth, listener: noopListener{}}
}

// NewMachineWithMaxCallDepth is NewMachine with an explicit call-nesting
// limit, wired from wazen.RuntimeConfig.WithMaxCallDepth.
func NewMachineWithMaxCallDepth(mod *wasm.ModuleInst, maxDepth uint32) *Machine {
	return &Machine{Module: mod, maxDepth: int(maxDepth), listener: noopListener{}}
}

// SetListener attaches a FunctionListener. A nil listener restores the
// no-op default.
func (m *Machine) SetListener(l FunctionListener) {
	if l == nil {
		l = noopListener{}
	}
	m.listener = l
}

// CallByIndex invokes the function at the given index in the module's
// function space (imports first, then module-defined functions), pushing
// args and returning its results. On a trap, the value stack is cleared
// before the error is returned: a trapped machine never leaves stale
// state for the next call.
func (m *Machine) CallByIndex(ctx context.Context, idx uint32, args []api.Value) ([]api.Value, error) {
	if int(idx) >= len(m.Module.Funcs) {
		return nil, errFuncIndexRange
	}
	fn := m.Module.Funcs[idx]

	results, err := m.call(ctx, fn, args)
	if err != nil {
		m.stack = nil
		m.callDepth = 0
		return nil, err
	}
	return results, nil
}

func funcType(fn *wasm.FuncInst) api.FuncType {
	if fn.IsInternal() {
		return fn.Internal.Type
	}
	return fn.External.Type
}

func funcDebugName(fn *wasm.FuncInst) string {
	if fn.IsInternal() {
		return "<internal>"
	}
	return fn.External.Module + "." + fn.External.Field
}

func valuesToAny(vs []api.Value) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// call dispatches to an internal or external function with the given
// arguments and returns its results, notifying the listener before and
// after. It does not push the results; invokeAndPush does that for call
// instructions.
func (m *Machine) call(ctx context.Context, fn *wasm.FuncInst, args []api.Value) ([]api.Value, error) {
	name := funcDebugName(fn)
	m.listener.Before(ctx, name, valuesToAny(args))

	var results []api.Value
	var err error
	if fn.IsInternal() {
		for _, a := range args {
			m.stack = append(m.stack, a)
		}
		results, err = m.invokeInternal(ctx, fn.Internal)
	} else {
		results, err = fn.External.Invoke(ctx, args)
	}

	m.listener.After(ctx, name, valuesToAny(results), err)
	return results, err
}

// invokeInternal splits params off the shared value stack into a fresh
// locals slice, pads them with zero-valued declared locals, runs the
// body, and pops the declared number of results back off.
func (m *Machine) invokeInternal(ctx context.Context, fn *wasm.InternalFunc) ([]api.Value, error) {
	if m.callDepth >= m.maxDepth {
		return nil, trap(TrapCallStackExhausted)
	}
	m.callDepth++
	defer func() { m.callDepth-- }()

	nParams := len(fn.Type.Params)
	if len(m.stack) < nParams {
		return nil, errStackUnderflow
	}
	bottom := len(m.stack) - nParams
	locals := make([]api.Value, nParams, nParams+len(fn.Locals))
	copy(locals, m.stack[bottom:])
	m.stack = m.stack[:bottom]

	for _, t := range fn.Locals {
		locals = append(locals, zeroValue(t))
	}

	arity := len(fn.Type.Results)
	fr := &frame{sp: len(m.stack), arity: arity, locals: locals}

	if _, err := m.runInsts(ctx, fr, fn.Body); err != nil {
		return nil, err
	}

	if len(m.stack) < fr.sp+arity {
		return nil, errStackUnderflow
	}
	m.stack = stackUnwind(m.stack, fr.sp, arity)
	results := append([]api.Value(nil), m.stack[fr.sp:]...)
	m.stack = m.stack[:fr.sp]
	return results, nil
}

func zeroValue(t api.ValueType) api.Value {
	switch t {
	case api.ValueTypeI32:
		return api.I32(0)
	case api.ValueTypeI64:
		return api.I64(0)
	case api.ValueTypeF32:
		return api.F32(0)
	default:
		return api.F64(0)
	}
}

func (m *Machine) push(v api.Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() (api.Value, error) {
	if len(m.stack) == 0 {
		return api.Value{}, errStackUnderflow
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// stackUnwind drops every value above sp, keeping only the top `arity`
// values: the shape a block, loop, if, or function produces on exit.
func stackUnwind(stack []api.Value, sp int, arity int) []api.Value {
	if arity == 0 {
		return stack[:sp]
	}
	top := stack[len(stack)-arity:]
	kept := append([]api.Value(nil), top...)
	return append(stack[:sp], kept...)
}

// runInsts executes a flat instruction sequence (a function body, or a
// block/loop/if's then or else body) until it runs out, or until a
// branch/return needs to unwind past it.
func (m *Machine) runInsts(ctx context.Context, fr *frame, insts []wasm.Instruction) (ctrl, error) {
	for i := range insts {
		c, err := m.step(ctx, fr, &insts[i])
		if err != nil {
			return ctrl{}, err
		}
		if c.kind != ctrlNone {
			return c, nil
		}
	}
	return ctrl{}, nil
}

// runBlock runs a nested then/else body and applies its label's exit
// semantics: a normal fallthrough or a branch that targets this exact
// label both unwind the stack to sp+arity and are absorbed (reported to
// the caller as ctrlNone); a branch targeting an outer label, or a
// return, propagates up untouched but for the branch level being
// decremented by one enclosing label.
func (m *Machine) runBlock(ctx context.Context, fr *frame, body []wasm.Instruction, sp, arity int) (ctrl, error) {
	c, err := m.runInsts(ctx, fr, body)
	if err != nil {
		return ctrl{}, err
	}
	switch c.kind {
	case ctrlReturn:
		return c, nil
	case ctrlBranch:
		if c.level == 0 {
			m.stack = stackUnwind(m.stack, sp, arity)
			return ctrl{}, nil
		}
		return ctrl{kind: ctrlBranch, level: c.level - 1}, nil
	default:
		m.stack = stackUnwind(m.stack, sp, arity)
		return ctrl{}, nil
	}
}

// runLoop is runBlock, but a branch targeting this exact label re-enters
// the loop body instead of exiting it: the defining trait of a loop
// label versus a block/if label.
func (m *Machine) runLoop(ctx context.Context, fr *frame, body []wasm.Instruction, arity int) (ctrl, error) {
	for {
		sp := len(m.stack)
		c, err := m.runInsts(ctx, fr, body)
		if err != nil {
			return ctrl{}, err
		}
		switch c.kind {
		case ctrlReturn:
			return c, nil
		case ctrlBranch:
			if c.level == 0 {
				m.stack = stackUnwind(m.stack, sp, arity)
				continue
			}
			return ctrl{kind: ctrlBranch, level: c.level - 1}, nil
		default:
			m.stack = stackUnwind(m.stack, sp, arity)
			return ctrl{}, nil
		}
	}
}

// step executes one instruction. Control-flow instructions recurse into
// runInsts/runBlock/runLoop for nested bodies and report non-local exits
// via the returned ctrl; every other instruction returns a zero ctrl and
// either mutates the value stack or returns an error.
func (m *Machine) step(ctx context.Context, fr *frame, inst *wasm.Instruction) (ctrl, error) {
	switch inst.Op {
	case wasm.OpcodeUnreachable:
		return ctrl{}, trap(TrapUnreachable)
	case wasm.OpcodeNop:
		return ctrl{}, nil

	case wasm.OpcodeBlock:
		sp := len(m.stack)
		return m.runBlock(ctx, fr, inst.Block.Then, sp, inst.Block.Type.ResultCount())

	case wasm.OpcodeLoop:
		return m.runLoop(ctx, fr, inst.Block.Then, inst.Block.Type.ResultCount())

	case wasm.OpcodeIf:
		cond, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		sp := len(m.stack)
		body := inst.Block.Else
		if cond.IsTrue() {
			body = inst.Block.Then
		}
		return m.runBlock(ctx, fr, body, sp, inst.Block.Type.ResultCount())

	case wasm.OpcodeBr:
		return ctrl{kind: ctrlBranch, level: inst.Idx}, nil

	case wasm.OpcodeBrIf:
		cond, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		if cond.IsTrue() {
			return ctrl{kind: ctrlBranch, level: inst.Idx}, nil
		}
		return ctrl{}, nil

	case wasm.OpcodeBrTable:
		v, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		idx := uint32(v.I32())
		level := inst.BrTableDefault
		if int(idx) < len(inst.BrTableLabels) {
			level = inst.BrTableLabels[idx]
		}
		return ctrl{kind: ctrlBranch, level: level}, nil

	case wasm.OpcodeReturn:
		return ctrl{kind: ctrlReturn}, nil

	case wasm.OpcodeCall:
		return ctrl{}, m.callDirect(ctx, inst.Idx)

	case wasm.OpcodeCallIndirect:
		return ctrl{}, m.callIndirect(ctx, inst.Idx, inst.Idx2)

	case wasm.OpcodeDrop:
		_, err := m.pop()
		return ctrl{}, err

	case wasm.OpcodeSelect:
		cond, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		v2, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		v1, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		if cond.IsTrue() {
			m.push(v1)
		} else {
			m.push(v2)
		}
		return ctrl{}, nil

	case wasm.OpcodeLocalGet:
		if int(inst.Idx) >= len(fr.locals) {
			return ctrl{}, errLocalIndexRange
		}
		m.push(fr.locals[inst.Idx])
		return ctrl{}, nil
	case wasm.OpcodeLocalSet:
		v, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		if int(inst.Idx) >= len(fr.locals) {
			return ctrl{}, errLocalIndexRange
		}
		fr.locals[inst.Idx] = v
		return ctrl{}, nil
	case wasm.OpcodeLocalTee:
		v, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		if int(inst.Idx) >= len(fr.locals) {
			return ctrl{}, errLocalIndexRange
		}
		fr.locals[inst.Idx] = v
		m.push(v)
		return ctrl{}, nil

	case wasm.OpcodeGlobalGet:
		if int(inst.Idx) >= len(m.Module.Globals) {
			return ctrl{}, errGlobalIndexRange
		}
		m.push(m.Module.Globals[inst.Idx].Value)
		return ctrl{}, nil
	case wasm.OpcodeGlobalSet:
		v, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		if int(inst.Idx) >= len(m.Module.Globals) {
			return ctrl{}, errGlobalIndexRange
		}
		m.Module.Globals[inst.Idx].Value = v
		return ctrl{}, nil

	case wasm.OpcodeI32Const, wasm.OpcodeI64Const, wasm.OpcodeF32Const, wasm.OpcodeF64Const:
		m.push(inst.Const)
		return ctrl{}, nil

	case wasm.OpcodeMemoryGrow:
		n, err := m.pop()
		if err != nil {
			return ctrl{}, err
		}
		mem, err := m.memory()
		if err != nil {
			return ctrl{}, err
		}
		m.push(api.I32(mem.Grow(uint32(n.I32()))))
		return ctrl{}, nil

	case wasm.OpcodeMemorySize:
		mem, err := m.memory()
		if err != nil {
			return ctrl{}, err
		}
		m.push(api.I32(int32(mem.PageCount())))
		return ctrl{}, nil

	default:
		return ctrl{}, m.stepNumericOrMemory(inst)
	}
}

func (m *Machine) callDirect(ctx context.Context, idx uint32) error {
	if int(idx) >= len(m.Module.Funcs) {
		return errFuncIndexRange
	}
	return m.invokeAndPush(ctx, m.Module.Funcs[idx])
}

func (m *Machine) callIndirect(ctx context.Context, sigIdx, tableIdx uint32) error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	elemIdx := int(v.I32())

	if int(tableIdx) >= len(m.Module.Tables) {
		return errTableIndexRange
	}
	table := m.Module.Tables[tableIdx]
	if elemIdx < 0 || elemIdx >= len(table.Elements) {
		return trap(TrapUndefinedElement)
	}
	fn := table.Elements[elemIdx]
	if fn == nil {
		return trap(TrapUninitializedElement)
	}

	if int(sigIdx) >= len(m.Module.Types) {
		return errTypeIndexRange
	}
	want := m.Module.Types[sigIdx]
	got := funcType(fn)
	if !want.Equal(&got) {
		return trap(TrapIndirectCallTypeMismatch)
	}

	return m.invokeAndPush(ctx, fn)
}

// invokeAndPush pops fn's arguments off the value stack, runs it through
// call (so the attached FunctionListener observes this call the same way
// it observes a top-level exported call), and pushes its results back on:
// the shape every call instruction needs, whether resolved directly or
// indirectly, internal or external.
func (m *Machine) invokeAndPush(ctx context.Context, fn *wasm.FuncInst) error {
	ft := funcType(fn)
	nParams := len(ft.Params)
	if len(m.stack) < nParams {
		return errStackUnderflow
	}

	args := append([]api.Value(nil), m.stack[len(m.stack)-nParams:]...)
	m.stack = m.stack[:len(m.stack)-nParams]
	results, err := m.call(ctx, fn, args)
	if err != nil {
		return err
	}
	for _, r := range results {
		m.push(r)
	}
	return nil
}

func (m *Machine) memory() (*wasm.MemoryInst, error) {
	if len(m.Module.Mems) == 0 {
		return nil, errMemoryIndexRange
	}
	return m.Module.Mems[0], nil
}

func numErr(err error) error {
	switch err {
	case numeric.ErrIntegerDivideByZero:
		return trap(TrapIntegerDivideByZero)
	case numeric.ErrIntegerOverflow:
		return trap(TrapIntegerOverflow)
	case numeric.ErrInvalidConversionToInteger:
		return trap(TrapInvalidConversion)
	default:
		return err
	}
}
