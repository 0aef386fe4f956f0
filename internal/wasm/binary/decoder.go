// Package binary decodes (and encodes) the WebAssembly 1.0 core binary
// module format into (and from) the AST defined by package
// github.com/skanehira/wazen/internal/wasm.
//
// See https://webassembly.github.io/spec/core/binary/index.html
package binary

import (
	"bytes"
	"fmt"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/wasm"
)

var magic = [4]byte{0x00, 0x61, 0x73, 0x6d} // "\0asm"

const version1 = uint32(1)

// sectionID tags one of the 12 top-level sections a module may carry.
type sectionID byte

const (
	sectionIDCustom   sectionID = 0x00
	sectionIDType     sectionID = 0x01
	sectionIDImport   sectionID = 0x02
	sectionIDFunction sectionID = 0x03
	sectionIDTable    sectionID = 0x04
	sectionIDMemory   sectionID = 0x05
	sectionIDGlobal   sectionID = 0x06
	sectionIDExport   sectionID = 0x07
	sectionIDStart    sectionID = 0x08
	sectionIDElement  sectionID = 0x09
	sectionIDCode     sectionID = 0x0a
	sectionIDData     sectionID = 0x0b
)

// DecodeModule parses the given binary module bytes into a wasm.Module.
// Decoding performs only the structural validation spec'd at the binary
// level (tag bytes, count mismatches, init-expr shape); it does not perform
// WebAssembly's full static validation pass.
func DecodeModule(data []byte) (*wasm.Module, error) {
	buf := bytes.NewReader(data)

	var hdr [8]byte
	if n, err := buf.Read(hdr[:]); err != nil || n != 8 {
		return nil, fmt.Errorf("binary: %w", ErrInvalidMagic)
	}
	if [4]byte{hdr[0], hdr[1], hdr[2], hdr[3]} != magic {
		return nil, ErrInvalidMagic
	}
	ver := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24
	if ver != version1 {
		return nil, ErrInvalidVersion
	}

	m := &wasm.Module{Version: ver}

	for {
		idByte, err := buf.ReadByte()
		if err != nil {
			break // clean EOF: no more sections
		}
		size, _, err := decodeSectionSize(buf)
		if err != nil {
			return nil, fmt.Errorf("binary: reading section size: %w", err)
		}
		payload := make([]byte, size)
		if _, err := buf.Read(payload); err != nil {
			return nil, fmt.Errorf("binary: reading section payload: %w", err)
		}
		if err := decodeSection(m, sectionID(idByte), payload); err != nil {
			return nil, fmt.Errorf("binary: section %#x: %w", idByte, err)
		}
	}

	return m, nil
}

func decodeSectionSize(buf *bytes.Reader) (uint32, uint64, error) {
	r := &reader{buf: buf}
	v, err := r.u32()
	return v, 0, err
}

func decodeSection(m *wasm.Module, id sectionID, data []byte) error {
	r := newReader(data)
	switch id {
	case sectionIDCustom:
		return nil // custom sections carry no semantic content for this core
	case sectionIDType:
		return decodeTypeSection(m, r)
	case sectionIDImport:
		return decodeImportSection(m, r)
	case sectionIDFunction:
		return decodeFunctionSection(m, r)
	case sectionIDTable:
		return decodeTableSection(m, r)
	case sectionIDMemory:
		return decodeMemorySection(m, r)
	case sectionIDGlobal:
		return decodeGlobalSection(m, r)
	case sectionIDExport:
		return decodeExportSection(m, r)
	case sectionIDStart:
		return decodeStartSection(m, r)
	case sectionIDElement:
		return decodeElementSection(m, r)
	case sectionIDCode:
		return decodeCodeSection(m, r)
	case sectionIDData:
		return decodeDataSection(m, r)
	default:
		return ErrInvalidSectionID
	}
}

func decodeValueType(b byte) api.ValueType {
	return api.ValueType(b)
}

func decodeTypeSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	types := make([]api.FuncType, 0, count)
	for i := uint32(0); i < count; i++ {
		tag, err := r.byte()
		if err != nil {
			return err
		}
		if tag != 0x60 {
			return ErrInvalidFuncTypeTag
		}
		var ft api.FuncType
		nParams, err := r.u32()
		if err != nil {
			return err
		}
		for j := uint32(0); j < nParams; j++ {
			b, err := r.byte()
			if err != nil {
				return err
			}
			ft.Params = append(ft.Params, decodeValueType(b))
		}
		nResults, err := r.u32()
		if err != nil {
			return err
		}
		for j := uint32(0); j < nResults; j++ {
			b, err := r.byte()
			if err != nil {
				return err
			}
			ft.Results = append(ft.Results, decodeValueType(b))
		}
		types = append(types, ft)
	}
	m.TypeSection = types
	return nil
}

func decodeLimits(r *reader) (wasm.Limits, error) {
	flag, err := r.u32()
	if err != nil {
		return wasm.Limits{}, err
	}
	min, err := r.u32()
	if err != nil {
		return wasm.Limits{}, err
	}
	lim := wasm.Limits{Min: min}
	if flag != 0x00 {
		max, err := r.u32()
		if err != nil {
			return wasm.Limits{}, err
		}
		lim.Max = &max
	}
	return lim, nil
}

func decodeTable(r *reader) (wasm.Table, error) {
	elemType, err := r.byte()
	if err != nil {
		return wasm.Table{}, err
	}
	if elemType != wasm.ElemTypeFuncRef {
		return wasm.Table{}, ErrInvalidElemType
	}
	lim, err := decodeLimits(r)
	if err != nil {
		return wasm.Table{}, err
	}
	return wasm.Table{Limits: lim}, nil
}

func decodeMemory(r *reader) (wasm.Memory, error) {
	lim, err := decodeLimits(r)
	if err != nil {
		return wasm.Memory{}, err
	}
	return wasm.Memory{Limits: lim}, nil
}

func decodeGlobalType(r *reader) (wasm.GlobalType, error) {
	vt, err := r.byte()
	if err != nil {
		return wasm.GlobalType{}, err
	}
	mut, err := r.byte()
	if err != nil {
		return wasm.GlobalType{}, err
	}
	return wasm.GlobalType{ValType: decodeValueType(vt), Mutability: mut != 0}, nil
}

func decodeImportSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	imports := make([]wasm.Import, 0, count)
	for i := uint32(0); i < count; i++ {
		modLen, err := r.u32()
		if err != nil {
			return err
		}
		modName, err := r.string(modLen)
		if err != nil {
			return err
		}
		fieldLen, err := r.u32()
		if err != nil {
			return err
		}
		fieldName, err := r.string(fieldLen)
		if err != nil {
			return err
		}
		kindByte, err := r.byte()
		if err != nil {
			return err
		}
		imp := wasm.Import{Module: modName, Field: fieldName}
		switch kindByte {
		case 0x00:
			imp.Kind = wasm.ImportKindFunc
			idx, err := r.u32()
			if err != nil {
				return err
			}
			imp.TypeIdx = idx
		case 0x01:
			imp.Kind = wasm.ImportKindTable
			t, err := decodeTable(r)
			if err != nil {
				return err
			}
			imp.Table = t
		case 0x02:
			imp.Kind = wasm.ImportKindMemory
			mem, err := decodeMemory(r)
			if err != nil {
				return err
			}
			imp.Mem = mem
		case 0x03:
			imp.Kind = wasm.ImportKindGlobal
			gt, err := decodeGlobalType(r)
			if err != nil {
				return err
			}
			imp.Global = gt
		default:
			return ErrInvalidImportKind
		}
		imports = append(imports, imp)
	}
	m.ImportSection = imports
	return nil
}

func decodeFunctionSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	idx := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.u32()
		if err != nil {
			return err
		}
		idx = append(idx, v)
	}
	m.FunctionSection = idx
	return nil
}

func decodeTableSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	if count != 1 {
		return ErrInvalidTableCount
	}
	tables := make([]wasm.Table, 0, count)
	for i := uint32(0); i < count; i++ {
		t, err := decodeTable(r)
		if err != nil {
			return err
		}
		tables = append(tables, t)
	}
	m.TableSection = tables
	return nil
}

func decodeMemorySection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	if count != 1 {
		return ErrInvalidMemoryCount
	}
	mems := make([]wasm.Memory, 0, count)
	for i := uint32(0); i < count; i++ {
		mem, err := decodeMemory(r)
		if err != nil {
			return err
		}
		mems = append(mems, mem)
	}
	m.MemorySection = mems
	return nil
}

func decodeConstExpr(r *reader) (wasm.ConstExpr, error) {
	op, err := r.byte()
	if err != nil {
		return wasm.ConstExpr{}, err
	}
	var v api.Value
	switch wasm.Opcode(op) {
	case wasm.OpcodeI32Const:
		n, err := r.i32()
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		v = api.I32(n)
	case wasm.OpcodeI64Const:
		n, err := r.i64()
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		v = api.I64(n)
	case wasm.OpcodeF32Const:
		n, err := r.f32()
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		v = api.F32(n)
	case wasm.OpcodeF64Const:
		n, err := r.f64()
		if err != nil {
			return wasm.ConstExpr{}, err
		}
		v = api.F64(n)
	default:
		return wasm.ConstExpr{}, ErrInvalidInitExprOpcode
	}
	end, err := r.byte()
	if err != nil {
		return wasm.ConstExpr{}, err
	}
	if wasm.Opcode(end) != wasm.OpcodeEnd {
		return wasm.ConstExpr{}, ErrInvalidInitExprEnd
	}
	return wasm.ConstExpr{Value: v}, nil
}

func decodeGlobalSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	globals := make([]wasm.Global, 0, count)
	for i := uint32(0); i < count; i++ {
		gt, err := decodeGlobalType(r)
		if err != nil {
			return err
		}
		init, err := decodeConstExpr(r)
		if err != nil {
			return err
		}
		globals = append(globals, wasm.Global{Type: gt, Init: init})
	}
	m.GlobalSection = globals
	return nil
}

func decodeExportSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	exports := make([]wasm.Export, 0, count)
	for i := uint32(0); i < count; i++ {
		nameLen, err := r.u32()
		if err != nil {
			return err
		}
		name, err := r.string(nameLen)
		if err != nil {
			return err
		}
		kindByte, err := r.byte()
		if err != nil {
			return err
		}
		idx, err := r.u32()
		if err != nil {
			return err
		}
		var kind api.ExternType
		switch kindByte {
		case 0x00:
			kind = api.ExternTypeFunc
		case 0x01:
			kind = api.ExternTypeTable
		case 0x02:
			kind = api.ExternTypeMemory
		case 0x03:
			kind = api.ExternTypeGlobal
		default:
			return ErrInvalidExportKind
		}
		exports = append(exports, wasm.Export{Name: name, Desc: wasm.ExportDesc{Type: kind, Idx: idx}})
	}
	m.ExportSection = exports
	return nil
}

func decodeStartSection(m *wasm.Module, r *reader) error {
	idx, err := r.u32()
	if err != nil {
		return err
	}
	m.StartSection = &idx
	return nil
}

func decodeElementSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	elems := make([]wasm.Element, 0, count)
	for i := uint32(0); i < count; i++ {
		tableIdx, err := r.u32()
		if err != nil {
			return err
		}
		offset, err := decodeConstExpr(r)
		if err != nil {
			return err
		}
		n, err := r.u32()
		if err != nil {
			return err
		}
		init := make([]uint32, 0, n)
		for j := uint32(0); j < n; j++ {
			idx, err := r.u32()
			if err != nil {
				return err
			}
			init = append(init, idx)
		}
		elems = append(elems, wasm.Element{TableIdx: tableIdx, Offset: offset, Init: init})
	}
	m.ElementSection = elems
	return nil
}

func decodeDataSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	data := make([]wasm.Data, 0, count)
	for i := uint32(0); i < count; i++ {
		memIdx, err := r.u32()
		if err != nil {
			return err
		}
		offset, err := decodeConstExpr(r)
		if err != nil {
			return err
		}
		size, err := r.u32()
		if err != nil {
			return err
		}
		init, err := r.bytesN(size)
		if err != nil {
			return err
		}
		data = append(data, wasm.Data{MemoryIdx: memIdx, Offset: offset, Init: init})
	}
	m.DataSection = data
	return nil
}

func decodeCodeSection(m *wasm.Module, r *reader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	bodies := make([]wasm.FunctionBody, 0, count)
	for i := uint32(0); i < count; i++ {
		size, err := r.u32()
		if err != nil {
			return err
		}
		raw, err := r.bytesN(size)
		if err != nil {
			return err
		}
		body, err := decodeFunctionBody(newReader(raw))
		if err != nil {
			return err
		}
		bodies = append(bodies, body)
	}
	m.CodeSection = bodies
	return nil
}

func decodeFunctionBody(r *reader) (wasm.FunctionBody, error) {
	var body wasm.FunctionBody
	count, err := r.u32()
	if err != nil {
		return body, err
	}
	for i := uint32(0); i < count; i++ {
		n, err := r.u32()
		if err != nil {
			return body, err
		}
		vt, err := r.byte()
		if err != nil {
			return body, err
		}
		body.Locals = append(body.Locals, wasm.FunctionLocal{Count: n, Type: decodeValueType(vt)})
	}
	for !r.isEnd() {
		inst, err := decodeInstruction(r)
		if err != nil {
			return body, err
		}
		body.Body = append(body.Body, inst)
	}
	return body, nil
}

func decodeBlockType(r *reader) (wasm.BlockType, error) {
	b, err := r.byte()
	if err != nil {
		return wasm.BlockType{}, err
	}
	if b == 0x40 {
		return wasm.BlockType{Empty: true}, nil
	}
	return wasm.BlockType{Result: decodeValueType(b)}, nil
}

// decodeBlock decodes the body of a block/loop/if: it reads instructions
// until it hits a matching end, splitting into a then-body and (for if) an
// else-body at a depth-0 else.
func decodeBlock(r *reader) (wasm.Block, error) {
	bt, err := decodeBlockType(r)
	if err != nil {
		return wasm.Block{}, err
	}
	blk := wasm.Block{Type: bt}
	for {
		inst, err := decodeInstruction(r)
		if err != nil {
			return wasm.Block{}, err
		}
		if inst.Op == wasm.OpcodeElse {
			for {
				inst, err := decodeInstruction(r)
				if err != nil {
					return wasm.Block{}, err
				}
				if inst.Op == wasm.OpcodeEnd {
					return blk, nil
				}
				blk.Else = append(blk.Else, inst)
			}
		}
		if inst.Op == wasm.OpcodeEnd {
			return blk, nil
		}
		blk.Then = append(blk.Then, inst)
	}
}

func readMemoryArg(r *reader) (wasm.MemoryArg, error) {
	align, err := r.u32()
	if err != nil {
		return wasm.MemoryArg{}, err
	}
	offset, err := r.u32()
	if err != nil {
		return wasm.MemoryArg{}, err
	}
	return wasm.MemoryArg{Align: align, Offset: offset}, nil
}

// decodeInstruction decodes one instruction. Block/Loop/If recurse into
// decodeBlock; Else and End are returned bare so the caller (decodeBlock or
// decodeFunctionBody) can recognize the terminator.
func decodeInstruction(r *reader) (wasm.Instruction, error) {
	opByte, err := r.byte()
	if err != nil {
		return wasm.Instruction{}, err
	}
	op := wasm.Opcode(opByte)
	inst := wasm.Instruction{Op: op}

	switch op {
	case wasm.OpcodeUnreachable, wasm.OpcodeNop, wasm.OpcodeElse, wasm.OpcodeEnd,
		wasm.OpcodeReturn, wasm.OpcodeDrop, wasm.OpcodeSelect,
		wasm.OpcodeI32Eqz, wasm.OpcodeI32Eq, wasm.OpcodeI32Ne, wasm.OpcodeI32LtS, wasm.OpcodeI32LtU,
		wasm.OpcodeI32GtS, wasm.OpcodeI32GtU, wasm.OpcodeI32LeS, wasm.OpcodeI32LeU, wasm.OpcodeI32GeS, wasm.OpcodeI32GeU,
		wasm.OpcodeI64Eqz, wasm.OpcodeI64Eq, wasm.OpcodeI64Ne, wasm.OpcodeI64LtS, wasm.OpcodeI64LtU,
		wasm.OpcodeI64GtS, wasm.OpcodeI64GtU, wasm.OpcodeI64LeS, wasm.OpcodeI64LeU, wasm.OpcodeI64GeS, wasm.OpcodeI64GeU,
		wasm.OpcodeF32Eq, wasm.OpcodeF32Ne, wasm.OpcodeF32Lt, wasm.OpcodeF32Gt, wasm.OpcodeF32Le, wasm.OpcodeF32Ge,
		wasm.OpcodeF64Eq, wasm.OpcodeF64Ne, wasm.OpcodeF64Lt, wasm.OpcodeF64Gt, wasm.OpcodeF64Le, wasm.OpcodeF64Ge,
		wasm.OpcodeI32Clz, wasm.OpcodeI32Ctz, wasm.OpcodeI32Popcnt, wasm.OpcodeI32Add, wasm.OpcodeI32Sub, wasm.OpcodeI32Mul,
		wasm.OpcodeI32DivS, wasm.OpcodeI32DivU, wasm.OpcodeI32RemS, wasm.OpcodeI32RemU,
		wasm.OpcodeI32And, wasm.OpcodeI32Or, wasm.OpcodeI32Xor, wasm.OpcodeI32Shl, wasm.OpcodeI32ShrS, wasm.OpcodeI32ShrU,
		wasm.OpcodeI32Rotl, wasm.OpcodeI32Rotr, wasm.OpcodeI32Extend8S, wasm.OpcodeI32Extend16S,
		wasm.OpcodeI64Clz, wasm.OpcodeI64Ctz, wasm.OpcodeI64Popcnt, wasm.OpcodeI64Add, wasm.OpcodeI64Sub, wasm.OpcodeI64Mul,
		wasm.OpcodeI64DivS, wasm.OpcodeI64DivU, wasm.OpcodeI64RemS, wasm.OpcodeI64RemU,
		wasm.OpcodeI64And, wasm.OpcodeI64Or, wasm.OpcodeI64Xor, wasm.OpcodeI64Shl, wasm.OpcodeI64ShrS, wasm.OpcodeI64ShrU,
		wasm.OpcodeI64Rotl, wasm.OpcodeI64Rotr, wasm.OpcodeI64Extend8S, wasm.OpcodeI64Extend16S, wasm.OpcodeI64Extend32S,
		wasm.OpcodeF32Abs, wasm.OpcodeF32Neg, wasm.OpcodeF32Ceil, wasm.OpcodeF32Floor, wasm.OpcodeF32Trunc,
		wasm.OpcodeF32Nearest, wasm.OpcodeF32Sqrt, wasm.OpcodeF32Add, wasm.OpcodeF32Sub, wasm.OpcodeF32Mul,
		wasm.OpcodeF32Div, wasm.OpcodeF32Min, wasm.OpcodeF32Max, wasm.OpcodeF32Copysign,
		wasm.OpcodeF64Abs, wasm.OpcodeF64Neg, wasm.OpcodeF64Ceil, wasm.OpcodeF64Floor, wasm.OpcodeF64Trunc,
		wasm.OpcodeF64Nearest, wasm.OpcodeF64Sqrt, wasm.OpcodeF64Add, wasm.OpcodeF64Sub, wasm.OpcodeF64Mul,
		wasm.OpcodeF64Div, wasm.OpcodeF64Min, wasm.OpcodeF64Max, wasm.OpcodeF64Copysign,
		wasm.OpcodeI32WrapI64, wasm.OpcodeI32TruncF32S, wasm.OpcodeI32TruncF32U, wasm.OpcodeI32TruncF64S, wasm.OpcodeI32TruncF64U,
		wasm.OpcodeI64ExtendI32S, wasm.OpcodeI64ExtendI32U, wasm.OpcodeI64TruncF32S, wasm.OpcodeI64TruncF32U,
		wasm.OpcodeI64TruncF64S, wasm.OpcodeI64TruncF64U,
		wasm.OpcodeF32ConvertI32S, wasm.OpcodeF32ConvertI32U, wasm.OpcodeF32ConvertI64S, wasm.OpcodeF32ConvertI64U, wasm.OpcodeF32DemoteF64,
		wasm.OpcodeF64ConvertI32S, wasm.OpcodeF64ConvertI32U, wasm.OpcodeF64ConvertI64S, wasm.OpcodeF64ConvertI64U, wasm.OpcodeF64PromoteF32,
		wasm.OpcodeI32ReinterpretF32, wasm.OpcodeI64ReinterpretF64, wasm.OpcodeF32ReinterpretI32, wasm.OpcodeF64ReinterpretI64:
		// no immediate operand

	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		blk, err := decodeBlock(r)
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Block = blk

	case wasm.OpcodeBr, wasm.OpcodeBrIf, wasm.OpcodeCall, wasm.OpcodeLocalGet, wasm.OpcodeLocalSet,
		wasm.OpcodeLocalTee, wasm.OpcodeGlobalGet, wasm.OpcodeGlobalSet:
		idx, err := r.u32()
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Idx = idx

	case wasm.OpcodeBrTable:
		n, err := r.u32()
		if err != nil {
			return wasm.Instruction{}, err
		}
		labels := make([]uint32, n)
		for i := uint32(0); i < n; i++ {
			v, err := r.u32()
			if err != nil {
				return wasm.Instruction{}, err
			}
			labels[i] = v
		}
		def, err := r.u32()
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.BrTableLabels = labels
		inst.BrTableDefault = def

	case wasm.OpcodeCallIndirect:
		sigIdx, err := r.u32()
		if err != nil {
			return wasm.Instruction{}, err
		}
		tableIdx, err := r.u32()
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Idx = sigIdx
		inst.Idx2 = tableIdx

	case wasm.OpcodeI32Const:
		v, err := r.i32()
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Const = api.I32(v)
	case wasm.OpcodeI64Const:
		v, err := r.i64()
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Const = api.I64(v)
	case wasm.OpcodeF32Const:
		v, err := r.f32()
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Const = api.F32(v)
	case wasm.OpcodeF64Const:
		v, err := r.f64()
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Const = api.F64(v)

	case wasm.OpcodeI32Load, wasm.OpcodeI64Load, wasm.OpcodeF32Load, wasm.OpcodeF64Load,
		wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
		wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
		wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U,
		wasm.OpcodeI32Store, wasm.OpcodeI64Store, wasm.OpcodeF32Store, wasm.OpcodeF64Store,
		wasm.OpcodeI32Store8, wasm.OpcodeI32Store16, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16, wasm.OpcodeI64Store32:
		marg, err := readMemoryArg(r)
		if err != nil {
			return wasm.Instruction{}, err
		}
		inst.Memarg = marg

	case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow:
		// reserved byte: memory index, always 0 in this core
		if _, err := r.byte(); err != nil {
			return wasm.Instruction{}, err
		}

	default:
		return wasm.Instruction{}, fmt.Errorf("%w: %#x", ErrUnknownOpcode, opByte)
	}

	return inst, nil
}
