package binary

import (
	"bytes"
	"math"

	"github.com/skanehira/wazen/api"
	"github.com/skanehira/wazen/internal/leb128"
	"github.com/skanehira/wazen/internal/wasm"
)

func f32bits(v float32) uint32 { return math.Float32bits(v) }
func f64bits(v float64) uint64 { return math.Float64bits(v) }

// EncodeModule serializes m back to the binary module format. It exists to
// support the decode(encode(decode(m))) round-trip property: it is not
// required to byte-for-byte reproduce an arbitrary encoder's output (e.g.
// custom sections are dropped, since DecodeModule never keeps them).
func EncodeModule(m *wasm.Module) []byte {
	var out bytes.Buffer
	out.Write(magic[:])
	out.Write([]byte{1, 0, 0, 0})

	writeSection(&out, sectionIDType, encodeTypeSection(m))
	writeSection(&out, sectionIDImport, encodeImportSection(m))
	writeSection(&out, sectionIDFunction, encodeFunctionSection(m))
	writeSection(&out, sectionIDTable, encodeTableSection(m))
	writeSection(&out, sectionIDMemory, encodeMemorySection(m))
	writeSection(&out, sectionIDGlobal, encodeGlobalSection(m))
	writeSection(&out, sectionIDExport, encodeExportSection(m))
	writeSection(&out, sectionIDStart, encodeStartSection(m))
	writeSection(&out, sectionIDElement, encodeElementSection(m))
	writeSection(&out, sectionIDCode, encodeCodeSection(m))
	writeSection(&out, sectionIDData, encodeDataSection(m))

	return out.Bytes()
}

// writeSection appends id, the LEB128 length of payload, and payload, but
// only when payload is non-nil: an absent section stays absent, matching
// DecodeModule's "nil, not empty" convention.
func writeSection(out *bytes.Buffer, id sectionID, payload []byte) {
	if payload == nil {
		return
	}
	out.WriteByte(byte(id))
	out.Write(leb128.EncodeUint32(uint32(len(payload))))
	out.Write(payload)
}

func encodeValueType(t api.ValueType) byte { return byte(t) }

func encodeTypeSection(m *wasm.Module) []byte {
	if m.TypeSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.TypeSection))))
	for _, ft := range m.TypeSection {
		b.WriteByte(0x60)
		b.Write(leb128.EncodeUint32(uint32(len(ft.Params))))
		for _, p := range ft.Params {
			b.WriteByte(encodeValueType(p))
		}
		b.Write(leb128.EncodeUint32(uint32(len(ft.Results))))
		for _, r := range ft.Results {
			b.WriteByte(encodeValueType(r))
		}
	}
	return b.Bytes()
}

func encodeLimits(b *bytes.Buffer, l wasm.Limits) {
	if l.Max == nil {
		b.Write(leb128.EncodeUint32(0))
		b.Write(leb128.EncodeUint32(l.Min))
		return
	}
	b.Write(leb128.EncodeUint32(1))
	b.Write(leb128.EncodeUint32(l.Min))
	b.Write(leb128.EncodeUint32(*l.Max))
}

func encodeTable(b *bytes.Buffer, t wasm.Table) {
	b.WriteByte(wasm.ElemTypeFuncRef)
	encodeLimits(b, t.Limits)
}

func encodeMemory(b *bytes.Buffer, mem wasm.Memory) {
	encodeLimits(b, mem.Limits)
}

func encodeGlobalType(b *bytes.Buffer, gt wasm.GlobalType) {
	b.WriteByte(encodeValueType(gt.ValType))
	if gt.Mutability {
		b.WriteByte(1)
	} else {
		b.WriteByte(0)
	}
}

func encodeImportSection(m *wasm.Module) []byte {
	if m.ImportSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.ImportSection))))
	for _, imp := range m.ImportSection {
		b.Write(leb128.EncodeUint32(uint32(len(imp.Module))))
		b.WriteString(imp.Module)
		b.Write(leb128.EncodeUint32(uint32(len(imp.Field))))
		b.WriteString(imp.Field)
		switch imp.Kind {
		case wasm.ImportKindFunc:
			b.WriteByte(0x00)
			b.Write(leb128.EncodeUint32(imp.TypeIdx))
		case wasm.ImportKindTable:
			b.WriteByte(0x01)
			encodeTable(&b, imp.Table)
		case wasm.ImportKindMemory:
			b.WriteByte(0x02)
			encodeMemory(&b, imp.Mem)
		case wasm.ImportKindGlobal:
			b.WriteByte(0x03)
			encodeGlobalType(&b, imp.Global)
		}
	}
	return b.Bytes()
}

func encodeFunctionSection(m *wasm.Module) []byte {
	if m.FunctionSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.FunctionSection))))
	for _, idx := range m.FunctionSection {
		b.Write(leb128.EncodeUint32(idx))
	}
	return b.Bytes()
}

func encodeTableSection(m *wasm.Module) []byte {
	if m.TableSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.TableSection))))
	for _, t := range m.TableSection {
		encodeTable(&b, t)
	}
	return b.Bytes()
}

func encodeMemorySection(m *wasm.Module) []byte {
	if m.MemorySection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.MemorySection))))
	for _, mem := range m.MemorySection {
		encodeMemory(&b, mem)
	}
	return b.Bytes()
}

func encodeConstExpr(b *bytes.Buffer, c wasm.ConstExpr) {
	switch c.Value.Type() {
	case api.ValueTypeI32:
		b.WriteByte(byte(wasm.OpcodeI32Const))
		b.Write(leb128.EncodeInt32(c.Value.I32()))
	case api.ValueTypeI64:
		b.WriteByte(byte(wasm.OpcodeI64Const))
		b.Write(leb128.EncodeInt64(c.Value.I64()))
	case api.ValueTypeF32:
		b.WriteByte(byte(wasm.OpcodeF32Const))
		writeF32(b, c.Value.F32())
	case api.ValueTypeF64:
		b.WriteByte(byte(wasm.OpcodeF64Const))
		writeF64(b, c.Value.F64())
	}
	b.WriteByte(byte(wasm.OpcodeEnd))
}

func encodeGlobalSection(m *wasm.Module) []byte {
	if m.GlobalSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.GlobalSection))))
	for _, g := range m.GlobalSection {
		encodeGlobalType(&b, g.Type)
		encodeConstExpr(&b, g.Init)
	}
	return b.Bytes()
}

func encodeExportSection(m *wasm.Module) []byte {
	if m.ExportSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.ExportSection))))
	for _, e := range m.ExportSection {
		b.Write(leb128.EncodeUint32(uint32(len(e.Name))))
		b.WriteString(e.Name)
		b.WriteByte(byte(e.Desc.Type))
		b.Write(leb128.EncodeUint32(e.Desc.Idx))
	}
	return b.Bytes()
}

func encodeStartSection(m *wasm.Module) []byte {
	if m.StartSection == nil {
		return nil
	}
	return leb128.EncodeUint32(*m.StartSection)
}

func encodeElementSection(m *wasm.Module) []byte {
	if m.ElementSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.ElementSection))))
	for _, e := range m.ElementSection {
		b.Write(leb128.EncodeUint32(e.TableIdx))
		encodeConstExpr(&b, e.Offset)
		b.Write(leb128.EncodeUint32(uint32(len(e.Init))))
		for _, idx := range e.Init {
			b.Write(leb128.EncodeUint32(idx))
		}
	}
	return b.Bytes()
}

func encodeDataSection(m *wasm.Module) []byte {
	if m.DataSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.DataSection))))
	for _, d := range m.DataSection {
		b.Write(leb128.EncodeUint32(d.MemoryIdx))
		encodeConstExpr(&b, d.Offset)
		b.Write(leb128.EncodeUint32(uint32(len(d.Init))))
		b.Write(d.Init)
	}
	return b.Bytes()
}

func encodeCodeSection(m *wasm.Module) []byte {
	if m.CodeSection == nil {
		return nil
	}
	var b bytes.Buffer
	b.Write(leb128.EncodeUint32(uint32(len(m.CodeSection))))
	for _, fb := range m.CodeSection {
		var body bytes.Buffer
		body.Write(leb128.EncodeUint32(uint32(len(fb.Locals))))
		for _, l := range fb.Locals {
			body.Write(leb128.EncodeUint32(l.Count))
			body.WriteByte(encodeValueType(l.Type))
		}
		for _, inst := range fb.Body {
			encodeInstruction(&body, inst)
		}
		b.Write(leb128.EncodeUint32(uint32(body.Len())))
		b.Write(body.Bytes())
	}
	return b.Bytes()
}

func writeF32(b *bytes.Buffer, v float32) {
	bits := f32bits(v)
	b.WriteByte(byte(bits))
	b.WriteByte(byte(bits >> 8))
	b.WriteByte(byte(bits >> 16))
	b.WriteByte(byte(bits >> 24))
}

func writeF64(b *bytes.Buffer, v float64) {
	bits := f64bits(v)
	for i := 0; i < 8; i++ {
		b.WriteByte(byte(bits >> (8 * i)))
	}
}

func encodeMemarg(b *bytes.Buffer, m wasm.MemoryArg) {
	b.Write(leb128.EncodeUint32(m.Align))
	b.Write(leb128.EncodeUint32(m.Offset))
}

func encodeBlock(b *bytes.Buffer, blk wasm.Block) {
	if blk.Type.Empty {
		b.WriteByte(0x40)
	} else {
		b.WriteByte(encodeValueType(blk.Type.Result))
	}
	for _, inst := range blk.Then {
		encodeInstruction(b, inst)
	}
	if blk.Else != nil {
		b.WriteByte(byte(wasm.OpcodeElse))
		for _, inst := range blk.Else {
			encodeInstruction(b, inst)
		}
	}
	b.WriteByte(byte(wasm.OpcodeEnd))
}

// encodeInstruction writes one instruction. It mirrors decodeInstruction's
// opcode grouping exactly, so the round trip is symmetric by construction.
func encodeInstruction(b *bytes.Buffer, inst wasm.Instruction) {
	b.WriteByte(byte(inst.Op))

	switch inst.Op {
	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		encodeBlock(b, inst.Block)

	case wasm.OpcodeBr, wasm.OpcodeBrIf, wasm.OpcodeCall, wasm.OpcodeLocalGet, wasm.OpcodeLocalSet,
		wasm.OpcodeLocalTee, wasm.OpcodeGlobalGet, wasm.OpcodeGlobalSet:
		b.Write(leb128.EncodeUint32(inst.Idx))

	case wasm.OpcodeBrTable:
		b.Write(leb128.EncodeUint32(uint32(len(inst.BrTableLabels))))
		for _, l := range inst.BrTableLabels {
			b.Write(leb128.EncodeUint32(l))
		}
		b.Write(leb128.EncodeUint32(inst.BrTableDefault))

	case wasm.OpcodeCallIndirect:
		b.Write(leb128.EncodeUint32(inst.Idx))
		b.Write(leb128.EncodeUint32(inst.Idx2))

	case wasm.OpcodeI32Const:
		b.Write(leb128.EncodeInt32(inst.Const.I32()))
	case wasm.OpcodeI64Const:
		b.Write(leb128.EncodeInt64(inst.Const.I64()))
	case wasm.OpcodeF32Const:
		writeF32(b, inst.Const.F32())
	case wasm.OpcodeF64Const:
		writeF64(b, inst.Const.F64())

	case wasm.OpcodeI32Load, wasm.OpcodeI64Load, wasm.OpcodeF32Load, wasm.OpcodeF64Load,
		wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
		wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
		wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U,
		wasm.OpcodeI32Store, wasm.OpcodeI64Store, wasm.OpcodeF32Store, wasm.OpcodeF64Store,
		wasm.OpcodeI32Store8, wasm.OpcodeI32Store16, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16, wasm.OpcodeI64Store32:
		encodeMemarg(b, inst.Memarg)

	case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow:
		b.WriteByte(0)

	default:
		// no immediate operand
	}
}
