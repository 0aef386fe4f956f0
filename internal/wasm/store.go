package wasm

import "fmt"

// Instantiate links a decoded Module against an Importer, allocating
// concrete function/table/memory/global instances and building the export
// namespace. It performs no validation beyond what decoding already did;
// callers that need static validation must run it separately.
//
// Grounded on chibiwasm's execution/store.rs Store::new and
// execution/module.rs ModuleInst::allocate.
func Instantiate(m *Module, importer Importer, memoryMaxPages uint32) (*ModuleInst, error) {
	inst := &ModuleInst{
		Types:   m.TypeSection,
		Exports: map[string]ExportInst{},
	}

	if err := instantiateImports(m, importer, inst); err != nil {
		return nil, err
	}
	if err := instantiateFuncs(m, inst); err != nil {
		return nil, err
	}
	if err := instantiateTables(m, inst); err != nil {
		return nil, err
	}
	if err := instantiateMemories(m, inst, memoryMaxPages); err != nil {
		return nil, err
	}
	if err := instantiateGlobals(m, inst); err != nil {
		return nil, err
	}
	instantiateExports(m, inst)

	return inst, nil
}

func instantiateImports(m *Module, importer Importer, inst *ModuleInst) error {
	for _, imp := range m.ImportSection {
		switch imp.Kind {
		case ImportKindFunc:
			if int(imp.TypeIdx) >= len(m.TypeSection) {
				return fmt.Errorf("wasm: import %s.%s: type index %d out of range", imp.Module, imp.Field, imp.TypeIdx)
			}
			sig := m.TypeSection[imp.TypeIdx]
			if importer == nil {
				return fmt.Errorf("wasm: import %s.%s: no importer configured", imp.Module, imp.Field)
			}
			f, err := importer.ResolveFunc(imp.Module, imp.Field, sig)
			if err != nil {
				return fmt.Errorf("wasm: resolving import %s.%s: %w", imp.Module, imp.Field, err)
			}
			inst.Funcs = append(inst.Funcs, f)
		case ImportKindTable:
			t, err := importer.ResolveTable(imp.Module, imp.Field)
			if err != nil {
				return fmt.Errorf("wasm: resolving import %s.%s: %w", imp.Module, imp.Field, err)
			}
			inst.Tables = append(inst.Tables, t)
		case ImportKindMemory:
			mem, err := importer.ResolveMemory(imp.Module, imp.Field)
			if err != nil {
				return fmt.Errorf("wasm: resolving import %s.%s: %w", imp.Module, imp.Field, err)
			}
			inst.Mems = append(inst.Mems, mem)
		case ImportKindGlobal:
			g, err := importer.ResolveGlobal(imp.Module, imp.Field)
			if err != nil {
				return fmt.Errorf("wasm: resolving import %s.%s: %w", imp.Module, imp.Field, err)
			}
			inst.Globals = append(inst.Globals, g)
		}
	}
	return nil
}

func instantiateFuncs(m *Module, inst *ModuleInst) error {
	for i, typeIdx := range m.FunctionSection {
		if int(typeIdx) >= len(m.TypeSection) {
			return fmt.Errorf("wasm: function %d: type index %d out of range", i, typeIdx)
		}
		if i >= len(m.CodeSection) {
			return fmt.Errorf("wasm: function %d: missing code section entry", i)
		}
		body := m.CodeSection[i]
		inst.Funcs = append(inst.Funcs, &FuncInst{Internal: &InternalFunc{
			Type:   m.TypeSection[typeIdx],
			Locals: body.ExpandedLocals(),
			Body:   body.Body,
		}})
	}
	return nil
}

func instantiateTables(m *Module, inst *ModuleInst) error {
	hasElements := make([]bool, len(m.TableSection))
	for _, el := range m.ElementSection {
		if int(el.TableIdx) < len(hasElements) {
			hasElements[el.TableIdx] = true
		}
	}

	for i, t := range m.TableSection {
		// A table with an element segment is sized to its declared max (an
		// element segment can write anywhere up to the table's capacity,
		// not just its initial min); one with no element segment only
		// needs min slots.
		size := t.Limits.Min
		if hasElements[i] && t.Limits.Max != nil {
			size = *t.Limits.Max
		}
		elems := make([]*FuncInst, size)
		inst.Tables = append(inst.Tables, &TableInst{Elements: elems, Max: t.Limits.Max})
	}
	for _, el := range m.ElementSection {
		if int(el.TableIdx) >= len(inst.Tables) {
			return fmt.Errorf("wasm: element segment: table index %d out of range", el.TableIdx)
		}
		table := inst.Tables[el.TableIdx]
		offset := int(el.Offset.Value.I32())
		for i, funcIdx := range el.Init {
			pos := offset + i
			if pos < 0 || pos >= len(table.Elements) {
				return fmt.Errorf("wasm: element segment: offset+index %d exceeds table size", pos)
			}
			if int(funcIdx) >= len(inst.Funcs) {
				return fmt.Errorf("wasm: element segment: function index %d out of range", funcIdx)
			}
			table.Elements[pos] = inst.Funcs[funcIdx]
		}
	}
	return nil
}

// instantiateMemories allocates each declared memory, clamping its
// effective max to memoryMaxPages: a module that declares no max gets
// memoryMaxPages as its ceiling, and one that declares a larger max than
// the runtime allows is clamped down to it.
func instantiateMemories(m *Module, inst *ModuleInst, memoryMaxPages uint32) error {
	for _, mem := range m.MemorySection {
		data := make([]byte, uint64(mem.Limits.Min)*PageSize)
		max := memoryMaxPages
		if mem.Limits.Max != nil && *mem.Limits.Max < max {
			max = *mem.Limits.Max
		}
		inst.Mems = append(inst.Mems, &MemoryInst{Data: data, Max: &max})
	}
	for _, d := range m.DataSection {
		if int(d.MemoryIdx) >= len(inst.Mems) {
			return fmt.Errorf("wasm: data segment: memory index %d out of range", d.MemoryIdx)
		}
		mem := inst.Mems[d.MemoryIdx]
		offset := int(d.Offset.Value.I32())
		if offset < 0 || offset+len(d.Init) > len(mem.Data) {
			return fmt.Errorf("wasm: data segment: does not fit in memory")
		}
		copy(mem.Data[offset:], d.Init)
	}
	return nil
}

func instantiateGlobals(m *Module, inst *ModuleInst) error {
	for _, g := range m.GlobalSection {
		inst.Globals = append(inst.Globals, &GlobalInst{Value: g.Init.Value, Mutability: g.Type.Mutability})
	}
	return nil
}

func instantiateExports(m *Module, inst *ModuleInst) {
	for _, e := range m.ExportSection {
		inst.Exports[e.Name] = ExportInst{Name: e.Name, Val: ExternalVal{Type: e.Desc.Type, Idx: e.Desc.Idx}}
	}
}
