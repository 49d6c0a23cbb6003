package metadata

// Encode re-emits the module binary. Every section is copied verbatim from
// the decoded bytes except the import section, which is rebuilt from the
// current reference tables. A module whose tables were never mutated
// round-trips byte-identical.
func (m *Module) Encode() []byte {
	if len(m.imports) == 0 {
		out := make([]byte, len(m.raw))
		copy(out, m.raw)
		return out
	}

	importSection := m.buildImportSection()

	out := make([]byte, 0, len(m.raw)+32)
	out = append(out, m.raw[:len(wasmMagic)]...)

	pos := len(wasmMagic)
	for pos < len(m.raw) {
		sectionID := m.raw[pos]
		pos++
		size, n := decodeULEB128(m.raw[pos:])
		sizeBytes := m.raw[pos : pos+n]
		pos += n
		end := pos + int(size)
		if end > len(m.raw) {
			end = len(m.raw)
		}

		if sectionID == sectionImport {
			out = append(out, sectionID)
			out = appendULEB128(out, uint32(len(importSection)))
			out = append(out, importSection...)
		} else {
			out = append(out, sectionID)
			out = append(out, sizeBytes...)
			out = append(out, m.raw[pos:end]...)
		}
		pos = end
	}

	return out
}

func (m *Module) buildImportSection() []byte {
	remap := m.typeRemap()

	section := appendULEB128(nil, uint32(len(m.imports)))
	for _, entry := range m.imports {
		switch entry.kind {
		case importKindFunc:
			ref := m.Methods[entry.row]
			section = appendName(section, ref.Type)
			section = appendName(section, ref.Name)
			section = append(section, importKindFunc)
			section = appendULEB128(section, ref.TypeIndex)

		case importKindGlobal:
			ref := m.Fields[entry.row]
			section = appendName(section, ref.Type)
			section = appendName(section, ref.Name)
			section = append(section, importKindGlobal)
			section = append(section, valTypeToWasm(ref.ValType))
			if ref.Mutable {
				section = append(section, 0x01)
			} else {
				section = append(section, 0x00)
			}

		default: // table, memory: pass through, honoring type retargets
			module := entry.module
			if to, ok := remap[module]; ok {
				module = to
			}
			section = appendName(section, module)
			section = appendName(section, entry.name)
			section = append(section, entry.kind)
			section = append(section, entry.desc...)
		}
	}
	return section
}
