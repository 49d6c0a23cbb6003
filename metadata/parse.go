package metadata

import (
	"github.com/modshim/modshim/errors"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Decode parses a mod module binary into its metadata reference tables.
// It fails with a malformed_module error on truncated or invalid input;
// the error carries the module name and the byte offset of the defect.
func Decode(name string, wasm []byte) (*Module, error) {
	if len(wasm) < len(wasmMagic) {
		return nil, errors.Malformed(name, 0, "shorter than WASM header")
	}
	for i, b := range wasmMagic {
		if wasm[i] != b {
			return nil, errors.Malformed(name, i, "bad magic or version")
		}
	}

	m := &Module{Name: name, raw: wasm}
	d := &decoder{mod: m, data: wasm}

	pos := len(wasmMagic)
	for pos < len(wasm) {
		sectionID := wasm[pos]
		pos++
		size, n := decodeULEB128(wasm[pos:])
		if n == 0 {
			return nil, errors.Malformed(name, pos, "truncated section size")
		}
		pos += n
		end := pos + int(size)
		if end > len(wasm) || end < pos {
			return nil, errors.Malformed(name, pos, "section extends past end of module")
		}

		var err error
		switch sectionID {
		case sectionType:
			err = d.parseTypeSection(wasm[pos:end], pos)
		case sectionImport:
			err = d.parseImportSection(wasm[pos:end], pos)
		}
		if err != nil {
			return nil, err
		}
		pos = end
	}

	return m, nil
}

type decoder struct {
	mod  *Module
	data []byte
}

func (d *decoder) fail(off int, detail string) error {
	return errors.Malformed(d.mod.Name, off, detail)
}

// parseTypeSection fills the module's signature table.
// base is the section payload's offset in the binary, for diagnostics.
func (d *decoder) parseTypeSection(section []byte, base int) error {
	pos := 0
	count, n := decodeULEB128(section)
	if n == 0 {
		return d.fail(base, "truncated type count")
	}
	pos += n

	for i := uint32(0); i < count; i++ {
		if pos >= len(section) || section[pos] != 0x60 {
			return d.fail(base+pos, "expected function type")
		}
		pos++

		sig := Signature{}
		for vec := 0; vec < 2; vec++ {
			arity, n := decodeULEB128(section[pos:])
			if n == 0 {
				return d.fail(base+pos, "truncated type arity")
			}
			pos += n
			if pos+int(arity) > len(section) {
				return d.fail(base+pos, "type vector extends past section")
			}
			for j := uint32(0); j < arity; j++ {
				vt, ok := parseValType(section[pos])
				if !ok {
					return d.fail(base+pos, "unsupported value type")
				}
				pos++
				if vec == 0 {
					sig.Params = append(sig.Params, vt)
				} else {
					sig.Results = append(sig.Results, vt)
				}
			}
		}
		d.mod.Signatures = append(d.mod.Signatures, sig)
	}
	return nil
}

// parseImportSection fills the reference tables and the entry layout used
// for re-encoding.
func (d *decoder) parseImportSection(section []byte, base int) error {
	pos := 0
	count, n := decodeULEB128(section)
	if n == 0 {
		return d.fail(base, "truncated import count")
	}
	pos += n

	seen := make(map[string]bool)
	addType := func(path string) {
		if !seen[path] {
			seen[path] = true
			d.mod.Types = append(d.mod.Types, TypeRef{Path: path})
			d.mod.origTypes = append(d.mod.origTypes, path)
		}
	}

	for i := uint32(0); i < count; i++ {
		module, err := d.readName(section, &pos, base)
		if err != nil {
			return err
		}
		name, err := d.readName(section, &pos, base)
		if err != nil {
			return err
		}
		if pos >= len(section) {
			return d.fail(base+pos, "truncated import kind")
		}
		kind := section[pos]
		pos++

		switch kind {
		case importKindFunc:
			typeIdx, n := decodeULEB128(section[pos:])
			if n == 0 {
				return d.fail(base+pos, "truncated function type index")
			}
			pos += n
			if int(typeIdx) >= len(d.mod.Signatures) {
				return d.fail(base+pos, "function type index out of range")
			}
			d.mod.imports = append(d.mod.imports, importEntry{
				kind: importKindFunc,
				row:  len(d.mod.Methods),
			})
			d.mod.Methods = append(d.mod.Methods, MethodRef{
				Type:      module,
				Name:      name,
				TypeIndex: typeIdx,
				Sig:       d.mod.Signatures[typeIdx],
			})
			addType(module)

		case importKindGlobal:
			if pos+2 > len(section) {
				return d.fail(base+pos, "truncated global descriptor")
			}
			vt, ok := parseValType(section[pos])
			if !ok {
				return d.fail(base+pos, "unsupported global value type")
			}
			mutable := section[pos+1] == 0x01
			pos += 2
			d.mod.imports = append(d.mod.imports, importEntry{
				kind: importKindGlobal,
				row:  len(d.mod.Fields),
			})
			d.mod.Fields = append(d.mod.Fields, FieldRef{
				Type:    module,
				Name:    name,
				ValType: vt,
				Mutable: mutable,
			})
			addType(module)

		case importKindTable, importKindMemory:
			desc, err := d.readEnvDescriptor(section, &pos, base, kind)
			if err != nil {
				return err
			}
			d.mod.imports = append(d.mod.imports, importEntry{
				kind:   kind,
				row:    -1,
				module: module,
				name:   name,
				desc:   desc,
			})
			addType(module)

		default:
			return d.fail(base+pos-1, "unknown import kind")
		}
	}
	return nil
}

func (d *decoder) readName(section []byte, pos *int, base int) (string, error) {
	length, n := decodeULEB128(section[*pos:])
	if n == 0 {
		return "", d.fail(base+*pos, "truncated name length")
	}
	*pos += n
	end := *pos + int(length)
	if end > len(section) {
		return "", d.fail(base+*pos, "name extends past section")
	}
	name := string(section[*pos:end])
	*pos = end
	return name, nil
}

// readEnvDescriptor captures a table or memory descriptor verbatim.
// Tables carry a reftype byte before the limits; memories carry limits only.
func (d *decoder) readEnvDescriptor(section []byte, pos *int, base int, kind byte) ([]byte, error) {
	start := *pos
	if kind == importKindTable {
		if *pos >= len(section) {
			return nil, d.fail(base+*pos, "truncated table descriptor")
		}
		*pos++
	}
	if *pos >= len(section) {
		return nil, d.fail(base+*pos, "truncated limits")
	}
	flags := section[*pos]
	*pos++
	_, n := decodeULEB128(section[*pos:])
	if n == 0 {
		return nil, d.fail(base+*pos, "truncated limits minimum")
	}
	*pos += n
	if flags&0x01 != 0 {
		_, n := decodeULEB128(section[*pos:])
		if n == 0 {
			return nil, d.fail(base+*pos, "truncated limits maximum")
		}
		*pos += n
	}
	return section[start:*pos], nil
}
