package metadata

import (
	"github.com/tetratelabs/wazero/api"
)

// Builder synthesizes mod module binaries: facade modules with forwarding
// bodies, and fixtures for tests. Function bodies are limited to the shapes
// a facade needs (forward to an import, return a constant, return the first
// argument, or trap).
type Builder struct {
	sigs          []Signature
	funcImports   []builderImport
	globalImports []builderImport
	localFuncs    []builderFunc
	localGlobals  []builderGlobal
	exports       []builderExport
}

type builderImport struct {
	module  string
	name    string
	typeIdx uint32        // funcs
	valType api.ValueType // globals
	mutable bool
}

type bodyKind int

const (
	bodyForward bodyKind = iota
	bodyTrap
	bodyIdentity
	bodyConst
)

type builderFunc struct {
	typeIdx    uint32
	kind       bodyKind
	callTarget uint32 // bodyForward: function index to call
	constVal   int64  // bodyConst
}

type builderGlobal struct {
	valType api.ValueType
	mutable bool
	init    int64
}

// builderExport records what is exported; indices into the final index
// spaces are resolved at Build time, after all imports are known.
type builderExport struct {
	name      string
	kind      byte
	importIdx int // index among imports of this kind, or -1
	localOrd  int // ordinal among local funcs/globals, or -1
}

// FuncIndex identifies a function in the module's function index space.
type FuncIndex uint32

// NewBuilder creates an empty module builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) sigIndex(sig Signature) uint32 {
	for i, s := range b.sigs {
		if s.Equal(sig) {
			return uint32(i)
		}
	}
	b.sigs = append(b.sigs, sig)
	return uint32(len(b.sigs) - 1)
}

// ImportFunc declares a function import and returns its index in the
// function index space. Imports must be declared before local functions.
func (b *Builder) ImportFunc(module, name string, sig Signature) FuncIndex {
	b.funcImports = append(b.funcImports, builderImport{
		module:  module,
		name:    name,
		typeIdx: b.sigIndex(sig),
	})
	return FuncIndex(len(b.funcImports) - 1)
}

// ImportGlobal declares a global import.
func (b *Builder) ImportGlobal(module, name string, valType api.ValueType, mutable bool) {
	b.globalImports = append(b.globalImports, builderImport{
		module:  module,
		name:    name,
		valType: valType,
		mutable: mutable,
	})
}

// ReexportGlobal declares a global import and exports it under exportName.
// Facades use this to surface a renamed host field under its old name.
func (b *Builder) ReexportGlobal(module, name, exportName string, valType api.ValueType, mutable bool) {
	b.ImportGlobal(module, name, valType, mutable)
	b.exports = append(b.exports, builderExport{
		name:      exportName,
		kind:      importKindGlobal,
		importIdx: len(b.globalImports) - 1,
		localOrd:  -1,
	})
}

// ExportForward defines a function that forwards all arguments to target
// and exports it. The exported signature must match the target's.
func (b *Builder) ExportForward(exportName string, sig Signature, target FuncIndex) {
	b.addLocalFunc(exportName, builderFunc{
		typeIdx:    b.sigIndex(sig),
		kind:       bodyForward,
		callTarget: uint32(target),
	})
}

// ExportTrap defines a function whose body traps unconditionally and
// exports it. Facade constructors are defined this way.
func (b *Builder) ExportTrap(exportName string, sig Signature) {
	b.addLocalFunc(exportName, builderFunc{
		typeIdx: b.sigIndex(sig),
		kind:    bodyTrap,
	})
}

// ExportIdentity defines a single-argument function returning its argument
// unchanged. Facades use this for value-coercion members whose observable
// result equals the input representation.
func (b *Builder) ExportIdentity(exportName string, valType api.ValueType) {
	b.addLocalFunc(exportName, builderFunc{
		typeIdx: b.sigIndex(Signature{
			Params:  []api.ValueType{valType},
			Results: []api.ValueType{valType},
		}),
		kind: bodyIdentity,
	})
}

// ExportConst defines a nullary function returning a constant. Only i32 and
// i64 results are supported.
func (b *Builder) ExportConst(exportName string, valType api.ValueType, value int64) {
	b.addLocalFunc(exportName, builderFunc{
		typeIdx:  b.sigIndex(Signature{Results: []api.ValueType{valType}}),
		kind:     bodyConst,
		constVal: value,
	})
}

// ExportGlobal defines a local global with a constant initializer and
// exports it. Only i32 and i64 globals are supported.
func (b *Builder) ExportGlobal(exportName string, valType api.ValueType, mutable bool, init int64) {
	b.localGlobals = append(b.localGlobals, builderGlobal{
		valType: valType,
		mutable: mutable,
		init:    init,
	})
	b.exports = append(b.exports, builderExport{
		name:      exportName,
		kind:      importKindGlobal,
		importIdx: -1,
		localOrd:  len(b.localGlobals) - 1,
	})
}

func (b *Builder) addLocalFunc(exportName string, fn builderFunc) {
	b.localFuncs = append(b.localFuncs, fn)
	b.exports = append(b.exports, builderExport{
		name:      exportName,
		kind:      importKindFunc,
		importIdx: -1,
		localOrd:  len(b.localFuncs) - 1,
	})
}

// Build emits the module binary.
func (b *Builder) Build() []byte {
	wasm := append([]byte(nil), wasmMagic...)

	if len(b.sigs) > 0 {
		wasm = b.appendSection(wasm, sectionType, b.buildTypeSection())
	}
	if len(b.funcImports)+len(b.globalImports) > 0 {
		wasm = b.appendSection(wasm, sectionImport, b.buildImports())
	}
	if len(b.localFuncs) > 0 {
		wasm = b.appendSection(wasm, 0x03, b.buildFuncSection())
	}
	if len(b.localGlobals) > 0 {
		wasm = b.appendSection(wasm, 0x06, b.buildGlobalSection())
	}
	if len(b.exports) > 0 {
		wasm = b.appendSection(wasm, 0x07, b.buildExportSection())
	}
	if len(b.localFuncs) > 0 {
		wasm = b.appendSection(wasm, 0x0a, b.buildCodeSection())
	}

	return wasm
}

func (b *Builder) appendSection(wasm []byte, id byte, payload []byte) []byte {
	wasm = append(wasm, id)
	wasm = appendULEB128(wasm, uint32(len(payload)))
	return append(wasm, payload...)
}

func (b *Builder) buildTypeSection() []byte {
	section := appendULEB128(nil, uint32(len(b.sigs)))
	for _, sig := range b.sigs {
		section = append(section, 0x60)
		section = appendULEB128(section, uint32(len(sig.Params)))
		for _, t := range sig.Params {
			section = append(section, valTypeToWasm(t))
		}
		section = appendULEB128(section, uint32(len(sig.Results)))
		for _, t := range sig.Results {
			section = append(section, valTypeToWasm(t))
		}
	}
	return section
}

func (b *Builder) buildImports() []byte {
	section := appendULEB128(nil, uint32(len(b.funcImports)+len(b.globalImports)))
	for _, imp := range b.funcImports {
		section = appendName(section, imp.module)
		section = appendName(section, imp.name)
		section = append(section, importKindFunc)
		section = appendULEB128(section, imp.typeIdx)
	}
	for _, imp := range b.globalImports {
		section = appendName(section, imp.module)
		section = appendName(section, imp.name)
		section = append(section, importKindGlobal)
		section = append(section, valTypeToWasm(imp.valType))
		if imp.mutable {
			section = append(section, 0x01)
		} else {
			section = append(section, 0x00)
		}
	}
	return section
}

func (b *Builder) buildFuncSection() []byte {
	section := appendULEB128(nil, uint32(len(b.localFuncs)))
	for _, fn := range b.localFuncs {
		section = appendULEB128(section, fn.typeIdx)
	}
	return section
}

func (b *Builder) buildGlobalSection() []byte {
	section := appendULEB128(nil, uint32(len(b.localGlobals)))
	for _, g := range b.localGlobals {
		section = append(section, valTypeToWasm(g.valType))
		if g.mutable {
			section = append(section, 0x01)
		} else {
			section = append(section, 0x00)
		}
		section = appendConstExpr(section, g.valType, g.init)
	}
	return section
}

func (b *Builder) buildExportSection() []byte {
	section := appendULEB128(nil, uint32(len(b.exports)))
	for _, exp := range b.exports {
		section = appendName(section, exp.name)
		section = append(section, exp.kind)

		var index int
		switch {
		case exp.importIdx >= 0:
			index = exp.importIdx
		case exp.kind == importKindFunc:
			index = len(b.funcImports) + exp.localOrd
		default:
			index = len(b.globalImports) + exp.localOrd
		}
		section = appendULEB128(section, uint32(index))
	}
	return section
}

func (b *Builder) buildCodeSection() []byte {
	section := appendULEB128(nil, uint32(len(b.localFuncs)))
	for _, fn := range b.localFuncs {
		body := []byte{0x00} // no local declarations
		switch fn.kind {
		case bodyForward:
			sig := b.sigs[fn.typeIdx]
			for i := range sig.Params {
				body = append(body, 0x20) // local.get
				body = appendULEB128(body, uint32(i))
			}
			body = append(body, 0x10) // call
			body = appendULEB128(body, fn.callTarget)
		case bodyTrap:
			body = append(body, 0x00) // unreachable
		case bodyIdentity:
			body = append(body, 0x20, 0x00) // local.get 0
		case bodyConst:
			sig := b.sigs[fn.typeIdx]
			if sig.Results[0] == api.ValueTypeI64 {
				body = append(body, 0x42)
			} else {
				body = append(body, 0x41)
			}
			body = appendSLEB128(body, fn.constVal)
		}
		body = append(body, 0x0b) // end
		section = appendULEB128(section, uint32(len(body)))
		section = append(section, body...)
	}
	return section
}

// appendConstExpr appends "iNN.const <v>, end".
func appendConstExpr(dst []byte, t api.ValueType, v int64) []byte {
	if t == api.ValueTypeI64 {
		dst = append(dst, 0x42)
	} else {
		dst = append(dst, 0x41)
	}
	dst = appendSLEB128(dst, v)
	return append(dst, 0x0b)
}
