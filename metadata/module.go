package metadata

import (
	"strings"

	"github.com/tetratelabs/wazero/api"
)

// Signature is a function signature as seen by the mod's call sites.
type Signature struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Equal reports whether two signatures have identical param and result types.
func (s Signature) Equal(o Signature) bool {
	if len(s.Params) != len(o.Params) || len(s.Results) != len(o.Results) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range s.Results {
		if s.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// String renders the signature as "(i32, i64) -> (i32)".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, t := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ValTypeName(t))
	}
	b.WriteString(") -> (")
	for i, t := range s.Results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ValTypeName(t))
	}
	b.WriteByte(')')
	return b.String()
}

// TypeRef is a reference to a host type: a declaring-type path with an
// optional embedded version tag, e.g. "host:sim/actor@1.0.0".
type TypeRef struct {
	Path string
}

// Base returns the path without its version tag.
func (t TypeRef) Base() string {
	if i := strings.LastIndexByte(t.Path, '@'); i >= 0 {
		return t.Path[:i]
	}
	return t.Path
}

// VersionTag returns the embedded version, or "" if the path is unversioned.
func (t TypeRef) VersionTag() string {
	if i := strings.LastIndexByte(t.Path, '@'); i >= 0 {
		return t.Path[i+1:]
	}
	return ""
}

// MethodRef is a reference to a host method: a function import.
// Values are immutable; a rewrite replaces the whole table entry.
type MethodRef struct {
	Type      string // declaring-type path
	Name      string // member name
	TypeIndex uint32 // index into the module's signature table
	Sig       Signature
}

// String renders the reference as "type::name".
func (m MethodRef) String() string {
	return m.Type + "::" + m.Name
}

// FieldRef is a reference to a host field: a global import.
type FieldRef struct {
	Type    string
	Name    string
	ValType api.ValueType
	Mutable bool
}

// String renders the reference as "type::name".
func (f FieldRef) String() string {
	return f.Type + "::" + f.Name
}

// importEntry preserves the import-section layout for re-encoding.
// Function and global entries point into the Methods/Fields tables; table
// and memory entries keep their raw descriptor bytes for pass-through.
type importEntry struct {
	kind   byte
	row    int    // index into Methods or Fields; -1 for table/memory
	module string // table/memory only; funcs and globals read their row
	name   string
	desc   []byte
}

// Module is one mod's decoded metadata. It is owned by a single rewrite
// pass for the duration of that pass and must not be shared between
// concurrent passes.
type Module struct {
	Name string

	// Signatures is the module's function signature table (type section).
	Signatures []Signature

	// Types, Methods, and Fields are the mutable reference tables a rewrite
	// pass operates on.
	Types   []TypeRef
	Methods []MethodRef
	Fields  []FieldRef

	raw       []byte
	imports   []importEntry
	origTypes []string // declaring-type paths as decoded, parallel to Types
}

// Raw returns the original binary the module was decoded from.
func (m *Module) Raw() []byte {
	return m.raw
}

// RefCount returns the total number of references across all three tables.
func (m *Module) RefCount() int {
	return len(m.Types) + len(m.Methods) + len(m.Fields)
}

// Clone returns a deep copy of the module. A rewrite pass mutates the copy
// and hands it back only once the pass completes, so a failed pass never
// leaves a half-rewritten module behind.
func (m *Module) Clone() *Module {
	out := &Module{
		Name:       m.Name,
		Signatures: make([]Signature, len(m.Signatures)),
		Types:      append([]TypeRef(nil), m.Types...),
		Methods:    append([]MethodRef(nil), m.Methods...),
		Fields:     append([]FieldRef(nil), m.Fields...),
		raw:        m.raw,
		imports:    append([]importEntry(nil), m.imports...),
		origTypes:  append([]string(nil), m.origTypes...),
	}
	copy(out.Signatures, m.Signatures)
	return out
}

// typeRemap returns declaring-type paths rewritten since decode, keyed by
// the original path. Used by Encode to retarget imports that carry a type
// path but no member row (tables, memories).
func (m *Module) typeRemap() map[string]string {
	var remap map[string]string
	for i, orig := range m.origTypes {
		if i < len(m.Types) && m.Types[i].Path != orig {
			if remap == nil {
				remap = make(map[string]string)
			}
			remap[orig] = m.Types[i].Path
		}
	}
	return remap
}
