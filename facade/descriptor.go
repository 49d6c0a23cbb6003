package facade

import (
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/metadata"
)

// PathPrefix marks facade module paths. References already pointing into
// this namespace are never rewritten again, which is what makes rewriting
// idempotent.
const PathPrefix = "compat:"

// ConstructorExport is the reserved name of the trapping constructor every
// facade module carries.
const ConstructorExport = "__ctor"

// IsFacadePath reports whether a declaring-type path points into the facade
// namespace.
func IsFacadePath(path string) bool {
	return strings.HasPrefix(path, PathPrefix)
}

// MethodForward reproduces one old method on the facade by forwarding to a
// member of the current host API. The exported signature is the old one;
// the host target must share it, so the mod's call sites stay valid.
type MethodForward struct {
	Name       string // member name exported by the facade
	Sig        metadata.Signature
	HostModule string // current-host import satisfying the forward
	HostName   string
}

// FieldForward reproduces one old public field. When the host merely
// renamed the field, the facade re-exports the host global under the old
// name. When the host replaced the field with an accessor, the facade
// exports a constant-initialized global of the old shape (so the mod's
// global import still binds) plus an accessor forward named
// "get_<name>_compat" for the live value.
type FieldForward struct {
	Name    string
	ValType api.ValueType
	Mutable bool

	// Renamed-field case: host global to re-export.
	HostModule string
	HostName   string

	// Replaced-field case: accessor to forward to, and the structural
	// default the exported global carries.
	AccessorModule string
	AccessorName   string
	Default        int64
}

// Conversion reproduces an old implicit-conversion member as a pure
// function over the value's representation, returning the same observable
// value the original API produced.
type Conversion struct {
	Name    string
	ValType api.ValueType
}

// Descriptor declares one facade: the old type shape it stands in for, the
// facade module implementing it, and the host-version range in which the
// facade bridges.
type Descriptor struct {
	OriginalType string // e.g. "host:sim/foo@1.0.0"
	FacadeModule string // e.g. "compat:sim/foo"
	Applies      hostapi.VersionRange
	Methods      []MethodForward
	Fields       []FieldForward
	Conversions  []Conversion
}

// AccessorExport returns the export name of the live accessor for a
// replaced field.
func (f FieldForward) AccessorExport() string {
	return "get_" + f.Name + "_compat"
}

// Synthesize emits the facade's module binary: host imports, forwarding
// bodies, field re-exports, conversion functions, and the trapping
// constructor.
func (d *Descriptor) Synthesize() []byte {
	b := metadata.NewBuilder()

	for _, m := range d.Methods {
		target := b.ImportFunc(m.HostModule, m.HostName, m.Sig)
		b.ExportForward(m.Name, m.Sig, target)
	}

	for _, f := range d.Fields {
		if f.HostModule != "" {
			b.ReexportGlobal(f.HostModule, f.HostName, f.Name, f.ValType, f.Mutable)
			continue
		}
		accessorSig := metadata.Signature{Results: []api.ValueType{f.ValType}}
		target := b.ImportFunc(f.AccessorModule, f.AccessorName, accessorSig)
		b.ExportForward(f.AccessorExport(), accessorSig, target)
		b.ExportGlobal(f.Name, f.ValType, f.Mutable, f.Default)
	}

	for _, c := range d.Conversions {
		b.ExportIdentity(c.Name, c.ValType)
	}

	b.ExportTrap(ConstructorExport, metadata.Signature{})

	return b.Build()
}
