package hostapi

import (
	"github.com/coreos/go-semver/semver"
	"github.com/tetratelabs/wazero/api"

	"github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/metadata"
)

// Surface is the host's exported API at one version.
// Lifecycle: New -> AddMethod/AddField -> Freeze -> concurrent reads.
type Surface struct {
	version *semver.Version
	methods map[string]metadata.Signature
	fields  map[string]fieldShape
	types   map[string]bool
	frozen  bool
}

type fieldShape struct {
	valType api.ValueType
	mutable bool
}

func memberKey(typePath, name string) string {
	return typePath + "::" + name
}

// New creates an empty surface for the given host version string.
func New(version string) (*Surface, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, errors.BadVersion(errors.PhaseMatch, version, err)
	}
	return &Surface{
		version: v,
		methods: make(map[string]metadata.Signature),
		fields:  make(map[string]fieldShape),
		types:   make(map[string]bool),
	}, nil
}

// Version returns the host version the surface describes.
func (s *Surface) Version() *semver.Version {
	return s.version
}

// AddMethod registers an exported host method.
// AddMethod panics if called after Freeze.
func (s *Surface) AddMethod(typePath, name string, sig metadata.Signature) {
	s.mustBeMutable()
	s.methods[memberKey(typePath, name)] = sig
	s.types[typePath] = true
}

// AddField registers an exported host field.
// AddField panics if called after Freeze.
func (s *Surface) AddField(typePath, name string, valType api.ValueType, mutable bool) {
	s.mustBeMutable()
	s.fields[memberKey(typePath, name)] = fieldShape{valType: valType, mutable: mutable}
	s.types[typePath] = true
}

// Freeze marks the surface read-only. It must be called before the surface
// is shared with rewrite passes.
func (s *Surface) Freeze() *Surface {
	s.frozen = true
	return s
}

func (s *Surface) mustBeMutable() {
	if s.frozen {
		panic(errors.Frozen(errors.PhaseMatch, "host surface"))
	}
}

// ResolveType reports whether the declaring-type path exists at the current
// host version.
func (s *Surface) ResolveType(ref metadata.TypeRef) bool {
	return s.types[ref.Path]
}

// ResolveMethod reports whether the reference binds against the current
// host: same declaring type, member name, and an identical signature.
func (s *Surface) ResolveMethod(ref metadata.MethodRef) bool {
	sig, ok := s.methods[memberKey(ref.Type, ref.Name)]
	return ok && sig.Equal(ref.Sig)
}

// ResolveField reports whether the reference binds against the current
// host: same declaring type, member name, value type, and mutability.
func (s *Surface) ResolveField(ref metadata.FieldRef) bool {
	shape, ok := s.fields[memberKey(ref.Type, ref.Name)]
	return ok && shape.valType == ref.ValType && shape.mutable == ref.Mutable
}
