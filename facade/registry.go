package facade

import (
	"github.com/coreos/go-semver/semver"

	"github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/hostapi"
)

// Registry holds every facade descriptor the process knows about.
// Lifecycle: NewRegistry -> Add -> Freeze -> concurrent reads. Adding after
// Freeze panics; the registry must be published before any rewrite pass
// starts and never mutated afterwards.
type Registry struct {
	byFacade map[string]*Descriptor
	byOrigin map[string][]*Descriptor
	frozen   bool
}

// NewRegistry creates an empty facade registry.
func NewRegistry() *Registry {
	return &Registry{
		byFacade: make(map[string]*Descriptor),
		byOrigin: make(map[string][]*Descriptor),
	}
}

// Add registers a descriptor. It rejects facade paths outside the compat
// namespace, duplicate facade modules, and descriptors whose version ranges
// overlap for the same original type.
func (r *Registry) Add(d *Descriptor) error {
	if r.frozen {
		panic(errors.Frozen(errors.PhaseFacade, "facade registry"))
	}
	if !IsFacadePath(d.FacadeModule) {
		return errors.New(errors.PhaseFacade, errors.KindInvalidInput).
			Detail("facade module %q outside %q namespace", d.FacadeModule, PathPrefix).
			Build()
	}
	if _, dup := r.byFacade[d.FacadeModule]; dup {
		return errors.New(errors.PhaseFacade, errors.KindDuplicate).
			Detail("facade module %q already registered", d.FacadeModule).
			Build()
	}
	for _, prev := range r.byOrigin[d.OriginalType] {
		if rangesOverlap(prev.Applies, d.Applies) {
			return errors.New(errors.PhaseFacade, errors.KindDuplicate).
				Detail("facades %q and %q both cover %s for versions %s",
					prev.FacadeModule, d.FacadeModule, d.OriginalType, d.Applies).
				Build()
		}
	}

	r.byFacade[d.FacadeModule] = d
	r.byOrigin[d.OriginalType] = append(r.byOrigin[d.OriginalType], d)
	return nil
}

// Freeze marks the registry read-only.
func (r *Registry) Freeze() *Registry {
	r.frozen = true
	return r
}

// Lookup returns the descriptor for a facade module path, or nil.
func (r *Registry) Lookup(facadeModule string) *Descriptor {
	return r.byFacade[facadeModule]
}

// ForType returns the descriptor bridging originalType at the given host
// version, or nil if none applies.
func (r *Registry) ForType(originalType string, hostVersion *semver.Version) *Descriptor {
	for _, d := range r.byOrigin[originalType] {
		if d.Applies.Contains(hostVersion) {
			return d
		}
	}
	return nil
}

// Descriptors returns every registered descriptor, for synthesis by the
// loader. Order is unspecified.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.byFacade))
	for _, d := range r.byFacade {
		out = append(out, d)
	}
	return out
}

// rangesOverlap reports whether two half-open ranges share any version.
func rangesOverlap(a, b hostapi.VersionRange) bool {
	aEndsBeforeB := a.To != nil && !b.From.LessThan(*a.To)
	bEndsBeforeA := b.To != nil && !a.From.LessThan(*b.To)
	return !aEndsBeforeB && !bEndsBeforeA
}
