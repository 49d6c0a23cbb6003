package rewrite

import (
	"github.com/modshim/modshim/facade"
	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/metadata"
)

// MatchResult classifies the matcher's decision for one reference.
type MatchResult int

const (
	// MatchNone means the reference needs no rewrite: it already resolves
	// against the current host or already points into a facade.
	MatchNone MatchResult = iota
	// MatchRule means a rule applies.
	MatchRule
	// MatchUnresolved means the reference is broken and no rule covers it.
	// The caller records it; matching never raises.
	MatchUnresolved
)

// Matcher decides, per reference, whether a rewrite is needed and which
// rule applies. It holds only read-only state and is safe for concurrent
// use by independent passes.
type Matcher struct {
	rules   *RuleSet
	surface *hostapi.Surface
}

// NewMatcher creates a matcher over a built rule set and a frozen host
// surface.
func NewMatcher(rules *RuleSet, surface *hostapi.Surface) *Matcher {
	return &Matcher{rules: rules, surface: surface}
}

// MatchMethod matches one method reference.
//
// Precedence, in order: references already inside the facade namespace are
// skipped (idempotence); references resolving against the current host are
// skipped (conservatism); otherwise the most specific applicable rule wins,
// exact signature over member name over type only. Build-time validation
// guarantees no tie at equal specificity.
func (m *Matcher) MatchMethod(ref metadata.MethodRef) (*Rule, MatchResult) {
	if facade.IsFacadePath(ref.Type) {
		return nil, MatchNone
	}
	if m.surface.ResolveMethod(ref) {
		return nil, MatchNone
	}
	for _, r := range m.rules.candidates(ref.Type, RefMethod, m.surface.Version()) {
		switch {
		case r.Sig != nil:
			if r.Member == ref.Name && r.Sig.Equal(ref.Sig) {
				return r, MatchRule
			}
		case r.Member != "":
			if r.Member == ref.Name {
				return r, MatchRule
			}
		default:
			return r, MatchRule
		}
	}
	return nil, MatchUnresolved
}

// MatchField matches one field reference. Field keys have no signature
// dimension; precedence is member name over type only.
func (m *Matcher) MatchField(ref metadata.FieldRef) (*Rule, MatchResult) {
	if facade.IsFacadePath(ref.Type) {
		return nil, MatchNone
	}
	if m.surface.ResolveField(ref) {
		return nil, MatchNone
	}
	for _, r := range m.rules.candidates(ref.Type, RefField, m.surface.Version()) {
		if r.Sig != nil {
			continue // signature rules never cover fields
		}
		if r.Member == "" || r.Member == ref.Name {
			return r, MatchRule
		}
	}
	return nil, MatchUnresolved
}

// MatchType matches one type reference. Only type-only rules rewrite the
// Types table. A stale type whose members are bridged by member-level rules
// is considered covered, not unresolved; unresolved is reserved for types
// the catalog knows nothing about.
func (m *Matcher) MatchType(ref metadata.TypeRef) (*Rule, MatchResult) {
	if facade.IsFacadePath(ref.Path) {
		return nil, MatchNone
	}
	if m.surface.ResolveType(ref) {
		return nil, MatchNone
	}
	for _, r := range m.rules.candidates(ref.Path, RefType, m.surface.Version()) {
		if r.Member == "" {
			return r, MatchRule
		}
	}
	if m.rules.hasRulesFor(ref.Path, m.surface.Version()) {
		return nil, MatchNone
	}
	return nil, MatchUnresolved
}
