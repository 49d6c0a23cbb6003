package rewrite

import (
	"fmt"
	"sort"

	"github.com/coreos/go-semver/semver"

	"github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/hostapi"
)

// AmbiguousRuleError reports two rules that tie on match key and
// specificity for an overlapping host-version range. This is a
// configuration defect; the rule set refuses to build so the engine never
// has to pick one at runtime.
type AmbiguousRuleError struct {
	RuleA string
	RuleB string
	Key   string
}

func (e *AmbiguousRuleError) Error() string {
	return fmt.Sprintf("ambiguous rewrite rules %q and %q for %s", e.RuleA, e.RuleB, e.Key)
}

// RuleSet is the process-wide catalog of rewrite rules.
// Lifecycle: NewRuleSet -> Add -> Build -> concurrent reads.
type RuleSet struct {
	rules  []Rule
	byType map[string][]*Rule
	built  bool
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{byType: make(map[string][]*Rule)}
}

// Add validates and stages one rule. Ambiguity across rules is checked by
// Build, which sees the whole catalog.
func (s *RuleSet) Add(r Rule) error {
	if s.built {
		panic(errors.Frozen(errors.PhaseRules, "rule set"))
	}
	if err := r.validate(); err != nil {
		return err
	}
	s.rules = append(s.rules, r)
	return nil
}

// Build finalizes the rule set: it rejects duplicate ids and ambiguous
// pairs, indexes rules by declaring type, and freezes the set for
// concurrent reads by rewrite passes.
func (s *RuleSet) Build() error {
	if s.built {
		return nil
	}

	ids := make(map[string]bool, len(s.rules))
	for i := range s.rules {
		r := &s.rules[i]
		if ids[r.ID] {
			return errors.InvalidRule(r.ID, "duplicate rule id")
		}
		ids[r.ID] = true
		s.byType[r.Type] = append(s.byType[r.Type], r)
	}

	for _, group := range s.byType {
		// Deterministic candidate order: most specific first, then by id.
		sort.Slice(group, func(i, j int) bool {
			if group[i].Specificity() != group[j].Specificity() {
				return group[i].Specificity() > group[j].Specificity()
			}
			return group[i].ID < group[j].ID
		})
		if err := checkAmbiguity(group); err != nil {
			return err
		}
	}

	s.built = true
	return nil
}

// checkAmbiguity rejects two rules with identical keys and specificity
// whose version ranges overlap.
func checkAmbiguity(group []*Rule) error {
	for i, a := range group {
		for _, b := range group[i+1:] {
			if a.Specificity() != b.Specificity() {
				continue
			}
			if a.Member != b.Member {
				continue
			}
			if a.Sig != nil && b.Sig != nil && !a.Sig.Equal(*b.Sig) {
				continue
			}
			if !kindsOverlap(a.Kind, b.Kind) {
				continue
			}
			if !rangesOverlap(a.Applies, b.Applies) {
				continue
			}
			key := a.Type
			if a.Member != "" {
				key += "::" + a.Member
			}
			return &AmbiguousRuleError{RuleA: a.ID, RuleB: b.ID, Key: key}
		}
	}
	return nil
}

func kindsOverlap(a, b RefKind) bool {
	return a == RefAny || b == RefAny || a == b
}

func rangesOverlap(a, b hostapi.VersionRange) bool {
	aEndsBeforeB := a.To != nil && !b.From.LessThan(*a.To)
	bEndsBeforeA := b.To != nil && !a.From.LessThan(*b.To)
	return !aEndsBeforeB && !bEndsBeforeA
}

// hasRulesFor reports whether any rule covers the declaring type at the
// given host version, regardless of kind. A type whose members are bridged
// member-by-member is catalogued even without a type-level rule.
func (s *RuleSet) hasRulesFor(typePath string, hostVersion *semver.Version) bool {
	for _, r := range s.byType[typePath] {
		if r.Applies.Contains(hostVersion) {
			return true
		}
	}
	return false
}

// Len returns the number of rules in the set.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// candidates returns the rules for a declaring type that apply at the given
// host version and cover references of kind k, most specific first. The
// rule set must be built.
func (s *RuleSet) candidates(typePath string, kind RefKind, hostVersion *semver.Version) []*Rule {
	if !s.built {
		panic(errors.New(errors.PhaseRules, errors.KindInvalidInput).
			Detail("rule set used before Build").
			Build())
	}
	var out []*Rule
	for _, r := range s.byType[typePath] {
		if r.appliesToKind(kind) && r.Applies.Contains(hostVersion) {
			out = append(out, r)
		}
	}
	return out
}
