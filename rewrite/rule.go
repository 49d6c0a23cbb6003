package rewrite

import (
	"github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/facade"
	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/metadata"
)

// Action is what a matched rule does to the reference.
type Action int

const (
	// ActionRedirectToFacade retargets the reference into a facade module,
	// optionally renaming the member.
	ActionRedirectToFacade Action = iota
	// ActionRenameMember keeps the declaring type and changes the member name.
	ActionRenameMember
	// ActionRetargetType changes the declaring-type path, keeping member
	// names. Used when the host moved or re-versioned a type wholesale.
	ActionRetargetType
)

func (a Action) String() string {
	switch a {
	case ActionRedirectToFacade:
		return "redirect-to-facade"
	case ActionRenameMember:
		return "rename-member"
	case ActionRetargetType:
		return "retarget-type"
	default:
		return "unknown"
	}
}

// RefKind narrows which reference tables a rule applies to.
type RefKind int

const (
	RefAny RefKind = iota
	RefType
	RefMethod
	RefField
)

func (k RefKind) String() string {
	switch k {
	case RefType:
		return "type"
	case RefMethod:
		return "method"
	case RefField:
		return "field"
	default:
		return "any"
	}
}

// Rule pairs a match key with a rewrite action, scoped to the host-version
// range it bridges.
type Rule struct {
	ID string

	// Match key.
	Type   string              // original declaring-type path, required
	Member string              // member name; empty makes a type-only rule
	Kind   RefKind             // reference tables the rule applies to
	Sig    *metadata.Signature // exact signature; methods only

	// Action.
	Action    Action
	NewType   string // redirect/retarget target
	NewMember string // redirect/rename target member

	// Applies is the host-version range the rule bridges.
	Applies hostapi.VersionRange
}

// Specificity ranks of a rule's match key.
// Documented precedence: exact signature > member name > type only.
const (
	specificityType      = 1
	specificityMember    = 2
	specificitySignature = 3
)

// Specificity returns the rule's rank for the tie-break order.
func (r *Rule) Specificity() int {
	switch {
	case r.Sig != nil:
		return specificitySignature
	case r.Member != "":
		return specificityMember
	default:
		return specificityType
	}
}

// validate checks internal consistency of one rule.
func (r *Rule) validate() error {
	if r.ID == "" {
		return errors.InvalidRule("", "rule has no id")
	}
	if r.Type == "" {
		return errors.InvalidRule(r.ID, "match key has no declaring type")
	}
	if facade.IsFacadePath(r.Type) {
		return errors.InvalidRule(r.ID, "match key targets the facade namespace")
	}
	if r.Sig != nil {
		if r.Member == "" {
			return errors.InvalidRule(r.ID, "signature match requires a member name")
		}
		if r.Kind != RefMethod && r.Kind != RefAny {
			return errors.InvalidRule(r.ID, "signature match applies to methods only")
		}
	}
	if r.Applies.From == nil {
		return errors.InvalidRule(r.ID, "rule has no version range")
	}

	switch r.Action {
	case ActionRedirectToFacade:
		if !facade.IsFacadePath(r.NewType) {
			return errors.InvalidRule(r.ID, "redirect target is not a facade path")
		}
		if r.Member != "" && r.NewMember == "" {
			return errors.InvalidRule(r.ID, "member-level redirect has no target member")
		}
	case ActionRenameMember:
		if r.Member == "" || r.NewMember == "" {
			return errors.InvalidRule(r.ID, "rename requires member and target member")
		}
	case ActionRetargetType:
		if r.NewType == "" {
			return errors.InvalidRule(r.ID, "retarget has no target type")
		}
		if r.NewMember != "" {
			return errors.InvalidRule(r.ID, "retarget must not rename members")
		}
	default:
		return errors.InvalidRule(r.ID, "unknown action")
	}
	return nil
}

// appliesToKind reports whether the rule covers references of kind k.
func (r *Rule) appliesToKind(k RefKind) bool {
	if r.Kind == RefAny {
		// Type-only rules cover everything; member rules never cover the
		// Types table.
		return k != RefType || r.Member == ""
	}
	return r.Kind == k
}
