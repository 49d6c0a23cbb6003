package rewrite

import (
	"go.uber.org/zap"

	"github.com/modshim/modshim/errors"
	"github.com/modshim/modshim/facade"
	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/metadata"
)

// Engine rewrites broken references in mod modules. It holds only the
// process-wide, read-only rule set and facade registry, so one engine
// serves any number of concurrent passes.
type Engine struct {
	rules   *RuleSet
	facades *facade.Registry
}

// NewEngine builds the engine. The rule set is finalized here if the caller
// has not done so; any rule-set defect aborts engine construction. Redirect
// rules are cross-checked against the facade registry so a rule can never
// point at a facade or member that does not exist.
func NewEngine(rules *RuleSet, facades *facade.Registry) (*Engine, error) {
	if rules == nil || facades == nil {
		return nil, errors.New(errors.PhaseRules, errors.KindInvalidInput).
			Detail("engine requires a rule set and a facade registry").
			Build()
	}
	if err := rules.Build(); err != nil {
		return nil, err
	}

	for i := range rules.rules {
		r := &rules.rules[i]
		if r.Action != ActionRedirectToFacade {
			continue
		}
		desc := facades.Lookup(r.NewType)
		if desc == nil {
			return nil, errors.InvalidRule(r.ID, "redirect target facade "+r.NewType+" is not registered")
		}
		if r.NewMember != "" && !facadeExports(desc, r.NewMember) {
			return nil, errors.InvalidRule(r.ID, "facade "+r.NewType+" does not export "+r.NewMember)
		}
	}

	return &Engine{rules: rules, facades: facades}, nil
}

// facadeExports reports whether the facade surface includes member.
func facadeExports(d *facade.Descriptor, member string) bool {
	for _, m := range d.Methods {
		if m.Name == member {
			return true
		}
	}
	for _, f := range d.Fields {
		if f.Name == member || (f.HostModule == "" && f.AccessorExport() == member) {
			return true
		}
	}
	for _, c := range d.Conversions {
		if c.Name == member {
			return true
		}
	}
	return false
}

// Rewrite runs one pass over a module against the given host surface.
//
// Every entry of the Types, Methods, and Fields tables is visited exactly
// once; decisions are reference-local. The pass operates on a private copy
// and returns it only once complete, so the caller's module is never left
// half rewritten. Unresolved references are recorded in the report and do
// not abort the pass; whether such a module still loads is the mod
// loader's policy. There is no cancellation mid-pass: a pass either
// completes or fails outright on invalid input.
func (e *Engine) Rewrite(mod *metadata.Module, host *hostapi.Surface) (*metadata.Module, *Report, error) {
	if mod == nil || host == nil {
		return nil, nil, errors.New(errors.PhaseRewrite, errors.KindInvalidInput).
			Detail("rewrite requires a module and a host surface").
			Build()
	}

	out := mod.Clone()
	matcher := NewMatcher(e.rules, host)
	report := newReport(mod.Name, host.Version().String())
	log := Logger()

	for i, ref := range out.Types {
		rule, res := matcher.MatchType(ref)
		switch res {
		case MatchRule:
			newRef := metadata.TypeRef{Path: rule.NewType}
			out.Types[i] = newRef
			report.add(Outcome{
				Kind: OutcomeRewritten, RefKind: RefType,
				Old: ref.Path, New: newRef.Path, RuleID: rule.ID,
			})
			log.Debug("type reference rewritten",
				zap.String("module", out.Name),
				zap.String("from", ref.Path),
				zap.String("to", newRef.Path),
				zap.String("rule", rule.ID))
		case MatchUnresolved:
			report.add(Outcome{Kind: OutcomeUnresolved, RefKind: RefType, Old: ref.Path})
			log.Warn("unresolved type reference",
				zap.String("module", out.Name),
				zap.String("ref", ref.Path))
		default:
			report.add(Outcome{Kind: OutcomeUnchanged, RefKind: RefType, Old: ref.Path})
		}
	}

	for i, ref := range out.Methods {
		rule, res := matcher.MatchMethod(ref)
		switch res {
		case MatchRule:
			newRef := applyToMethod(rule, ref)
			out.Methods[i] = newRef
			report.add(Outcome{
				Kind: OutcomeRewritten, RefKind: RefMethod,
				Old: ref.String(), New: newRef.String(), RuleID: rule.ID,
			})
			log.Debug("method reference rewritten",
				zap.String("module", out.Name),
				zap.String("from", ref.String()),
				zap.String("to", newRef.String()),
				zap.String("rule", rule.ID))
		case MatchUnresolved:
			report.add(Outcome{Kind: OutcomeUnresolved, RefKind: RefMethod, Old: ref.String()})
			log.Warn("unresolved method reference",
				zap.String("module", out.Name),
				zap.String("ref", ref.String()),
				zap.String("sig", ref.Sig.String()))
		default:
			report.add(Outcome{Kind: OutcomeUnchanged, RefKind: RefMethod, Old: ref.String()})
		}
	}

	for i, ref := range out.Fields {
		rule, res := matcher.MatchField(ref)
		switch res {
		case MatchRule:
			newRef := applyToField(rule, ref)
			out.Fields[i] = newRef
			report.add(Outcome{
				Kind: OutcomeRewritten, RefKind: RefField,
				Old: ref.String(), New: newRef.String(), RuleID: rule.ID,
			})
			log.Debug("field reference rewritten",
				zap.String("module", out.Name),
				zap.String("from", ref.String()),
				zap.String("to", newRef.String()),
				zap.String("rule", rule.ID))
		case MatchUnresolved:
			report.add(Outcome{Kind: OutcomeUnresolved, RefKind: RefField, Old: ref.String()})
			log.Warn("unresolved field reference",
				zap.String("module", out.Name),
				zap.String("ref", ref.String()))
		default:
			report.add(Outcome{Kind: OutcomeUnchanged, RefKind: RefField, Old: ref.String()})
		}
	}

	log.Info("rewrite pass complete",
		zap.String("module", out.Name),
		zap.String("host_version", report.HostVersion),
		zap.Int("rewritten", report.Rewritten),
		zap.Int("unresolved", report.Unresolved),
		zap.Int("unchanged", report.Unchanged))

	return out, report, nil
}

// RewriteBytes decodes a mod binary, runs one pass, and re-encodes the
// result. Decoding failures are fatal for this module only.
func (e *Engine) RewriteBytes(name string, wasm []byte, host *hostapi.Surface) ([]byte, *Report, error) {
	mod, err := metadata.Decode(name, wasm)
	if err != nil {
		return nil, nil, err
	}
	out, report, err := e.Rewrite(mod, host)
	if err != nil {
		return nil, nil, err
	}
	return out.Encode(), report, nil
}

// applyToMethod produces the replacement reference. The signature and type
// index are never touched, so the mod's compiled call sites stay valid.
func applyToMethod(r *Rule, ref metadata.MethodRef) metadata.MethodRef {
	out := ref
	switch r.Action {
	case ActionRenameMember:
		out.Name = r.NewMember
	case ActionRetargetType:
		out.Type = r.NewType
	case ActionRedirectToFacade:
		out.Type = r.NewType
		if r.NewMember != "" {
			out.Name = r.NewMember
		}
	}
	return out
}

// applyToField produces the replacement reference, preserving value type
// and mutability.
func applyToField(r *Rule, ref metadata.FieldRef) metadata.FieldRef {
	out := ref
	switch r.Action {
	case ActionRenameMember:
		out.Name = r.NewMember
	case ActionRetargetType:
		out.Type = r.NewType
	case ActionRedirectToFacade:
		out.Type = r.NewType
		if r.NewMember != "" {
			out.Name = r.NewMember
		}
	}
	return out
}
