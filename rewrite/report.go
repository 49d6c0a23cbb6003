package rewrite

import (
	"github.com/google/uuid"
)

// OutcomeKind is the per-reference result category.
type OutcomeKind int

const (
	// OutcomeUnchanged means the reference needed no rewrite.
	OutcomeUnchanged OutcomeKind = iota
	// OutcomeRewritten means a rule redirected the reference.
	OutcomeRewritten
	// OutcomeUnresolved means the reference is broken and no rule covered
	// it. The mod loader decides whether to still load the module.
	OutcomeUnresolved
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRewritten:
		return "rewritten"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return "unchanged"
	}
}

// Outcome records the engine's decision for one reference.
type Outcome struct {
	Kind    OutcomeKind
	RefKind RefKind
	Old     string // reference as the mod declared it
	New     string // rewritten target; empty unless Kind is OutcomeRewritten
	RuleID  string // rule applied; empty unless Kind is OutcomeRewritten
}

// Report is the machine-readable record of one module's rewrite pass.
type Report struct {
	PassID      uuid.UUID
	Module      string
	HostVersion string
	Outcomes    []Outcome

	Unchanged  int
	Rewritten  int
	Unresolved int
}

func newReport(module, hostVersion string) *Report {
	return &Report{
		PassID:      uuid.New(),
		Module:      module,
		HostVersion: hostVersion,
	}
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case OutcomeRewritten:
		r.Rewritten++
	case OutcomeUnresolved:
		r.Unresolved++
	default:
		r.Unchanged++
	}
}

// UnresolvedRefs returns the unresolved outcomes with full context for
// user-facing diagnostics.
func (r *Report) UnresolvedRefs() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeUnresolved {
			out = append(out, o)
		}
	}
	return out
}

// HasRewrites reports whether the pass changed anything.
func (r *Report) HasRewrites() bool {
	return r.Rewritten > 0
}

// Summary aggregates per-module reports into session-level totals for the
// host's logging collaborator to render.
type Summary struct {
	Modules          int
	ModulesRewritten int
	ModulesFailed    int
	TotalRewritten   int
	TotalUnresolved  int
}

// Aggregate folds reports into a summary. Nil entries count as failed
// modules (their pass never produced a report).
func Aggregate(reports []*Report) Summary {
	var s Summary
	s.Modules = len(reports)
	for _, r := range reports {
		if r == nil {
			s.ModulesFailed++
			continue
		}
		if r.HasRewrites() {
			s.ModulesRewritten++
		}
		s.TotalRewritten += r.Rewritten
		s.TotalUnresolved += r.Unresolved
	}
	return s
}
